package mold

// Concatenate merges solids into a single mesh, offsetting face indices by
// the cumulative vertex count. Vertices are copied, never shared, and no
// deduplication happens across solids; each part keeps its own boundary.
func Concatenate(solids ...*Solid) *Solid {
	out := &Solid{}
	for _, s := range solids {
		offset := len(out.Verts)
		out.Verts = append(out.Verts, s.Verts...)
		for _, f := range s.Faces {
			out.Faces = append(out.Faces, Face{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return out
}

// RepairNormals makes face winding consistent within every connected
// component and flips closed components whose consistent orientation encloses
// negative volume, so outward wins. Open components (the relief sheet, the
// funnel void) keep the orientation they were built with: their builders
// already chose the correct facing, and an open surface has no reliable
// inside. This is a normal-correction pass, not a manifold repair.
func RepairNormals(s *Solid) {
	if len(s.Faces) == 0 {
		return
	}

	adj, edgeUses := faceAdjacency(s)

	visited := make([]bool, len(s.Faces))
	for seed := range s.Faces {
		if visited[seed] {
			continue
		}

		// Flood the component, flipping neighbours that disagree with the
		// face they were reached from.
		component := []int{seed}
		visited[seed] = true
		queue := []int{seed}
		closed := true
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			for _, nb := range adj[fi] {
				if visited[nb.face] {
					continue
				}
				visited[nb.face] = true
				if !nb.opposed {
					// Shared edge traversed in the same direction on both
					// faces means inconsistent winding.
					f := s.Faces[nb.face]
					s.Faces[nb.face] = Face{f[0], f[2], f[1]}
					flipAdjacency(adj, nb.face)
				}
				component = append(component, nb.face)
				queue = append(queue, nb.face)
			}
		}

		for _, fi := range component {
			f := s.Faces[fi]
			for e := 0; e < 3; e++ {
				a, b := f[e], f[(e+1)%3]
				if edgeUses[edgeKey(a, b)] != 2 {
					closed = false
				}
			}
			if !closed {
				break
			}
		}
		if !closed {
			continue
		}

		var vol float64
		for _, fi := range component {
			f := s.Faces[fi]
			vol += s.Verts[f[0]].Dot(s.Verts[f[1]].Cross(s.Verts[f[2]]))
		}
		if vol < 0 {
			for _, fi := range component {
				f := s.Faces[fi]
				s.Faces[fi] = Face{f[0], f[2], f[1]}
			}
		}
	}
}

type faceNeighbor struct {
	face int
	// opposed is true when the shared edge runs in opposite directions on
	// the two faces, i.e. their winding already agrees.
	opposed bool
}

func edgeKey(a, b int) [2]int {
	if a > b {
		return [2]int{b, a}
	}
	return [2]int{a, b}
}

// faceAdjacency maps each face to the faces it shares an edge with, and
// counts how many faces use each undirected edge.
func faceAdjacency(s *Solid) ([][]faceNeighbor, map[[2]int]int) {
	type edgeRef struct {
		face    int
		forward bool // true when the face traverses the edge low->high
	}
	edges := make(map[[2]int][]edgeRef, len(s.Faces)*3/2)
	for fi, f := range s.Faces {
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			edges[edgeKey(a, b)] = append(edges[edgeKey(a, b)], edgeRef{face: fi, forward: a < b})
		}
	}

	adj := make([][]faceNeighbor, len(s.Faces))
	uses := make(map[[2]int]int, len(edges))
	for key, refs := range edges {
		uses[key] = len(refs)
		if len(refs) != 2 {
			continue
		}
		a, b := refs[0], refs[1]
		opposed := a.forward != b.forward
		adj[a.face] = append(adj[a.face], faceNeighbor{face: b.face, opposed: opposed})
		adj[b.face] = append(adj[b.face], faceNeighbor{face: a.face, opposed: opposed})
	}
	return adj, uses
}

// flipAdjacency toggles the opposed flag on every adjacency record touching
// face fi, in both directions, after fi's winding has been reversed.
func flipAdjacency(adj [][]faceNeighbor, fi int) {
	for i := range adj[fi] {
		adj[fi][i].opposed = !adj[fi][i].opposed
		nb := adj[fi][i].face
		for j := range adj[nb] {
			if adj[nb][j].face == fi {
				adj[nb][j].opposed = !adj[nb][j].opposed
			}
		}
	}
}
