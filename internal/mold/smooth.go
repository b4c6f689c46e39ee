package mold

// LaplacianSmooth relaxes vertex positions toward the centroid of their
// topological neighbours: each iteration moves every vertex by lambda times
// the vector to that centroid. Topology is untouched: vertex and face counts
// and all indices are preserved.
//
// Only the relief is smoothed. Container solids keep their sharp planar
// geometry; running this over walls or grooves would blur functional
// containment features.
func LaplacianSmooth(s *Solid, lambda float64, iterations int) {
	if lambda == 0 || iterations <= 0 || len(s.Verts) == 0 {
		return
	}

	neighbors := vertexNeighbors(s)

	next := make([]Vec3, len(s.Verts))
	for it := 0; it < iterations; it++ {
		for i, v := range s.Verts {
			ns := neighbors[i]
			if len(ns) == 0 {
				next[i] = v
				continue
			}
			var centroid Vec3
			for _, n := range ns {
				centroid = centroid.Add(s.Verts[n])
			}
			centroid = centroid.Scale(1 / float64(len(ns)))
			next[i] = v.Add(centroid.Sub(v).Scale(lambda))
		}
		s.Verts, next = next, s.Verts
	}
}

// vertexNeighbors builds the one-ring adjacency: for each vertex, the set of
// vertices it shares an edge with.
func vertexNeighbors(s *Solid) [][]int {
	seen := make(map[[2]int]struct{}, len(s.Faces)*3)
	neighbors := make([][]int, len(s.Verts))

	addEdge := func(a, b int) {
		key := [2]int{a, b}
		if a > b {
			key = [2]int{b, a}
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		neighbors[a] = append(neighbors[a], b)
		neighbors[b] = append(neighbors[b], a)
	}

	for _, f := range s.Faces {
		addEdge(f[0], f[1])
		addEdge(f[1], f[2])
		addEdge(f[2], f[0])
	}
	return neighbors
}
