package mold

import "math"

// Box builds a closed axis-aligned box with the given extents, centred at
// center, with outward-facing winding.
func Box(extents, center Vec3) *Solid {
	hx, hy, hz := extents.X/2, extents.Y/2, extents.Z/2
	s := &Solid{
		Verts: []Vec3{
			{center.X - hx, center.Y - hy, center.Z - hz},
			{center.X + hx, center.Y - hy, center.Z - hz},
			{center.X + hx, center.Y + hy, center.Z - hz},
			{center.X - hx, center.Y + hy, center.Z - hz},
			{center.X - hx, center.Y - hy, center.Z + hz},
			{center.X + hx, center.Y - hy, center.Z + hz},
			{center.X + hx, center.Y + hy, center.Z + hz},
			{center.X - hx, center.Y + hy, center.Z + hz},
		},
		Faces: []Face{
			{0, 2, 1}, {0, 3, 2}, // bottom (-z)
			{4, 5, 6}, {4, 6, 7}, // top (+z)
			{0, 1, 5}, {0, 5, 4}, // front (-y)
			{3, 7, 6}, {3, 6, 2}, // back (+y)
			{0, 4, 7}, {0, 7, 3}, // left (-x)
			{1, 2, 6}, {1, 6, 5}, // right (+x)
		},
	}
	return s
}

// Cylinder builds a closed cylinder of the given radius and height around the
// z axis through center, with segments angular subdivisions and outward
// winding. Both ends are capped with triangle fans.
func Cylinder(radius, height float64, segments int, center Vec3) *Solid {
	if segments < 3 {
		segments = 3
	}
	z0 := center.Z - height/2
	z1 := center.Z + height/2

	s := &Solid{}
	for _, z := range []float64{z0, z1} {
		for i := 0; i < segments; i++ {
			theta := 2 * math.Pi * float64(i) / float64(segments)
			s.Verts = append(s.Verts, Vec3{
				X: center.X + radius*math.Cos(theta),
				Y: center.Y + radius*math.Sin(theta),
				Z: z,
			})
		}
	}
	bottomCenter := len(s.Verts)
	s.Verts = append(s.Verts, Vec3{center.X, center.Y, z0})
	topCenter := len(s.Verts)
	s.Verts = append(s.Verts, Vec3{center.X, center.Y, z1})

	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		bi, bj := i, j
		ti, tj := segments+i, segments+j
		s.Faces = append(s.Faces,
			Face{bi, bj, tj}, Face{bi, tj, ti}, // side, outward
			Face{bottomCenter, bj, bi}, // bottom cap (-z)
			Face{topCenter, ti, tj},    // top cap (+z)
		)
	}
	return s
}
