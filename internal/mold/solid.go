// Package mold converts grayscale depth maps into printable silicone-mold
// shells. The pipeline runs heightfield preprocessing, relief meshing,
// Laplacian smoothing, container composition and mesh combination, then
// serialises the result as binary STL.
package mold

import "math"

// Vec3 is a point or direction in mold space. Units are millimetres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + u.
func (v Vec3) Add(u Vec3) Vec3 { return Vec3{v.X + u.X, v.Y + u.Y, v.Z + u.Z} }

// Sub returns v - u.
func (v Vec3) Sub(u Vec3) Vec3 { return Vec3{v.X - u.X, v.Y - u.Y, v.Z - u.Z} }

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// Dot returns the dot product of v and u.
func (v Vec3) Dot(u Vec3) float64 { return v.X*u.X + v.Y*u.Y + v.Z*u.Z }

// Cross returns the cross product of v and u.
func (v Vec3) Cross(u Vec3) Vec3 {
	return Vec3{
		v.Y*u.Z - v.Z*u.Y,
		v.Z*u.X - v.X*u.Z,
		v.X*u.Y - v.Y*u.X,
	}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or the zero vector if v is
// degenerate.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// Face is an ordered triple of indices into the owning solid's vertex
// array. Winding order determines the outward normal direction.
type Face [3]int

// Solid is one independently constructed mesh part of the final assembly:
// relief, base plate, wall ring, groove ring, wick bore, registration mark
// or pour funnel. Each solid owns its vertex set; vertices are never shared
// across solids before combination.
type Solid struct {
	Verts []Vec3
	Faces []Face
}

// Bounds returns the axis-aligned bounding box of the solid's vertices.
// A solid with no vertices returns two zero vectors.
func (s *Solid) Bounds() (min, max Vec3) {
	if len(s.Verts) == 0 {
		return Vec3{}, Vec3{}
	}
	min, max = s.Verts[0], s.Verts[0]
	for _, v := range s.Verts[1:] {
		if v.X < min.X {
			min.X = v.X
		}
		if v.Y < min.Y {
			min.Y = v.Y
		}
		if v.Z < min.Z {
			min.Z = v.Z
		}
		if v.X > max.X {
			max.X = v.X
		}
		if v.Y > max.Y {
			max.Y = v.Y
		}
		if v.Z > max.Z {
			max.Z = v.Z
		}
	}
	return min, max
}

// Translate moves every vertex by d.
func (s *Solid) Translate(d Vec3) {
	for i := range s.Verts {
		s.Verts[i] = s.Verts[i].Add(d)
	}
}

// FaceNormal returns the (unnormalised) normal of face i following its
// winding order.
func (s *Solid) FaceNormal(i int) Vec3 {
	f := s.Faces[i]
	a := s.Verts[f[0]]
	b := s.Verts[f[1]]
	c := s.Verts[f[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// SignedVolume returns the signed volume enclosed by the solid, computed as
// the sum of signed tetrahedron volumes against the origin. Positive for a
// closed solid with outward-facing winding. For open surfaces the value is
// only a heuristic.
func (s *Solid) SignedVolume() float64 {
	var vol float64
	for _, f := range s.Faces {
		a := s.Verts[f[0]]
		b := s.Verts[f[1]]
		c := s.Verts[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

// FlipFaces reverses the winding order of every face, inverting all normals.
func (s *Solid) FlipFaces() {
	for i, f := range s.Faces {
		s.Faces[i] = Face{f[0], f[2], f[1]}
	}
}
