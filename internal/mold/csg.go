package mold

import (
	"errors"
	"fmt"
)

// ErrBooleanOp reports that a solid-vs-solid boolean could not be carried
// out because the operands were degenerate. Callers omit the affected
// feature and continue; a visually incomplete container still casts.
var ErrBooleanOp = errors.New("boolean operation failed")

// BoxSpec describes an axis-aligned box by its extents and centre, the form
// the composer derives from the relief bounding box.
type BoxSpec struct {
	Extents Vec3
	Center  Vec3
}

func (b BoxSpec) min() Vec3 { return b.Center.Sub(b.Extents.Scale(0.5)) }
func (b BoxSpec) max() Vec3 { return b.Center.Add(b.Extents.Scale(0.5)) }

// BoxDifference computes outer minus inner for two axis-aligned boxes and
// returns the resulting rectangular ring. The subtraction is well defined
// only when the inner footprint lies strictly inside the outer footprint and
// the inner box spans the outer box's full z range (the composer always
// builds the cutting box slightly taller). Anything else is degenerate and
// yields ErrBooleanOp.
//
// The ring is closed and wound outward: outer walls face away from the ring,
// inner walls face into the opening, and the annular top and bottom faces
// close it.
func BoxDifference(outer, inner BoxSpec) (*Solid, error) {
	const eps = 1e-9

	omin, omax := outer.min(), outer.max()
	imin, imax := inner.min(), inner.max()

	if outer.Extents.X <= eps || outer.Extents.Y <= eps || outer.Extents.Z <= eps {
		return nil, fmt.Errorf("%w: degenerate outer box %+v", ErrBooleanOp, outer.Extents)
	}
	if imin.X <= omin.X+eps || imin.Y <= omin.Y+eps ||
		imax.X >= omax.X-eps || imax.Y >= omax.Y-eps {
		return nil, fmt.Errorf("%w: inner footprint not strictly inside outer", ErrBooleanOp)
	}
	if imin.Z > omin.Z+eps || imax.Z < omax.Z-eps {
		return nil, fmt.Errorf("%w: inner box does not span outer z range", ErrBooleanOp)
	}

	z0, z1 := omin.Z, omax.Z

	// Rectangle corners in counter-clockwise order viewed from +z.
	outerRect := [4][2]float64{
		{omin.X, omin.Y}, {omax.X, omin.Y}, {omax.X, omax.Y}, {omin.X, omax.Y},
	}
	innerRect := [4][2]float64{
		{imin.X, imin.Y}, {imax.X, imin.Y}, {imax.X, imax.Y}, {imin.X, imax.Y},
	}

	s := &Solid{Verts: make([]Vec3, 0, 16), Faces: make([]Face, 0, 32)}
	for _, z := range []float64{z0, z1} {
		for _, c := range outerRect {
			s.Verts = append(s.Verts, Vec3{c[0], c[1], z})
		}
	}
	for _, z := range []float64{z0, z1} {
		for _, c := range innerRect {
			s.Verts = append(s.Verts, Vec3{c[0], c[1], z})
		}
	}
	// Vertex layout: outer bottom 0-3, outer top 4-7, inner bottom 8-11,
	// inner top 12-15.
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		ob, oj := i, j
		ot, otj := 4+i, 4+j
		ib, ibj := 8+i, 8+j
		it, itj := 12+i, 12+j

		s.Faces = append(s.Faces,
			Face{ob, oj, otj}, Face{ob, otj, ot}, // outer wall, outward
			Face{ib, it, itj}, Face{ib, itj, ibj}, // inner wall, faces the opening
			Face{ot, otj, itj}, Face{ot, itj, it}, // top annulus (+z)
			Face{ob, ibj, oj}, Face{ob, ib, ibj}, // bottom annulus (-z)
		)
	}
	return s, nil
}
