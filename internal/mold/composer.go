package mold

import (
	"math"

	"github.com/candlr-app/candlr/internal/monitoring"
)

// Wick defaults. A standard waxed wick is 1.5mm across and needs 10mm of
// free length above the relief surface to light.
const (
	DefaultWickDiameter = 1.5
	DefaultWickLength   = 10.0
	wickSegments        = 32
)

const funnelSegments = 16

// ComposeContainer derives every container solid from the relief bounding
// box and the generation parameters: base plate, retention groove, outer
// walls, and the optional wick bore, registration marks and pour funnel.
// Solids are returned in a fixed order so repeated runs produce identical
// assemblies.
//
// Groove and wall carving use box subtraction. When an operand is degenerate
// the feature is omitted and composition continues; the mold loses a
// convenience feature, not the cast.
func ComposeContainer(relief *Solid, p Params) []*Solid {
	t := p.WallThickness
	min, max := relief.Bounds()

	grooveWidth := t
	grooveDepth := t * 0.5
	grooveOffset := t * 0.5

	footprintW := max.X - min.X
	footprintH := max.Y - min.Y
	centerX := (min.X + max.X) / 2
	centerY := (min.Y + max.Y) / 2

	// Wall height sits one wall thickness above the relief peak. A wick can
	// only raise it, never lower it, and must be resolved before the walls
	// are built.
	wallTopZ := max.Z + t

	var wickAttachZ float64
	if p.WickEnabled {
		wickAttachZ = nearestVertexZ(relief, centerX, centerY)
		if wickTop := wickAttachZ + p.WickLength; wickTop > wallTopZ {
			wallTopZ = wickTop + t
			monitoring.Logf("mold: extended wall height to %.1fmm to accommodate wick", wallTopZ)
		}
	}

	totalW := footprintW + (grooveOffset+grooveWidth)*2 + t*2
	totalH := footprintH + (grooveOffset+grooveWidth)*2 + t*2

	solids := []*Solid{
		// Base plate, top flush with z=0.
		Box(Vec3{totalW, totalH, t}, Vec3{centerX, centerY, -t / 2}),
	}

	groove, err := BoxDifference(
		BoxSpec{
			Extents: Vec3{footprintW + (grooveOffset+grooveWidth)*2, footprintH + (grooveOffset+grooveWidth)*2, grooveDepth},
			Center:  Vec3{centerX, centerY, grooveDepth / 2},
		},
		BoxSpec{
			Extents: Vec3{footprintW + grooveOffset*2, footprintH + grooveOffset*2, grooveDepth + 1},
			Center:  Vec3{centerX, centerY, grooveDepth / 2},
		},
	)
	if err != nil {
		monitoring.Logf("mold: groove omitted: %v", err)
	} else {
		solids = append(solids, groove)
	}

	walls, err := BoxDifference(
		BoxSpec{
			Extents: Vec3{totalW, totalH, wallTopZ},
			Center:  Vec3{centerX, centerY, wallTopZ / 2},
		},
		BoxSpec{
			Extents: Vec3{totalW - t*2, totalH - t*2, wallTopZ + 1},
			Center:  Vec3{centerX, centerY, wallTopZ / 2},
		},
	)
	if err != nil {
		monitoring.Logf("mold: walls omitted: %v", err)
	} else {
		solids = append(solids, walls)
	}

	if p.WickEnabled {
		// The bore runs from below the base plate to wickLength above its
		// attachment point on the relief surface.
		bottom := -t - 1
		top := wickAttachZ + p.WickLength
		solids = append(solids, Cylinder(
			p.WickDiameter/2,
			top-bottom,
			wickSegments,
			Vec3{centerX, centerY, (top + bottom) / 2},
		))
	}

	if p.IncludeRegistrationMarks {
		solids = append(solids, registrationMarks(centerX, centerY, totalW, totalH, t)...)
	}

	if p.IncludePouringChannel {
		topR := 0.12 * math.Min(footprintW, footprintH)
		solids = append(solids, PourFunnel(
			topR,
			topR*0.4,
			0.4*p.MaxDepth,
			funnelSegments,
			Vec3{centerX, centerY, 0},
		))
	}

	return solids
}

// nearestVertexZ returns the z of the relief vertex closest in plan view to
// (x, y). Nearest-vertex lookup, deliberately not interpolated: the wick
// must attach to actual surface geometry.
func nearestVertexZ(s *Solid, x, y float64) float64 {
	bestD := math.Inf(1)
	var bestZ float64
	for _, v := range s.Verts {
		dx, dy := v.X-x, v.Y-y
		if d := dx*dx + dy*dy; d < bestD {
			bestD = d
			bestZ = v.Z
		}
	}
	return bestZ
}

// registrationMarks builds four inverted square pyramids, one per outer
// corner of the footprint, each inset by its own base edge so it lands on
// the base plate. Base edge 0.5t at z=0, apex 0.3t below.
func registrationMarks(centerX, centerY, totalW, totalH, t float64) []*Solid {
	edge := 0.5 * t
	depth := 0.3 * t
	insetX := totalW/2 - edge
	insetY := totalH/2 - edge

	marks := make([]*Solid, 0, 4)
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			marks = append(marks, pyramidMark(
				Vec3{centerX + sx*insetX, centerY + sy*insetY, 0},
				edge, depth,
			))
		}
	}
	return marks
}

// pyramidMark builds one inverted pyramid: a square base of the given edge
// length in the z=0 plane centred at c, apex pointing down to -depth. Four
// slanted side faces plus two triangles capping the base, all wound outward.
func pyramidMark(c Vec3, edge, depth float64) *Solid {
	h := edge / 2
	s := &Solid{
		Verts: []Vec3{
			{c.X - h, c.Y - h, c.Z},
			{c.X + h, c.Y - h, c.Z},
			{c.X + h, c.Y + h, c.Z},
			{c.X - h, c.Y + h, c.Z},
			{c.X, c.Y, c.Z - depth}, // apex
		},
		Faces: []Face{
			{0, 4, 1}, // -y side
			{1, 4, 2}, // +x side
			{2, 4, 3}, // +y side
			{3, 4, 0}, // -x side
			{0, 1, 2}, {0, 2, 3}, // base cap (+z)
		},
	}
	return s
}

// PourFunnel builds a frustum-shaped pouring void: a ring of topRadius in
// the z=0 plane narrowing to bottomRadius at z=-depth, with slanted side
// faces and a single fan capping the bottom ring. Faces are wound toward
// the interior so the funnel reads as an opening, not a plug; the top ring
// stays open.
func PourFunnel(topRadius, bottomRadius, depth float64, segments int, center Vec3) *Solid {
	if segments < 3 {
		segments = 3
	}
	s := &Solid{}
	rings := []struct{ r, z float64 }{
		{topRadius, center.Z},
		{bottomRadius, center.Z - depth},
	}
	for _, ring := range rings {
		for i := 0; i < segments; i++ {
			theta := 2 * math.Pi * float64(i) / float64(segments)
			s.Verts = append(s.Verts, Vec3{
				X: center.X + ring.r*math.Cos(theta),
				Y: center.Y + ring.r*math.Sin(theta),
				Z: ring.z,
			})
		}
	}
	bottomCenter := len(s.Verts)
	s.Verts = append(s.Verts, Vec3{center.X, center.Y, center.Z - depth})

	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		ti, tj := i, j
		bi, bj := segments+i, segments+j
		s.Faces = append(s.Faces,
			// Sides face the funnel axis.
			Face{ti, tj, bj}, Face{ti, bj, bi},
			// Bottom cap fan, facing up into the funnel.
			Face{bottomCenter, bi, bj},
		)
	}
	return s
}
