package mold

import (
	"errors"
	"math"
	"testing"
)

func TestBoxVolumeAndOrientation(t *testing.T) {
	t.Parallel()

	b := Box(Vec3{2, 3, 4}, Vec3{10, -5, 1})
	if len(b.Verts) != 8 || len(b.Faces) != 12 {
		t.Fatalf("box has %d verts, %d faces", len(b.Verts), len(b.Faces))
	}
	if vol := b.SignedVolume(); math.Abs(vol-24) > 1e-9 {
		t.Errorf("signed volume = %v, want 24", vol)
	}
	min, max := b.Bounds()
	if min != (Vec3{9, -6.5, -1}) || max != (Vec3{11, -3.5, 3}) {
		t.Errorf("bounds = %+v..%+v", min, max)
	}
}

func TestCylinderVolumeApproachesPiR2H(t *testing.T) {
	t.Parallel()

	c := Cylinder(2, 10, 64, Vec3{5, 5, 3})
	want := math.Pi * 4 * 10
	vol := c.SignedVolume()
	// A 64-gon underestimates the circle slightly.
	if vol <= 0.98*want || vol >= want {
		t.Errorf("signed volume = %v, want just under %v", vol, want)
	}
}

func TestBoxDifferenceRing(t *testing.T) {
	t.Parallel()

	ring, err := BoxDifference(
		BoxSpec{Extents: Vec3{10, 8, 2}, Center: Vec3{0, 0, 1}},
		BoxSpec{Extents: Vec3{6, 4, 3}, Center: Vec3{0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ring.Verts) != 16 || len(ring.Faces) != 32 {
		t.Fatalf("ring has %d verts, %d faces", len(ring.Verts), len(ring.Faces))
	}

	// Volume of the ring = outer footprint minus inner footprint, at the
	// outer height.
	want := (10.0*8.0 - 6.0*4.0) * 2.0
	if vol := ring.SignedVolume(); math.Abs(vol-want) > 1e-9 {
		t.Errorf("signed volume = %v, want %v", vol, want)
	}

	// The ring spans the outer box's z range, not the cutter's.
	min, max := ring.Bounds()
	if min.Z != 0 || max.Z != 2 {
		t.Errorf("z range = [%v,%v], want [0,2]", min.Z, max.Z)
	}
}

func TestBoxDifferenceRingIsClosed(t *testing.T) {
	t.Parallel()

	ring, err := BoxDifference(
		BoxSpec{Extents: Vec3{10, 10, 5}, Center: Vec3{0, 0, 2.5}},
		BoxSpec{Extents: Vec3{4, 4, 6}, Center: Vec3{0, 0, 2.5}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := map[[2]int]int{}
	for _, f := range ring.Faces {
		for e := 0; e < 3; e++ {
			counts[edgeKey(f[e], f[(e+1)%3])]++
		}
	}
	for edge, n := range counts {
		if n != 2 {
			t.Fatalf("edge %v used %d times, want 2", edge, n)
		}
	}
}

func TestBoxDifferenceDegenerate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		outer, inner BoxSpec
	}{
		{
			name:  "inner wider than outer",
			outer: BoxSpec{Extents: Vec3{4, 4, 2}, Center: Vec3{0, 0, 1}},
			inner: BoxSpec{Extents: Vec3{6, 2, 3}, Center: Vec3{0, 0, 1}},
		},
		{
			name:  "inner shorter than outer",
			outer: BoxSpec{Extents: Vec3{10, 10, 4}, Center: Vec3{0, 0, 2}},
			inner: BoxSpec{Extents: Vec3{4, 4, 1}, Center: Vec3{0, 0, 2}},
		},
		{
			name:  "zero outer extent",
			outer: BoxSpec{Extents: Vec3{0, 10, 2}, Center: Vec3{0, 0, 1}},
			inner: BoxSpec{Extents: Vec3{4, 4, 3}, Center: Vec3{0, 0, 1}},
		},
		{
			name:  "inner offset outside outer",
			outer: BoxSpec{Extents: Vec3{10, 10, 2}, Center: Vec3{0, 0, 1}},
			inner: BoxSpec{Extents: Vec3{6, 6, 3}, Center: Vec3{4, 0, 1}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := BoxDifference(tc.outer, tc.inner); !errors.Is(err, ErrBooleanOp) {
				t.Fatalf("err = %v, want ErrBooleanOp", err)
			}
		})
	}
}
