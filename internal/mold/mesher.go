package mold

// MeshHeightfield triangulates a heightfield into the relief solid. Vertex
// (y,x) maps to (x*scaleXY, y*scaleXY, hf[y,x]*scaleZ); vertices are laid out
// row-major so index = y*W + x. Each unit quad is split along a fixed
// diagonal into two triangles wound so the surface normal points toward +z:
// white (intensity 1.0) is the nearest, protruding point of the cast
// subject.
//
// For an HxW field the result has exactly H*W vertices and
// (H-1)*(W-1)*2 faces. Flat regions simply produce coplanar triangles; no
// degenerate filtering happens here.
func MeshHeightfield(hf *Heightfield, scaleXY, scaleZ float64) *Solid {
	w, h := hf.W, hf.H
	s := &Solid{
		Verts: make([]Vec3, 0, w*h),
		Faces: make([]Face, 0, (w-1)*(h-1)*2),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.Verts = append(s.Verts, Vec3{
				X: float64(x) * scaleXY,
				Y: float64(y) * scaleXY,
				Z: hf.At(y, x) * scaleZ,
			})
		}
	}

	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			v0 := y*w + x
			v1 := y*w + x + 1
			v2 := (y+1)*w + x
			v3 := (y+1)*w + x + 1
			s.Faces = append(s.Faces, Face{v0, v1, v2}, Face{v1, v3, v2})
		}
	}
	return s
}
