package mold

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// stlHeaderText fills the start of the 80-byte binary STL header. Fixed
// text, no timestamps: exporting the same assembly twice must produce
// byte-identical output.
const stlHeaderText = "candlr mold assembly"

// WriteBinarySTL serialises the solid in the de facto binary
// stereolithography layout: an 80-byte header, a little-endian uint32
// triangle count, then 50 bytes per triangle (unit normal and three
// vertices as float32 triples, plus a zero attribute word).
func WriteBinarySTL(w io.Writer, s *Solid) error {
	var header [80]byte
	copy(header[:], stlHeaderText)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s.Faces))); err != nil {
		return err
	}

	var tri [50]byte
	for i, f := range s.Faces {
		n := s.FaceNormal(i).Normalize()
		putVec3(tri[0:], n)
		putVec3(tri[12:], s.Verts[f[0]])
		putVec3(tri[24:], s.Verts[f[1]])
		putVec3(tri[36:], s.Verts[f[2]])
		tri[48], tri[49] = 0, 0
		if _, err := w.Write(tri[:]); err != nil {
			return err
		}
	}
	return nil
}

// MarshalBinarySTL returns the solid as binary STL bytes.
func MarshalBinarySTL(s *Solid) []byte {
	var buf bytes.Buffer
	buf.Grow(84 + 50*len(s.Faces))
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteBinarySTL(&buf, s)
	return buf.Bytes()
}

func putVec3(b []byte, v Vec3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}
