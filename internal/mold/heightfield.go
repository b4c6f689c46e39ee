package mold

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
)

// MaxResolution caps the longer heightfield edge. Boolean-style mesh work
// scales superlinearly with face count, so inputs above this are resampled
// down before meshing.
const MaxResolution = 500

// Heightfield is a row-major grid of normalised depth intensities in [0,1].
// Higher intensity means nearer to the viewer: white maps to the highest
// relief point.
type Heightfield struct {
	W, H int
	Data []float64
}

// NewHeightfield allocates a zeroed heightfield of the given size.
func NewHeightfield(w, h int) *Heightfield {
	return &Heightfield{W: w, H: h, Data: make([]float64, w*h)}
}

// At returns the intensity at row y, column x.
func (hf *Heightfield) At(y, x int) float64 { return hf.Data[y*hf.W+x] }

// Set stores the intensity at row y, column x.
func (hf *Heightfield) Set(y, x int, v float64) { hf.Data[y*hf.W+x] = v }

// HeightfieldFromImage converts an image into a heightfield by reducing each
// pixel to its grayscale intensity and dividing by the channel maximum.
func HeightfieldFromImage(img image.Image) (*Heightfield, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("depth image too small: %dx%d (need at least 2x2)", w, h)
	}

	hf := NewHeightfield(w, h)
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			row := g.Pix[(y+b.Min.Y-g.Rect.Min.Y)*g.Stride:]
			for x := 0; x < w; x++ {
				hf.Data[y*w+x] = float64(row[x+b.Min.X-g.Rect.Min.X]) / 255
			}
		}
		return hf, nil
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// ITU-R BT.601 luma, matching image/color.GrayModel.
			lum := (299*r + 587*g + 114*bl) / 1000
			hf.Data[y*w+x] = float64(lum>>8) / 255
		}
	}
	return hf, nil
}

// ToGray renders the heightfield back into an 8-bit grayscale image,
// clamping values to [0,1].
func (hf *Heightfield) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, hf.W, hf.H))
	for i, v := range hf.Data {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		g.Pix[i] = uint8(v*255 + 0.5)
	}
	return g
}

// GaussianBlur applies a separable Gaussian filter in place. The kernel
// radius is ceil(3*sigma); edges are clamp-extended. A non-positive sigma is
// a no-op.
func (hf *Heightfield) GaussianBlur(sigma float64) {
	if sigma <= 0 {
		return
	}
	kernel := gaussianKernel(sigma)
	r := len(kernel) / 2

	tmp := make([]float64, len(hf.Data))
	// Horizontal pass.
	for y := 0; y < hf.H; y++ {
		row := hf.Data[y*hf.W : (y+1)*hf.W]
		out := tmp[y*hf.W : (y+1)*hf.W]
		for x := 0; x < hf.W; x++ {
			var sum float64
			for k, kv := range kernel {
				xi := clampInt(x+k-r, 0, hf.W-1)
				sum += kv * row[xi]
			}
			out[x] = sum
		}
	}
	// Vertical pass.
	for y := 0; y < hf.H; y++ {
		for x := 0; x < hf.W; x++ {
			var sum float64
			for k, kv := range kernel {
				yi := clampInt(y+k-r, 0, hf.H-1)
				sum += kv * tmp[yi*hf.W+x]
			}
			hf.Data[y*hf.W+x] = sum
		}
	}
}

func gaussianKernel(sigma float64) []float64 {
	r := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*r+1)
	for i := range kernel {
		d := float64(i - r)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize stretches the heightfield to span the full [0,1] range. A flat
// field is left untouched.
func (hf *Heightfield) Normalize() {
	min := floats.Min(hf.Data)
	max := floats.Max(hf.Data)
	span := max - min
	if span < 1e-8 {
		return
	}
	floats.AddConst(-min, hf.Data)
	floats.Scale(1/span, hf.Data)
}

// Resample returns a new heightfield of the given size using Catmull-Rom
// interpolation. The grid round-trips through an 8-bit grayscale image, the
// same quantisation the depth map arrived with.
func (hf *Heightfield) Resample(w, h int) *Heightfield {
	src := hf.ToGray()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	out := NewHeightfield(w, h)
	for i, p := range dst.Pix {
		out.Data[i] = float64(p) / 255
	}
	return out
}

// TargetWidth computes the in-plane footprint width in millimetres for a
// depth image of the given pixel size. When the image aspect ratio exceeds
// maxW/maxH the width is the limiting dimension; otherwise the height limits
// and the width follows from the aspect ratio.
func TargetWidth(w, h int, maxW, maxH float64) float64 {
	aspect := float64(w) / float64(h)
	if aspect > maxW/maxH {
		return maxW
	}
	return maxH * aspect
}

// PreprocessResult carries the heightfield together with the scale factors
// the mesher needs: scaleXY in mm per pixel and scaleZ in mm per unit
// intensity.
type PreprocessResult struct {
	Heightfield *Heightfield
	ScaleXY     float64
	ScaleZ      float64
}

// Preprocess denoises the decoded heightfield and bounds its resolution.
// The Gaussian pass is mandatory: unsmoothed depth data produces visibly
// faceted relief. When the longer edge exceeds MaxResolution the field is
// resampled proportionally and the in-plane scale recomputed so the physical
// footprint stays at targetW.
func Preprocess(hf *Heightfield, sigma, maxW, maxH, maxDepth float64) *PreprocessResult {
	hf.GaussianBlur(sigma)

	targetW := TargetWidth(hf.W, hf.H, maxW, maxH)
	scaleXY := targetW / float64(hf.W)

	if longest := maxInt(hf.W, hf.H); longest > MaxResolution {
		f := float64(MaxResolution) / float64(longest)
		nw := int(float64(hf.W) * f)
		nh := int(float64(hf.H) * f)
		hf = hf.Resample(nw, nh)
		scaleXY = targetW / float64(nw)
	}

	return &PreprocessResult{Heightfield: hf, ScaleXY: scaleXY, ScaleZ: maxDepth}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
