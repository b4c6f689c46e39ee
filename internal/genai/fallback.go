package genai

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/candlr-app/candlr/internal/mold"
)

// fallbackUpscaleEdge is the longest-edge target for locally estimated
// depth maps, matching the 4K output the model would have produced.
const fallbackUpscaleEdge = 3840

// EstimateDepthMap derives a depth map from an image without the model:
// luminance, a denoising Gaussian pass, full-range normalisation, then a
// high-quality upscale. Quality is below a model-generated map but always
// usable, which keeps the request alive when the model is down.
func EstimateDepthMap(img image.Image) (*image.Gray, error) {
	hf, err := mold.HeightfieldFromImage(img)
	if err != nil {
		return nil, err
	}
	hf.GaussianBlur(2.0)
	hf.Normalize()
	return upscaleGray(hf.ToGray(), fallbackUpscaleEdge), nil
}

// upscaleGray scales the image up so its longest edge reaches minEdge,
// preserving aspect ratio. Images already at or above the target pass
// through untouched.
func upscaleGray(g *image.Gray, minEdge int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest >= minEdge {
		return g
	}
	f := float64(minEdge) / float64(longest)
	dst := image.NewGray(image.Rect(0, 0, int(float64(w)*f), int(float64(h)*f)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), g, b, xdraw.Src, nil)
	return dst
}
