package mold

import (
	"fmt"

	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/imagelog"
	"github.com/candlr-app/candlr/internal/monitoring"
)

// Params are the generation parameters for one mold request. Bounds are
// enforced by Validate at the API boundary; the pipeline itself tolerates
// any in-bounds value.
type Params struct {
	WallThickness float64 `json:"wall_thickness"` // mm, [2,20]
	MaxWidth      float64 `json:"max_width"`      // mm, [20,300]
	MaxHeight     float64 `json:"max_height"`     // mm, [20,300]
	MaxDepth      float64 `json:"max_depth"`      // mm, [10,100]

	IncludeRegistrationMarks bool `json:"include_registration_marks"`
	IncludePouringChannel    bool `json:"include_pouring_channel"`

	WickEnabled  bool    `json:"wick_enabled"`
	WickDiameter float64 `json:"wick_diameter"` // mm
	WickLength   float64 `json:"wick_length"`   // mm above the attachment point
}

// DefaultParams mirrors the API schema defaults.
func DefaultParams() Params {
	return Params{
		WallThickness:            5,
		MaxWidth:                 100,
		MaxHeight:                100,
		MaxDepth:                 30,
		IncludeRegistrationMarks: true,
		IncludePouringChannel:    true,
		WickEnabled:              true,
		WickDiameter:             DefaultWickDiameter,
		WickLength:               DefaultWickLength,
	}
}

// Validate checks the documented parameter bounds.
func (p Params) Validate() error {
	if p.WallThickness < 2 || p.WallThickness > 20 {
		return fmt.Errorf("wall_thickness %.2f out of range [2,20]", p.WallThickness)
	}
	if p.MaxWidth < 20 || p.MaxWidth > 300 {
		return fmt.Errorf("max_width %.2f out of range [20,300]", p.MaxWidth)
	}
	if p.MaxHeight < 20 || p.MaxHeight > 300 {
		return fmt.Errorf("max_height %.2f out of range [20,300]", p.MaxHeight)
	}
	if p.MaxDepth < 10 || p.MaxDepth > 100 {
		return fmt.Errorf("max_depth %.2f out of range [10,100]", p.MaxDepth)
	}
	if p.WickEnabled {
		if p.WickDiameter <= 0 {
			return fmt.Errorf("wick_diameter %.2f must be positive", p.WickDiameter)
		}
		if p.WickLength <= 0 {
			return fmt.Errorf("wick_length %.2f must be positive", p.WickLength)
		}
	}
	return nil
}

// Generator runs the depth-map-to-STL pipeline. The zero value is not
// usable; construct with NewGenerator. Generators hold only tuning values
// and are safe for concurrent use: every request works on its own
// heightfield and solids.
type Generator struct {
	// GaussianSigma controls the mandatory denoising blur before meshing.
	GaussianSigma float64
	// SmoothLambda and SmoothIterations tune relief Laplacian smoothing.
	SmoothLambda     float64
	SmoothIterations int
}

// NewGenerator returns a generator with the standard tuning: sigma 2.0
// blur, three rounds of lambda 0.5 smoothing.
func NewGenerator() *Generator {
	return &Generator{
		GaussianSigma:    2.0,
		SmoothLambda:     0.5,
		SmoothIterations: 3,
	}
}

// Generate converts a base64 PNG depth map into a binary STL mold assembly.
// images may be nil to disable diagnostic captures. The request either
// completes and returns bytes or fails with an error; there are no retries
// and no shared state between calls.
func (g *Generator) Generate(depthMapB64 string, p Params, images *imagelog.Session) ([]byte, error) {
	timer := monitoring.NewStageTimer("mold")

	img, err := imagecodec.DecodeBase64Image(depthMapB64)
	if err != nil {
		return nil, fmt.Errorf("decode depth map: %w", err)
	}
	hf, err := HeightfieldFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", imagecodec.ErrDecode, err)
	}
	timer.Mark("decode depth map")

	pre := Preprocess(hf, g.GaussianSigma, p.MaxWidth, p.MaxHeight, p.MaxDepth)
	images.Save(1, "depth_map_preprocessed", pre.Heightfield.ToGray())
	timer.Mark(fmt.Sprintf("preprocess to %dx%d", pre.Heightfield.W, pre.Heightfield.H))

	relief := MeshHeightfield(pre.Heightfield, pre.ScaleXY, pre.ScaleZ)
	timer.Mark(fmt.Sprintf("mesh relief (%d faces)", len(relief.Faces)))

	LaplacianSmooth(relief, g.SmoothLambda, g.SmoothIterations)
	timer.Mark("smooth relief")

	container := ComposeContainer(relief, p)
	timer.Mark(fmt.Sprintf("compose container (%d solids)", len(container)))

	assembly := Concatenate(append([]*Solid{relief}, container...)...)
	RepairNormals(assembly)
	timer.Mark("combine and repair normals")

	out := MarshalBinarySTL(assembly)
	timer.Mark("export stl")
	timer.Total()
	return out, nil
}
