// Package debug renders heightfield diagnostics as PNG plots. Used by the
// moldgen tool to inspect what the mesher sees before exporting an STL.
package debug

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/candlr-app/candlr/internal/mold"
)

// HeightfieldPlotter writes heightfield plots into a directory.
type HeightfieldPlotter struct {
	outputDir string
}

// NewHeightfieldPlotter creates the output directory if needed.
func NewHeightfieldPlotter(outputDir string) (*HeightfieldPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &HeightfieldPlotter{outputDir: outputDir}, nil
}

// heightGrid adapts a Heightfield to plotter.GridXYZ. Row 0 of the
// heightfield is the top of the image, so y is flipped for plotting.
type heightGrid struct {
	hf *mold.Heightfield
}

func (g heightGrid) Dims() (c, r int)   { return g.hf.W, g.hf.H }
func (g heightGrid) X(c int) float64    { return float64(c) }
func (g heightGrid) Y(r int) float64    { return float64(r) }
func (g heightGrid) Z(c, r int) float64 { return g.hf.Data[(g.hf.H-1-r)*g.hf.W+c] }

// SaveHeatmap renders the heightfield as a heatmap PNG and returns the
// file path.
func (p *HeightfieldPlotter) SaveHeatmap(name string, hf *mold.Heightfield) (string, error) {
	pl := plot.New()
	pl.Title.Text = "Heightfield"
	pl.X.Label.Text = "column"
	pl.Y.Label.Text = "row"

	pal := moreland.SmoothBlueRed().Palette(64)
	pl.Add(plotter.NewHeatMap(heightGrid{hf}, pal))

	file := filepath.Join(p.outputDir, fmt.Sprintf("%s_heatmap.png", name))
	if err := pl.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save heatmap: %w", err)
	}
	return file, nil
}

// SaveProfiles renders the center row and center column height profiles as
// a line plot PNG and returns the file path.
func (p *HeightfieldPlotter) SaveProfiles(name string, hf *mold.Heightfield) (string, error) {
	pl := plot.New()
	pl.Title.Text = "Heightfield center profiles"
	pl.X.Label.Text = "sample"
	pl.Y.Label.Text = "height"
	pl.Y.Min = 0
	pl.Y.Max = 1

	row := hf.H / 2
	rowPts := make(plotter.XYs, hf.W)
	for x := 0; x < hf.W; x++ {
		rowPts[x] = plotter.XY{X: float64(x), Y: hf.Data[row*hf.W+x]}
	}
	rowLine, err := plotter.NewLine(rowPts)
	if err != nil {
		return "", err
	}
	rowLine.Width = vg.Points(1)
	pl.Add(rowLine)
	pl.Legend.Add("center row", rowLine)

	col := hf.W / 2
	colPts := make(plotter.XYs, hf.H)
	for y := 0; y < hf.H; y++ {
		colPts[y] = plotter.XY{X: float64(y), Y: hf.Data[y*hf.W+col]}
	}
	colLine, err := plotter.NewLine(colPts)
	if err != nil {
		return "", err
	}
	colLine.Width = vg.Points(1)
	colLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	pl.Add(colLine)
	pl.Legend.Add("center column", colLine)

	file := filepath.Join(p.outputDir, fmt.Sprintf("%s_profiles.png", name))
	if err := pl.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return "", fmt.Errorf("failed to save profiles: %w", err)
	}
	return file, nil
}
