package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/candlr-app/candlr/internal/httputil"
	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/mold"
)

// debugHeightfield renders the preprocessed heightfield of a posted depth
// map as an HTML scatter plot. This is a debugging-only endpoint (no auth)
// to inspect what the mesher will see without exporting an STL.
// Query params:
//   - max_points (optional; default 8000) to reduce payload size
func (s *Server) debugHeightfield(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req imageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageBase64 == "" {
		httputil.BadRequest(w, "image_base64 is required")
		return
	}

	img, err := imagecodec.DecodeBase64Image(req.ImageBase64)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	hf, err := mold.HeightfieldFromImage(img)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	pre := mold.Preprocess(hf, s.gen.GaussianSigma, 100, 100, 30)
	hf = pre.Heightfield

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	// Downsample by a row/column stride to stay within maxPoints.
	stride := 1
	for (hf.W/stride)*(hf.H/stride) > maxPoints {
		stride++
	}

	data := make([]opts.ScatterData, 0, maxPoints)
	for y := 0; y < hf.H; y += stride {
		for x := 0; x < hf.W; x += stride {
			// Flip y so the plot matches image orientation.
			data = append(data, opts.ScatterData{
				Value: []interface{}{x, hf.H - 1 - y, hf.Data[y*hf.W+x]},
			})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Heightfield", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Preprocessed heightfield", Subtitle: fmt.Sprintf("%dx%d stride=%d", hf.W, hf.H, stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: hf.W - 1}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: hf.H - 1}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)
	scatter.AddSeries("height", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
