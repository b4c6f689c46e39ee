// moldgen converts a depth map PNG into a binary STL mold from the command
// line, without running the server. Useful for batch generation and for
// inspecting the pipeline with -plots.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/candlr-app/candlr/internal/imagecodec"
	"github.com/candlr-app/candlr/internal/mold"
	"github.com/candlr-app/candlr/internal/mold/debug"
)

var (
	inPath  = flag.String("in", "", "Input depth map image (PNG, JPEG or GIF)")
	outPath = flag.String("out", "mold.stl", "Output STL path")

	wall   = flag.Float64("wall", 5, "Wall thickness in mm [2,20]")
	width  = flag.Float64("width", 100, "Max footprint width in mm [20,300]")
	height = flag.Float64("height", 100, "Max footprint height in mm [20,300]")
	depth  = flag.Float64("depth", 30, "Max relief depth in mm [10,100]")

	marks   = flag.Bool("marks", true, "Include registration marks")
	channel = flag.Bool("channel", true, "Include pouring channel")

	wick         = flag.Bool("wick", true, "Include wick channel")
	wickDiameter = flag.Float64("wick-diameter", mold.DefaultWickDiameter, "Wick channel diameter in mm")
	wickLength   = flag.Float64("wick-length", mold.DefaultWickLength, "Wick channel length in mm")

	plotsDir = flag.String("plots", "", "Write heightfield diagnostic plots to this directory")
)

func main() {
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		log.Fatal("-in is required")
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *inPath, err)
	}

	p := mold.Params{
		WallThickness:            *wall,
		MaxWidth:                 *width,
		MaxHeight:                *height,
		MaxDepth:                 *depth,
		IncludeRegistrationMarks: *marks,
		IncludePouringChannel:    *channel,
		WickEnabled:              *wick,
		WickDiameter:             *wickDiameter,
		WickLength:               *wickLength,
	}
	if err := p.Validate(); err != nil {
		log.Fatalf("invalid parameters: %v", err)
	}

	if *plotsDir != "" {
		if err := writePlots(data, p); err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
	}

	stl, err := mold.NewGenerator().Generate(base64.StdEncoding.EncodeToString(data), p, nil)
	if err != nil {
		log.Fatalf("mold generation failed: %v", err)
	}

	if err := os.WriteFile(*outPath, stl, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", *outPath, err)
	}
	fmt.Printf("wrote %s (%d bytes, %d triangles)\n", *outPath, len(stl), (len(stl)-84)/50)
}

func writePlots(imageData []byte, p mold.Params) error {
	img, err := imagecodec.DecodeImage(imageData)
	if err != nil {
		return err
	}
	hf, err := mold.HeightfieldFromImage(img)
	if err != nil {
		return err
	}
	pre := mold.Preprocess(hf, 2.0, p.MaxWidth, p.MaxHeight, p.MaxDepth)

	plotter, err := debug.NewHeightfieldPlotter(*plotsDir)
	if err != nil {
		return err
	}
	heatmap, err := plotter.SaveHeatmap("depth_map", pre.Heightfield)
	if err != nil {
		return err
	}
	log.Printf("wrote %s", heatmap)

	profiles, err := plotter.SaveProfiles("depth_map", pre.Heightfield)
	if err != nil {
		return err
	}
	log.Printf("wrote %s", profiles)
	return nil
}
