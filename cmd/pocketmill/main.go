package main

import (
	"fmt"
	"log"

	flag "github.com/spf13/pflag"

	"pocketmill/pkg/geom"
	"pocketmill/pkg/job"
)

type options struct {
	Name         string
	Feed         float64
	PlungeFeed   float64
	Speed        int
	ToolDiameter float64
	ToolNumber   int
	Width        float64
	Height       float64
	Depth        float64
	Island       float64
	Stepover     float64
	Stepdown     float64
	Output       string
}

func rectangle(w, h, z float64) []geom.Vector {
	return []geom.Vector{
		{X: -w / 2, Y: -h / 2, Z: z},
		{X: w / 2, Y: -h / 2, Z: z},
		{X: w / 2, Y: h / 2, Z: z},
		{X: -w / 2, Y: h / 2, Z: z},
		{X: -w / 2, Y: -h / 2, Z: z},
	}
}

func main() {
	var opts options
	flag.StringVar(&opts.Name, "name", "pocketmill", "Job name")
	flag.Float64Var(&opts.Feed, "feed", 300, "Cutting feed rate")
	flag.Float64Var(&opts.PlungeFeed, "plunge-feed", 100, "Plunge feed rate")
	flag.IntVar(&opts.Speed, "speed", 12000, "Spindle speed, RPM")
	flag.Float64Var(&opts.ToolDiameter, "tool-diameter", 3.175, "Tool diameter, mm")
	flag.IntVar(&opts.ToolNumber, "tool-number", 1, "Tool number")
	flag.Float64Var(&opts.Width, "width", 20, "Pocket width, mm")
	flag.Float64Var(&opts.Height, "height", 20, "Pocket height, mm")
	flag.Float64Var(&opts.Depth, "depth", 2, "Pocket depth, mm (positive)")
	flag.Float64Var(&opts.Island, "island", 0, "Square island side, mm (0 for none)")
	flag.Float64Var(&opts.Stepover, "stepover", 0, "Stepover as a multiple of tool radius (0 for default)")
	flag.Float64Var(&opts.Stepdown, "stepdown", 0, "Maximum depth per pass, mm (0 for one pass)")
	flag.StringVar(&opts.Output, "output", "", "Output file (default stdout)")
	flag.SetInterspersed(true)
	flag.Parse()

	outer := rectangle(opts.Width, opts.Height, -opts.Depth)
	var inners [][]geom.Vector
	if opts.Island > 0 {
		inners = append(inners, rectangle(opts.Island, opts.Island, -opts.Depth))
	}
	face, err := geom.NewPathFace(outer, inners)
	if err != nil {
		log.Fatalf("pocket geometry error: %s", err)
	}

	j := job.New(opts.Name, job.Metric, opts.Feed, opts.Speed).
		WithPlungeFeed(opts.PlungeFeed).
		WithTool(opts.ToolDiameter, opts.ToolNumber)

	pocketOpts := job.PocketOptions{Stepdown: opts.Stepdown}
	if opts.Stepover > 0 {
		pocketOpts.Stepover = &job.Offset{Mult: opts.Stepover}
	}
	j, err = j.Pocket([]geom.PathFace{face}, nil, pocketOpts)
	if err != nil {
		log.Fatalf("pocket error: %s", err)
	}

	if opts.Output == "" {
		fmt.Println(j.ToGcode())
		return
	}
	if err := j.SaveGcode(opts.Output); err != nil {
		log.Fatalf("write error: %s", err)
	}
}
