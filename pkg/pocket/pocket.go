// Package pocket clears enclosed regions: it composites depth-tagged faces
// into per-layer boundaries, fills each boundary with shrinking contours and
// expands the result across stepdown layers.
package pocket

import (
	"errors"
	"fmt"
	"sort"

	"pocketmill/pkg/clip"
	"pocketmill/pkg/gcode"
	"pocketmill/pkg/geom"
	"pocketmill/pkg/route"
	"pocketmill/pkg/tree"
)

var (
	ErrAboveTop    = errors.New("face is above the job plane")
	ErrMixedDepths = errors.New("mixed sequence depths")
	ErrStepdown    = errors.New("invalid stepdown")
)

// MaxStepdownCount bounds the number of generated stepdown layers. Hitting
// it means the stepdown configuration is broken.
var MaxStepdownCount = 100

// FillSequence is one continuous nested-contour chain cut at a single depth.
type FillSequence struct {
	Polys []geom.Polygon
	Depth float64
}

// DepthMap groups faces by depth and returns the distinct depths sorted
// shallowest first. Faces above the job plane are rejected.
func DepthMap(faces []geom.PathFace) (map[float64][]geom.PathFace, []float64, error) {
	byDepth := map[float64][]geom.PathFace{}
	for _, f := range faces {
		if f.Depth > 0 {
			return nil, nil, fmt.Errorf("%w: depth %v", ErrAboveTop, f.Depth)
		}
		byDepth[f.Depth] = append(byDepth[f.Depth], f)
	}
	depths := make([]float64, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(depths)))
	return byDepth, depths, nil
}

// BuildPocketOps merges the cut faces and avoid faces into one boundary set
// per distinct depth. A face at a deeper depth keeps the layers above it open,
// so each layer unions every face at its own depth or below, then subtracts
// the active holes and the avoid outers reaching down to that layer.
func BuildPocketOps(ops, avoids []geom.PathFace) ([]geom.PathFace, error) {
	opMap, depths, err := DepthMap(ops)
	if err != nil {
		return nil, err
	}
	avoidMap, avoidDepths, err := DepthMap(avoids)
	if err != nil {
		return nil, err
	}

	var result []geom.PathFace
	for i, depth := range depths {
		var outers, clips []geom.Polygon
		for _, d := range depths[i:] {
			for _, f := range opMap[d] {
				outers = append(outers, f.Outer)
				clips = append(clips, f.Inners...)
			}
		}
		for _, d := range avoidDepths {
			if d >= depth {
				for _, f := range avoidMap[d] {
					clips = append(clips, f.Outer)
				}
			}
		}

		var faces []geom.PathFace
		if len(clips) == 0 {
			faces = clip.Boolean(outers, nil, clip.Union)
		} else {
			faces = clip.Boolean(outers, clips, clip.Difference)
		}
		for _, f := range faces {
			f.Depth = depth
			result = append(result, f)
		}
	}
	return result, nil
}

// FillContourShrink fills one face with nested contours spaced step apart.
// Offsetting a contour inward can split it into disjoint loops around holes;
// each loop becomes a branch of the contour tree, and a loop that offsets to
// nothing locks its branch. The tree is then read out as chains the tool can
// cut without retracting between members.
func FillContourShrink(face geom.PathFace, step float64) []FillSequence {
	contours := tree.New(face.Outer)
	for {
		id, ok := contours.NextUnlocked()
		if !ok {
			break
		}
		shrunk := clip.Offset(contours.Value(id), -step)
		if len(shrunk) > 0 && len(face.Inners) > 0 {
			carved := clip.Boolean(shrunk, face.Inners, clip.Difference)
			shrunk = nil
			for _, f := range carved {
				shrunk = append(shrunk, f.Outer)
			}
		}
		if len(shrunk) == 0 {
			contours.Lock(id)
			continue
		}
		contours.Branch(id, shrunk...)
	}

	chains := contours.Sequences()
	seqs := make([]FillSequence, 0, len(chains))
	for _, polys := range chains {
		seqs = append(seqs, FillSequence{Polys: polys, Depth: face.Depth})
	}
	return seqs
}

// Stepdown clones the sequences at each intermediate depth between the start
// depth and their shared bottom depth, exclusive of the bottom itself. When
// the pocket sits fully inside an already-processed shallower pocket, layers
// that pocket has cleared are skipped by starting below its depth.
func Stepdown(seqs []FillSequence, shallower []geom.PathFace, stepdown float64) ([]FillSequence, error) {
	if len(seqs) == 0 || stepdown == 0 {
		return nil, nil
	}
	if stepdown < 0 {
		return nil, fmt.Errorf("%w: %v", ErrStepdown, stepdown)
	}
	bottom := seqs[0].Depth
	for _, s := range seqs[1:] {
		if s.Depth != bottom {
			return nil, fmt.Errorf("%w: %v and %v", ErrMixedDepths, bottom, s.Depth)
		}
	}

	cleared := 0.0
	if len(seqs[0].Polys) > 0 {
		outer := seqs[0].Polys[0]
		for _, p := range shallower {
			if p.Depth >= bottom && p.Depth < cleared && clip.Contains(p.Outer, outer) {
				cleared = p.Depth
			}
		}
	}

	var layers []FillSequence
	count := 0
	for z := cleared - stepdown; z > bottom; z -= stepdown {
		count++
		if count > MaxStepdownCount {
			return nil, fmt.Errorf("%w: more than %d layers", ErrStepdown, MaxStepdownCount)
		}
		for _, s := range seqs {
			layers = append(layers, FillSequence{Polys: s.Polys, Depth: z})
		}
	}
	return layers, nil
}

// Params configures one pocket clearing run.
type Params struct {
	Route    route.Params
	Stepover float64
	Stepdown float64
}

// Commands clears the given operation areas and returns the routed motion
// list. Faces are processed shallowest first so deeper pockets can skip
// layers already cleared by a containing shallower pocket.
func Commands(p Params, ops, avoids []geom.PathFace) ([]gcode.Command, error) {
	pocketOps, err := BuildPocketOps(ops, avoids)
	if err != nil {
		return nil, err
	}

	start := geom.Vector{Z: p.Route.RapidHeight + 1}
	router := route.New(p.Route, start)
	var shallower []geom.PathFace
	for _, face := range pocketOps {
		seqs := FillContourShrink(face, p.Stepover)
		layers, err := Stepdown(seqs, shallower, p.Stepdown)
		if err != nil {
			return nil, err
		}
		for _, seq := range append(layers, seqs...) {
			router.Polygons(seq.Polys, seq.Depth, p.Stepover)
		}
		shallower = append(shallower, face)
	}
	return router.Commands(), nil
}
