// Package route turns geometry into ordered machine motion. It owns the
// transitions between cuts: retracting, traversing and plunging back in.
package route

import (
	"errors"
	"fmt"
	"math"

	"pocketmill/pkg/gcode"
	"pocketmill/pkg/geom"
)

// ErrUnsupportedEdge is returned when a wire contains an edge kind that has
// no machine motion equivalent.
var ErrUnsupportedEdge = errors.New("unsupported edge kind")

// PlungeTolerance is the largest XY drift under which the router plunges in
// place instead of retracting and traversing.
var PlungeTolerance = 0.001

// Params holds the feeds and clearance heights shared by every move the
// router produces.
type Params struct {
	Feed        float64
	PlungeFeed  float64
	RapidHeight float64
	SafeHeight  float64

	// CurvePrecision is the maximum segment length used when flattening
	// free-form curves into line moves.
	CurvePrecision float64
}

// Router accumulates a command sequence while tracking the tool position, so
// that each transition can decide between a plunge and a full retract cycle.
type Router struct {
	params Params
	seq    gcode.Sequence
	moved  bool
}

// New returns a router whose tool currently sits at start.
func New(params Params, start geom.Vector) *Router {
	return &Router{params: params, seq: gcode.Sequence{Start: start, End: start}}
}

// Commands returns everything routed so far.
func (r *Router) Commands() []gcode.Command { return r.seq.Commands }

// Position returns the current tool position.
func (r *Router) Position() geom.Vector { return r.seq.End }

func (r *Router) emit(c gcode.Command) {
	r.seq.Append(c)
	r.moved = true
}

// Transit moves the tool to target without cutting. A target straight below
// the end of an earlier cut is reached with a plain plunge; anything else
// retracts to the rapid height, traverses, drops to the safe height and
// plunges the rest.
func (r *Router) Transit(target geom.Vector) {
	if r.moved && r.seq.End.DistanceXY(target) <= PlungeTolerance && target.Z < r.seq.End.Z {
		r.emit(gcode.PlungeAbs(target.Z).WithFeed(r.params.PlungeFeed))
		return
	}
	r.emit(gcode.RetractAbs(r.params.RapidHeight))
	r.emit(gcode.RapidAbs(gcode.XY(target.X, target.Y)))
	if r.params.SafeHeight > target.Z {
		r.emit(gcode.RapidAbs(gcode.Z(r.params.SafeHeight)))
	}
	r.emit(gcode.PlungeAbs(target.Z).WithFeed(r.params.PlungeFeed))
}

// Cut feeds linearly to target.
func (r *Router) Cut(target geom.Vector) {
	r.emit(gcode.CutAbs(gcode.XYZ(target.X, target.Y, target.Z)).WithFeed(r.params.Feed))
}

// Polygons routes a chain of nested contours at the given depth. step is the
// spacing the contours were generated with: when the next contour starts
// within that distance of the tool, the router cuts straight over to it
// instead of retracting.
func (r *Router) Polygons(chain []geom.Polygon, depth, step float64) {
	for i, poly := range chain {
		if len(poly) < 2 {
			continue
		}
		if i > 0 {
			nearest, edge, dist := poly.NearestPoint(r.seq.End.XY())
			if dist <= step {
				// Hop over in-plane and restart the loop at the landing point.
				r.Cut(geom.Vector{X: nearest.X, Y: nearest.Y, Z: depth})
				r.cutLoop(poly.Reindex(edge, nearest), depth)
				continue
			}
		}
		start := poly[0]
		r.Transit(geom.Vector{X: start.X, Y: start.Y, Z: depth})
		r.cutLoop(poly, depth)
	}
}

func (r *Router) cutLoop(poly geom.Polygon, depth float64) {
	for _, pt := range poly[1:] {
		r.Cut(geom.Vector{X: pt.X, Y: pt.Y, Z: depth})
	}
}

// Wire routes one wire start to end, transiting to its start point first.
func (r *Router) Wire(w geom.Wire) error {
	if len(w) == 0 {
		return nil
	}
	r.Transit(w.Start())
	for _, e := range w {
		if err := r.edge(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) edge(e geom.Edge) error {
	switch e.Kind {
	case geom.EdgeLine:
		r.Cut(e.End)
	case geom.EdgeArc:
		if e.IsFullCircle() {
			// Controllers disagree on full-circle arcs, so emit two halves.
			half := geom.Edge{
				Kind:      geom.EdgeArc,
				Start:     e.Start,
				Mid:       e.Position(0.25),
				End:       e.Position(0.5),
				Center:    e.Center,
				Clockwise: e.Clockwise,
			}
			r.arc(half)
			half.Start = half.End
			half.Mid = e.Position(0.75)
			half.End = e.End
			r.arc(half)
			return nil
		}
		r.arc(e)
	case geom.EdgeCurve:
		n := int(math.Ceil(e.Length() / r.params.CurvePrecision))
		if n < 2 {
			n = 2
		}
		for i := 1; i <= n; i++ {
			r.Cut(e.Position(float64(i) / float64(n)))
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedEdge, e.Kind)
	}
	return nil
}

func (r *Router) arc(e geom.Edge) {
	end := gcode.XYZ(e.End.X, e.End.Y, e.End.Z)
	center := gcode.XYZ(e.Center.X, e.Center.Y, e.Center.Z)
	mid := gcode.XYZ(e.Mid.X, e.Mid.Y, e.Mid.Z)
	if e.Clockwise {
		r.emit(gcode.ArcCW(end, center, mid).WithFeed(r.params.Feed))
	} else {
		r.emit(gcode.ArcCCW(end, center, mid).WithFeed(r.params.Feed))
	}
}
