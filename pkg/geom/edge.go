package geom

import "math"

type EdgeKind int

const (
	EdgeLine EdgeKind = iota
	EdgeArc
	EdgeCurve
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeLine:
		return "line"
	case EdgeArc:
		return "arc"
	case EdgeCurve:
		return "curve"
	}
	return "unknown"
}

// Edge is one segment of a wire. Lines use Start/End only. Arcs additionally
// carry Center, Mid (a point on the arc, used for direction disambiguation)
// and Clockwise; a full circle has Start == End. Curves (splines, offset
// curves) carry a parametric sampler and are interpolated during routing.
type Edge struct {
	Kind      EdgeKind
	Start     Vector
	End       Vector
	Center    Vector
	Mid       Vector
	Clockwise bool

	// PointAt samples the curve at t in [0, 1]. Required for EdgeCurve,
	// optional elsewhere.
	PointAt func(t float64) Vector
}

// LineEdge builds a straight edge.
func LineEdge(start, end Vector) Edge {
	return Edge{Kind: EdgeLine, Start: start, End: end}
}

// ArcEdge builds a circular edge through mid. Direction is derived from the
// three points.
func ArcEdge(start, mid, end, center Vector) Edge {
	return Edge{
		Kind:      EdgeArc,
		Start:     start,
		End:       end,
		Center:    center,
		Mid:       mid,
		Clockwise: ArcClockwise(start, mid, end),
	}
}

// ArcClockwise reports the winding of the arc start->mid->end.
func ArcClockwise(start, mid, end Vector) bool {
	return end.XY().Minus(start.XY()).CrossProductZ(mid.XY().Minus(start.XY())) > 0
}

// Radius of an arc edge.
func (e Edge) Radius() float64 {
	return e.Start.DistanceXY(e.Center)
}

// IsFullCircle reports whether the arc closes on itself.
func (e Edge) IsFullCircle() bool {
	return e.Kind == EdgeArc && e.Start.DistanceXY(e.End) <= PlanarTolerance
}

// Position returns the point at parameter t in [0, 1] along the edge.
func (e Edge) Position(t float64) Vector {
	switch e.Kind {
	case EdgeLine:
		return Vector{
			X: e.Start.X + (e.End.X-e.Start.X)*t,
			Y: e.Start.Y + (e.End.Y-e.Start.Y)*t,
			Z: e.Start.Z + (e.End.Z-e.Start.Z)*t,
		}
	case EdgeArc:
		a0 := math.Atan2(e.Start.Y-e.Center.Y, e.Start.X-e.Center.X)
		sweep := e.sweep()
		a := a0 + sweep*t
		r := e.Radius()
		return Vector{
			X: e.Center.X + r*math.Cos(a),
			Y: e.Center.Y + r*math.Sin(a),
			Z: e.Start.Z + (e.End.Z-e.Start.Z)*t,
		}
	default:
		return e.PointAt(t)
	}
}

// sweep returns the signed angular extent of an arc (negative for clockwise).
func (e Edge) sweep() float64 {
	if e.IsFullCircle() {
		if e.Clockwise {
			return -2 * math.Pi
		}
		return 2 * math.Pi
	}
	a0 := math.Atan2(e.Start.Y-e.Center.Y, e.Start.X-e.Center.X)
	a1 := math.Atan2(e.End.Y-e.Center.Y, e.End.X-e.Center.X)
	sweep := a1 - a0
	if e.Clockwise {
		for sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	} else {
		for sweep <= 0 {
			sweep += 2 * math.Pi
		}
	}
	return sweep
}

// Length returns the edge length; curves are approximated by sampling.
func (e Edge) Length() float64 {
	switch e.Kind {
	case EdgeLine:
		return e.Start.Distance(e.End)
	case EdgeArc:
		return math.Abs(e.sweep()) * e.Radius()
	default:
		const samples = 16
		total := 0.0
		prev := e.Position(0)
		for i := 1; i <= samples; i++ {
			next := e.Position(float64(i) / samples)
			total += prev.Distance(next)
			prev = next
		}
		return total
	}
}

// Reversed returns the edge traversed end to start.
func (e Edge) Reversed() Edge {
	out := e
	out.Start, out.End = e.End, e.Start
	out.Clockwise = !e.Clockwise
	if e.PointAt != nil {
		inner := e.PointAt
		out.PointAt = func(t float64) Vector { return inner(1 - t) }
	}
	return out
}

// Wire is an ordered, connected chain of edges.
type Wire []Edge

func (w Wire) Start() Vector {
	if len(w) == 0 {
		return Vector{}
	}
	return w[0].Start
}

func (w Wire) End() Vector {
	if len(w) == 0 {
		return Vector{}
	}
	return w[len(w)-1].End
}

// Length is the summed edge length.
func (w Wire) Length() float64 {
	total := 0.0
	for _, e := range w {
		total += e.Length()
	}
	return total
}

// Reversed returns the wire traversed tail-first.
func (w Wire) Reversed() Wire {
	out := make(Wire, len(w))
	for i, e := range w {
		out[len(w)-1-i] = e.Reversed()
	}
	return out
}

// AtDepth returns a copy of the wire relocated to the given Z.
func (w Wire) AtDepth(z float64) Wire {
	shift := func(v Vector) Vector { return Vector{X: v.X, Y: v.Y, Z: z} }
	out := make(Wire, len(w))
	for i, e := range w {
		ne := e
		ne.Start = shift(e.Start)
		ne.End = shift(e.End)
		ne.Center = shift(e.Center)
		ne.Mid = shift(e.Mid)
		if e.PointAt != nil {
			inner := e.PointAt
			ne.PointAt = func(t float64) Vector { return shift(inner(t)) }
		}
		out[i] = ne
	}
	return out
}

// PolygonWire builds a wire of line edges from a closed polygon at depth z.
func PolygonWire(p Polygon, z float64) Wire {
	p = p.Closed()
	w := make(Wire, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		w = append(w, LineEdge(
			Vector{X: p[i-1].X, Y: p[i-1].Y, Z: z},
			Vector{X: p[i].X, Y: p[i].Y, Z: z},
		))
	}
	return w
}
