package geom

import (
	"errors"
	"math"
)

// ErrNotPlanar is returned when a face's boundary loops do not all lie on a
// single Z plane.
var ErrNotPlanar = errors.New("face is not planar")

// PlanarTolerance is the maximum Z spread a loop may have and still count as
// flat, and the general point-coincidence tolerance used when stitching paths.
var PlanarTolerance = 0.001

type Point struct {
	X float64
	Y float64
}

type Vector struct {
	X float64
	Y float64
	Z float64
}

func (p Point) Minus(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

func (a Point) CrossProductZ(b Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

func (a Point) Dot(b Point) float64 {
	return a.X*b.X + a.Y*b.Y
}

func (v Vector) XY() Point {
	return Point{X: v.X, Y: v.Y}
}

func (v Vector) Distance(o Vector) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vector) DistanceXY(o Vector) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Polygon is a closed loop of 2D points: the first point is repeated at the
// end. Winding direction is significant.
type Polygon []Point

// Closed returns the polygon with the first point repeated at the end,
// copying only if the loop was open.
func (p Polygon) Closed() Polygon {
	if len(p) < 2 {
		return p
	}
	if p[0] == p[len(p)-1] {
		return p
	}
	out := make(Polygon, len(p)+1)
	copy(out, p)
	out[len(p)] = p[0]
	return out
}

// Length returns the perimeter of the closed loop.
func (p Polygon) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i-1].Distance(p[i])
	}
	return total
}

// Area returns the signed area of the loop (positive for counterclockwise).
func (p Polygon) Area() float64 {
	if len(p) < 4 {
		return 0
	}
	a := 0.0
	for i := 1; i < len(p); i++ {
		a += p[i-1].CrossProductZ(p[i])
	}
	return a / 2
}

// Reverse returns the loop traversed in the opposite direction.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// NearestPoint returns the point on the polygon's boundary closest to pt,
// interpolating along edges rather than snapping to vertices, together with
// the index of the edge it lies on and the distance.
func (p Polygon) NearestPoint(pt Point) (Point, int, float64) {
	best := Point{}
	bestEdge := 0
	bestDist := math.Inf(1)
	for i := 1; i < len(p); i++ {
		c := nearestOnSegment(p[i-1], p[i], pt)
		d := c.Distance(pt)
		if d < bestDist {
			best = c
			bestEdge = i - 1
			bestDist = d
		}
	}
	return best, bestEdge, bestDist
}

func nearestOnSegment(a, b, pt Point) Point {
	ab := b.Minus(a)
	length2 := ab.Dot(ab)
	if length2 == 0 {
		return a
	}
	t := pt.Minus(a).Dot(ab) / length2
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return Point{X: a.X + ab.X*t, Y: a.Y + ab.Y*t}
}

// Reindex rotates the loop so it starts and ends at pt, which must lie on
// edge i (between p[i] and p[i+1]). Coincident points are merged so the
// result has no zero-length edges.
func (p Polygon) Reindex(edge int, pt Point) Polygon {
	if len(p) < 2 {
		return p
	}
	out := make(Polygon, 0, len(p)+2)
	out = append(out, pt)
	// walk forward from the far end of the split edge, all the way around
	n := len(p) - 1 // p[n] duplicates p[0]
	for k := 1; k <= n; k++ {
		v := p[(edge+k)%n]
		if v.Distance(out[len(out)-1]) > PlanarTolerance {
			out = append(out, v)
		}
	}
	if out[len(out)-1].Distance(pt) > PlanarTolerance {
		out = append(out, pt)
	} else {
		out[len(out)-1] = pt
	}
	return out
}

// PathFace is a flat polygon with holes at a fixed Z depth: material exists
// inside Outer and outside every polygon in Inners.
type PathFace struct {
	Outer  Polygon
	Inners []Polygon
	Depth  float64
}

// NewPathFace builds a PathFace from a planar outer loop and inner hole
// loops supplied by the CAD boundary extractor. All points of all loops must
// share one Z coordinate within PlanarTolerance; that coordinate becomes the
// face depth.
func NewPathFace(outer []Vector, inners [][]Vector) (PathFace, error) {
	if len(outer) == 0 {
		return PathFace{}, errors.New("empty outer loop")
	}
	z := outer[0].Z
	flatten := func(loop []Vector) (Polygon, error) {
		poly := make(Polygon, 0, len(loop))
		for _, v := range loop {
			if math.Abs(v.Z-z) > PlanarTolerance {
				return nil, ErrNotPlanar
			}
			poly = append(poly, v.XY())
		}
		return poly.Closed(), nil
	}

	face := PathFace{Depth: z}
	var err error
	if face.Outer, err = flatten(outer); err != nil {
		return PathFace{}, err
	}
	for _, inner := range inners {
		poly, err := flatten(inner)
		if err != nil {
			return PathFace{}, err
		}
		face.Inners = append(face.Inners, poly)
	}
	return face, nil
}
