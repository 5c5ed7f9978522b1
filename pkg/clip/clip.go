// Package clip wraps the Clipper polygon engine for the offset and boolean
// primitives the pocketing pipeline is built on. Clipper works on int64
// coordinates, so every polygon is scaled up by a fixed factor on the way in
// and back down on the way out.
package clip

import (
	"math"

	clipper "github.com/ctessum/go.clipper"

	"pocketmill/pkg/geom"
)

// scale is the fixed multiplier applied to floating coordinates before they
// are handed to Clipper. Same factor pyclipper uses.
const scale = float64(1 << 31)

// OffsetPrecision controls the arc tolerance of round joins, in model units.
var OffsetPrecision = 0.01

// DegenerateArea is the enclosed area below which an offset or boolean result
// is treated as fully consumed and discarded.
var DegenerateArea = 1e-4

type Op int

const (
	Union Op = iota
	Difference
	Intersection
)

func (op Op) clipType() clipper.ClipType {
	switch op {
	case Difference:
		return clipper.CtDifference
	case Intersection:
		return clipper.CtIntersection
	default:
		return clipper.CtUnion
	}
}

func toPath(p geom.Polygon) clipper.Path {
	p = p.Closed()
	n := len(p) - 1 // Clipper paths are implicitly closed
	if n < 0 {
		n = 0
	}
	path := make(clipper.Path, 0, n)
	for _, pt := range p[:n] {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X * scale)),
			Y: clipper.CInt(math.Round(pt.Y * scale)),
		})
	}
	return path
}

func toPaths(polys []geom.Polygon) clipper.Paths {
	paths := make(clipper.Paths, 0, len(polys))
	for _, p := range polys {
		paths = append(paths, toPath(p))
	}
	return paths
}

func fromPath(path clipper.Path) geom.Polygon {
	poly := make(geom.Polygon, 0, len(path)+1)
	for _, pt := range path {
		poly = append(poly, geom.Point{
			X: float64(pt.X) / scale,
			Y: float64(pt.Y) / scale,
		})
	}
	return poly.Closed()
}

func degenerate(path clipper.Path) bool {
	return math.Abs(clipper.Area(path))/(scale*scale) < DegenerateArea
}

// Offset grows (delta > 0) or shrinks (delta < 0) a closed polygon with round
// corner joins. The result may be empty (polygon fully consumed) or contain
// several loops when the offset splits the input apart.
func Offset(p geom.Polygon, delta float64) []geom.Polygon {
	return OffsetAll([]geom.Polygon{p}, delta)
}

// OffsetAll offsets several closed polygons together.
func OffsetAll(polys []geom.Polygon, delta float64) []geom.Polygon {
	co := clipper.NewClipperOffset()
	co.MiterLimit = 2.0
	co.ArcTolerance = OffsetPrecision * scale
	added := false
	for _, p := range polys {
		path := toPath(p)
		if len(path) < 3 {
			continue
		}
		// Clipper ties offset direction to winding; normalize so that a
		// positive delta always grows the loop.
		if !clipper.Orientation(path) {
			for a, b := 0, len(path)-1; a < b; a, b = a+1, b-1 {
				path[a], path[b] = path[b], path[a]
			}
		}
		co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)
		added = true
	}
	if !added {
		return nil
	}
	var out []geom.Polygon
	for _, path := range co.Execute(delta * scale) {
		if degenerate(path) {
			continue
		}
		out = append(out, fromPath(path))
	}
	return out
}

// Boolean clips subjects against clips and returns the result as a forest of
// outer/hole groups. Holes belong to their immediately enclosing outer;
// islands nested inside holes come back as further top-level faces. The
// returned faces carry no depth; callers tag them.
func Boolean(subjects, clips []geom.Polygon, op Op) []geom.PathFace {
	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(toPaths(subjects), clipper.PtSubject, true)
	if len(clips) > 0 {
		c.AddPaths(toPaths(clips), clipper.PtClip, true)
	}
	tree, ok := c.Execute2(op.clipType(), clipper.PftNonZero, clipper.PftNonZero)
	if !ok || tree == nil {
		return nil
	}
	var faces []geom.PathFace
	var walk func(node *clipper.PolyNode)
	walk = func(node *clipper.PolyNode) {
		contour := node.Contour()
		if degenerate(contour) {
			return
		}
		face := geom.PathFace{Outer: fromPath(contour)}
		for _, hole := range node.Childs() {
			if !degenerate(hole.Contour()) {
				face.Inners = append(face.Inners, fromPath(hole.Contour()))
			}
			// islands inside the hole start a new containment group
			for _, island := range hole.Childs() {
				walk(island)
			}
		}
		faces = append(faces, face)
	}
	for _, top := range tree.Childs() {
		walk(top)
	}
	return faces
}

// OffsetFace offsets a face's outer loop and hole loops independently, then
// re-derives the outer/hole nesting with a boolean difference: offsetting
// holes outward can make them collide with each other or with the offset
// outer boundary.
func OffsetFace(face geom.PathFace, outerDelta, innerDelta float64) []geom.PathFace {
	outers := Offset(face.Outer, outerDelta)
	if len(outers) == 0 {
		return nil
	}
	var holes []geom.Polygon
	for _, inner := range face.Inners {
		holes = append(holes, Offset(inner, innerDelta)...)
	}
	var result []geom.PathFace
	if len(holes) == 0 {
		for _, outer := range outers {
			result = append(result, geom.PathFace{Outer: outer, Depth: face.Depth})
		}
		return result
	}
	for _, f := range Boolean(outers, holes, Difference) {
		f.Depth = face.Depth
		result = append(result, f)
	}
	return result
}

// Contains reports whether every vertex of inner lies inside or on outer.
func Contains(outer, inner geom.Polygon) bool {
	path := toPath(outer)
	if len(path) < 3 {
		return false
	}
	in := toPath(inner)
	for _, pt := range in {
		if clipper.PointInPolygon(pt, path) == 0 {
			return false
		}
	}
	return len(in) > 0
}
