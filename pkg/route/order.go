package route

import (
	"math"

	"github.com/asim/quadtree"

	"pocketmill/pkg/geom"
)

var zeroPoint = quadtree.NewPoint(0, 0, nil)

// wireTree indexes wire endpoints so the nearest remaining wire can be found
// without scanning them all.
type wireTree struct {
	quadTree *quadtree.QuadTree
	width    float64
	height   float64
}

func newWireTree(wires []geom.Wire) *wireTree {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, w := range wires {
		for _, v := range []geom.Vector{w.Start(), w.End()} {
			minX = math.Min(minX, v.X)
			minY = math.Min(minY, v.Y)
			maxX = math.Max(maxX, v.X)
			maxY = math.Max(maxY, v.Y)
		}
	}
	midX := (maxX + minX) / 2
	midY := (maxY + minY) / 2
	halfWidth := maxX - midX
	halfHeight := maxY - midY

	// Add a small margin to avoid dropping endpoints at the edges
	halfWidth += 10
	halfHeight += 10

	aabb := quadtree.NewAABB(
		quadtree.NewPoint(midX, midY, nil),
		quadtree.NewPoint(halfWidth, halfHeight, nil))
	return &wireTree{
		quadTree: quadtree.New(aabb, 0, nil),
		width:    halfWidth * 2,
		height:   halfHeight * 2,
	}
}

func (t *wireTree) add(index int, x, y float64) {
	point := quadtree.NewPoint(x, y, nil)
	points := t.quadTree.KNearest(quadtree.NewAABB(point, zeroPoint), 1, nil)
	if len(points) > 0 {
		pointX, pointY := points[0].Coordinates()
		if pointX == x && pointY == y {
			wires := points[0].Data().(map[int]struct{})
			wires[index] = struct{}{}
			return
		}
	}
	wires := map[int]struct{}{index: {}}
	t.quadTree.Insert(quadtree.NewPoint(x, y, wires))
}

func (t *wireTree) remove(index int, x, y float64) {
	point := quadtree.NewPoint(x, y, nil)
	points := t.quadTree.KNearest(quadtree.NewAABB(point, zeroPoint), 1, nil)
	if len(points) > 0 {
		pointX, pointY := points[0].Coordinates()
		if pointX == x && pointY == y {
			wires := points[0].Data().(map[int]struct{})
			delete(wires, index)
			if len(wires) == 0 {
				t.quadTree.Remove(points[0])
			}
		}
	}
}

func (t *wireTree) nearest(x, y float64, maxCount int) []int {
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(x, y, nil),
		quadtree.NewPoint(t.width, t.height, nil),
	)
	points := t.quadTree.KNearest(aabb, maxCount+50, nil)

	var indices []int
	for _, point := range points {
		wires := point.Data().(map[int]struct{})
		for index := range wires {
			indices = append(indices, index)
		}
	}
	return indices
}

// OrderWires greedily reorders wires to minimize traverse distance, starting
// from the given position. A wire whose far end is closer than its start is
// reversed so the tool enters it from the near end.
func OrderWires(wires []geom.Wire, from geom.Vector) []geom.Wire {
	if len(wires) < 2 {
		return wires
	}

	tree := newWireTree(wires)
	for i, w := range wires {
		s, e := w.Start(), w.End()
		tree.add(i, s.X, s.Y)
		tree.add(i, e.X, e.Y)
	}

	used := make([]bool, len(wires))
	ordered := make([]geom.Wire, 0, len(wires))
	pos := from
	for len(ordered) < len(wires) {
		best := -1
		bestDist := math.Inf(1)
		for _, index := range tree.nearest(pos.X, pos.Y, 1) {
			if used[index] {
				continue
			}
			d := math.Min(
				pos.DistanceXY(wires[index].Start()),
				pos.DistanceXY(wires[index].End()))
			if d < bestDist {
				best = index
				bestDist = d
			}
		}
		if best < 0 {
			// Endpoint nodes can be exhausted before the wire list is;
			// fall back to a scan.
			for i := range wires {
				if !used[i] {
					best = i
					break
				}
			}
		}

		w := wires[best]
		used[best] = true
		s, e := w.Start(), w.End()
		tree.remove(best, s.X, s.Y)
		tree.remove(best, e.X, e.Y)
		if pos.DistanceXY(e) < pos.DistanceXY(s) {
			w = w.Reversed()
		}
		ordered = append(ordered, w)
		pos = w.End()
	}
	return ordered
}
