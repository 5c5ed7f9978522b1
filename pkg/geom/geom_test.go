package geom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func square(size float64) Polygon {
	return Polygon{
		{X: 0, Y: 0},
		{X: size, Y: 0},
		{X: size, Y: size},
		{X: 0, Y: size},
		{X: 0, Y: 0},
	}
}

func TestPolygonClosed(t *testing.T) {
	open := Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	closed := open.Closed()
	if closed[0] != closed[len(closed)-1] {
		t.Errorf("Closed() did not repeat the first point: %v", closed)
	}
	if len(closed) != len(open)+1 {
		t.Errorf("Closed() length = %d, want %d", len(closed), len(open)+1)
	}
	again := closed.Closed()
	if len(again) != len(closed) {
		t.Errorf("Closed() on a closed loop changed length: %d", len(again))
	}
}

func TestPolygonLengthArea(t *testing.T) {
	sq := square(4)
	if got := sq.Length(); got != 16 {
		t.Errorf("Length() = %v, want 16", got)
	}
	if got := sq.Area(); got != 16 {
		t.Errorf("Area() = %v, want 16", got)
	}
	if got := sq.Reverse().Area(); got != -16 {
		t.Errorf("reversed Area() = %v, want -16", got)
	}
}

func TestNearestPoint(t *testing.T) {
	sq := square(4)
	tests := []struct {
		pt       Point
		want     Point
		wantEdge int
		wantDist float64
	}{
		// interpolated along the bottom edge, not snapped to a vertex
		{pt: Point{X: 2, Y: -3}, want: Point{X: 2, Y: 0}, wantEdge: 0, wantDist: 3},
		{pt: Point{X: 5, Y: 1}, want: Point{X: 4, Y: 1}, wantEdge: 1, wantDist: 1},
		{pt: Point{X: -1, Y: -1}, want: Point{X: 0, Y: 0}, wantEdge: 0, wantDist: 1.4142135623730951},
		{pt: Point{X: 1, Y: 1}, want: Point{X: 1, Y: 0}, wantEdge: 0, wantDist: 1},
	}
	for _, test := range tests {
		got, edge, dist := sq.NearestPoint(test.pt)
		if got != test.want || edge != test.wantEdge || dist != test.wantDist {
			t.Errorf("NearestPoint(%v) = %v, %d, %v; want %v, %d, %v",
				test.pt, got, edge, dist, test.want, test.wantEdge, test.wantDist)
		}
	}
}

func TestReindex(t *testing.T) {
	sq := square(4)

	got := sq.Reindex(0, Point{X: 2, Y: 0})
	want := Polygon{
		{X: 2, Y: 0},
		{X: 4, Y: 0},
		{X: 4, Y: 4},
		{X: 0, Y: 4},
		{X: 0, Y: 0},
		{X: 2, Y: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reindex mid-edge mismatch (-want +got):\n%s", diff)
	}

	// reindexing at an existing vertex must not create a zero-length edge
	got = sq.Reindex(1, Point{X: 4, Y: 0})
	want = Polygon{
		{X: 4, Y: 0},
		{X: 4, Y: 4},
		{X: 0, Y: 4},
		{X: 0, Y: 0},
		{X: 4, Y: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reindex vertex mismatch (-want +got):\n%s", diff)
	}
	if got.Length() != sq.Length() {
		t.Errorf("Reindex changed perimeter: %v != %v", got.Length(), sq.Length())
	}
}

func TestNewPathFace(t *testing.T) {
	outer := []Vector{
		{X: 0, Y: 0, Z: -1},
		{X: 5, Y: 0, Z: -1},
		{X: 5, Y: 5, Z: -1},
		{X: 0, Y: 5, Z: -1},
	}
	face, err := NewPathFace(outer, nil)
	if err != nil {
		t.Fatalf("NewPathFace: %v", err)
	}
	if face.Depth != -1 {
		t.Errorf("Depth = %v, want -1", face.Depth)
	}
	if got := face.Outer.Length(); got != 20 {
		t.Errorf("outer length = %v, want 20", got)
	}

	tilted := append([]Vector{}, outer...)
	tilted[2].Z = -1.5
	if _, err := NewPathFace(tilted, nil); !errors.Is(err, ErrNotPlanar) {
		t.Errorf("NewPathFace(tilted) error = %v, want ErrNotPlanar", err)
	}
}
