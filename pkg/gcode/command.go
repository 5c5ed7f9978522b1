// Package gcode models tool motion as a closed set of command kinds and
// serializes them to RS-274 text with modal-word and coordinate diffing: a
// word is only printed when it changes the machine state.
package gcode

import (
	"math"
	"strconv"
	"strings"

	"pocketmill/pkg/geom"
)

// Kind discriminates the motion command vocabulary. Plunge and Retract are
// semantic aliases of Cut and Rapid restricted to pure-Z motion; they share
// the modal words G1 and G0.
type Kind int

const (
	Rapid Kind = iota
	Cut
	Plunge
	Retract
	CircularCW
	CircularCCW
)

// kindTable holds the fixed per-kind behavior.
var kindTable = [...]struct {
	name  string
	modal string
	arc   bool
}{
	Rapid:       {name: "Rapid", modal: "G0"},
	Cut:         {name: "Cut", modal: "G1"},
	Plunge:      {name: "Plunge", modal: "G1"},
	Retract:     {name: "Retract", modal: "G0"},
	CircularCW:  {name: "CircularCW", modal: "G2", arc: true},
	CircularCCW: {name: "CircularCCW", modal: "G3", arc: true},
}

func (k Kind) String() string { return kindTable[k].name }

// Modal returns the kind's G-code modal word.
func (k Kind) Modal() string { return kindTable[k].modal }

func (k Kind) circular() bool { return kindTable[k].arc }

// Coord is an optional axis coordinate: unset axes keep their current value.
type Coord struct {
	Value float64
	Valid bool
}

// C wraps a concrete coordinate value.
func C(v float64) Coord { return Coord{Value: v, Valid: true} }

func (c Coord) or(current float64) float64 {
	if c.Valid {
		return c.Value
	}
	return current
}

// Vec is a per-axis optional position.
type Vec struct {
	X, Y, Z Coord
}

// XYZ builds a fully specified absolute vector.
func XYZ(x, y, z float64) Vec { return Vec{X: C(x), Y: C(y), Z: C(z)} }

// XY builds a vector that leaves Z at its current value.
func XY(x, y float64) Vec { return Vec{X: C(x), Y: C(y)} }

// Z builds a pure-Z vector.
func Z(z float64) Vec { return Vec{Z: C(z)} }

// Resolve fills unset axes from the running position.
func (v Vec) Resolve(current geom.Vector) geom.Vector {
	return geom.Vector{
		X: v.X.or(current.X),
		Y: v.Y.or(current.Y),
		Z: v.Z.or(current.Z),
	}
}

// Command is one immutable motion primitive. Center and Mid are only
// meaningful for circular kinds; Mid disambiguates arc direction for
// consumers that reconstruct geometry.
type Command struct {
	Kind   Kind
	End    Vec
	Center Vec
	Mid    Vec
	Feed   Coord
}

// RapidAbs moves at rapid traverse to the given absolute target.
func RapidAbs(end Vec) Command { return Command{Kind: Rapid, End: end} }

// CutAbs feeds linearly to the given absolute target.
func CutAbs(end Vec) Command { return Command{Kind: Cut, End: end} }

// PlungeAbs feeds straight down (or up) to absolute z. Plunges only ever
// operate on the Z axis.
func PlungeAbs(z float64) Command { return Command{Kind: Plunge, End: Z(z)} }

// RetractAbs rapids vertically to absolute z.
func RetractAbs(z float64) Command { return Command{Kind: Retract, End: Z(z)} }

// ArcCW feeds along a clockwise arc.
func ArcCW(end, center, mid Vec) Command {
	return Command{Kind: CircularCW, End: end, Center: center, Mid: mid}
}

// ArcCCW feeds along a counterclockwise arc.
func ArcCCW(end, center, mid Vec) Command {
	return Command{Kind: CircularCCW, End: end, Center: center, Mid: mid}
}

// WithFeed returns a copy carrying a feed rate.
func (c Command) WithFeed(feed float64) Command {
	c.Feed = C(feed)
	return c
}

// WithZ returns a depth-clone of the command: identical in XY, relocated in Z.
func (c Command) WithZ(z float64) Command {
	c.End.Z = C(z)
	if c.Kind.circular() {
		if c.Center.Z.Valid {
			c.Center.Z = C(z)
		}
		if c.Mid.Z.Valid {
			c.Mid.Z = C(z)
		}
	}
	return c
}

// ToGcode renders the command as one G-code line given the previous command
// (nil at the start of an operation) and the running position, and returns
// the new position. The modal word is suppressed when the previous command
// shares it; axis words are emitted only for axes that change; I/J arc
// center offsets are always relative to the arc start point.
func (c Command) ToGcode(prev *Command, start geom.Vector, precision int) (string, geom.Vector) {
	end := c.End.Resolve(start)

	var b strings.Builder
	if prev == nil || prev.Kind.Modal() != c.Kind.Modal() {
		b.WriteString(c.Kind.Modal())
	}
	if c.Feed.Valid && (prev == nil || !prev.Feed.Valid || prev.Feed.Value != c.Feed.Value) {
		b.WriteString("F")
		b.WriteString(formatNumber(c.Feed.Value, precision))
	}
	if end.X != start.X {
		b.WriteString("X")
		b.WriteString(formatNumber(end.X, precision))
	}
	if end.Y != start.Y {
		b.WriteString("Y")
		b.WriteString(formatNumber(end.Y, precision))
	}
	if end.Z != start.Z {
		b.WriteString("Z")
		b.WriteString(formatNumber(end.Z, precision))
	}
	if c.Kind.circular() {
		center := c.Center.Resolve(start)
		b.WriteString("I")
		b.WriteString(formatNumber(center.X-start.X, precision))
		b.WriteString("J")
		b.WriteString(formatNumber(center.Y-start.Y, precision))
		if c.Center.Z.Valid && center.Z != start.Z {
			b.WriteString("K")
			b.WriteString(formatNumber(center.Z-start.Z, precision))
		}
	}

	line := b.String()
	if line == c.Kind.Modal() && prev != nil {
		// position did not change at all; drop the bare modal word
		line = ""
	}
	return line, end
}

// formatNumber rounds to the configured precision and prints the minimal
// representation: exact integers lose the trailing ".0".
func formatNumber(v float64, precision int) string {
	p := math.Pow10(precision)
	r := math.Round(v*p) / p
	if r == 0 {
		// avoid "-0"
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
