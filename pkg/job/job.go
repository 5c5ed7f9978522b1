// Package job is the user-facing surface: an immutable machining job built
// up through fluent calls, rendered to a G-code program at the end.
package job

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"pocketmill/pkg/clip"
	"pocketmill/pkg/gcode"
	"pocketmill/pkg/geom"
	"pocketmill/pkg/pocket"
	"pocketmill/pkg/route"
)

// ErrMissingTool is returned by operations that need a tool diameter when
// the job has none set.
var ErrMissingTool = errors.New("tool diameter is not set")

// CurveTolerance is the maximum segment length used when free-form curves
// are flattened into line cuts.
var CurveTolerance = 0.1

// Unit selects the G-code unit system.
type Unit int

const (
	Metric Unit = iota
	Imperial
)

func (u Unit) String() string {
	if u == Imperial {
		return "G20"
	}
	return "G21"
}

// Offset expresses a distance as a multiple of the tool radius plus a
// constant, so callers can write offsets that scale with the tool.
type Offset struct {
	Mult float64
	Dist float64
}

func resolveOffset(radius float64, o *Offset, defaultMult float64) float64 {
	if o == nil {
		return radius * defaultMult
	}
	return radius*o.Mult + o.Dist
}

// Operation is one finished machining step of a job.
type Operation struct {
	Name       string
	ToolNumber int
	Speed      int
	Commands   []gcode.Command
}

// Job holds the process-wide machining configuration. Job values are
// immutable: every fluent call returns a new Job and leaves the receiver
// untouched, so a failed call cannot corrupt the caller's job.
type Job struct {
	Name         string
	Unit         Unit
	Feed         float64
	PlungeFeed   float64
	Speed        int
	ToolDiameter float64
	ToolNumber   int
	RapidHeight  float64
	SafeHeight   float64
	Precision    int
	Coolant      gcode.Coolant

	operations []Operation
}

// New returns a job with unit-appropriate clearance heights. The plunge feed
// defaults to the cutting feed until overridden.
func New(name string, unit Unit, feed float64, speed int) Job {
	j := Job{
		Name:        name,
		Unit:        unit,
		Feed:        feed,
		PlungeFeed:  feed,
		Speed:       speed,
		RapidHeight: 10,
		SafeHeight:  1,
		Precision:   3,
	}
	if unit == Imperial {
		j.RapidHeight = 0.4
		j.SafeHeight = 0.04
	}
	return j
}

// WithTool sets the tool diameter and tool number.
func (j Job) WithTool(diameter float64, number int) Job {
	j.ToolDiameter = diameter
	j.ToolNumber = number
	return j
}

// WithPlungeFeed overrides the plunge feed rate.
func (j Job) WithPlungeFeed(feed float64) Job {
	j.PlungeFeed = feed
	return j
}

// WithHeights overrides the rapid clearance and safe plunge heights.
func (j Job) WithHeights(rapid, safe float64) Job {
	j.RapidHeight = rapid
	j.SafeHeight = safe
	return j
}

// WithPrecision sets the number of decimals in emitted coordinates.
func (j Job) WithPrecision(decimals int) Job {
	j.Precision = decimals
	return j
}

// WithCoolant sets the coolant mode used by spindle start blocks.
func (j Job) WithCoolant(c gcode.Coolant) Job {
	j.Coolant = c
	return j
}

// Operations returns the operations added so far.
func (j Job) Operations() []Operation { return j.operations }

func (j Job) addOperation(name string, commands []gcode.Command) Job {
	op := Operation{
		Name:       name,
		ToolNumber: j.ToolNumber,
		Speed:      j.Speed,
		Commands:   commands,
	}
	ops := j.operations[:len(j.operations):len(j.operations)]
	j.operations = append(ops, op)
	return j
}

func (j Job) routeParams() route.Params {
	return route.Params{
		Feed:           j.Feed,
		PlungeFeed:     j.PlungeFeed,
		RapidHeight:    j.RapidHeight,
		SafeHeight:     j.SafeHeight,
		CurvePrecision: CurveTolerance,
	}
}

// PocketOptions tunes a pocket operation. Nil offsets take tool-radius
// defaults; Stepdown of zero cuts straight to the bottom depth.
type PocketOptions struct {
	Outer      *Offset
	Inner      *Offset
	AvoidOuter *Offset
	AvoidInner *Offset
	Stepover   *Offset
	Stepdown   float64
}

// Pocket clears the given areas, staying out of the avoid areas, and returns
// a new job with the operation appended.
func (j Job) Pocket(areas, avoid []geom.PathFace, opt PocketOptions) (Job, error) {
	if j.ToolDiameter == 0 {
		return j, fmt.Errorf("pocket: %w", ErrMissingTool)
	}
	radius := j.ToolDiameter / 2

	outer := resolveOffset(radius, opt.Outer, -1)
	if len(avoid) > 0 && opt.Outer == nil {
		outer = 0
	}
	inner := resolveOffset(radius, opt.Inner, 1)
	avoidOuter := resolveOffset(radius, opt.AvoidOuter, 1)
	avoidInner := resolveOffset(radius, opt.AvoidInner, -1)
	stepover := resolveOffset(radius, opt.Stepover, 1.5)

	var offsetAreas, offsetAvoids []geom.PathFace
	for _, f := range areas {
		offsetAreas = append(offsetAreas, clip.OffsetFace(f, outer, inner)...)
	}
	for _, f := range avoid {
		offsetAvoids = append(offsetAvoids, clip.OffsetFace(f, avoidOuter, avoidInner)...)
	}

	commands, err := pocket.Commands(pocket.Params{
		Route:    j.routeParams(),
		Stepover: stepover,
		Stepdown: opt.Stepdown,
	}, offsetAreas, offsetAvoids)
	if err != nil {
		return j, fmt.Errorf("pocket: %w", err)
	}
	return j.addOperation("Pocket", commands), nil
}

// ProfileOptions tunes a profile operation.
type ProfileOptions struct {
	Stepdown float64
}

// Profile routes the given wires as finished contours, nearest wire first,
// replicating each across stepdown layers when requested. The wires must
// already sit at their target depths.
func (j Job) Profile(wires []geom.Wire, opt ProfileOptions) (Job, error) {
	if j.ToolDiameter == 0 {
		return j, fmt.Errorf("profile: %w", ErrMissingTool)
	}
	if opt.Stepdown < 0 {
		return j, fmt.Errorf("profile: %w: %v", pocket.ErrStepdown, opt.Stepdown)
	}

	start := geom.Vector{Z: j.RapidHeight + 1}
	router := route.New(j.routeParams(), start)
	for _, w := range route.OrderWires(wires, start) {
		if len(w) == 0 {
			continue
		}
		bottom := w.Start().Z
		if opt.Stepdown > 0 {
			count := 0
			for z := -opt.Stepdown; z > bottom; z -= opt.Stepdown {
				count++
				if count > pocket.MaxStepdownCount {
					return j, fmt.Errorf("profile: %w: more than %d layers",
						pocket.ErrStepdown, pocket.MaxStepdownCount)
				}
				if err := router.Wire(w.AtDepth(z)); err != nil {
					return j, fmt.Errorf("profile: %w", err)
				}
			}
		}
		if err := router.Wire(w); err != nil {
			return j, fmt.Errorf("profile: %w", err)
		}
	}
	return j.addOperation("Profile", router.Commands()), nil
}

func (j Job) operationGcode(op Operation) string {
	position := geom.Vector{Z: j.RapidHeight + 1}
	lines := []string{fmt.Sprintf("(%s - %s)", j.Name, op.Name)}
	var prev *gcode.Command
	for i := range op.Commands {
		command := op.Commands[i]
		line, end := command.ToGcode(prev, position, j.Precision)
		prev = &op.Commands[i]
		position = end
		// A move to the current position renders as nothing; skip it.
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ToGcode renders the whole program: header, every operation separated by
// blank lines with tool-change blocks on tool or speed transitions, and a
// return to home.
func (j Job) ToGcode() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%s - Feedrate: %v - Unit: %v)\n", j.Name, j.Feed, j.Unit)
	b.WriteString("G90\n")
	b.WriteString(j.Unit.String())
	b.WriteString("\n")

	tool := -1
	speed := -1
	for i, op := range j.operations {
		if i > 0 {
			b.WriteString("\n\n\n")
		}
		if op.ToolNumber != tool && tool != -1 {
			b.WriteString(gcode.ToolChangeBlock(op.ToolNumber, op.Speed, j.Coolant))
			b.WriteString("\n")
		} else if op.Speed != speed && speed != -1 {
			b.WriteString(gcode.StopBlock(j.Coolant))
			b.WriteString("\n")
			b.WriteString(gcode.StartBlock(op.Speed, j.Coolant))
			b.WriteString("\n")
		}
		tool = op.ToolNumber
		speed = op.Speed
		b.WriteString(j.operationGcode(op))
	}

	if len(j.operations) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "G1Z0\nG0Z%v\nX0Y0", j.RapidHeight)
	return b.String()
}

// SaveGcode writes the rendered program to path.
func (j Job) SaveGcode(path string) error {
	return os.WriteFile(path, []byte(j.ToGcode()), 0644)
}
