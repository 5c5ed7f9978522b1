package gcode

import (
	"strconv"
	"strings"
)

// Coolant selects the coolant M-code emitted with spindle starts.
type Coolant int

const (
	CoolantOff Coolant = iota
	CoolantMist
	CoolantFlood
)

func (c Coolant) word() string {
	switch c {
	case CoolantMist:
		return "M7"
	case CoolantFlood:
		return "M8"
	}
	return ""
}

// StartBlock spins the spindle up clockwise, with optional speed and coolant.
func StartBlock(speed int, coolant Coolant) string {
	words := []string{"M3"}
	if speed > 0 {
		words = append(words, "S"+strconv.Itoa(speed))
	}
	if w := coolant.word(); w != "" {
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// StopBlock stops the spindle, shutting coolant off when it was running.
func StopBlock(coolant Coolant) string {
	if coolant == CoolantOff {
		return "M5"
	}
	return "M5 M9"
}

// ToolChangeBlock emits the full tool change: stop spindle, home, optional
// pause, swap to tool n, restart.
func ToolChangeBlock(tool, speed int, coolant Coolant) string {
	n := strconv.Itoa(tool)
	return strings.Join([]string{
		StopBlock(coolant),
		"G30",
		"M1",
		"T" + n + " H" + n + " M6",
		StartBlock(speed, coolant),
	}, "\n")
}
