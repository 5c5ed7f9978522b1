package gcode

import "pocketmill/pkg/geom"

// Sequence is a continuous chain of motion commands with known start and end
// positions. Commands inside a sequence use fully resolved absolute targets
// so the chain can be reversed without reference to outside state.
type Sequence struct {
	Start    geom.Vector
	End      geom.Vector
	Commands []Command
}

// Append resolves and adds a command, advancing the sequence end.
func (s *Sequence) Append(c Command) {
	end := c.End.Resolve(s.End)
	c.End = XYZ(end.X, end.Y, end.Z)
	s.Commands = append(s.Commands, c)
	s.End = end
}

// reverseKind maps each kind to its direction-flipped counterpart.
func reverseKind(k Kind) Kind {
	switch k {
	case CircularCW:
		return CircularCCW
	case CircularCCW:
		return CircularCW
	}
	return k
}

// Reverse flips the sequence in place so the tool traverses it tail-first.
// Each command's target becomes the start of the command it used to follow
// and arcs swap direction. Reversing twice restores the original sequence.
func (s *Sequence) Reverse() {
	n := len(s.Commands)
	// positions[i] is the position before command i
	positions := make([]geom.Vector, n+1)
	positions[0] = s.Start
	for i, c := range s.Commands {
		positions[i+1] = c.End.Resolve(positions[i])
	}

	reversed := make([]Command, 0, n)
	for i := n - 1; i >= 0; i-- {
		c := s.Commands[i]
		c.Kind = reverseKind(c.Kind)
		target := positions[i]
		c.End = XYZ(target.X, target.Y, target.Z)
		reversed = append(reversed, c)
	}
	s.Commands = reversed
	s.Start, s.End = s.End, s.Start
}
