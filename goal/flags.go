package goal

import "strings"

// Flags is a bitmask of the control channels a goal claims while it is
// active. Two goals conflict when their masks intersect; the selector
// never lets conflicting goals run in the same tick.
type Flags uint8

const (
	FlagMovement Flags = 1 << iota
	FlagLook
	FlagJump
	FlagAttack
	FlagTarget
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagMovement, "movement"},
	{FlagLook, "look"},
	{FlagJump, "jump"},
	{FlagAttack, "attack"},
	{FlagTarget, "target"},
}

// Has reports whether every bit in f is set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Conflicts reports whether the two masks share any channel.
func (fl Flags) Conflicts(other Flags) bool { return fl&other != 0 }

func (fl Flags) String() string {
	if fl == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if fl&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
