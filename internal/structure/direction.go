package structure

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction selects which incident edges of a vertex are walked.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
	DirectionBoth
)

// String returns the lower-case name of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionIn:
		return "in"
	case DirectionBoth:
		return "both"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Opposite returns the reverse direction. Both is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionOut:
		return DirectionIn
	case DirectionIn:
		return DirectionOut
	default:
		return d
	}
}

// ParseDirection parses "out", "in" or "both" (case-insensitive).
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "out":
		return DirectionOut, nil
	case "in":
		return DirectionIn, nil
	case "both":
		return DirectionBoth, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: must be 'out', 'in' or 'both'", raw)
	}
}

// ParseID parses the canonical decimal representation of an element id.
func ParseID(raw string) (ID, error) {
	if raw == "" {
		return 0, fmt.Errorf("identifier cannot be empty")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid element identifier %q: %w", raw, err)
	}
	return ID(n), nil
}
