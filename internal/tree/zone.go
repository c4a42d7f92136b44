package tree

import "fmt"

// DefaultThreshold is the horizontal offset from the leading edge of a row
// under which a drop nests the dragged document inside the hovered one.
const DefaultThreshold = 20.0

// Zone is the part of a hovered row the pointer is in.
type Zone int

const (
	// ReparentZone drops the source as the last child of the target.
	ReparentZone Zone = iota
	// ReorderZone drops the source next to the target, under the same parent.
	ReorderZone
)

func (z Zone) String() string {
	switch z {
	case ReparentZone:
		return "reparent"
	case ReorderZone:
		return "reorder"
	default:
		return "unknown"
	}
}

// DecideZone maps the pointer offset from the leading edge of the hovered row
// to a zone.
func DecideZone(offset, threshold float64) Zone {
	if offset < threshold {
		return ReparentZone
	}

	return ReorderZone
}

// Side is where a reorder drop lands relative to its target.
type Side int

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	if s == After {
		return "after"
	}

	return "before"
}

// ParseSide reads "before" or "after", anything else is Before.
func ParseSide(s string) Side {
	if s == "after" {
		return After
	}

	return Before
}

func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	*s = ParseSide(string(text))
	return nil
}

func (z *Zone) UnmarshalText(text []byte) error {
	switch string(text) {
	case "reparent":
		*z = ReparentZone
	case "reorder":
		*z = ReorderZone
	default:
		return fmt.Errorf("%w: %q", ErrUnknownZone, text)
	}
	return nil
}
