package tree

import "fmt"

// State is the phase of a drag gesture.
type State int

const (
	Idle State = iota
	Dragging
	Hovering
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Gesture follows one drag from pickup to drop:
//
//	Idle -> Dragging -> Hovering -> Committed | Cancelled -> Idle
//
// It holds no snapshot. The drop is computed against the engine handed to
// Drop, which should be built from the snapshot visible at drop time.
type Gesture struct {
	threshold float64

	state    State
	sourceID string
	targetID string
	zone     Zone
	side     Side
}

// NewGesture returns an idle gesture. A threshold <= 0 uses DefaultThreshold.
func NewGesture(threshold float64) *Gesture {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Gesture{threshold: threshold}
}

func (g *Gesture) State() State {
	return g.state
}

func (g *Gesture) SourceID() string {
	return g.sourceID
}

// Target returns the hovered row and the zone and side the pointer is in.
func (g *Gesture) Target() (string, Zone, Side) {
	return g.targetID, g.zone, g.side
}

// Start picks up sourceID. A finished gesture is reset first.
func (g *Gesture) Start(sourceID string) error {
	if g.state == Committed || g.state == Cancelled {
		g.Reset()
	}
	if g.state != Idle {
		return g.invalid("start")
	}

	g.state = Dragging
	g.sourceID = sourceID
	return nil
}

// Hover moves the pointer over targetID, offset being the horizontal distance
// from the leading edge of its row.
func (g *Gesture) Hover(targetID string, offset float64, side Side) error {
	if g.state != Dragging && g.state != Hovering {
		return g.invalid("hover")
	}

	g.state = Hovering
	g.targetID = targetID
	g.zone = DecideZone(offset, g.threshold)
	g.side = side
	return nil
}

// Leave moves the pointer off every row.
func (g *Gesture) Leave() error {
	if g.state != Hovering {
		return g.invalid("leave")
	}

	g.state = Dragging
	g.targetID = ""
	return nil
}

// Drop releases the pointer. A valid drop commits and returns its intent, an
// invalid one cancels the gesture and returns the *Rejection.
func (g *Gesture) Drop(engine *Engine) (*Intent, error) {
	switch g.state {
	case Hovering:
	case Dragging:
		g.state = Cancelled
		return nil, reject(ErrNoTarget, g.sourceID, "")
	default:
		return nil, g.invalid("drop")
	}

	intent, err := engine.ComputeDrop(g.sourceID, g.targetID, g.zone, g.side, nil)
	if err != nil {
		g.state = Cancelled
		return nil, err
	}

	g.state = Committed
	return intent, nil
}

// Cancel abandons the drag.
func (g *Gesture) Cancel() error {
	if g.state != Dragging && g.state != Hovering {
		return g.invalid("cancel")
	}

	g.state = Cancelled
	return nil
}

// Reset returns to Idle from any state.
func (g *Gesture) Reset() {
	g.state = Idle
	g.sourceID = ""
	g.targetID = ""
	g.zone = ReparentZone
	g.side = Before
}

func (g *Gesture) invalid(event string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, g.state)
}
