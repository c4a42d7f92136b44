package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrSelfDrop is returned when a document is dropped onto itself.
	ErrSelfDrop = errors.New("document dropped onto itself")
	// ErrCycle is returned when the drop would place a document inside its own subtree.
	ErrCycle = errors.New("document dropped into its own subtree")
	// ErrTargetMissing is returned when the drop target is not in the snapshot.
	ErrTargetMissing = errors.New("drop target not found")
	// ErrSourceMissing is returned when the dragged document is not in the snapshot.
	ErrSourceMissing = errors.New("dragged document not found")
	// ErrNoTarget is returned when a gesture is dropped without hovering a row.
	ErrNoTarget = errors.New("drop without target")
	// ErrUnknownZone is returned for a zone outside ReparentZone and ReorderZone.
	ErrUnknownZone = errors.New("unknown drop zone")
	// ErrInvalidTransition is returned when a gesture event does not fit its state.
	ErrInvalidTransition = errors.New("invalid gesture transition")
)

// Rejection is the no-op outcome of a drop. It carries the reason and the
// documents involved; nothing was emitted for it.
type Rejection struct {
	Reason   error
	SourceID string
	TargetID string
}

func reject(reason error, sourceID, targetID string) *Rejection {
	return &Rejection{Reason: reason, SourceID: sourceID, TargetID: targetID}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("drop %s on %s rejected: %v", r.SourceID, r.TargetID, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// IsRejection reports whether err is a rejected drop rather than a failure.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
