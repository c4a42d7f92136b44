// Package tree validates drag and drop moves in the document forest and
// turns the accepted ones into intents for the store.
package tree

import (
	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
)

// Engine computes drops against one snapshot.
type Engine struct {
	snapshot *cache.Snapshot
	parents  ParentIndex
}

// NewEngine returns an engine over snapshot. parents is used for the cycle
// checks, it should know about archived documents too; when nil the parents
// are taken from the snapshot.
func NewEngine(snapshot *cache.Snapshot, parents ParentIndex) *Engine {
	if parents == nil {
		parents = NewParentIndex(snapshot.Documents())
	}

	return &Engine{snapshot: snapshot, parents: parents}
}

// ComputeDrop validates dropping sourceID on targetID and returns the
// resulting intent. siblings are the children of the target's parent as the
// caller sees them; when nil or stale they are read from the snapshot. Every
// invalid drop returns a *Rejection and no intent.
func (e *Engine) ComputeDrop(sourceID, targetID string, zone Zone, side Side, siblings []*model.Document) (*Intent, error) {
	if sourceID == targetID {
		return nil, reject(ErrSelfDrop, sourceID, targetID)
	}

	target, ok := e.snapshot.Get(targetID)
	if !ok {
		return nil, reject(ErrTargetMissing, sourceID, targetID)
	}
	if _, ok := e.snapshot.Get(sourceID); !ok {
		return nil, reject(ErrSourceMissing, sourceID, targetID)
	}

	switch zone {
	case ReparentZone:
		return e.reparent(sourceID, target)
	case ReorderZone:
		return e.reorder(sourceID, target, side, siblings)
	default:
		return nil, reject(ErrUnknownZone, sourceID, targetID)
	}
}

func (e *Engine) reparent(sourceID string, target *model.Document) (*Intent, error) {
	if e.parents.Within(target.ID, sourceID) {
		return nil, reject(ErrCycle, sourceID, target.ID)
	}

	order := 0.0
	children := e.snapshot.ChildrenOf(&target.ID)
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].ID != sourceID {
			order = children[i].Order + 1
			break
		}
	}

	parent := target.ID
	return &Intent{
		DocumentID: sourceID,
		ParentID:   &parent,
		Order:      order,
		Zone:       ReparentZone,
	}, nil
}

// reorder places the source next to target among the siblings the snapshot
// shows. A target whose parent is archived or missing is listed with the
// roots, so the source lands at the root too and never under an inactive
// parent.
func (e *Engine) reorder(sourceID string, target *model.Document, side Side, siblings []*model.Document) (*Intent, error) {
	parentID := e.snapshot.ParentOf(target.ID)
	if parentID != nil && e.parents.Within(*parentID, sourceID) {
		return nil, reject(ErrCycle, sourceID, target.ID)
	}

	list := siblingsWithout(siblings, sourceID)
	at := indexOf(list, target.ID)
	if at < 0 {
		list = siblingsWithout(e.snapshot.ChildrenOf(parentID), sourceID)
		at = indexOf(list, target.ID)
	}
	if at < 0 {
		return nil, reject(ErrTargetMissing, sourceID, target.ID)
	}
	if side == After {
		at++
	}

	intent := &Intent{
		DocumentID: sourceID,
		ParentID:   copyID(parentID),
		Zone:       ReorderZone,
	}

	var prev, next *model.Document
	if at > 0 {
		prev = list[at-1]
	}
	if at < len(list) {
		next = list[at]
	}

	switch {
	case prev == nil:
		intent.Order = next.Order - 1
	case next == nil:
		intent.Order = prev.Order + 1
	default:
		mid := prev.Order + (next.Order-prev.Order)/2
		if prev.Order < mid && mid < next.Order {
			intent.Order = mid
			break
		}

		// no room between the neighbours: space the siblings out again
		intent.Order = float64(at)
		for i, doc := range list {
			order := float64(i)
			if i >= at {
				order++
			}
			if doc.Order != order {
				intent.Renumber = append(intent.Renumber, Placement{DocumentID: doc.ID, Order: order})
			}
		}
	}

	return intent, nil
}

// siblingsWithout returns the siblings sorted by (order, id), without id.
func siblingsWithout(siblings []*model.Document, id string) []*model.Document {
	list := make([]*model.Document, 0, len(siblings))
	for _, doc := range siblings {
		if doc != nil && doc.ID != id {
			list = append(list, doc)
		}
	}
	cache.SortSiblings(list)

	return list
}

func indexOf(docs []*model.Document, id string) int {
	for i, doc := range docs {
		if doc.ID == id {
			return i
		}
	}

	return -1
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
