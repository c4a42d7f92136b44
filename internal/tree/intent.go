package tree

import (
	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
)

// Placement gives a sibling a new order.
type Placement struct {
	DocumentID string  `json:"documentId"`
	Order      float64 `json:"order"`
}

// Intent is a validated move of one document. It is a request for the store,
// the tree only changes once a later snapshot shows it.
type Intent struct {
	DocumentID string  `json:"documentId"`
	ParentID   *string `json:"parentId"`
	Order      float64 `json:"order"`
	Zone       Zone    `json:"zone"`
	// Renumber holds the siblings whose order has to change for the move to
	// land where it was dropped. Empty unless the orders around the drop
	// point left no room.
	Renumber []Placement `json:"renumber,omitempty"`
}

// Apply previews the intent on snapshot, for optimistic rendering.
func (i *Intent) Apply(snapshot *cache.Snapshot) *cache.Snapshot {
	source, ok := snapshot.Get(i.DocumentID)
	if !ok {
		return snapshot
	}

	changed := make([]*model.Document, 0, len(i.Renumber)+1)

	moved := source.Clone()
	moved.ParentID = nil
	if i.ParentID != nil {
		parent := *i.ParentID
		moved.ParentID = &parent
	}
	moved.Order = i.Order
	changed = append(changed, moved)

	for _, p := range i.Renumber {
		if doc, ok := snapshot.Get(p.DocumentID); ok {
			doc = doc.Clone()
			doc.Order = p.Order
			changed = append(changed, doc)
		}
	}

	return snapshot.With(changed...)
}
