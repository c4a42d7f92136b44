package cache

import (
	"sort"

	"github.com/emrgen/noteforest/internal/model"
)

// Snapshot is an immutable, indexed view over one full push of documents.
// Archived documents are dropped on construction. A document whose parent is
// not part of the snapshot is treated as a root when listing the roots.
type Snapshot struct {
	docs     []*model.Document
	byID     map[string]*model.Document
	children map[string][]*model.Document
	roots    []*model.Document
}

// NewSnapshot indexes docs. The documents are cloned so later changes to the
// input cannot leak into the snapshot. When an id repeats, the last one wins.
func NewSnapshot(docs []*model.Document) *Snapshot {
	s := &Snapshot{
		byID:     make(map[string]*model.Document, len(docs)),
		children: make(map[string][]*model.Document),
	}

	for _, doc := range docs {
		if doc == nil || doc.IsArchived {
			continue
		}
		s.byID[doc.ID] = doc.Clone()
	}

	s.docs = make([]*model.Document, 0, len(s.byID))
	for _, doc := range s.byID {
		s.docs = append(s.docs, doc)
	}
	SortSiblings(s.docs)

	for _, doc := range s.docs {
		if doc.ParentID != nil {
			s.children[*doc.ParentID] = append(s.children[*doc.ParentID], doc)
		}
		if doc.ParentID == nil || s.byID[*doc.ParentID] == nil {
			s.roots = append(s.roots, doc)
		}
	}

	return s
}

// EmptySnapshot holds no documents.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil)
}

// Len returns the number of visible documents.
func (s *Snapshot) Len() int {
	return len(s.docs)
}

// Get returns the document with the given id.
func (s *Snapshot) Get(id string) (*model.Document, bool) {
	doc, ok := s.byID[id]
	return doc, ok
}

// Documents returns every visible document ordered by (order, id).
func (s *Snapshot) Documents() []*model.Document {
	return append([]*model.Document(nil), s.docs...)
}

// ChildrenOf returns the children of parentID ordered by order ascending, ties
// broken by id ascending. A nil parentID lists the roots, which include the
// documents whose parent is missing from the snapshot.
func (s *Snapshot) ChildrenOf(parentID *string) []*model.Document {
	if parentID == nil {
		return append([]*model.Document(nil), s.roots...)
	}

	return append([]*model.Document(nil), s.children[*parentID]...)
}

// ParentOf returns the active parent of id: nil for roots, orphans and
// unknown ids.
func (s *Snapshot) ParentOf(id string) *string {
	doc, ok := s.byID[id]
	if !ok || doc.ParentID == nil {
		return nil
	}
	if _, ok := s.byID[*doc.ParentID]; !ok {
		return nil
	}

	return doc.ParentID
}

// With returns a new snapshot where the given documents replace (or extend)
// the current ones. Used to preview optimistic changes.
func (s *Snapshot) With(changed ...*model.Document) *Snapshot {
	docs := make([]*model.Document, 0, len(s.docs)+len(changed))
	docs = append(docs, s.docs...)
	docs = append(docs, changed...)

	return NewSnapshot(docs)
}

// SortSiblings orders documents by order ascending then id ascending.
func SortSiblings(docs []*model.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Order != docs[j].Order {
			return docs[i].Order < docs[j].Order
		}
		return docs[i].ID < docs[j].ID
	})
}
