package tree

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/noteforest/internal/model"
)

// ParentIndex maps a document id to its parent id, nil for roots. It may hold
// archived documents so that ancestor walks see the whole chain.
type ParentIndex map[string]*string

func NewParentIndex(docs []*model.Document) ParentIndex {
	index := make(ParentIndex, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		var parent *string
		if doc.ParentID != nil {
			id := *doc.ParentID
			parent = &id
		}
		index[doc.ID] = parent
	}

	return index
}

// Within reports whether id is ancestorID or lies in its subtree. The walk
// stops at roots, at unknown parents and at an id seen twice, so a corrupted
// chain cannot loop forever.
func (p ParentIndex) Within(id, ancestorID string) bool {
	visited := mapset.NewThreadUnsafeSet[string]()
	current := id
	for {
		if current == ancestorID {
			return true
		}
		if !visited.Add(current) {
			return false
		}

		parent, ok := p[current]
		if !ok || parent == nil {
			return false
		}
		current = *parent
	}
}

// Children inverts the index, child ids are sorted.
func (p ParentIndex) Children() map[string][]string {
	children := make(map[string][]string)
	for id, parent := range p {
		if parent != nil {
			children[*parent] = append(children[*parent], id)
		}
	}
	for _, ids := range children {
		sort.Strings(ids)
	}

	return children
}
