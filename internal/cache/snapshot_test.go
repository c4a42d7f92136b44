package cache

import (
	"testing"

	"github.com/emrgen/noteforest/internal/model"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string {
	return &s
}

func ids(docs []*model.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ID)
	}
	return out
}

func TestSnapshot_ChildrenOf(t *testing.T) {
	docs := []*model.Document{
		{ID: "c", Title: "C", Order: 1},
		{ID: "a", Title: "A", Order: 0},
		{ID: "b", Title: "B", Order: 1},
		{ID: "a1", Title: "A1", ParentID: ptr("a"), Order: 2},
		{ID: "a2", Title: "A2", ParentID: ptr("a"), Order: -1},
		{ID: "x", Title: "X", IsArchived: true},
	}

	snapshot := NewSnapshot(docs)

	tests := []struct {
		name   string
		parent *string
		want   []string
	}{
		{name: "roots ordered with id tie break", parent: nil, want: []string{"a", "b", "c"}},
		{name: "children ordered", parent: ptr("a"), want: []string{"a2", "a1"}},
		{name: "leaf", parent: ptr("a1"), want: []string{}},
		{name: "unknown parent", parent: ptr("zzz"), want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(snapshot.ChildrenOf(tt.parent)))
		})
	}

	_, ok := snapshot.Get("x")
	assert.False(t, ok, "archived documents are not visible")
	assert.Equal(t, 5, snapshot.Len())
}

func TestSnapshot_OrphansAreRootLike(t *testing.T) {
	snapshot := NewSnapshot([]*model.Document{
		{ID: "root", Title: "Root"},
		{ID: "orphan", Title: "Orphan", ParentID: ptr("deleted")},
		{ID: "under-archived", Title: "U", ParentID: ptr("archived")},
		{ID: "archived", Title: "Archived", IsArchived: true},
	})

	assert.Equal(t, []string{"orphan", "root", "under-archived"}, ids(snapshot.ChildrenOf(nil)))
	assert.Nil(t, snapshot.ParentOf("orphan"))
	assert.Equal(t, []string{"orphan"}, ids(snapshot.ChildrenOf(ptr("deleted"))))
}

func TestSnapshot_IsolatedFromInput(t *testing.T) {
	doc := &model.Document{ID: "a", Title: "A"}
	snapshot := NewSnapshot([]*model.Document{doc})

	doc.Title = "changed"
	got, ok := snapshot.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Title)
}

func TestSnapshotCache_Replace(t *testing.T) {
	c := NewSnapshotCache()
	scope := UserScope("user")

	assert.Equal(t, 0, c.Current(scope).Len())

	c.Replace(scope, []*model.Document{{ID: "a", Title: "A"}})
	first := c.Current(scope)
	c.Replace(scope, []*model.Document{{ID: "b", Title: "B"}, {ID: "c", Title: "C"}})

	assert.Equal(t, 1, first.Len(), "old snapshots stay intact")
	assert.Equal(t, 2, c.Current(scope).Len())

	c.Replace(ChildrenScope("user", nil), nil)
	c.Replace(UserScope("other"), nil)
	c.Drop("user")

	_, ok := c.Get(scope)
	assert.False(t, ok)
	_, ok = c.Get(ChildrenScope("user", nil))
	assert.False(t, ok)
	_, ok = c.Get(UserScope("other"))
	assert.True(t, ok)
}

func TestScope_Key(t *testing.T) {
	assert.Equal(t, "u:all", UserScope("u").Key())
	assert.Equal(t, "u:roots", ChildrenScope("u", nil).Key())
	assert.Equal(t, "u:parent:p", ChildrenScope("u", ptr("p")).Key())
}
