package reference

import (
	"sort"
	"testing"

	"github.com/emrgen/noteforest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sorted(titles []string) []string {
	sort.Strings(titles)
	return titles
}

func TestExtractReferences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "empty content",
			content: "",
			want:    []string{},
		},
		{
			name:    "single reference normalized",
			content: `[{"id":"1","type":"paragraph","content":[{"type":"text","text":"see [[  Project Plan ]] today","styles":{}}],"children":[]}]`,
			want:    []string{"project plan"},
		},
		{
			name:    "repeated reference counted once",
			content: `[{"type":"paragraph","content":[{"type":"text","text":"[[A]] and [[a]] and [[A]]"}]}]`,
			want:    []string{"a"},
		},
		{
			name:    "reference split over styled spans",
			content: `[{"type":"paragraph","content":[{"type":"text","text":"[[Rea","styles":{"bold":true}},{"type":"text","text":"ding]]","styles":{}}]}]`,
			want:    []string{"reading"},
		},
		{
			name:    "malformed brackets ignored",
			content: `[{"type":"paragraph","content":[{"type":"text","text":"[[open and [single] and ]] and [[]] and [[ ]]"}]}]`,
			want:    []string{},
		},
		{
			name:    "link and unknown spans skipped",
			content: `[{"type":"paragraph","content":[{"type":"link","href":"x","content":[{"type":"text","text":"[[Hidden]]"}]},{"type":"mention","text":"[[Other]]"},"[[raw]]"]}]`,
			want:    []string{},
		},
		{
			name:    "table content is not inline",
			content: `[{"type":"table","content":{"type":"tableContent","rows":[]}},{"type":"codeBlock","content":"[[Code]]"}]`,
			want:    []string{},
		},
		{
			name:    "nested children scanned",
			content: `[{"type":"bulletListItem","content":[{"type":"text","text":"[[Top]]"}],"children":[{"type":"bulletListItem","content":[{"type":"text","text":"[[Nested]]"}]}]}]`,
			want:    []string{"nested", "top"},
		},
		{
			name:    "unparseable content",
			content: `{"not":"a list"`,
			wantErr: true,
		},
		{
			name:    "block that is not an object",
			content: `["just a string"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractReferences(&model.Document{ID: "doc", Title: "Doc", Content: tt.content})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 0, got.Cardinality())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, sorted(got.ToSlice()))
		})
	}
}

func TestExtractReferences_Idempotent(t *testing.T) {
	doc := &model.Document{
		ID:      "a",
		Title:   "A",
		Content: `[{"type":"paragraph","content":[{"type":"text","text":"[[B]] [[C]] [[b]]"}]}]`,
	}

	first, err := ExtractReferences(doc)
	require.NoError(t, err)
	second, err := ExtractReferences(doc)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestResolve(t *testing.T) {
	corpus := []*model.Document{
		{ID: "doc-2", Title: "Notes"},
		{ID: "doc-1", Title: "notes"},
		{ID: "doc-3", Title: " Ideas "},
	}

	for i := 0; i < 5; i++ {
		doc, ok := Resolve("notes", corpus)
		require.True(t, ok)
		assert.Equal(t, "doc-1", doc.ID, "lowest id wins among duplicate titles")
	}

	doc, ok := Resolve("IDEAS", corpus)
	require.True(t, ok)
	assert.Equal(t, "doc-3", doc.ID)

	_, ok = Resolve("missing", corpus)
	assert.False(t, ok)
}

func TestResolver_References(t *testing.T) {
	a := &model.Document{ID: "a", Title: "A"}
	a.Content = `[{"type":"paragraph","content":[{"type":"text","text":"[[B]] [[A]] [[missing]] [[b]]"}]}]`
	b := &model.Document{ID: "b", Title: "B"}

	refs, err := NewResolver([]*model.Document{a, b}).References(a)
	require.NoError(t, err)

	assert.Equal(t, []Reference{
		{SourceID: "a", TargetID: "a"},
		{SourceID: "a", TargetID: "b"},
	}, refs)
}
