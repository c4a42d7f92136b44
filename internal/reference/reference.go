// Package reference extracts [[Title]] references from document content and
// resolves them against a corpus of documents.
package reference

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/noteforest/internal/model"
)

var titlePattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Reference is a derived edge: the content of SourceID mentions the title of TargetID.
type Reference struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}

// NormalizeTitle is the form titles are compared in.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ParseContent decodes the editor json of a document. Empty content has no blocks.
func ParseContent(raw string) ([]model.Block, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var blocks []model.Block
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// ExtractTitles collects the normalized titles referenced by the blocks. The
// text spans of a block are joined before matching, so a reference split over
// differently styled spans is still found. Nested blocks are scanned too.
func ExtractTitles(blocks []model.Block) mapset.Set[string] {
	titles := mapset.NewThreadUnsafeSet[string]()

	stack := make([]model.Block, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, blocks[i])
	}

	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, match := range titlePattern.FindAllStringSubmatch(block.Text(), -1) {
			if title := NormalizeTitle(match[1]); title != "" {
				titles.Add(title)
			}
		}

		for i := len(block.Children) - 1; i >= 0; i-- {
			stack = append(stack, block.Children[i])
		}
	}

	return titles
}

// ExtractReferences returns the normalized titles referenced by doc. An error
// means the content is not valid block json.
func ExtractReferences(doc *model.Document) (mapset.Set[string], error) {
	blocks, err := ParseContent(doc.Content)
	if err != nil {
		return mapset.NewThreadUnsafeSet[string](), err
	}

	return ExtractTitles(blocks), nil
}

// Resolver maps normalized titles to documents. When several documents share
// a title the one with the lowest id wins.
type Resolver struct {
	byTitle map[string]*model.Document
}

// NewResolver indexes the titles of corpus.
func NewResolver(corpus []*model.Document) *Resolver {
	r := &Resolver{byTitle: make(map[string]*model.Document, len(corpus))}
	for _, doc := range corpus {
		if doc == nil {
			continue
		}
		title := NormalizeTitle(doc.Title)
		if title == "" {
			continue
		}
		if current, ok := r.byTitle[title]; !ok || doc.ID < current.ID {
			r.byTitle[title] = doc
		}
	}

	return r
}

// Resolve looks a title up case-insensitively.
func (r *Resolver) Resolve(title string) (*model.Document, bool) {
	doc, ok := r.byTitle[NormalizeTitle(title)]
	return doc, ok
}

// References resolves every title referenced by doc, self references included.
// The result is ordered by target id.
func (r *Resolver) References(doc *model.Document) ([]Reference, error) {
	titles, err := ExtractReferences(doc)
	if err != nil {
		return nil, err
	}

	targets := mapset.NewThreadUnsafeSet[string]()
	for _, title := range titles.ToSlice() {
		if target, ok := r.Resolve(title); ok {
			targets.Add(target.ID)
		}
	}

	ids := targets.ToSlice()
	sort.Strings(ids)

	refs := make([]Reference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, Reference{SourceID: doc.ID, TargetID: id})
	}

	return refs, nil
}

// Resolve looks title up in corpus, see Resolver.
func Resolve(title string, corpus []*model.Document) (*model.Document, bool) {
	return NewResolver(corpus).Resolve(title)
}
