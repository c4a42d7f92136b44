// Package graph builds the one-hop reference graph around a focal document.
package graph

import (
	"context"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/reference"
	"github.com/sirupsen/logrus"
)

// Edge is a directed reference between two documents.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the ego graph of FocalID. Nodes start with the focal document and
// continue in id order, edges are ordered by (source, target).
type Graph struct {
	FocalID string            `json:"focalId"`
	Nodes   []*model.Document `json:"nodes"`
	Edges   []Edge            `json:"edges"`
}

// Empty reports whether the graph has no nodes.
func (g *Graph) Empty() bool {
	return len(g.Nodes) == 0
}

// Node is the display form of a graph node.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Focal bool   `json:"focal"`
}

// Label prefixes the title with the document icon when there is one.
func Label(doc *model.Document) string {
	if doc.Icon != "" {
		return doc.Icon + " " + doc.Title
	}

	return doc.Title
}

// Labels returns the display nodes in graph order.
func (g *Graph) Labels() []Node {
	nodes := make([]Node, 0, len(g.Nodes))
	for _, doc := range g.Nodes {
		nodes = append(nodes, Node{ID: doc.ID, Label: Label(doc), Focal: doc.ID == g.FocalID})
	}

	return nodes
}

// Build computes the ego graph of focalID over corpus from scratch. Archived
// documents take no part. Content that does not parse only removes the
// references of its own document. Self references never become edges.
func Build(focalID string, corpus []*model.Document) *Graph {
	active := make([]*model.Document, 0, len(corpus))
	byID := make(map[string]*model.Document, len(corpus))
	for _, doc := range corpus {
		if doc == nil || doc.IsArchived {
			continue
		}
		if _, seen := byID[doc.ID]; seen {
			continue
		}
		byID[doc.ID] = doc
		active = append(active, doc)
	}

	focal, ok := byID[focalID]
	if !ok {
		return &Graph{FocalID: focalID, Nodes: []*model.Document{}, Edges: []Edge{}}
	}

	resolver := reference.NewResolver(active)
	nodes := mapset.NewThreadUnsafeSet[string](focal.ID)
	edges := mapset.NewThreadUnsafeSet[Edge]()

	// outgoing
	if refs, err := resolver.References(focal); err != nil {
		logrus.Debugf("graph: skipping references of %s: %v", focal.ID, err)
	} else {
		for _, ref := range refs {
			if ref.TargetID == focal.ID {
				continue
			}
			nodes.Add(ref.TargetID)
			edges.Add(Edge{Source: focal.ID, Target: ref.TargetID})
		}
	}

	// incoming
	for _, doc := range active {
		if doc.ID == focal.ID {
			continue
		}

		refs, err := resolver.References(doc)
		if err != nil {
			logrus.Debugf("graph: skipping references of %s: %v", doc.ID, err)
			continue
		}

		for _, ref := range refs {
			if ref.TargetID == focal.ID {
				nodes.Add(doc.ID)
				edges.Add(Edge{Source: doc.ID, Target: focal.ID})
				break
			}
		}
	}

	g := &Graph{FocalID: focal.ID, Nodes: []*model.Document{focal}, Edges: []Edge{}}

	others := nodes.ToSlice()
	sort.Strings(others)
	for _, id := range others {
		if id != focal.ID {
			g.Nodes = append(g.Nodes, byID[id])
		}
	}

	for _, edge := range edges.ToSlice() {
		if nodes.Contains(edge.Source) && nodes.Contains(edge.Target) && edge.Source != edge.Target {
			g.Edges = append(g.Edges, edge)
		}
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].Source != g.Edges[j].Source {
			return g.Edges[i].Source < g.Edges[j].Source
		}
		return g.Edges[i].Target < g.Edges[j].Target
	})

	return g
}

// Source hands out the current snapshot of a user.
type Source interface {
	Snapshot(ctx context.Context, userID string) (*cache.Snapshot, error)
}

// Builder builds graphs over the snapshots of a source.
type Builder struct {
	source Source
}

func NewBuilder(source Source) *Builder {
	return &Builder{source: source}
}

// BuildFor builds the ego graph of focalID from the current user snapshot.
func (b *Builder) BuildFor(ctx context.Context, userID, focalID string) (*Graph, error) {
	snapshot, err := b.source.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	return Build(focalID, snapshot.Documents()), nil
}

// View is the display form of a graph.
type View struct {
	FocalID string `json:"focalId"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

func (g *Graph) View() View {
	return View{FocalID: g.FocalID, Nodes: g.Labels(), Edges: g.Edges}
}
