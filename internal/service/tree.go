package service

import (
	"context"
	"errors"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/store"
	"github.com/emrgen/noteforest/internal/tree"
	"github.com/sirupsen/logrus"
)

type DropRequest struct {
	SourceID string    `json:"sourceId"`
	TargetID string    `json:"targetId"`
	Offset   float64   `json:"offset"`
	Side     tree.Side `json:"side"`
}

// DropResult tells whether a drop was applied. A rejected drop is not an
// error, Reason says why nothing happened.
type DropResult struct {
	Applied bool         `json:"applied"`
	Reason  string       `json:"reason,omitempty"`
	Intent  *tree.Intent `json:"intent,omitempty"`
}

// Drop commits a drag and drop gesture against the snapshot visible now.
func (d *DocumentService) Drop(ctx context.Context, userID string, request *DropRequest) (*DropResult, error) {
	snapshot, err := d.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	parents, err := d.store.ParentIndex(ctx, userID)
	if err != nil {
		return nil, err
	}

	gesture := tree.NewGesture(d.threshold)
	if err := gesture.Start(request.SourceID); err != nil {
		return nil, err
	}
	if err := gesture.Hover(request.TargetID, request.Offset, request.Side); err != nil {
		return nil, err
	}

	intent, err := gesture.Drop(tree.NewEngine(snapshot, parents))
	var rejection *tree.Rejection
	if errors.As(err, &rejection) {
		logrus.Infof("drop of %s on %s rejected: %v", request.SourceID, request.TargetID, rejection.Reason)
		return &DropResult{Applied: false, Reason: rejection.Reason.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.dispatcher.Dispatch(ctx, intent); err != nil {
		return nil, err
	}
	d.changed(ctx, userID)

	return &DropResult{Applied: true, Intent: intent}, nil
}

// RepairOrder renumbers the siblings of every parent holding duplicate
// orders to 0..n-1, keeping their current (order, id) sequence. It returns
// the number of documents whose order changed.
func (d *DocumentService) RepairOrder(ctx context.Context, userID string) (int, error) {
	docs, err := d.store.ListDocuments(ctx, store.Active(userID))
	if err != nil {
		return 0, err
	}

	groups := make(map[string][]*model.Document)
	for _, doc := range docs {
		key := ""
		if doc.ParentID != nil {
			key = *doc.ParentID
		}
		groups[key] = append(groups[key], doc)
	}

	updated := 0
	err = d.store.Transaction(ctx, func(tx store.Store) error {
		for _, siblings := range groups {
			if !hasDuplicateOrders(siblings) {
				continue
			}

			cache.SortSiblings(siblings)
			for i, doc := range siblings {
				order := float64(i)
				if doc.Order == order {
					continue
				}
				if err := tx.UpdateDocumentFields(ctx, doc.ID, store.Patch{Order: &order}); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		logrus.Infof("repaired the order of %d documents of %s", updated, userID)
		d.changed(ctx, userID)
	}

	return updated, nil
}

func hasDuplicateOrders(docs []*model.Document) bool {
	seen := make(map[float64]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.Order]; ok {
			return true
		}
		seen[doc.Order] = struct{}{}
	}

	return false
}
