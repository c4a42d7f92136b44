// Package dispatch hands validated tree intents to the document store. It is
// the only path by which a drop changes persisted state.
package dispatch

import (
	"context"

	"github.com/emrgen/noteforest/internal/store"
	"github.com/emrgen/noteforest/internal/tree"
	"github.com/sirupsen/logrus"
)

// Dispatcher persists mutation intents.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent *tree.Intent) error
}

var _ Dispatcher = (*StoreDispatcher)(nil)

// StoreDispatcher writes an intent and its renumbered siblings in a single
// transaction, so a drop either lands completely or not at all.
type StoreDispatcher struct {
	store store.Store
}

func NewStoreDispatcher(s store.Store) *StoreDispatcher {
	return &StoreDispatcher{store: s}
}

func (d *StoreDispatcher) Dispatch(ctx context.Context, intent *tree.Intent) error {
	return d.store.Transaction(ctx, func(tx store.Store) error {
		for _, p := range intent.Renumber {
			order := p.Order
			if err := tx.UpdateDocumentFields(ctx, p.DocumentID, store.Patch{Order: &order}); err != nil {
				return err
			}
		}

		order := intent.Order
		err := tx.UpdateDocumentFields(ctx, intent.DocumentID, store.Patch{
			SetParent: true,
			ParentID:  intent.ParentID,
			Order:     &order,
		})
		if err != nil {
			return err
		}

		logrus.Infof("moved document %s (%s), order %v, %d siblings renumbered", intent.DocumentID, intent.Zone, intent.Order, len(intent.Renumber))
		return nil
	})
}

// Recorder keeps the intents it is given without persisting them.
type Recorder struct {
	Intents []*tree.Intent
}

func (r *Recorder) Dispatch(_ context.Context, intent *tree.Intent) error {
	r.Intents = append(r.Intents, intent)
	return nil
}
