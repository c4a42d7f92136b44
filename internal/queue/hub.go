package queue

import (
	"context"
	"sync"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
)

type SnapshotQueue interface {
	// Publish pushes a full snapshot of scope to its subscribers.
	Publish(ctx context.Context, scope cache.Scope, docs []*model.Document) error
	// Subscribe returns a stream of snapshots of scope and a function ending the subscription.
	Subscribe(ctx context.Context, scope cache.Scope) (<-chan []*model.Document, func())
	// Scopes lists the scopes of a user that have subscribers.
	Scopes(userID string) []cache.Scope
}

var _ SnapshotQueue = (*Hub)(nil)

// Hub fans snapshots out to in-process subscribers. Each subscriber holds at
// most one pending snapshot: a slow reader skips intermediate pushes and
// always receives the latest one.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*subscription
}

type subscription struct {
	scope cache.Scope
	ch    chan []*model.Document
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]*subscription),
	}
}

func (h *Hub) Publish(_ context.Context, scope cache.Scope, docs []*model.Document) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs[scope.Key()] {
		select {
		case sub.ch <- docs:
		default:
			// drop the stale snapshot
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- docs
		}
	}

	return nil
}

func (h *Hub) Subscribe(ctx context.Context, scope cache.Scope) (<-chan []*model.Document, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++

	key := scope.Key()
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]*subscription)
	}
	sub := &subscription{scope: scope, ch: make(chan []*model.Document, 1)}
	h.subs[key][id] = sub
	h.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)

			h.mu.Lock()
			delete(h.subs[key], id)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			close(sub.ch)
			h.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return sub.ch, cancel
}

func (h *Hub) Scopes(userID string) []cache.Scope {
	h.mu.Lock()
	defer h.mu.Unlock()

	var scopes []cache.Scope
	for _, subs := range h.subs {
		for _, sub := range subs {
			if sub.scope.UserID == userID {
				scopes = append(scopes, sub.scope)
			}
			break
		}
	}

	return scopes
}
