package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/emrgen/noteforest/internal/model"
)

// SnapshotCache holds the latest snapshot of every scope. Replace swaps a
// whole snapshot at once, readers never observe a partially applied push.
type SnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		snapshots: make(map[string]*Snapshot),
	}
}

// Replace indexes docs and makes them the visible snapshot of scope.
func (c *SnapshotCache) Replace(scope Scope, docs []*model.Document) *Snapshot {
	snapshot := NewSnapshot(docs)

	c.mu.Lock()
	c.snapshots[scope.Key()] = snapshot
	c.mu.Unlock()

	return snapshot
}

// Get returns the current snapshot of scope.
func (c *SnapshotCache) Get(scope Scope) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot, ok := c.snapshots[scope.Key()]
	return snapshot, ok
}

// Current returns the snapshot of scope, or an empty one.
func (c *SnapshotCache) Current(scope Scope) *Snapshot {
	if snapshot, ok := c.Get(scope); ok {
		return snapshot
	}

	return EmptySnapshot()
}

// Snapshot returns the current snapshot of every document of a user.
func (c *SnapshotCache) Snapshot(_ context.Context, userID string) (*Snapshot, error) {
	return c.Current(UserScope(userID)), nil
}

// Drop forgets every scope of a user.
func (c *SnapshotCache) Drop(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.snapshots {
		if strings.HasPrefix(key, userID+":") {
			delete(c.snapshots, key)
		}
	}
}
