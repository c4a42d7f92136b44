package cache

import (
	"context"

	"github.com/emrgen/noteforest/internal/model"
)

// Scope names one subscription of the document store: every document of a
// user, the top level documents of a user, or the children of one parent.
type Scope struct {
	UserID string
	// Parent narrows the scope to the children of one document.
	Parent *string
	// Roots narrows the scope to the documents without a parent.
	Roots bool
}

// UserScope is the scope holding every non-archived document of a user.
func UserScope(userID string) Scope {
	return Scope{UserID: userID}
}

// ChildrenScope is the scope of the children of parentID, or of the roots when
// parentID is nil.
func ChildrenScope(userID string, parentID *string) Scope {
	if parentID == nil {
		return Scope{UserID: userID, Roots: true}
	}
	parent := *parentID
	return Scope{UserID: userID, Parent: &parent}
}

// Key is a stable string identifying the scope.
func (s Scope) Key() string {
	switch {
	case s.Parent != nil:
		return s.UserID + ":parent:" + *s.Parent
	case s.Roots:
		return s.UserID + ":roots"
	default:
		return s.UserID + ":all"
	}
}

// SnapshotStore persists full scope snapshots outside the process so a
// restarted server can warm its in-memory cache.
type SnapshotStore interface {
	// Save stores the documents of a scope, replacing any previous value.
	Save(ctx context.Context, scope Scope, docs []*model.Document) error
	// Load returns the stored documents of a scope, ok is false on a miss.
	Load(ctx context.Context, scope Scope) (docs []*model.Document, ok bool, err error)
	// Invalidate drops every stored scope of a user.
	Invalidate(ctx context.Context, userID string) error
}

var _ SnapshotStore = NopSnapshotStore{}

// NopSnapshotStore never stores anything.
type NopSnapshotStore struct{}

func (NopSnapshotStore) Save(context.Context, Scope, []*model.Document) error {
	return nil
}

func (NopSnapshotStore) Load(context.Context, Scope) ([]*model.Document, bool, error) {
	return nil, false, nil
}

func (NopSnapshotStore) Invalidate(context.Context, string) error {
	return nil
}
