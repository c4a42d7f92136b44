package store

import (
	"context"
	"errors"

	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/tree"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrTagNotFound is returned when a tag does not exist.
	ErrTagNotFound = errors.New("tag not found")
)

type Store interface {
	DocumentStore
	TagStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument creates a new document.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// ListDocuments retrieves the documents matching the filter.
	ListDocuments(ctx context.Context, filter Filter) ([]*model.Document, error)
	// UpdateDocumentFields applies a partial update to a document.
	UpdateDocumentFields(ctx context.Context, id string, patch Patch) error
	// DeleteCascade deletes a document and all its descendants, returning the deleted ids.
	DeleteCascade(ctx context.Context, userID, id string) ([]string, error)
	// ParentIndex loads the parent of every document of a user, archived ones included.
	ParentIndex(ctx context.Context, userID string) (tree.ParentIndex, error)
	// ListOrphans retrieves the documents of a user whose parent no longer exists.
	ListOrphans(ctx context.Context, userID string) ([]*model.Document, error)
	// ListUserIDs retrieves the ids of the users owning at least one document.
	ListUserIDs(ctx context.Context) ([]string, error)
	// RemoveTag removes a tag from every document of a user.
	RemoveTag(ctx context.Context, userID, tagID string) (int, error)
}

type TagStore interface {
	// CreateTag creates a new tag.
	CreateTag(ctx context.Context, tag *model.Tag) error
	// GetTag retrieves a tag by ID.
	GetTag(ctx context.Context, id string) (*model.Tag, error)
	// ListTags retrieves the tags of a user ordered by name.
	ListTags(ctx context.Context, userID string) ([]*model.Tag, error)
	// DeleteTag deletes a tag by ID.
	DeleteTag(ctx context.Context, id string) error
}

// SortOrder is the order documents are listed in.
type SortOrder int

const (
	// SortByPosition lists by order ascending, then id.
	SortByPosition SortOrder = iota
	// SortByTitleDesc lists by title descending, then id.
	SortByTitleDesc
)

// Filter narrows a document listing. Zero values match everything.
type Filter struct {
	UserID    string
	Archived  *bool
	ParentID  *string
	RootsOnly bool
	TagID     string
	Sort      SortOrder
}

// Active matches the non-archived documents of a user.
func Active(userID string) Filter {
	archived := false
	return Filter{UserID: userID, Archived: &archived}
}

// Archived matches the archived documents of a user.
func Archived(userID string) Filter {
	archived := true
	return Filter{UserID: userID, Archived: &archived, Sort: SortByTitleDesc}
}

// Patch is a partial document update, nil fields are left alone. ParentID is
// only written when SetParent is true, so a document can be moved to the root.
type Patch struct {
	Title       *string
	Content     *string
	Icon        *string
	CoverImage  *string
	IsPublished *bool
	IsArchived  *bool
	SetParent   bool
	ParentID    *string
	Order       *float64
	Tags        *model.StringList
}

func (p Patch) values() map[string]any {
	values := make(map[string]any)
	if p.Title != nil {
		values["title"] = *p.Title
	}
	if p.Content != nil {
		values["content"] = *p.Content
	}
	if p.Icon != nil {
		values["icon"] = *p.Icon
	}
	if p.CoverImage != nil {
		values["cover_image"] = *p.CoverImage
	}
	if p.IsPublished != nil {
		values["is_published"] = *p.IsPublished
	}
	if p.IsArchived != nil {
		values["is_archived"] = *p.IsArchived
	}
	if p.SetParent {
		if p.ParentID == nil {
			values["parent_id"] = nil
		} else {
			values["parent_id"] = *p.ParentID
		}
	}
	if p.Order != nil {
		values["position"] = *p.Order
	}
	if p.Tags != nil {
		values["tags"] = *p.Tags
	}

	return values
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.values()) == 0
}
