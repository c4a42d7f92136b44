package service

import (
	"errors"

	"github.com/emrgen/noteforest/internal/store"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist or belongs to another user.
	ErrDocumentNotFound = store.ErrDocumentNotFound
	// ErrTagNotFound is returned when a tag does not exist or belongs to another user.
	ErrTagNotFound = store.ErrTagNotFound
	// ErrParentNotFound is returned when a document is created under a missing or archived parent.
	ErrParentNotFound = errors.New("parent document not found")
	// ErrEmptyTitle is returned when a document is renamed to a blank title.
	ErrEmptyTitle = errors.New("document title is empty")
	// ErrEmptyTagName is returned when a tag is created without a name.
	ErrEmptyTagName = errors.New("tag name is empty")
	// ErrMissingUser is returned when a request carries no user.
	ErrMissingUser = errors.New("missing user")
)
