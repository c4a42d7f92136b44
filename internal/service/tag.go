package service

import (
	"context"
	"strings"

	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateTag creates a tag for the user.
func (d *DocumentService) CreateTag(ctx context.Context, userID, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTagName
	}
	if color == "" {
		color = model.DefaultTagColor
	}

	tag := &model.Tag{
		ID:     uuid.New().String(),
		UserID: userID,
		Name:   name,
		Color:  color,
	}
	if err := d.store.CreateTag(ctx, tag); err != nil {
		return nil, err
	}

	return tag, nil
}

// ListTags lists the tags of the user by name.
func (d *DocumentService) ListTags(ctx context.Context, userID string) ([]*model.Tag, error) {
	return d.store.ListTags(ctx, userID)
}

// DeleteTag deletes a tag and removes it from every document of the user.
func (d *DocumentService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if err := d.ownTag(ctx, userID, tagID); err != nil {
		return err
	}

	var untagged int
	err := d.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if untagged, err = tx.RemoveTag(ctx, userID, tagID); err != nil {
			return err
		}
		return tx.DeleteTag(ctx, tagID)
	})
	if err != nil {
		return err
	}
	logrus.Infof("deleted tag %s, removed from %d documents", tagID, untagged)

	d.changed(ctx, userID)
	return nil
}

// SetDocumentTags replaces the tags of a document. Every tag must belong to the user.
func (d *DocumentService) SetDocumentTags(ctx context.Context, userID, docID string, tagIDs []string) (*model.Document, error) {
	if _, err := d.GetDocument(ctx, userID, docID); err != nil {
		return nil, err
	}

	tags := make(model.StringList, 0, len(tagIDs))
	for _, id := range tagIDs {
		if tags.Contains(id) {
			continue
		}
		if err := d.ownTag(ctx, userID, id); err != nil {
			return nil, err
		}
		tags = append(tags, id)
	}

	if err := d.store.UpdateDocumentFields(ctx, docID, store.Patch{Tags: &tags}); err != nil {
		return nil, err
	}
	d.changed(ctx, userID)

	return d.GetDocument(ctx, userID, docID)
}

func (d *DocumentService) ownTag(ctx context.Context, userID, tagID string) error {
	tag, err := d.store.GetTag(ctx, tagID)
	if err != nil {
		return err
	}
	if tag.UserID != userID {
		return ErrTagNotFound
	}

	return nil
}
