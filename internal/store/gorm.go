package store

import (
	"context"
	"errors"

	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/tree"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func (g *GormStore) ListDocuments(ctx context.Context, filter Filter) ([]*model.Document, error) {
	query := g.db.WithContext(ctx).Model(&model.Document{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Archived != nil {
		query = query.Where("is_archived = ?", *filter.Archived)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	} else if filter.RootsOnly {
		query = query.Where("parent_id IS NULL")
	}
	if filter.TagID != "" {
		query = query.Where("tags LIKE ?", `%"`+filter.TagID+`"%`)
	}

	switch filter.Sort {
	case SortByTitleDesc:
		query = query.Order("title desc").Order("id asc")
	default:
		query = query.Order("position asc").Order("id asc")
	}

	var docs []*model.Document
	err := query.Find(&docs).Error
	return docs, err
}

func (g *GormStore) UpdateDocumentFields(ctx context.Context, id string, patch Patch) error {
	values := patch.values()
	if len(values) == 0 {
		_, err := g.GetDocument(ctx, id)
		return err
	}

	res := g.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDocumentNotFound
	}

	return nil
}

// DeleteCascade removes id and every descendant in one transaction. The
// descendants go first, children before parents. Ids already gone are
// skipped, so a failed cascade can simply be run again.
func (g *GormStore) DeleteCascade(ctx context.Context, userID, id string) ([]string, error) {
	var deleted []string
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		index, err := (&GormStore{db: tx}).ParentIndex(ctx, userID)
		if err != nil {
			return err
		}

		plan := tree.PlanCascade(id, index)
		for _, docID := range plan {
			res := tx.Where("id = ? AND user_id = ?", docID, userID).Delete(&model.Document{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				deleted = append(deleted, docID)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("deleted document %s with %d descendants", id, max(len(deleted)-1, 0))

	return deleted, nil
}

func (g *GormStore) ParentIndex(ctx context.Context, userID string) (tree.ParentIndex, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Select("id", "parent_id").Where("user_id = ?", userID).Find(&docs).Error
	if err != nil {
		return nil, err
	}

	return tree.NewParentIndex(docs), nil
}

func (g *GormStore) ListOrphans(ctx context.Context, userID string) ([]*model.Document, error) {
	var docs []*model.Document
	db := g.db.WithContext(ctx)
	err := db.
		Where("user_id = ? AND parent_id IS NOT NULL", userID).
		Where("parent_id NOT IN (?)", db.Model(&model.Document{}).Select("id")).
		Order("id asc").
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).Model(&model.Document{}).Distinct().Order("user_id").Pluck("user_id", &ids).Error
	return ids, err
}

func (g *GormStore) RemoveTag(ctx context.Context, userID, tagID string) (int, error) {
	docs, err := g.ListDocuments(ctx, Filter{UserID: userID, TagID: tagID})
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, doc := range docs {
		if !doc.Tags.Contains(tagID) {
			continue
		}
		tags := doc.Tags.Without(tagID)
		if err := g.UpdateDocumentFields(ctx, doc.ID, Patch{Tags: &tags}); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

func (g *GormStore) CreateTag(ctx context.Context, tag *model.Tag) error {
	return g.db.WithContext(ctx).Create(tag).Error
}

func (g *GormStore) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}

	return &tag, nil
}

func (g *GormStore) ListTags(ctx context.Context, userID string) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("name asc").Find(&tags).Error
	return tags, err
}

func (g *GormStore) DeleteTag(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Tag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTagNotFound
	}

	return nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
