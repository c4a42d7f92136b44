package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/dispatch"
	"github.com/emrgen/noteforest/internal/graph"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/queue"
	"github.com/emrgen/noteforest/internal/store"
	"github.com/emrgen/noteforest/internal/tree"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewDocumentService creates a new DocumentService. persisted may be nil.
func NewDocumentService(store store.Store, snapshots *cache.SnapshotCache, persisted cache.SnapshotStore, hub queue.SnapshotQueue) *DocumentService {
	if persisted == nil {
		persisted = cache.NopSnapshotStore{}
	}

	service := &DocumentService{
		store:      store,
		snapshots:  snapshots,
		persisted:  persisted,
		hub:        hub,
		dispatcher: dispatch.NewStoreDispatcher(store),
		threshold:  tree.DefaultThreshold,
	}
	service.graphs = graph.NewBuilder(service)

	return service
}

// DocumentService is a service for managing the document forest of a user.
// Reads are served from the snapshot cache, every write goes to the store and
// is followed by a fresh snapshot pushed to the subscribers.
type DocumentService struct {
	store      store.Store
	snapshots  *cache.SnapshotCache
	persisted  cache.SnapshotStore
	hub        queue.SnapshotQueue
	dispatcher dispatch.Dispatcher
	graphs     *graph.Builder
	threshold  float64
	// refreshing holds one *sync.Mutex per user. A refresh reads the store and
	// writes the snapshots under it, so an older read never lands last.
	refreshing sync.Map
}

// WithDispatcher replaces the dispatcher drops are handed to.
func (d *DocumentService) WithDispatcher(dispatcher dispatch.Dispatcher) *DocumentService {
	d.dispatcher = dispatcher
	return d
}

// WithThreshold sets the reparent zone width used by Drop.
func (d *DocumentService) WithThreshold(threshold float64) *DocumentService {
	if threshold > 0 {
		d.threshold = threshold
	}
	return d
}

type CreateDocumentRequest struct {
	ID       string  `json:"id,omitempty"`
	Title    string  `json:"title"`
	ParentID *string `json:"parentId"`
	Content  string  `json:"content,omitempty"`
	Icon     string  `json:"icon,omitempty"`
}

type UpdateDocumentRequest struct {
	Title       *string `json:"title,omitempty"`
	Content     *string `json:"content,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	CoverImage  *string `json:"coverImage,omitempty"`
	IsPublished *bool   `json:"isPublished,omitempty"`
}

// Snapshot returns the cached snapshot of the user. On a miss it is loaded
// from the persisted snapshots, then from the store.
func (d *DocumentService) Snapshot(ctx context.Context, userID string) (*cache.Snapshot, error) {
	scope := cache.UserScope(userID)
	if snapshot, ok := d.snapshots.Get(scope); ok {
		return snapshot, nil
	}

	unlock := d.lockUser(userID)
	defer unlock()

	if snapshot, ok := d.snapshots.Get(scope); ok {
		return snapshot, nil
	}

	docs, ok, err := d.persisted.Load(ctx, scope)
	if err != nil {
		logrus.Warnf("failed to load persisted snapshot of %s: %v", userID, err)
	}
	if ok {
		return d.snapshots.Replace(scope, docs), nil
	}

	return d.refresh(ctx, userID)
}

func (d *DocumentService) lockUser(userID string) func() {
	mu, _ := d.refreshing.LoadOrStore(userID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()

	return mu.(*sync.Mutex).Unlock
}

// Refresh reloads the documents of a user, replaces the cached snapshots and
// pushes them to the subscribers of every scope of the user.
func (d *DocumentService) Refresh(ctx context.Context, userID string) (*cache.Snapshot, error) {
	unlock := d.lockUser(userID)
	defer unlock()

	return d.refresh(ctx, userID)
}

func (d *DocumentService) refresh(ctx context.Context, userID string) (*cache.Snapshot, error) {
	docs, err := d.store.ListDocuments(ctx, store.Active(userID))
	if err != nil {
		return nil, err
	}

	scope := cache.UserScope(userID)
	snapshot := d.snapshots.Replace(scope, docs)
	if err := d.persisted.Save(ctx, scope, docs); err != nil {
		logrus.Warnf("failed to persist snapshot of %s: %v", userID, err)
	}
	if err := d.hub.Publish(ctx, scope, snapshot.Documents()); err != nil {
		return nil, err
	}

	for _, sub := range d.hub.Scopes(userID) {
		if sub.Key() == scope.Key() {
			continue
		}

		children := snapshot.ChildrenOf(sub.Parent)
		d.snapshots.Replace(sub, children)
		if err := d.hub.Publish(ctx, sub, children); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// changed runs after every committed write. The write already happened, a
// failing refresh is only logged and repaired by the next one.
func (d *DocumentService) changed(ctx context.Context, userID string) {
	if err := d.persisted.Invalidate(ctx, userID); err != nil {
		logrus.Warnf("failed to invalidate persisted snapshots of %s: %v", userID, err)
	}
	d.snapshots.Drop(userID)

	if _, err := d.Refresh(ctx, userID); err != nil {
		logrus.Errorf("failed to refresh snapshot of %s: %v", userID, err)
	}
}

// CreateDocument creates a new document, at the root unless a parent is given.
func (d *DocumentService) CreateDocument(ctx context.Context, userID string, request *CreateDocumentRequest) (*model.Document, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = model.DefaultTitle
	}

	if request.ParentID != nil {
		parent, err := d.GetDocument(ctx, userID, *request.ParentID)
		if errors.Is(err, ErrDocumentNotFound) || (err == nil && parent.IsArchived) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	doc := &model.Document{
		ID:       request.ID,
		UserID:   userID,
		Title:    title,
		ParentID: request.ParentID,
		Order:    0,
		Content:  request.Content,
		Icon:     request.Icon,
		Tags:     model.StringList{},
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	if err := d.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	logrus.Infof("created document %s for %s", doc.ID, userID)

	d.changed(ctx, userID)

	return doc, nil
}

// GetDocument returns a document of the user, archived or not.
func (d *DocumentService) GetDocument(ctx context.Context, userID, id string) (*model.Document, error) {
	doc, err := d.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}

	return doc, nil
}

// UpdateDocument applies a partial update of the document fields.
func (d *DocumentService) UpdateDocument(ctx context.Context, userID, id string, request *UpdateDocumentRequest) (*model.Document, error) {
	if _, err := d.GetDocument(ctx, userID, id); err != nil {
		return nil, err
	}

	patch := store.Patch{
		Content:     request.Content,
		Icon:        request.Icon,
		CoverImage:  request.CoverImage,
		IsPublished: request.IsPublished,
	}
	if request.Title != nil {
		title := strings.TrimSpace(*request.Title)
		if title == "" {
			return nil, ErrEmptyTitle
		}
		patch.Title = &title
	}

	if err := d.store.UpdateDocumentFields(ctx, id, patch); err != nil {
		return nil, err
	}
	d.changed(ctx, userID)

	return d.GetDocument(ctx, userID, id)
}

// ListDocuments returns every active document of the user ordered by (order, id).
func (d *DocumentService) ListDocuments(ctx context.Context, userID string) ([]*model.Document, error) {
	snapshot, err := d.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	return snapshot.Documents(), nil
}

// ListChildren returns the active children of parentID, the roots when nil.
func (d *DocumentService) ListChildren(ctx context.Context, userID string, parentID *string) ([]*model.Document, error) {
	snapshot, err := d.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	return snapshot.ChildrenOf(parentID), nil
}

// SearchDocuments lists the active documents of the user by title, descending.
func (d *DocumentService) SearchDocuments(ctx context.Context, userID string) ([]*model.Document, error) {
	filter := store.Active(userID)
	filter.Sort = store.SortByTitleDesc

	return d.store.ListDocuments(ctx, filter)
}

// ArchiveDocument moves a document to the trash. Its children stay where they
// are and show up as roots until it is restored.
func (d *DocumentService) ArchiveDocument(ctx context.Context, userID, id string) error {
	return d.setArchived(ctx, userID, id, true)
}

// RestoreDocument takes a document out of the trash.
func (d *DocumentService) RestoreDocument(ctx context.Context, userID, id string) error {
	return d.setArchived(ctx, userID, id, false)
}

func (d *DocumentService) setArchived(ctx context.Context, userID, id string, archived bool) error {
	if _, err := d.GetDocument(ctx, userID, id); err != nil {
		return err
	}

	if err := d.store.UpdateDocumentFields(ctx, id, store.Patch{IsArchived: &archived}); err != nil {
		return err
	}
	logrus.Infof("document %s archived: %v", id, archived)

	d.changed(ctx, userID)
	return nil
}

// ListTrash lists the archived documents of the user by title, descending.
func (d *DocumentService) ListTrash(ctx context.Context, userID string) ([]*model.Document, error) {
	return d.store.ListDocuments(ctx, store.Archived(userID))
}

// DeleteDocument removes a document and all its descendants for good and
// returns the deleted ids.
func (d *DocumentService) DeleteDocument(ctx context.Context, userID, id string) ([]string, error) {
	if _, err := d.GetDocument(ctx, userID, id); err != nil {
		return nil, err
	}

	deleted, err := d.store.DeleteCascade(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d.changed(ctx, userID)

	return deleted, nil
}

// Graph builds the reference graph around a document from the user snapshot.
// An archived or unknown focal document gives an empty graph.
func (d *DocumentService) Graph(ctx context.Context, userID, focalID string) (*graph.Graph, error) {
	return d.graphs.BuildFor(ctx, userID, focalID)
}
