package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/compress"
	"github.com/emrgen/noteforest/internal/dispatch"
	"github.com/emrgen/noteforest/internal/job"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/emrgen/noteforest/internal/queue"
	"github.com/emrgen/noteforest/internal/store"
	"github.com/emrgen/noteforest/internal/tester"
	"github.com/emrgen/noteforest/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "user-1"

func newService(t *testing.T) (*DocumentService, *queue.Hub) {
	t.Helper()
	tester.Setup()

	hub := queue.NewHub()
	persisted := cache.NewRedisSnapshotStore(tester.Redis(t), compress.NewGZip(), time.Hour)
	svc := NewDocumentService(store.NewGormStore(tester.TestDB()), cache.NewSnapshotCache(), persisted, hub)

	return svc, hub
}

func content(t *testing.T, text string) string {
	t.Helper()
	data, err := model.EncodeBlocks([]model.Block{model.TextBlock(text)})
	require.NoError(t, err)

	return data
}

func titles(docs []*model.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Title)
	}
	return out
}

func TestDocumentService_CreateDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	tests := []struct {
		name      string
		request   CreateDocumentRequest
		wantTitle string
		wantErr   error
	}{
		{name: "default title", request: CreateDocumentRequest{}, wantTitle: model.DefaultTitle},
		{name: "trimmed title", request: CreateDocumentRequest{Title: "  Ideas "}, wantTitle: "Ideas"},
		{name: "missing parent", request: CreateDocumentRequest{Title: "x", ParentID: ptr("nope")}, wantErr: ErrParentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := svc.CreateDocument(ctx, user, &tt.request)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, doc.ID)
			assert.Equal(t, tt.wantTitle, doc.Title)
			assert.Equal(t, 0.0, doc.Order)
			assert.Nil(t, doc.ParentID)

			got, err := svc.GetDocument(ctx, user, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
		})
	}

	_, err := svc.CreateDocument(ctx, "", &CreateDocumentRequest{})
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestDocumentService_CreateUnderParent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	parent, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "parent"})
	require.NoError(t, err)
	child, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "child", ParentID: &parent.ID})
	require.NoError(t, err)

	children, err := svc.ListChildren(ctx, user, &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, ids(children))

	// another user cannot see or nest under it
	_, err = svc.GetDocument(ctx, "user-2", parent.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	_, err = svc.CreateDocument(ctx, "user-2", &CreateDocumentRequest{ParentID: &parent.ID})
	assert.ErrorIs(t, err, ErrParentNotFound)

	require.NoError(t, svc.ArchiveDocument(ctx, user, parent.ID))
	_, err = svc.CreateDocument(ctx, user, &CreateDocumentRequest{ParentID: &parent.ID})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestDocumentService_UpdateDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	doc, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "draft"})
	require.NoError(t, err)

	updated, err := svc.UpdateDocument(ctx, user, doc.ID, &UpdateDocumentRequest{
		Title:       ptr(" final "),
		Icon:        ptr("📘"),
		IsPublished: ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "📘", updated.Icon)
	assert.True(t, updated.IsPublished)

	_, err = svc.UpdateDocument(ctx, user, doc.ID, &UpdateDocumentRequest{Title: ptr("   ")})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.UpdateDocument(ctx, "user-2", doc.ID, &UpdateDocumentRequest{Title: ptr("mine")})
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	docs, err := svc.ListDocuments(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"final"}, titles(docs))
}

func TestDocumentService_ArchiveRestoreTrash(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	parent, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "b-parent"})
	require.NoError(t, err)
	child, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "child", ParentID: &parent.ID})
	require.NoError(t, err)
	other, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "a-other"})
	require.NoError(t, err)

	require.NoError(t, svc.ArchiveDocument(ctx, user, parent.ID))
	require.NoError(t, svc.ArchiveDocument(ctx, user, other.ID))

	trash, err := svc.ListTrash(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-parent", "a-other"}, titles(trash))

	// the child of an archived parent is shown as a root
	roots, err := svc.ListChildren(ctx, user, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, ids(roots))

	require.NoError(t, svc.RestoreDocument(ctx, user, parent.ID))
	roots, err = svc.ListChildren(ctx, user, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{parent.ID}, ids(roots))

	assert.ErrorIs(t, svc.ArchiveDocument(ctx, user, "missing"), ErrDocumentNotFound)
}

func TestDocumentService_DeleteDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	keep, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "keep"})
	require.NoError(t, err)
	root, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "root"})
	require.NoError(t, err)
	child, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "child", ParentID: &root.ID})
	require.NoError(t, err)
	grandchild, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "grandchild", ParentID: &child.ID})
	require.NoError(t, err)

	deleted, err := svc.DeleteDocument(ctx, user, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{grandchild.ID, child.ID, root.ID}, deleted)

	docs, err := svc.ListDocuments(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids(docs))

	for _, id := range deleted {
		children, err := svc.ListChildren(ctx, user, &id)
		require.NoError(t, err)
		assert.Empty(t, children)
	}

	_, err = svc.DeleteDocument(ctx, user, root.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDocumentService_Graph(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	a, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "A", Content: content(t, "hello [[B]]")})
	require.NoError(t, err)
	b, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "B", Content: content(t, "B has no links")})
	require.NoError(t, err)

	for _, focal := range []string{a.ID, b.ID} {
		g, err := svc.Graph(ctx, user, focal)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(g.Nodes))
		require.Len(t, g.Edges, 1)
		assert.Equal(t, a.ID, g.Edges[0].Source)
		assert.Equal(t, b.ID, g.Edges[0].Target)
	}

	require.NoError(t, svc.ArchiveDocument(ctx, user, b.ID))
	g, err := svc.Graph(ctx, user, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(g.Nodes))
	assert.Empty(t, g.Edges)
}

func TestDocumentService_Drop(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	first, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "1-first", Title: "first"})
	require.NoError(t, err)
	second, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "2-second", Title: "second"})
	require.NoError(t, err)
	third, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "3-third", Title: "third"})
	require.NoError(t, err)

	// all created with order 0, ties broken by id
	result, err := svc.Drop(ctx, user, &DropRequest{SourceID: third.ID, TargetID: first.ID, Offset: 100, Side: tree.Before})
	require.NoError(t, err)
	assert.True(t, result.Applied)

	roots, err := svc.ListChildren(ctx, user, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second"}, titles(roots))

	// nest first under second, then try to move second into first
	result, err = svc.Drop(ctx, user, &DropRequest{SourceID: first.ID, TargetID: second.ID, Offset: 5})
	require.NoError(t, err)
	require.True(t, result.Applied)

	children, err := svc.ListChildren(ctx, user, &second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids(children))

	result, err = svc.Drop(ctx, user, &DropRequest{SourceID: second.ID, TargetID: first.ID, Offset: 5})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, tree.ErrCycle.Error(), result.Reason)

	result, err = svc.Drop(ctx, user, &DropRequest{SourceID: second.ID, TargetID: second.ID, Offset: 50})
	require.NoError(t, err)
	assert.False(t, result.Applied)

	result, err = svc.Drop(ctx, user, &DropRequest{SourceID: second.ID, TargetID: "gone", Offset: 50})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, tree.ErrTargetMissing.Error(), result.Reason)
}

func TestDocumentService_DropNextToRootLikeDocument(t *testing.T) {
	tests := []struct {
		name   string
		detach func(t *testing.T, svc *DocumentService)
	}{
		{
			name: "parent archived",
			detach: func(t *testing.T, svc *DocumentService) {
				require.NoError(t, svc.ArchiveDocument(context.TODO(), user, "x"))
			},
		},
		{
			name: "parent row gone",
			detach: func(t *testing.T, svc *DocumentService) {
				require.NoError(t, tester.TestDB().Delete(&model.Document{}, "id = ?", "x").Error)
				_, err := svc.Refresh(context.TODO(), user)
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			ctx := context.TODO()

			_, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "a", Title: "a"})
			require.NoError(t, err)
			_, err = svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "x", Title: "x"})
			require.NoError(t, err)
			_, err = svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "c", Title: "c", ParentID: ptr("x")})
			require.NoError(t, err)

			tt.detach(t, svc)

			roots, err := svc.ListChildren(ctx, user, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, ids(roots))

			result, err := svc.Drop(ctx, user, &DropRequest{SourceID: "a", TargetID: "c", Offset: 100, Side: tree.After})
			require.NoError(t, err)
			require.True(t, result.Applied)
			assert.Nil(t, result.Intent.ParentID)

			roots, err = svc.ListChildren(ctx, user, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "a"}, ids(roots))

			// emptying the trash and sweeping orphans must leave a alone
			_, _ = svc.DeleteDocument(ctx, user, "x")
			_, err = job.NewOrphanSweeper(store.NewGormStore(tester.TestDB()), svc, time.Minute).Sweep(ctx)
			require.NoError(t, err)

			_, err = svc.GetDocument(ctx, user, "c")
			assert.ErrorIs(t, err, ErrDocumentNotFound)
			doc, err := svc.GetDocument(ctx, user, "a")
			require.NoError(t, err)
			assert.Nil(t, doc.ParentID)
		})
	}
}

func TestDocumentService_DropWithRecorder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()
	recorder := &dispatch.Recorder{}
	svc.WithDispatcher(recorder).WithThreshold(40)

	a, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "a"})
	require.NoError(t, err)
	b, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "b"})
	require.NoError(t, err)

	result, err := svc.Drop(ctx, user, &DropRequest{SourceID: a.ID, TargetID: b.ID, Offset: 30})
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.Len(t, recorder.Intents, 1)
	assert.Equal(t, tree.ReparentZone, recorder.Intents[0].Zone)

	// nothing was persisted
	children, err := svc.ListChildren(ctx, user, &b.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestDocumentService_RepairOrder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: id, Title: id})
		require.NoError(t, err)
	}

	updated, err := svc.RepairOrder(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	docs, err := svc.ListDocuments(ctx, user)
	require.NoError(t, err)
	orders := make([]float64, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Order)
	}
	assert.Equal(t, []float64{0, 1, 2}, orders)

	updated, err = svc.RepairOrder(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestDocumentService_Tags(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.TODO()

	work, err := svc.CreateTag(ctx, user, "work", "")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTagColor, work.Color)
	home, err := svc.CreateTag(ctx, user, "home", "#00ff00")
	require.NoError(t, err)
	foreign, err := svc.CreateTag(ctx, "user-2", "theirs", "")
	require.NoError(t, err)

	_, err = svc.CreateTag(ctx, user, " ", "")
	assert.ErrorIs(t, err, ErrEmptyTagName)

	doc, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "tagged"})
	require.NoError(t, err)

	doc, err = svc.SetDocumentTags(ctx, user, doc.ID, []string{work.ID, home.ID, work.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StringList{work.ID, home.ID}, doc.Tags)

	_, err = svc.SetDocumentTags(ctx, user, doc.ID, []string{foreign.ID})
	assert.ErrorIs(t, err, ErrTagNotFound)

	require.NoError(t, svc.DeleteTag(ctx, user, work.ID))
	doc, err = svc.GetDocument(ctx, user, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{home.ID}, doc.Tags)

	tags, err := svc.ListTags(ctx, user)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "home", tags[0].Name)

	assert.ErrorIs(t, svc.DeleteTag(ctx, user, foreign.ID), ErrTagNotFound)
}

func TestDocumentService_PushesSnapshots(t *testing.T) {
	svc, hub := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe := hub.Subscribe(ctx, cache.UserScope(user))
	defer unsubscribe()

	doc, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{Title: "pushed"})
	require.NoError(t, err)

	select {
	case docs := <-updates:
		assert.Equal(t, []string{doc.ID}, ids(docs))
	case <-time.After(time.Second):
		t.Fatal("no snapshot pushed")
	}
}

func TestDocumentService_WarmsFromPersistedSnapshot(t *testing.T) {
	tester.Setup()
	ctx := context.TODO()

	redis := tester.Redis(t)
	persisted := cache.NewRedisSnapshotStore(redis, compress.NewNop(), time.Hour)
	docs := []*model.Document{{ID: "cached", UserID: user, Title: "from redis"}}
	require.NoError(t, persisted.Save(ctx, cache.UserScope(user), docs))

	svc := NewDocumentService(store.NewGormStore(tester.TestDB()), cache.NewSnapshotCache(), persisted, queue.NewHub())
	got, err := svc.ListDocuments(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"from redis"}, titles(got))
}

func ptr[T any](v T) *T {
	return &v
}

func ids(docs []*model.Document) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ID)
	}
	return out
}

// pausingStore holds the first active listing after its read until released.
type pausingStore struct {
	store.Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListDocuments(ctx context.Context, filter store.Filter) ([]*model.Document, error) {
	docs, err := p.Store.ListDocuments(ctx, filter)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})

	return docs, err
}

func TestDocumentService_RefreshKeepsNewestRead(t *testing.T) {
	tester.Setup()
	ctx := context.TODO()

	base := store.NewGormStore(tester.TestDB())
	require.NoError(t, base.CreateDocument(ctx, &model.Document{ID: "a", UserID: user, Title: "a", Tags: model.StringList{}}))

	paused := &pausingStore{Store: base, read: make(chan struct{}), release: make(chan struct{})}
	svc := NewDocumentService(paused, cache.NewSnapshotCache(), nil, queue.NewHub())

	// a scheduled refresh reads [a] and stalls
	stale := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx, user)
		stale <- err
	}()
	<-paused.read

	created := make(chan error, 1)
	go func() {
		_, err := svc.CreateDocument(ctx, user, &CreateDocumentRequest{ID: "b", Title: "b"})
		created <- err
	}()

	require.Eventually(t, func() bool {
		_, err := base.GetDocument(ctx, "b")
		return err == nil
	}, time.Second, 5*time.Millisecond)
	// room for an unserialized refresh of the create to finish first
	time.Sleep(50 * time.Millisecond)

	close(paused.release)
	require.NoError(t, <-stale)
	require.NoError(t, <-created)

	docs, err := svc.ListDocuments(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(docs))

	result, err := svc.Drop(ctx, user, &DropRequest{SourceID: "a", TargetID: "b", Offset: 5})
	require.NoError(t, err)
	assert.True(t, result.Applied)
}
