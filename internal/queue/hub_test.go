package queue

import (
	"context"
	"testing"
	"time"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(ids ...string) []*model.Document {
	out := make([]*model.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, &model.Document{ID: id})
	}
	return out
}

func TestHub_PublishToScope(t *testing.T) {
	hub := NewHub()
	ctx := context.TODO()

	all, cancelAll := hub.Subscribe(ctx, cache.UserScope("u"))
	defer cancelAll()
	other, cancelOther := hub.Subscribe(ctx, cache.UserScope("v"))
	defer cancelOther()

	require.NoError(t, hub.Publish(ctx, cache.UserScope("u"), docs("a")))

	got := <-all
	assert.Equal(t, "a", got[0].ID)

	select {
	case <-other:
		t.Fatal("unexpected snapshot for another user")
	default:
	}
}

func TestHub_LatestSnapshotWins(t *testing.T) {
	hub := NewHub()
	ctx := context.TODO()

	ch, cancel := hub.Subscribe(ctx, cache.UserScope("u"))
	defer cancel()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, hub.Publish(ctx, cache.UserScope("u"), docs(id)))
	}

	got := <-ch
	assert.Equal(t, "3", got[0].ID)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	ctx, cancelCtx := context.WithCancel(context.Background())

	parent := "p"
	_, cancel := hub.Subscribe(context.TODO(), cache.ChildrenScope("u", &parent))
	ch, _ := hub.Subscribe(ctx, cache.UserScope("u"))
	assert.Len(t, hub.Scopes("u"), 2)

	cancel()
	cancel()
	assert.Equal(t, []cache.Scope{cache.UserScope("u")}, hub.Scopes("u"))

	cancelCtx()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	assert.Empty(t, hub.Scopes("u"))

	// publishing without subscribers is fine
	assert.NoError(t, hub.Publish(context.TODO(), cache.UserScope("u"), docs("a")))
}
