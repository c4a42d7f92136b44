package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/emrgen/noteforest/internal/cache"
	"github.com/emrgen/noteforest/internal/model"
	"github.com/sirupsen/logrus"
)

// handleEvents streams snapshots as server sent events. Without a parent
// query the stream carries every active document of the user, with
// parent=<id> the children of that document and with parent=root the top
// level documents. The current snapshot is sent first.
func (h *handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	userID := userOf(r)

	scope := cache.UserScope(userID)
	switch parent := r.URL.Query().Get("parent"); parent {
	case "":
	case "root":
		scope = cache.ChildrenScope(userID, nil)
	default:
		scope = cache.ChildrenScope(userID, &parent)
	}

	updates, unsubscribe := h.hub.Subscribe(ctx, scope)
	defer unsubscribe()

	snapshot, err := h.docs.Snapshot(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	first := snapshot.Documents()
	if scope.Parent != nil || scope.Roots {
		first = snapshot.ChildrenOf(scope.Parent)
	}
	if err := writeEvent(w, first); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case docs, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, docs); err != nil {
				logrus.Debugf("event stream of %s closed: %v", userID, err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, docs []*model.Document) error {
	if docs == nil {
		docs = []*model.Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
