package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emrgen/noteforest/internal/module"
	"github.com/emrgen/noteforest/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logrus.Errorf("failed to encode response: %v", err)
		status = http.StatusInternalServerError
		response = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound), errors.Is(err, service.ErrTagNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrParentNotFound),
		errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrEmptyTagName):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMissingUser):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		logrus.Errorf("request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func userOf(r *http.Request) string {
	userID, _ := module.UserFromContext(r.Context())
	return userID
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListDocuments lists the active documents in tree order. roots=true
// keeps the top level only, sort=title lists them by title descending.
func (h *handlers) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		docs any
		err  error
	)
	switch {
	case query.Get("roots") == "true":
		docs, err = h.docs.ListChildren(ctx, userOf(r), nil)
	case query.Get("sort") == "title":
		docs, err = h.docs.SearchDocuments(ctx, userOf(r))
	default:
		docs, err = h.docs.ListDocuments(ctx, userOf(r))
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *handlers) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var request service.CreateDocumentRequest
	if !decode(w, r, &request) {
		return
	}

	doc, err := h.docs.CreateDocument(r.Context(), userOf(r), &request)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

func (h *handlers) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.GetDocument(r.Context(), userOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

func (h *handlers) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var request service.UpdateDocumentRequest
	if !decode(w, r, &request) {
		return
	}

	doc, err := h.docs.UpdateDocument(r.Context(), userOf(r), mux.Vars(r)["id"], &request)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

func (h *handlers) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.docs.DeleteDocument(r.Context(), userOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *handlers) handleListChildren(w http.ResponseWriter, r *http.Request) {
	parentID := mux.Vars(r)["id"]
	docs, err := h.docs.ListChildren(r.Context(), userOf(r), &parentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *handlers) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.docs.Graph(r.Context(), userOf(r), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, g.View())
}

func (h *handlers) handleArchive(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.ArchiveDocument(r.Context(), userOf(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *handlers) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.RestoreDocument(r.Context(), userOf(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *handlers) handleSetTags(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Tags []string `json:"tags"`
	}
	if !decode(w, r, &request) {
		return
	}

	doc, err := h.docs.SetDocumentTags(r.Context(), userOf(r), mux.Vars(r)["id"], request.Tags)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// handleDrop commits a drag and drop. A rejected drop is a normal outcome
// and answers 200 with applied=false.
func (h *handlers) handleDrop(w http.ResponseWriter, r *http.Request) {
	var request service.DropRequest
	if !decode(w, r, &request) {
		return
	}

	result, err := h.docs.Drop(r.Context(), userOf(r), &request)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *handlers) handleRepairOrder(w http.ResponseWriter, r *http.Request) {
	updated, err := h.docs.RepairOrder(r.Context(), userOf(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *handlers) handleTrash(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.ListTrash(r.Context(), userOf(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *handlers) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.docs.ListTags(r.Context(), userOf(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *handlers) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if !decode(w, r, &request) {
		return
	}

	tag, err := h.docs.CreateTag(r.Context(), userOf(r), request.Name, request.Color)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, tag)
}

func (h *handlers) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.DeleteTag(r.Context(), userOf(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
