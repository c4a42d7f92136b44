package server

import (
	"net/http"

	"github.com/emrgen/noteforest/internal/module"
	"github.com/emrgen/noteforest/internal/queue"
	"github.com/emrgen/noteforest/internal/service"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type handlers struct {
	docs *service.DocumentService
	hub  queue.SnapshotQueue
}

// NewRouter exposes the document service over http.
func NewRouter(docs *service.DocumentService, hub queue.SnapshotQueue, tokens module.TokenService) http.Handler {
	h := &handlers{docs: docs, hub: hub}

	router := mux.NewRouter()
	router.Use(RequestTimeMiddleware)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(module.AuthTokenMiddleware(tokens))

	api.HandleFunc("/documents", h.handleListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents", h.handleCreateDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", h.handleGetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", h.handleUpdateDocument).Methods(http.MethodPatch)
	api.HandleFunc("/documents/{id}", h.handleDeleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/documents/{id}/children", h.handleListChildren).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/graph", h.handleGraph).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/archive", h.handleArchive).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/restore", h.handleRestore).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/tags", h.handleSetTags).Methods(http.MethodPut)

	api.HandleFunc("/tree/drop", h.handleDrop).Methods(http.MethodPost)
	api.HandleFunc("/tree/repair", h.handleRepairOrder).Methods(http.MethodPost)
	api.HandleFunc("/trash", h.handleTrash).Methods(http.MethodGet)

	api.HandleFunc("/tags", h.handleListTags).Methods(http.MethodGet)
	api.HandleFunc("/tags", h.handleCreateTag).Methods(http.MethodPost)
	api.HandleFunc("/tags/{id}", h.handleDeleteTag).Methods(http.MethodDelete)

	api.HandleFunc("/events", h.handleEvents).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(router)
}
