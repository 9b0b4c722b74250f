package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"knowledge-indexer/internal/contextutil"
	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/vectorstore"
)

// CollectionsHandler handles HTTP requests for listing and deleting collections.
type CollectionsHandler struct {
	vectorStore vectorstore.VectorStore
}

// NewCollectionsHandler creates a new CollectionsHandler.
func NewCollectionsHandler(vectorStore vectorstore.VectorStore) *CollectionsHandler {
	return &CollectionsHandler{vectorStore: vectorStore}
}

// CollectionsResponse lists collection names.
//
// swagger:model CollectionsResponse
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// List returns every collection in the vector store.
//
// swagger:route GET /api/collections listCollections
func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := h.vectorStore.ListCollections(ctx)
	if err != nil {
		handleServiceError(w, ctx, fmt.Errorf("%w: %w", service.ErrStore, err), "Failed to list collections")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, ctx, http.StatusOK, CollectionsResponse{Collections: names})
}

// Delete removes a collection. Deleting a missing collection succeeds.
//
// swagger:route DELETE /api/collections/{name} deleteCollection
func (h *CollectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		handleServiceError(w, ctx, &service.ValidationError{Field: "name", Message: "must not be empty"}, "")
		return
	}

	if err := h.vectorStore.DeleteCollection(ctx, name); err != nil {
		handleServiceError(w, ctx, fmt.Errorf("%w: %w", service.ErrStore, err), "Failed to delete collection")
		return
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection deleted", "collection", name)
	w.WriteHeader(http.StatusNoContent)
}
