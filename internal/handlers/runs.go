package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/storage"
)

// DefaultRunsLimit is the number of runs listed when no limit is given.
const DefaultRunsLimit = 20

// RunsHandler serves the indexing run ledger.
type RunsHandler struct {
	runStore storage.RunStore
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(runStore storage.RunStore) *RunsHandler {
	return &RunsHandler{runStore: runStore}
}

// RunsResponse lists recent runs.
//
// swagger:model RunsResponse
type RunsResponse struct {
	Runs []storage.RunRecord `json:"runs"`
}

// RunResponse is one run with its per-document results.
//
// swagger:model RunResponse
type RunResponse struct {
	Run     storage.RunRecord      `json:"run"`
	Results []storage.ResultRecord `json:"results"`
}

// List returns the most recent runs first.
//
// swagger:route GET /api/runs listRuns
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := DefaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handleServiceError(w, ctx, &service.ValidationError{Field: "limit", Message: "must be a positive integer"}, "")
			return
		}
		limit = n
	}

	runs, err := h.runStore.ListRuns(ctx, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list runs")
		return
	}
	writeJSON(w, ctx, http.StatusOK, RunsResponse{Runs: runs})
}

// Get returns one run and its results.
//
// swagger:route GET /api/runs/{id} getRun
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	run, err := h.runStore.GetRun(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get run")
		return
	}
	results, err := h.runStore.ListResults(ctx, id)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get run results")
		return
	}
	writeJSON(w, ctx, http.StatusOK, RunResponse{Run: *run, Results: results})
}
