package handlers

import (
	"net/http"

	"knowledge-indexer/internal/contextutil"
	"knowledge-indexer/internal/service"
	"knowledge-indexer/internal/vectorstore"
)

// SearchHandler handles HTTP requests for similarity search.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchRequest represents the HTTP request payload for search.
// An omitted top_k defaults to service.DefaultTopK; an explicit one is validated as given.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query      string `json:"query"`
	TopK       *int   `json:"top_k,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// SearchResponse represents the HTTP response payload for search.
//
// swagger:model SearchResponse
type SearchResponse struct {
	Collection string                    `json:"collection"`
	Results    []vectorstore.QueryResult `json:"results"`
}

// ServeHTTP handles HTTP requests for search.
//
// swagger:route POST /api/search search
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	topK := service.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	svcResp, err := h.searchService.Search(ctx, service.SearchRequest{
		Collection: req.Collection,
		Query:      req.Query,
		TopK:       topK,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search")
		return
	}

	writeJSON(w, ctx, http.StatusOK, SearchResponse{
		Collection: svcResp.Collection,
		Results:    svcResp.Results,
	})
}
