package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_embedder.go -package=mocks knowledge-indexer/internal/service QueryEmbedder
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks -mock_names=SearchService=MockSearchService knowledge-indexer/internal/service SearchService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"knowledge-indexer/internal/contextutil"
	"knowledge-indexer/internal/vectorstore"
)

// DefaultTopK is used when a search request does not set TopK.
const DefaultTopK = 5

// MaxTopK bounds the number of results a single search may request.
const MaxTopK = 100

// QueryEmbedder embeds a single search query.
// This interface is defined from the service layer's perspective (consumer-first).
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchRequest represents a similarity search in the domain layer.
type SearchRequest struct {
	Collection string // empty uses the service default
	Query      string
	TopK       int
}

// SearchResponse holds results ordered by ascending distance.
type SearchResponse struct {
	Collection string
	Results    []vectorstore.QueryResult
}

// SearchService answers similarity queries against an indexed collection.
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

type searchService struct {
	embedder          QueryEmbedder
	store             vectorstore.VectorStore
	defaultCollection string
}

// NewSearchService creates a new SearchService.
func NewSearchService(embedder QueryEmbedder, store vectorstore.VectorStore, defaultCollection string) SearchService {
	return &searchService{
		embedder:          embedder,
		store:             store,
		defaultCollection: defaultCollection,
	}
}

// Search embeds the query and returns the nearest chunks.
func (s *searchService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return SearchResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	if req.TopK <= 0 || req.TopK > MaxTopK {
		return SearchResponse{}, &ValidationError{Field: "top_k", Message: fmt.Sprintf("must be between 1 and %d", MaxTopK)}
	}
	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return SearchResponse{}, &StageError{Stage: "embed", Document: "query", Kind: ErrEmbedding, Err: err}
	}

	results, err := s.store.Query(ctx, collection, vector, req.TopK)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return SearchResponse{}, fmt.Errorf("%w: collection %s", ErrNotFound, collection)
		}
		logger.ErrorContext(ctx, "failed to query vector store", "collection", collection, "error", err)
		return SearchResponse{}, &StageError{Stage: "query", Document: collection, Kind: ErrStore, Err: err}
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "top_k", req.TopK, "results", len(results))
	return SearchResponse{Collection: collection, Results: results}, nil
}
