package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks knowledge-indexer/internal/vectorstore VectorStore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCollectionNotFound is returned when a named collection does not exist in the store.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrLengthMismatch is returned when the parallel arrays passed to AddDocuments differ in length.
	ErrLengthMismatch = errors.New("ids, vectors, documents and metadatas must have equal length")
)

// QueryResult is one matched chunk returned by a similarity query.
type QueryResult struct {
	ID       string            `json:"id"`
	Document string            `json:"document"`
	Distance float64           `json:"distance"`
	Metadata map[string]string `json:"metadata"`
}

// VectorStore manages named collections of chunks in a vector database.
// Collections are addressed by name; implementations resolve the store-side id
// on every call that needs it and never cache it.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist. An existing collection is not an error.
	EnsureCollection(ctx context.Context, name string) error

	// ResolveCollectionID returns the store-side id of a named collection, or ErrCollectionNotFound.
	ResolveCollectionID(ctx context.Context, name string) (string, error)

	// AddDocuments inserts parallel arrays of ids, vectors, documents and metadata.
	AddDocuments(ctx context.Context, name string, ids []string, vectors [][]float32, documents []string, metadatas []map[string]string) error

	// Query returns up to topK results ordered by ascending distance.
	Query(ctx context.Context, name string, vector []float32, topK int) ([]QueryResult, error)

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// DeleteCollection removes a collection. Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Heartbeat checks that the store is reachable.
	Heartbeat(ctx context.Context) error
}

func validateBatch(ids []string, vectors [][]float32, documents []string, metadatas []map[string]string) error {
	if len(vectors) != len(ids) || len(documents) != len(ids) || len(metadatas) != len(ids) {
		return fmt.Errorf("%w: ids=%d vectors=%d documents=%d metadatas=%d",
			ErrLengthMismatch, len(ids), len(vectors), len(documents), len(metadatas))
	}
	return nil
}
