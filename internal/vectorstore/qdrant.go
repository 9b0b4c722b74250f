package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"knowledge-indexer/internal/contextutil"
)

const (
	payloadChunkID  = "chunk_id"
	payloadDocument = "document"
)

// QdrantStore implements VectorStore using Qdrant over gRPC.
// Qdrant addresses collections by name, so the resolved id is the name itself.
type QdrantStore struct {
	client     *qdrant.Client
	vectorSize int
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
// vectorSize is used when a collection has to be created before any vectors are known;
// 0 defers creation until the first AddDocuments call.
func NewQdrantStore(urlStr string, vectorSize int) (*QdrantStore, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		vectorSize: vectorSize,
	}, nil
}

// grpcAddress derives the gRPC host and port from the Qdrant HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// PointID maps a chunk id to the deterministic UUID Qdrant requires as a point id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// EnsureCollection creates the collection with the configured vector size if it is missing.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string) error {
	return s.ensureCollection(ctx, name, s.vectorSize)
}

func (s *QdrantStore) ensureCollection(ctx context.Context, name string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}
	if vectorSize <= 0 {
		return fmt.Errorf("cannot create collection %s: vector size unknown", name)
	}

	logger.InfoContext(ctx, "creating collection", "collection", name, "vector_size", vectorSize)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// A concurrent creator may have won the race.
		if exists, checkErr := s.client.CollectionExists(ctx, name); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// ResolveCollectionID returns name when the collection exists.
func (s *QdrantStore) ResolveCollectionID(ctx context.Context, name string) (string, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return name, nil
}

// AddDocuments upserts the batch. Chunk ids are kept in the chunk_id payload field.
func (s *QdrantStore) AddDocuments(ctx context.Context, name string, ids []string, vectors [][]float32, documents []string, metadatas []map[string]string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateBatch(ids, vectors, documents, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx, name, len(vectors[0])); err != nil {
		return err
	}
	collection, err := s.ResolveCollectionID(ctx, name)
	if err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(ids))
	for i, id := range ids {
		payload := make(map[string]any, len(metadatas[i])+2)
		for k, v := range metadatas[i] {
			payload[k] = v
		}
		payload[payloadChunkID] = id
		payload[payloadDocument] = documents[i]

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", name, "count", len(ids), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", name, "count", len(ids))
	return nil
}

// Query searches the collection. Cosine similarity is reported as distance = 1 - score.
func (s *QdrantStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]QueryResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	collection, err := s.ResolveCollectionID(ctx, name)
	if err != nil {
		return nil, err
	}

	limit := uint64(topK)
	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", name, "top_k", topK, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]QueryResult, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		results = append(results, scoredPointToResult(point))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	logger.InfoContext(ctx, "search completed", "collection", name, "top_k", topK, "results", len(results))
	return results, nil
}

func scoredPointToResult(point *qdrant.ScoredPoint) QueryResult {
	result := QueryResult{
		Distance: 1 - float64(point.GetScore()),
		Metadata: map[string]string{},
	}
	if point.GetId() != nil {
		result.ID = point.GetId().GetUuid()
	}

	for k, v := range convertPayloadToMap(point.GetPayload()) {
		s, ok := metadataString(v)
		if !ok {
			continue
		}
		switch k {
		case payloadChunkID:
			result.ID = s
		case payloadDocument:
			result.Document = s
		default:
			result.Metadata[k] = s
		}
	}
	return result
}

// ListCollections returns the names of all collections.
func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// DeleteCollection deletes the collection if it exists.
func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection deleted", "collection", name)
	return nil
}

// Heartbeat runs the Qdrant health check.
func (s *QdrantStore) Heartbeat(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("failed to reach vector store: %w", err)
	}
	return nil
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return float64(val.IntegerValue)
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
