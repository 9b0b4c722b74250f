package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"knowledge-indexer/internal/contextutil"
)

const (
	// DefaultTenant and DefaultDatabase scope every collection unless overridden.
	DefaultTenant   = "default_tenant"
	DefaultDatabase = "default_database"

	collectionDescription = "Knowledge base collection"
)

// ChromaStore implements VectorStore against the Chroma v2 REST API.
type ChromaStore struct {
	baseURL  string
	tenant   string
	database string
	client   *http.Client
}

// ChromaOption configures a ChromaStore.
type ChromaOption func(*ChromaStore)

// WithTenant scopes the store to a tenant and database. Empty values keep the defaults.
func WithTenant(tenant, database string) ChromaOption {
	return func(s *ChromaStore) {
		if tenant != "" {
			s.tenant = tenant
		}
		if database != "" {
			s.database = database
		}
	}
}

// WithChromaHTTPClient replaces the HTTP client used for requests.
func WithChromaHTTPClient(client *http.Client) ChromaOption {
	return func(s *ChromaStore) {
		if client != nil {
			s.client = client
		}
	}
}

// NewChromaStore creates a Chroma client for the server at baseURL (e.g. "http://localhost:8000").
func NewChromaStore(baseURL string, opts ...ChromaOption) *ChromaStore {
	s := &ChromaStore{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tenant:   DefaultTenant,
		database: DefaultDatabase,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChromaStore) collectionsURL() string {
	return fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s/collections",
		s.baseURL, url.PathEscape(s.tenant), url.PathEscape(s.database))
}

type createCollectionRequest struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type addRequest struct {
	IDs        []string            `json:"ids"`
	Embeddings [][]float32         `json:"embeddings"`
	Documents  []string            `json:"documents"`
	Metadatas  []map[string]string `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

// queryResponse holds one row per query embedding; only the first row is used.
type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Distances [][]*float64       `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// EnsureCollection looks the collection up and creates it when the lookup fails.
// A 409 Conflict on create means another writer created it first and is treated as success.
func (s *ChromaStore) EnsureCollection(ctx context.Context, name string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := s.ResolveCollectionID(ctx, name); err == nil {
		logger.DebugContext(ctx, "collection exists", "collection", name)
		return nil
	} else if !errors.Is(err, ErrCollectionNotFound) {
		logger.DebugContext(ctx, "collection lookup failed, attempting create", "collection", name, "error", err)
	}

	body := createCollectionRequest{
		Name:     name,
		Metadata: map[string]string{"description": collectionDescription},
	}
	status, raw, err := s.do(ctx, http.MethodPost, s.collectionsURL(), body)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	switch {
	case isSuccess(status):
		logger.InfoContext(ctx, "collection created", "collection", name)
		return nil
	case status == http.StatusConflict:
		logger.DebugContext(ctx, "collection already exists", "collection", name)
		return nil
	default:
		return fmt.Errorf("failed to create collection: %d - %s", status, raw)
	}
}

// ResolveCollectionID fetches the collection by name and returns its id.
func (s *ChromaStore) ResolveCollectionID(ctx context.Context, name string) (string, error) {
	status, raw, err := s.do(ctx, http.MethodGet, s.collectionsURL()+"/"+url.PathEscape(name), nil)
	if err != nil {
		return "", fmt.Errorf("failed to get collection: %w", err)
	}
	if status == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if !isSuccess(status) {
		return "", fmt.Errorf("failed to get collection %s: %d - %s", name, status, raw)
	}

	var collection collectionResponse
	if err := json.Unmarshal(raw, &collection); err != nil {
		return "", fmt.Errorf("failed to decode collection: %w", err)
	}
	if collection.ID == "" {
		return "", fmt.Errorf("collection %s has no id in response", name)
	}
	return collection.ID, nil
}

// AddDocuments ensures the collection, resolves its id and upserts the batch.
// Existing ids are overwritten, so re-indexing a document replaces its chunks.
func (s *ChromaStore) AddDocuments(ctx context.Context, name string, ids []string, vectors [][]float32, documents []string, metadatas []map[string]string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateBatch(ids, vectors, documents, metadatas); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.EnsureCollection(ctx, name); err != nil {
		return err
	}
	id, err := s.ResolveCollectionID(ctx, name)
	if err != nil {
		return err
	}

	body := addRequest{IDs: ids, Embeddings: vectors, Documents: documents, Metadatas: metadatas}
	status, raw, err := s.do(ctx, http.MethodPost, s.collectionsURL()+"/"+url.PathEscape(id)+"/upsert", body)
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	if !isSuccess(status) {
		logger.ErrorContext(ctx, "failed to add documents", "collection", name, "status", status, "count", len(ids))
		return fmt.Errorf("failed to add documents: %d - %s", status, raw)
	}

	logger.InfoContext(ctx, "added documents", "collection", name, "count", len(ids))
	return nil
}

// Query resolves the collection id and returns up to topK nearest neighbours of vector.
func (s *ChromaStore) Query(ctx context.Context, name string, vector []float32, topK int) ([]QueryResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	id, err := s.ResolveCollectionID(ctx, name)
	if err != nil {
		return nil, err
	}

	body := queryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}
	status, raw, err := s.do(ctx, http.MethodPost, s.collectionsURL()+"/"+url.PathEscape(id)+"/query", body)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("query failed: %d - %s", status, raw)
	}

	var resp queryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	results := decodeQueryResponse(resp)
	logger.InfoContext(ctx, "query completed", "collection", name, "top_k", topK, "results", len(results))
	return results, nil
}

// decodeQueryResponse zips the first row of each parallel array into results.
// Missing documents, distances or metadata leave the zero value.
func decodeQueryResponse(resp queryResponse) []QueryResult {
	if len(resp.IDs) == 0 || len(resp.IDs[0]) == 0 {
		return []QueryResult{}
	}

	ids := resp.IDs[0]
	results := make([]QueryResult, 0, len(ids))
	for i, id := range ids {
		result := QueryResult{ID: id, Metadata: map[string]string{}}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) && resp.Documents[0][i] != nil {
			result.Document = *resp.Documents[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) && resp.Distances[0][i] != nil {
			result.Distance = *resp.Distances[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			for k, v := range resp.Metadatas[0][i] {
				if s, ok := metadataString(v); ok {
					result.Metadata[k] = s
				}
			}
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results
}

func metadataString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprint(val), true
	}
}

// ListCollections returns the names of all collections in the tenant/database.
func (s *ChromaStore) ListCollections(ctx context.Context) ([]string, error) {
	status, raw, err := s.do(ctx, http.MethodGet, s.collectionsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("failed to list collections: %d - %s", status, raw)
	}

	var collections []collectionResponse
	if err := json.Unmarshal(raw, &collections); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}

	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	return names, nil
}

// DeleteCollection deletes a collection by name. 404 is treated as already deleted.
func (s *ChromaStore) DeleteCollection(ctx context.Context, name string) error {
	logger := contextutil.LoggerFromContext(ctx)

	status, raw, err := s.do(ctx, http.MethodDelete, s.collectionsURL()+"/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	switch {
	case isSuccess(status):
		logger.InfoContext(ctx, "collection deleted", "collection", name)
		return nil
	case status == http.StatusNotFound:
		logger.DebugContext(ctx, "collection already absent", "collection", name)
		return nil
	default:
		return fmt.Errorf("failed to delete collection: %d - %s", status, raw)
	}
}

// Heartbeat checks that the Chroma server answers.
func (s *ChromaStore) Heartbeat(ctx context.Context) error {
	status, raw, err := s.do(ctx, http.MethodGet, s.baseURL+"/api/v2/heartbeat", nil)
	if err != nil {
		return fmt.Errorf("failed to reach vector store: %w", err)
	}
	if !isSuccess(status) {
		return fmt.Errorf("vector store heartbeat failed: %d - %s", status, raw)
	}
	return nil
}

// do sends a JSON request and returns the status code and the raw response body.
func (s *ChromaStore) do(ctx context.Context, method, endpoint string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
