package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"knowledge-indexer/internal/contextutil"
)

// ProbeText is embedded by Dimension to discover the backend's vector length.
const ProbeText = "test"

// DefaultRequestsPerSecond paces sequential embedding requests.
const DefaultRequestsPerSecond = 10.0

var (
	// ErrEmptyText is returned when asked to embed blank text.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrBadStatus is returned when the embedding backend answers with a non-200 status.
	ErrBadStatus = errors.New("embedding backend returned bad status")
	// ErrMalformedResponse is returned when the response carries no usable embedding.
	ErrMalformedResponse = errors.New("malformed embedding response")
)

// EmbeddingsClient is a client for an Ollama-style /api/embeddings endpoint.
// Batches are embedded one text at a time.
type EmbeddingsClient struct {
	BaseURL      string
	Model        string
	ExpectedSize int // 0 disables the dimension check
	client       *http.Client
	limiter      *rate.Limiter
}

// EmbeddingsOption configures an EmbeddingsClient.
type EmbeddingsOption func(*EmbeddingsClient)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(client *http.Client) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithExpectedSize makes every returned vector be validated against size.
func WithExpectedSize(size int) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		if size > 0 {
			c.ExpectedSize = size
		}
	}
}

// WithRateLimit limits requests to perSecond. A non-positive value disables pacing.
func WithRateLimit(perSecond float64) EmbeddingsOption {
	return func(c *EmbeddingsClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewEmbeddingsClient creates a new embeddings client.
func NewEmbeddingsClient(baseURL, model string, opts ...EmbeddingsOption) *EmbeddingsClient {
	c := &EmbeddingsClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbeddingRequest is the request payload for the embeddings endpoint.
type EmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// EmbeddingResponse is the response payload of the embeddings endpoint.
type EmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(EmbeddingRequest{Model: c.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embeddings", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d: %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var embeddingResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrMalformedResponse, err)
	}
	if len(embeddingResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: missing embedding", ErrMalformedResponse)
	}
	if c.ExpectedSize > 0 && len(embeddingResp.Embedding) != c.ExpectedSize {
		return nil, fmt.Errorf("embedding has size %d, expected %d", len(embeddingResp.Embedding), c.ExpectedSize)
	}

	vec := make([]float32, len(embeddingResp.Embedding))
	for i, v := range embeddingResp.Embedding {
		vec[i] = float32(v)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "generated embedding", "chars", len(text), "dimensions", len(vec))
	return vec, nil
}

// EmbedBatch embeds texts sequentially and returns one vector per text, in input order.
// The first failure aborts the batch and no vectors are returned.
func (c *EmbeddingsClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "generating embeddings", "count", len(texts))

	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate embedding", "index", i, "error", err)
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vec)
		if (i+1)%25 == 0 {
			logger.DebugContext(ctx, "embedding progress", "done", i+1, "total", len(texts))
		}
	}

	logger.InfoContext(ctx, "generated embeddings", "count", len(vectors))
	return vectors, nil
}

// Dimension embeds ProbeText and returns the resulting vector length.
func (c *EmbeddingsClient) Dimension(ctx context.Context) (int, error) {
	vec, err := c.Embed(ctx, ProbeText)
	if err != nil {
		return 0, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	return len(vec), nil
}

// Ping checks that the backend can produce an embedding.
func (c *EmbeddingsClient) Ping(ctx context.Context) error {
	if _, err := c.Embed(ctx, ProbeText); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "embedding backend unreachable", "base_url", c.BaseURL, "error", err)
		return err
	}
	return nil
}
