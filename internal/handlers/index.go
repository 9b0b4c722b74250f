package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_indexer.go -package=mocks knowledge-indexer/internal/handlers DocumentIndexer

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"knowledge-indexer/internal/contextutil"
	"knowledge-indexer/internal/indexer"
	"knowledge-indexer/internal/service"
)

// DocumentIndexer runs documents through the indexing pipeline.
type DocumentIndexer interface {
	IndexDirectory(ctx context.Context, dir string) (indexer.BatchSummary, error)
	IndexDocument(ctx context.Context, path string) (indexer.IndexingResult, error)
}

// IndexHandler handles HTTP requests for indexing a directory or a single document.
// Requested paths must lie under defaultDir, and only one directory batch runs at a time.
type IndexHandler struct {
	indexer    DocumentIndexer
	defaultDir string
	running    atomic.Bool
}

var errOutsideRoot = errors.New("path is outside the documents directory")

// resolveWithinRoot resolves p against root and rejects anything that escapes it.
// Relative paths are taken relative to root.
func resolveWithinRoot(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", errOutsideRoot
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return absPath, nil
}

// NewIndexHandler creates a new IndexHandler. defaultDir is indexed when a request names no directory.
func NewIndexHandler(indexer DocumentIndexer, defaultDir string) *IndexHandler {
	return &IndexHandler{
		indexer:    indexer,
		defaultDir: defaultDir,
	}
}

// IndexRequest represents the request body of POST /api/index.
//
// swagger:model IndexRequest
type IndexRequest struct {
	Directory string `json:"directory,omitempty"`
}

// IndexResponse represents the response from the index endpoint.
//
// swagger:model IndexResponse
type IndexResponse struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	Directory string `json:"directory"`
}

// IndexDocumentRequest represents the request body of POST /api/index/document.
//
// swagger:model IndexDocumentRequest
type IndexDocumentRequest struct {
	Path string `json:"path"`
}

// IndexDocumentResponse carries the outcome of indexing one document.
//
// swagger:model IndexDocumentResponse
type IndexDocumentResponse struct {
	Result indexer.IndexingResult `json:"result"`
	Error  string                 `json:"error,omitempty"`
}

// IndexDirectory starts indexing a directory in the background and returns 202 Accepted.
//
// swagger:route POST /api/index indexDirectory
func (h *IndexHandler) IndexDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IndexRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			logger.WarnContext(ctx, "invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	dir, err := resolveWithinRoot(h.defaultDir, strings.TrimSpace(req.Directory))
	if err != nil {
		logger.WarnContext(ctx, "rejected directory", "directory", req.Directory, "error", err)
		handleServiceError(w, ctx, &service.ValidationError{Field: "directory", Message: "must be inside the documents directory"}, "")
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		handleServiceError(w, ctx, &service.ValidationError{Field: "directory", Message: "must be an existing directory"}, "")
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		logger.WarnContext(ctx, "indexing already in progress", "directory", dir)
		writeError(w, http.StatusConflict, "Indexing already in progress")
		return
	}

	logger.InfoContext(ctx, "indexing triggered via API", "directory", dir)

	// Indexing outlives the request; keep the request logger but drop its cancellation.
	indexCtx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		defer h.running.Store(false)
		summary, err := h.indexer.IndexDirectory(indexCtx, dir)
		if err != nil {
			logger.ErrorContext(indexCtx, "indexing failed", "directory", dir, "error", err)
			return
		}
		logger.InfoContext(indexCtx, "indexing finished", "summary", summary.String(), "run_id", summary.RunID)
	}()

	writeJSON(w, ctx, http.StatusAccepted, IndexResponse{
		Message:   "Indexing started. Check server logs or /api/runs for progress.",
		Status:    "accepted",
		Directory: dir,
	})
}

// IndexDocument indexes one document synchronously and returns its result.
//
// swagger:route POST /api/index/document indexDocument
func (h *IndexHandler) IndexDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IndexDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		handleServiceError(w, ctx, &service.ValidationError{Field: "path", Message: "must not be empty"}, "")
		return
	}
	path, err := resolveWithinRoot(h.defaultDir, strings.TrimSpace(req.Path))
	if err != nil {
		logger.WarnContext(ctx, "rejected document path", "path", req.Path, "error", err)
		handleServiceError(w, ctx, &service.ValidationError{Field: "path", Message: "must be inside the documents directory"}, "")
		return
	}

	result, err := h.indexer.IndexDocument(ctx, path)
	if err != nil {
		logger.WarnContext(ctx, "document indexing failed", "path", path, "error", err)
		writeJSON(w, ctx, statusForError(err), IndexDocumentResponse{Result: result, Error: err.Error()})
		return
	}
	writeJSON(w, ctx, http.StatusOK, IndexDocumentResponse{Result: result})
}
