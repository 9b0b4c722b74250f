package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	handler_mocks "knowledge-indexer/internal/handlers/mocks"
	"knowledge-indexer/internal/service"
	service_mocks "knowledge-indexer/internal/service/mocks"
	"knowledge-indexer/internal/storage"
	storage_mocks "knowledge-indexer/internal/storage/mocks"
	vectorstore_mocks "knowledge-indexer/internal/vectorstore/mocks"
)

type routerMocks struct {
	indexer *handler_mocks.MockDocumentIndexer
	search  *service_mocks.MockSearchService
	store   *vectorstore_mocks.MockVectorStore
	runs    *storage_mocks.MockRunStore
}

func newTestRouter(t *testing.T) (http.Handler, routerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := routerMocks{
		indexer: handler_mocks.NewMockDocumentIndexer(ctrl),
		search:  service_mocks.NewMockSearchService(ctrl),
		store:   vectorstore_mocks.NewMockVectorStore(ctrl),
		runs:    storage_mocks.NewMockRunStore(ctrl),
	}
	router := NewRouter(&Deps{
		Indexer:       m.indexer,
		DocumentsDir:  t.TempDir(),
		SearchService: m.search,
		VectorStore:   m.store,
		RunStore:      m.runs,
	})
	return router, m
}

func TestNewRouter(t *testing.T) {
	router, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(m routerMocks)
		wantStatus int
	}{
		{
			name:   "GET /api/health",
			method: http.MethodGet,
			path:   "/api/health",
			setup: func(m routerMocks) {
				m.store.EXPECT().Heartbeat(gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/search exists",
			method:     http.MethodPost,
			path:       "/api/search",
			wantStatus: http.StatusBadRequest, // Bad request due to missing body, but route exists
		},
		{
			name:   "POST /api/search",
			method: http.MethodPost,
			path:   "/api/search",
			body:   `{"query":"focus"}`,
			setup: func(m routerMocks) {
				m.search.EXPECT().Search(gomock.Any(), gomock.Any()).Return(service.SearchResponse{Collection: "knowledge_base"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/search method not allowed",
			method:     http.MethodGet,
			path:       "/api/search",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "POST /api/index/document exists",
			method:     http.MethodPost,
			path:       "/api/index/document",
			body:       `{"path":""}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "GET /api/collections",
			method: http.MethodGet,
			path:   "/api/collections",
			setup: func(m routerMocks) {
				m.store.EXPECT().ListCollections(gomock.Any()).Return([]string{"knowledge_base"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE /api/collections/{name}",
			method: http.MethodDelete,
			path:   "/api/collections/old",
			setup: func(m routerMocks) {
				m.store.EXPECT().DeleteCollection(gomock.Any(), "old").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "GET /api/runs",
			method: http.MethodGet,
			path:   "/api/runs",
			setup: func(m routerMocks) {
				m.runs.EXPECT().ListRuns(gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /api/runs/{id} not found",
			method: http.MethodGet,
			path:   "/api/runs/missing",
			setup: func(m routerMocks) {
				m.runs.EXPECT().GetRun(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(m)
			}

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v (body: %s)", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want %v", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("Router should apply CORS middleware")
	}
}
