package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	vectorstore_mocks "knowledge-indexer/internal/vectorstore/mocks"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		storeErr       error
		embedder       Pinger
		expectedStatus int
		wantChecks     map[string]string
	}{
		{
			name:           "all healthy",
			embedder:       stubPinger{},
			expectedStatus: http.StatusOK,
			wantChecks:     map[string]string{"vector_store": "ok", "embeddings": "ok"},
		},
		{
			name:           "vector store down",
			storeErr:       errors.New("connection refused"),
			embedder:       stubPinger{},
			expectedStatus: http.StatusServiceUnavailable,
			wantChecks:     map[string]string{"vector_store": "error", "embeddings": "ok"},
		},
		{
			name:           "embeddings down",
			embedder:       stubPinger{err: errors.New("timeout")},
			expectedStatus: http.StatusServiceUnavailable,
			wantChecks:     map[string]string{"vector_store": "ok", "embeddings": "error"},
		},
		{
			name:           "embedding check skipped",
			expectedStatus: http.StatusOK,
			wantChecks:     map[string]string{"vector_store": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
			mockStore.EXPECT().Heartbeat(gomock.Any()).Return(tt.storeErr)

			handler := NewHealthHandler(mockStore, tt.embedder)
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, resp.Checks[k], v)
				}
			}
			if (tt.expectedStatus == http.StatusOK) != (resp.Status == "healthy") {
				t.Errorf("status field = %q for HTTP %d", resp.Status, w.Code)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewHealthHandler(vectorstore_mocks.NewMockVectorStore(ctrl), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
