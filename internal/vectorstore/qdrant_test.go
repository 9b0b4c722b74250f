package vectorstore

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcAddress(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcAddress() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcAddress() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("grpcAddress() host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("grpcAddress() port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("://invalid", 768)
	if err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestPointID_Deterministic(t *testing.T) {
	a := PointID("book_pdf_chunk_0001")
	b := PointID("book_pdf_chunk_0001")
	c := PointID("book_pdf_chunk_0002")

	if a != b {
		t.Errorf("PointID() not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Error("PointID() should differ for different chunk ids")
	}
	if len(a) != 36 {
		t.Errorf("PointID() = %q, want UUID string", a)
	}
}

func TestQdrantStore_AddDocuments_Validation(t *testing.T) {
	// Validation runs before the client is touched.
	store := &QdrantStore{}
	ctx := context.Background()

	err := store.AddDocuments(ctx, "kb", []string{"a", "b"}, [][]float32{{1}}, []string{"x", "y"}, []map[string]string{{}, {}})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("AddDocuments() error = %v, want ErrLengthMismatch", err)
	}

	if err := store.AddDocuments(ctx, "kb", nil, nil, nil, nil); err != nil {
		t.Errorf("AddDocuments() with empty batch should be a no-op, got: %v", err)
	}
}

func TestQdrantStore_Query_InvalidTopK(t *testing.T) {
	store := &QdrantStore{}
	ctx := context.Background()

	if _, err := store.Query(ctx, "kb", []float32{1.0, 2.0}, 0); err == nil {
		t.Error("Query() with topK=0 should return error")
	}
	if _, err := store.Query(ctx, "kb", []float32{1.0, 2.0}, -1); err == nil {
		t.Error("Query() with topK=-1 should return error")
	}
}

func TestScoredPointToResult(t *testing.T) {
	point := &qdrant.ScoredPoint{
		Id:    qdrant.NewID(PointID("doc_txt_chunk_0000")),
		Score: 0.75,
		Payload: qdrant.NewValueMap(map[string]any{
			"chunk_id":    "doc_txt_chunk_0000",
			"document":    "Some chunk text.",
			"source":      "doc.txt",
			"chunk_index": "0",
		}),
	}

	result := scoredPointToResult(point)

	if result.ID != "doc_txt_chunk_0000" {
		t.Errorf("ID = %q, want chunk id from payload", result.ID)
	}
	if result.Document != "Some chunk text." {
		t.Errorf("Document = %q", result.Document)
	}
	if math.Abs(result.Distance-0.25) > 1e-6 {
		t.Errorf("Distance = %v, want 0.25", result.Distance)
	}
	if result.Metadata["source"] != "doc.txt" || result.Metadata["chunk_index"] != "0" {
		t.Errorf("Metadata = %v", result.Metadata)
	}
	if _, ok := result.Metadata["document"]; ok {
		t.Error("document payload should not leak into metadata")
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	result := convertPayloadToMap(nil)
	if result == nil {
		t.Error("convertPayloadToMap() should return empty map, not nil")
	}
	if len(result) != 0 {
		t.Errorf("convertPayloadToMap() with nil should return empty map, got %d items", len(result))
	}

	result = convertPayloadToMap(qdrant.NewValueMap(map[string]any{"n": 3, "ok": true}))
	if result["n"] != float64(3) {
		t.Errorf("integer payload = %v (%T), want float64 3", result["n"], result["n"])
	}
	if result["ok"] != true {
		t.Errorf("bool payload = %v", result["ok"])
	}
}
