package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// ChunkerVersion identifies the chunking implementation.
// Update this when chunking output changes for the same input and config.
const ChunkerVersion = "v2.0"

// ChunkStats summarises a set of chunks.
type ChunkStats struct {
	TotalChunks int     `json:"total_chunks"`
	TotalWords  int     `json:"total_words"`
	TotalChars  int     `json:"total_chars"`
	MinWords    int     `json:"min_words"`
	MaxWords    int     `json:"max_words"`
	MeanWords   float64 `json:"mean_words"`
	P95Words    int     `json:"p95_words"`
}

// ComputeChunkStats computes word and character statistics over chunks.
func ComputeChunkStats(chunks []Chunk) ChunkStats {
	if len(chunks) == 0 {
		return ChunkStats{}
	}

	stats := ChunkStats{TotalChunks: len(chunks)}
	wordCounts := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		words := chunk.WordCount()
		wordCounts = append(wordCounts, words)
		stats.TotalWords += words
		stats.TotalChars += chunk.CharCount()
	}

	sorted := make([]int, len(wordCounts))
	copy(sorted, wordCounts)
	sort.Ints(sorted)

	stats.MinWords = sorted[0]
	stats.MaxWords = sorted[len(sorted)-1]

	mean := float64(stats.TotalWords) / float64(len(chunks))
	stats.MeanWords = math.Round(mean*100) / 100 // 2 decimal places

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}
	stats.P95Words = sorted[p95Index]

	return stats
}

// IndexVersion fingerprints an index build: chunker version, embedding model and chunking params.
// Two runs with the same fingerprint produce the same chunk ids and comparable vectors.
func IndexVersion(cfg ChunkingConfig, embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|strategy=%s|chunk_size=%d|overlap=%d",
		ChunkerVersion, embeddingModel, cfg.Strategy, cfg.TargetSize, cfg.Overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 64 bits
}
