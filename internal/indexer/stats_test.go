package indexer

import (
	"strings"
	"testing"
)

func chunksWithWordCounts(counts ...int) []Chunk {
	chunks := make([]Chunk, len(counts))
	for i, n := range counts {
		chunks[i] = Chunk{Text: strings.TrimSpace(strings.Repeat("ab ", n))}
	}
	return chunks
}

func TestComputeChunkStats(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   ChunkStats
	}{
		{
			name:   "no chunks",
			counts: nil,
			want:   ChunkStats{},
		},
		{
			name:   "single chunk",
			counts: []int{4},
			want:   ChunkStats{TotalChunks: 1, TotalWords: 4, TotalChars: 11, MinWords: 4, MaxWords: 4, MeanWords: 4, P95Words: 4},
		},
		{
			name:   "mean is rounded to two decimals",
			counts: []int{1, 1, 2},
			want:   ChunkStats{TotalChunks: 3, TotalWords: 4, TotalChars: 2 + 2 + 5, MinWords: 1, MaxWords: 2, MeanWords: 1.33, P95Words: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeChunkStats(chunksWithWordCounts(tt.counts...))
			if got != tt.want {
				t.Errorf("ComputeChunkStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeChunkStats_P95(t *testing.T) {
	counts := make([]int, 20)
	for i := range counts {
		counts[i] = i + 1 // 1..20, unsorted input below
	}
	counts[0], counts[19] = counts[19], counts[0]

	stats := ComputeChunkStats(chunksWithWordCounts(counts...))

	// ceil(20*0.95)-1 = 18 -> the 19th smallest value.
	if stats.P95Words != 19 {
		t.Errorf("P95Words = %d, want 19", stats.P95Words)
	}
	if stats.MinWords != 1 || stats.MaxWords != 20 {
		t.Errorf("Min/Max = %d/%d, want 1/20", stats.MinWords, stats.MaxWords)
	}
	if stats.MeanWords != 10.5 {
		t.Errorf("MeanWords = %v, want 10.5", stats.MeanWords)
	}
}

func TestIndexVersion(t *testing.T) {
	base := ChunkingConfig{TargetSize: 500, Overlap: 50, Strategy: SentenceBoundary}

	v1 := IndexVersion(base, "nomic-embed-text")
	if len(v1) != 16 {
		t.Errorf("IndexVersion() length = %d, want 16", len(v1))
	}
	if v1 != IndexVersion(base, "nomic-embed-text") {
		t.Error("IndexVersion() should be stable for the same inputs")
	}

	variants := []struct {
		name  string
		cfg   ChunkingConfig
		model string
	}{
		{"model", base, "mxbai-embed-large"},
		{"size", ChunkingConfig{TargetSize: 400, Overlap: 50, Strategy: SentenceBoundary}, "nomic-embed-text"},
		{"overlap", ChunkingConfig{TargetSize: 500, Overlap: 0, Strategy: SentenceBoundary}, "nomic-embed-text"},
		{"strategy", ChunkingConfig{TargetSize: 500, Overlap: 50, Strategy: FixedSize}, "nomic-embed-text"},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if IndexVersion(v.cfg, v.model) == v1 {
				t.Errorf("IndexVersion() unchanged after changing %s", v.name)
			}
		})
	}
}
