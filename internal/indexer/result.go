package indexer

import (
	"fmt"
	"time"
)

// Stage names one step of the per-document pipeline.
type Stage string

const (
	StageExtract Stage = "extract"
	StageChunk   Stage = "chunk"
	StageEmbed   Stage = "embed"
	StageStore   Stage = "store"
	StageDone    Stage = "done"
)

// IndexingResult is the outcome of indexing one document.
type IndexingResult struct {
	DocumentName        string `json:"document_name"`
	Success             bool   `json:"success"`
	CharactersExtracted int    `json:"characters_extracted"`
	ChunksCreated       int    `json:"chunks_created"`
	EmbeddingsGenerated int    `json:"embeddings_generated"`
	ChunksStored        int    `json:"chunks_stored"`
	DurationMs          int64  `json:"duration_ms"`
	ErrorMessage        string `json:"error_message,omitempty"`
	Stage               Stage  `json:"stage"`

	started   time.Time
	finalized bool
}

func newIndexingResult(documentName string) *IndexingResult {
	return &IndexingResult{
		DocumentName: documentName,
		Stage:        StageExtract,
		started:      time.Now(),
	}
}

func (r *IndexingResult) enter(stage Stage) {
	r.Stage = stage
}

// succeed finalizes the result as successful. Later calls are ignored.
func (r *IndexingResult) succeed() {
	if r.finalized {
		return
	}
	r.finalized = true
	r.Success = true
	r.Stage = StageDone
	r.DurationMs = time.Since(r.started).Milliseconds()
}

// fail finalizes the result as failed with err's message. Later calls are ignored.
func (r *IndexingResult) fail(err error) {
	if r.finalized {
		return
	}
	r.finalized = true
	r.Success = false
	r.ErrorMessage = err.Error()
	r.DurationMs = time.Since(r.started).Milliseconds()
}

func (r IndexingResult) String() string {
	if r.Success {
		return fmt.Sprintf("%s: %d chars -> %d chunks -> %d embeddings -> %d stored (%d ms)",
			r.DocumentName, r.CharactersExtracted, r.ChunksCreated, r.EmbeddingsGenerated, r.ChunksStored, r.DurationMs)
	}
	return fmt.Sprintf("%s: failed at %s: %s", r.DocumentName, r.Stage, r.ErrorMessage)
}

// BatchSummary aggregates the results of indexing several documents.
type BatchSummary struct {
	RunID       string           `json:"run_id,omitempty"`
	Results     []IndexingResult `json:"results"`
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	TotalChunks int              `json:"total_chunks"`
	Duration    time.Duration    `json:"duration"`
}

func (s *BatchSummary) add(r IndexingResult) {
	s.Results = append(s.Results, r)
	if r.Success {
		s.Succeeded++
		s.TotalChunks += r.ChunksStored
	} else {
		s.Failed++
	}
}

// Total returns the number of documents in the batch.
func (s BatchSummary) Total() int {
	return len(s.Results)
}

func (s BatchSummary) String() string {
	return fmt.Sprintf("indexed %d/%d documents (%d failed), %d chunks stored in %s",
		s.Succeeded, s.Total(), s.Failed, s.TotalChunks, s.Duration.Round(time.Millisecond))
}
