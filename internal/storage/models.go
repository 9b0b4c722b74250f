package storage

import "time"

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusFinished = "finished"
)

// RunRecord is one batch indexing run.
type RunRecord struct {
	ID           string     `json:"id"`
	Collection   string     `json:"collection"`
	Source       string     `json:"source"` // directory or file list the run was started for
	Strategy     string     `json:"strategy"`
	ChunkSize    int        `json:"chunk_size"`
	Overlap      int        `json:"overlap"`
	IndexVersion string     `json:"index_version"`
	Status       string     `json:"status"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	TotalChunks  int        `json:"total_chunks"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// ResultRecord is the stored outcome of indexing one document within a run.
type ResultRecord struct {
	RunID               string    `json:"run_id"`
	DocumentName        string    `json:"document_name"`
	Success             bool      `json:"success"`
	Stage               string    `json:"stage"`
	CharactersExtracted int       `json:"characters_extracted"`
	ChunksCreated       int       `json:"chunks_created"`
	EmbeddingsGenerated int       `json:"embeddings_generated"`
	ChunksStored        int       `json:"chunks_stored"`
	DurationMs          int64     `json:"duration_ms"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
