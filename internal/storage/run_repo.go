package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_run_store.go -package=mocks knowledge-indexer/internal/storage RunStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStore defines the interface for the indexing run ledger.
type RunStore interface {
	// CreateRun inserts a new running run. An empty run.ID is replaced with a new UUID.
	CreateRun(ctx context.Context, run *RunRecord) error
	// RecordResult appends one document result to a run.
	RecordResult(ctx context.Context, result *ResultRecord) error
	// FinishRun marks a run finished and stores its totals.
	FinishRun(ctx context.Context, runID string, succeeded, failed, totalChunks int) error
	// GetRun returns a run by id, or ErrNotFound.
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	// ListRuns returns the most recent runs first, at most limit (all when limit <= 0).
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	// ListResults returns the results of a run in the order they were recorded.
	ListResults(ctx context.Context, runID string) ([]ResultRecord, error)
}

// RunRepo provides methods for run ledger operations.
// It implements the RunStore interface.
type RunRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db, now: time.Now}
}

// CreateRun inserts a new running run.
func (r *RunRepo) CreateRun(ctx context.Context, run *RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = RunStatusRunning
	run.StartedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, collection, source, strategy, chunk_size, overlap, index_version, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Collection, run.Source, run.Strategy, run.ChunkSize, run.Overlap, run.IndexVersion,
		run.Status, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecordResult appends one document result to a run.
func (r *RunRepo) RecordResult(ctx context.Context, result *ResultRecord) error {
	result.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO results (run_id, document_name, success, stage, characters_extracted, chunks_created,
		 embeddings_generated, chunks_stored, duration_ms, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.DocumentName, result.Success, result.Stage, result.CharactersExtracted,
		result.ChunksCreated, result.EmbeddingsGenerated, result.ChunksStored, result.DurationMs,
		result.ErrorMessage, result.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// FinishRun marks a run finished and stores its totals.
func (r *RunRepo) FinishRun(ctx context.Context, runID string, succeeded, failed, totalChunks int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, succeeded = ?, failed = ?, total_chunks = ?, finished_at = ? WHERE id = ?`,
		RunStatusFinished, succeeded, failed, totalChunks, r.now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `id, collection, source, strategy, chunk_size, overlap, index_version, status,
	succeeded, failed, total_chunks, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var startedAt string
	var finishedAt sql.NullString

	err := row.Scan(&run.ID, &run.Collection, &run.Source, &run.Strategy, &run.ChunkSize, &run.Overlap,
		&run.IndexVersion, &run.Status, &run.Succeeded, &run.Failed, &run.TotalChunks, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

// GetRun returns a run by id.
// Returns nil and ErrNotFound if not found.
func (r *RunRepo) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// ListResults returns the results of a run in insertion order.
func (r *RunRepo) ListResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, document_name, success, stage, characters_extracted, chunks_created,
		 embeddings_generated, chunks_stored, duration_ms, error_message, created_at
		 FROM results WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := []ResultRecord{}
	for rows.Next() {
		var result ResultRecord
		var createdAt string
		if err := rows.Scan(&result.RunID, &result.DocumentName, &result.Success, &result.Stage,
			&result.CharactersExtracted, &result.ChunksCreated, &result.EmbeddingsGenerated,
			&result.ChunksStored, &result.DurationMs, &result.ErrorMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		result.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}
