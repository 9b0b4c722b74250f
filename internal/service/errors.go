package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")

	// ErrExtraction marks a document whose text could not be extracted.
	ErrExtraction = errors.New("extraction failed")
	// ErrChunking marks an unexpected failure while chunking a document.
	ErrChunking = errors.New("chunking failed")
	// ErrEmbedding marks a failure talking to the embedding backend.
	ErrEmbedding = errors.New("embedding failed")
	// ErrStore marks a failure resolving, writing to or querying the vector store.
	ErrStore = errors.New("vector store operation failed")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// StageError is returned when one stage of the per-document indexing pipeline fails.
// It unwraps to both the stage sentinel (ErrExtraction, ErrEmbedding, ...) and the cause.
type StageError struct {
	Stage    string
	Document string
	Kind     error
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, e.Document, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
