// Package extract turns document files into cleaned plain text plus descriptive metadata.
package extract

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_extractor.go -package=mocks knowledge-indexer/internal/extract Extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for files no registered extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// DocumentMetadata describes a source document.
type DocumentMetadata struct {
	Filename  string `json:"filename"`
	FilePath  string `json:"file_path"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Subject   string `json:"subject,omitempty"`
	PageCount int    `json:"page_count"`
	FileSize  int64  `json:"file_size"`
}

// FileSizeFormatted renders the size in whole KB below 1 MB, otherwise whole MB.
func (m DocumentMetadata) FileSizeFormatted() string {
	kb := m.FileSize / 1024
	if kb < 1024 {
		return fmt.Sprintf("%d KB", kb)
	}
	return fmt.Sprintf("%d MB", kb/1024)
}

// Extractor reads a document file.
type Extractor interface {
	// ExtractText returns the cleaned text of the document.
	ExtractText(ctx context.Context, path string) (string, error)
	// Metadata returns descriptive metadata for the document.
	Metadata(ctx context.Context, path string) (DocumentMetadata, error)
}

// Registry dispatches to an Extractor by lowercase file extension.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with the plain text and markdown extractors registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	plain := NewPlainTextExtractor()
	markdown := NewMarkdownExtractor()
	r.Register(".txt", plain)
	r.Register(".md", markdown)
	r.Register(".markdown", markdown)
	return r
}

// EnablePDF registers the PDF extractor when pdftotext is installed.
// It returns ErrPDFToolNotFound otherwise and leaves the registry unchanged.
func (r *Registry) EnablePDF() error {
	if err := CheckPDFAvailable(); err != nil {
		return err
	}
	r.Register(".pdf", NewPDFExtractor())
	return nil
}

// Register maps ext (with or without the leading dot) to e, replacing any previous mapping.
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[normalizeExt(ext)] = e
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.extractors[normalizeExt(filepath.Ext(path))]
	return ok
}

func (r *Registry) lookup(path string) (Extractor, error) {
	ext := normalizeExt(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(r.Extensions(), ", "))
	}
	return e, nil
}

// ExtractText dispatches to the extractor registered for path's extension.
func (r *Registry) ExtractText(ctx context.Context, path string) (string, error) {
	e, err := r.lookup(path)
	if err != nil {
		return "", err
	}
	return e.ExtractText(ctx, path)
}

// Metadata dispatches to the extractor registered for path's extension.
func (r *Registry) Metadata(ctx context.Context, path string) (DocumentMetadata, error) {
	e, err := r.lookup(path)
	if err != nil {
		return DocumentMetadata{}, err
	}
	return e.Metadata(ctx, path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// statFile checks that path is a regular file.
func statFile(ctx context.Context, path string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	return info, nil
}

// readFile reads path after checking it is a regular file.
func readFile(ctx context.Context, path string) ([]byte, os.FileInfo, error) {
	info, err := statFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, info, nil
}

// baseMetadata fills the file-level fields shared by every format.
func baseMetadata(path string, info os.FileInfo) DocumentMetadata {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	return DocumentMetadata{
		Filename:  info.Name(),
		FilePath:  absPath,
		Title:     info.Name(),
		PageCount: 1,
		FileSize:  info.Size(),
	}
}
