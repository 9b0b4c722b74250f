package extract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"knowledge-indexer/internal/contextutil"
)

// ErrPDFToolNotFound is returned when the poppler command line tools are missing.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")

// CommandRunner runs an external command and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CheckPDFAvailable reports whether pdftotext can be found in PATH.
func CheckPDFAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// PDFExtractor extracts PDF text with poppler's pdftotext and reads the
// document information dictionary with pdfinfo.
type PDFExtractor struct {
	runner CommandRunner
}

// NewPDFExtractor creates a PDF extractor that runs the poppler binaries.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: execRunner{}}
}

// NewPDFExtractorWithRunner creates a PDF extractor with a custom command runner.
func NewPDFExtractorWithRunner(runner CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: runner}
}

// ExtractText returns the cleaned text of every page. Page breaks become paragraph breaks.
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if _, err := statFile(ctx, path); err != nil {
		return "", err
	}

	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed for %s: %w", path, err)
	}

	text := strings.ReplaceAll(string(bytes.ToValidUTF8(out, nil)), "\f", "\n\n")
	result := CleanText(text)

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "extracted pdf", "path", path, "words", len(strings.Fields(result)))
	return result, nil
}

// Metadata returns file metadata enriched with the PDF's title, author, subject
// and page count. A failing pdfinfo leaves the file-level defaults in place.
func (e *PDFExtractor) Metadata(ctx context.Context, path string) (DocumentMetadata, error) {
	info, err := statFile(ctx, path)
	if err != nil {
		return DocumentMetadata{}, err
	}
	meta := baseMetadata(path, info)

	out, err := e.runner.Run(ctx, "pdfinfo", "-enc", "UTF-8", path)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "pdfinfo failed, using file metadata", "path", path, "error", err)
		return meta, nil
	}

	fields := parsePDFInfo(out)
	if title := fields["Title"]; title != "" {
		meta.Title = title
	}
	meta.Author = fields["Author"]
	meta.Subject = fields["Subject"]
	if pages, err := strconv.Atoi(fields["Pages"]); err == nil && pages > 0 {
		meta.PageCount = pages
	}
	return meta, nil
}

// parsePDFInfo reads pdfinfo's "Key:   value" lines.
func parsePDFInfo(out []byte) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}
