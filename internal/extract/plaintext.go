package extract

import (
	"context"
	"strings"

	"knowledge-indexer/internal/contextutil"
)

// PlainTextExtractor reads UTF-8 text files.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a new plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// ExtractText reads the file and returns its cleaned text.
func (e *PlainTextExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	content, _, err := readFile(ctx, path)
	if err != nil {
		return "", err
	}

	text := CleanText(strings.ToValidUTF8(string(content), ""))
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "extracted text", "path", path, "words", len(strings.Fields(text)))
	return text, nil
}

// Metadata returns file metadata; the title is the file name.
func (e *PlainTextExtractor) Metadata(ctx context.Context, path string) (DocumentMetadata, error) {
	info, err := statFile(ctx, path)
	if err != nil {
		return DocumentMetadata{}, err
	}
	return baseMetadata(path, info), nil
}
