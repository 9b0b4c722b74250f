package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunk is one unit of chunked document text together with its provenance.
// Chunks are produced by the chunking engine and treated as read-only afterwards.
type Chunk struct {
	ID            string    // Deterministic, see ChunkID
	Text          string    // Chunk text content
	SourceFile    string    // Name of the file the chunk came from
	DocumentTitle string    // Title reported by the extractor
	Index         int       // Chunk index within the document (starts at 0)
	StartPosition int       // Offset into the reconstructed chunked text
	EndPosition   int       // StartPosition + rune count of Text
	Metadata      *Metadata // Audit trail of how the chunk was produced
}

// Valid reports whether the chunk carries any non-whitespace text.
func (c Chunk) Valid() bool {
	return strings.TrimSpace(c.Text) != ""
}

// WordCount returns the number of whitespace-separated words in the chunk.
func (c Chunk) WordCount() int {
	return len(strings.Fields(c.Text))
}

// CharCount returns the number of characters (runes) in the chunk.
func (c Chunk) CharCount() int {
	return utf8.RuneCountInString(c.Text)
}

// Preview returns at most maxLen runes of the chunk text, with "..." appended when truncated.
func (c Chunk) Preview(maxLen int) string {
	runes := []rune(c.Text)
	if len(runes) <= maxLen {
		return c.Text
	}
	return string(runes[:maxLen]) + "..."
}

func (c Chunk) String() string {
	return fmt.Sprintf("Chunk{id=%q, source=%q, index=%d, words=%d}", c.ID, c.SourceFile, c.Index, c.WordCount())
}

const unknownSource = "unknown_source"

// ChunkID builds the deterministic identifier for chunk index of sourceFile.
// Every character outside [A-Za-z0-9] becomes an underscore, the result is lowercased
// and suffixed with the zero-padded index, e.g. "My Book v2.pdf", 3 -> "my_book_v2_pdf_chunk_0003".
func ChunkID(sourceFile string, index int) string {
	if sourceFile == "" {
		sourceFile = unknownSource
	}
	var b strings.Builder
	b.Grow(len(sourceFile))
	for _, r := range sourceFile {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return fmt.Sprintf("%s_chunk_%04d", b.String(), index)
}

// Metadata is a string map that remembers insertion order.
type Metadata struct {
	keys   []string
	values map[string]string
}

// NewMetadata returns an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]string)}
}

// Set stores value under key. Re-setting a key keeps its original position.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Metadata) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Map returns a copy of the entries as a plain map.
func (m *Metadata) Map() map[string]string {
	out := make(map[string]string, m.Len())
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
