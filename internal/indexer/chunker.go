package indexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"knowledge-indexer/internal/service"
)

// Strategy selects how text is cut into chunks.
type Strategy int

const (
	// SentenceBoundary accumulates whole sentences and carries a sentence-level overlap.
	SentenceBoundary Strategy = iota
	// ParagraphBoundary accumulates whole paragraphs and carries a paragraph-level overlap.
	ParagraphBoundary
	// FixedSize cuts fixed windows of words with a word-level overlap.
	FixedSize
)

func (s Strategy) String() string {
	switch s {
	case FixedSize:
		return "FIXED_SIZE"
	case SentenceBoundary:
		return "SENTENCE_BOUNDARY"
	case ParagraphBoundary:
		return "PARAGRAPH_BOUNDARY"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy parses a strategy name. Matching is case-insensitive and accepts
// both the canonical names ("SENTENCE_BOUNDARY") and short forms ("sentence").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed_size", "fixed-size", "fixed":
		return FixedSize, nil
	case "sentence_boundary", "sentence-boundary", "sentence":
		return SentenceBoundary, nil
	case "paragraph_boundary", "paragraph-boundary", "paragraph":
		return ParagraphBoundary, nil
	}
	return 0, &service.ValidationError{Field: "strategy", Message: fmt.Sprintf("unknown chunking strategy %q", s)}
}

const (
	// DefaultTargetSize is the default chunk size in words.
	DefaultTargetSize = 500
	// DefaultOverlap is the default overlap between consecutive chunks in words.
	DefaultOverlap = 50
)

// ChunkingConfig controls the chunking engine. Sizes are measured in words.
type ChunkingConfig struct {
	TargetSize int
	Overlap    int
	Strategy   Strategy
}

// DefaultChunkingConfig returns 500-word sentence chunks with a 50-word overlap.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		TargetSize: DefaultTargetSize,
		Overlap:    DefaultOverlap,
		Strategy:   SentenceBoundary,
	}
}

// Validate checks that 0 <= Overlap < TargetSize and that the strategy is known.
func (c ChunkingConfig) Validate() error {
	if c.TargetSize <= 0 {
		return &service.ValidationError{Field: "target_size", Message: "must be greater than 0"}
	}
	if c.Overlap < 0 {
		return &service.ValidationError{Field: "overlap", Message: "must not be negative"}
	}
	if c.Overlap >= c.TargetSize {
		return &service.ValidationError{Field: "overlap", Message: "must be smaller than target_size"}
	}
	if c.Strategy < SentenceBoundary || c.Strategy > FixedSize {
		return &service.ValidationError{Field: "strategy", Message: "unknown chunking strategy"}
	}
	return nil
}

// Chunker applies a validated ChunkingConfig.
type Chunker struct {
	cfg ChunkingConfig
}

// NewChunker validates cfg and returns a Chunker bound to it.
func NewChunker(cfg ChunkingConfig) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the configuration the chunker was built with.
func (c *Chunker) Config() ChunkingConfig {
	return c.cfg
}

// Chunk splits text using the chunker's configuration.
func (c *Chunker) Chunk(text, sourceFile, documentTitle string) []Chunk {
	return ChunkText(text, sourceFile, documentTitle, c.cfg)
}

// ChunkText splits text into an ordered sequence of chunks according to cfg.
// Blank text yields no chunks. cfg is expected to be valid (see ChunkingConfig.Validate).
func ChunkText(text, sourceFile, documentTitle string, cfg ChunkingConfig) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if sourceFile == "" {
		sourceFile = unknownSource
	}

	b := &chunkBuilder{
		sourceFile:    sourceFile,
		documentTitle: documentTitle,
		cfg:           cfg,
	}

	switch cfg.Strategy {
	case FixedSize:
		b.fixedSize(strings.Fields(text))
	case ParagraphBoundary:
		b.accumulate(splitParagraphs(text), "\n\n")
	default:
		b.accumulate(splitSentences(text), " ")
	}
	return b.chunks
}

// chunkBuilder assigns ids, positions and metadata as chunks are emitted.
type chunkBuilder struct {
	sourceFile    string
	documentTitle string
	cfg           ChunkingConfig
	chunks        []Chunk
	position      int
}

func (b *chunkBuilder) emit(text string) {
	index := len(b.chunks)
	start := b.position
	end := start + utf8.RuneCountInString(text)

	chunk := Chunk{
		ID:            ChunkID(b.sourceFile, index),
		Text:          text,
		SourceFile:    b.sourceFile,
		DocumentTitle: b.documentTitle,
		Index:         index,
		StartPosition: start,
		EndPosition:   end,
		Metadata:      NewMetadata(),
	}
	chunk.Metadata.Set("word_count", strconv.Itoa(chunk.WordCount()))
	chunk.Metadata.Set("char_count", strconv.Itoa(chunk.CharCount()))
	chunk.Metadata.Set("strategy", b.cfg.Strategy.String())
	chunk.Metadata.Set("chunk_size", strconv.Itoa(b.cfg.TargetSize))
	chunk.Metadata.Set("overlap", strconv.Itoa(b.cfg.Overlap))

	b.chunks = append(b.chunks, chunk)
	b.position = end
}

// fixedSize emits windows of TargetSize words, advancing by TargetSize-Overlap words.
// Iteration stops at the first window that reaches the last word.
func (b *chunkBuilder) fixedSize(words []string) {
	step := b.cfg.TargetSize - b.cfg.Overlap
	for start := 0; start < len(words); start += step {
		end := min(start+b.cfg.TargetSize, len(words))
		text := strings.Join(words[start:end], " ")
		if strings.TrimSpace(text) != "" {
			b.emit(text)
		}
		if end == len(words) {
			break
		}
	}
}

// accumulate packs whole units (sentences or paragraphs) into chunks of at most
// TargetSize words. A unit larger than TargetSize gets a chunk of its own.
// When a chunk is closed, the longest suffix of its units totalling at most Overlap
// words seeds the next chunk; seed units are dropped from the front if the incoming
// unit would otherwise push the next chunk past TargetSize.
func (b *chunkBuilder) accumulate(units []string, sep string) {
	var current []string
	var counts []int
	words := 0

	for _, unit := range units {
		n := countWords(unit)

		if len(current) > 0 && words+n > b.cfg.TargetSize {
			b.emit(strings.Join(current, sep))

			keep := overlapSuffix(counts, b.cfg.Overlap)
			current = append([]string(nil), current[len(current)-keep:]...)
			counts = append([]int(nil), counts[len(counts)-keep:]...)
			words = sum(counts)

			for len(current) > 0 && words+n > b.cfg.TargetSize {
				words -= counts[0]
				current = current[1:]
				counts = counts[1:]
			}
		}

		current = append(current, unit)
		counts = append(counts, n)
		words += n
	}

	if len(current) > 0 {
		b.emit(strings.Join(current, sep))
	}
}

// overlapSuffix returns how many trailing units fit, greedily from the end, within limit words.
func overlapSuffix(counts []int, limit int) int {
	total, keep := 0, 0
	for i := len(counts) - 1; i >= 0; i-- {
		if total+counts[i] > limit {
			break
		}
		total += counts[i]
		keep++
	}
	return keep
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
