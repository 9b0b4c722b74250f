package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"knowledge-indexer/internal/indexer"
)

// DefaultConfigFile is read when KBINDEX_CONFIG is not set. It is optional.
const DefaultConfigFile = "kbindex.yaml"

// Vector store backends.
const (
	VectorStoreChroma = "chroma"
	VectorStoreQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	VectorStore    string
	ChromaURL      string
	ChromaTenant   string
	ChromaDatabase string
	QdrantURL      string
	Collection     string

	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int     // 0 means not enforced
	EmbeddingRatePerSec float64 // 0 disables pacing
	HTTPTimeout         time.Duration

	ChunkSize     int
	ChunkOverlap  int
	ChunkStrategy string
	DocumentPause time.Duration
	DocumentsDir  string

	DBPath    string
	APIPort   string
	LogLevel  string
	LogFormat string
}

// source resolves a key from the environment first, then the YAML config file.
type source struct {
	file map[string]string
}

// Load reads configuration and returns a Config struct.
// Values come from, in order of precedence: environment variables, a .env file in the
// current directory or one of its parents, and an optional YAML file (KBINDEX_CONFIG,
// default ./kbindex.yaml) whose keys are the lowercase variable names.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	file, err := loadFile()
	if err != nil {
		return nil, err
	}
	src := source{file: file}

	cfg := &Config{
		VectorStore:        strings.ToLower(src.get("VECTOR_STORE", VectorStoreChroma)),
		ChromaURL:          src.get("CHROMA_URL", "http://localhost:8000"),
		ChromaTenant:       src.get("CHROMA_TENANT", "default_tenant"),
		ChromaDatabase:     src.get("CHROMA_DATABASE", "default_database"),
		QdrantURL:          src.get("QDRANT_URL", "http://localhost:6333"),
		Collection:         src.get("COLLECTION", "knowledge_base"),
		EmbeddingBaseURL:   src.get("EMBEDDING_BASE_URL", "http://localhost:11434"),
		EmbeddingModelName: src.get("EMBEDDING_MODEL", "nomic-embed-text"),
		ChunkStrategy:      src.get("CHUNK_STRATEGY", "SENTENCE_BOUNDARY"),
		DocumentsDir:       src.get("DOCUMENTS_DIR", "./documents"),
		DBPath:             src.get("DB_PATH", "./data/kbindex.db"),
		APIPort:            src.get("API_PORT", "9000"),
		LogLevel:           strings.ToLower(src.get("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(src.get("LOG_FORMAT", "text")),
	}

	if cfg.VectorStore != VectorStoreChroma && cfg.VectorStore != VectorStoreQdrant {
		return nil, fmt.Errorf("VECTOR_STORE must be %q or %q, got %q", VectorStoreChroma, VectorStoreQdrant, cfg.VectorStore)
	}

	if cfg.EmbeddingVectorSize, err = src.getInt("EMBEDDING_VECTOR_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize < 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must not be negative")
	}
	// Qdrant collections are created with a fixed vector size.
	if cfg.VectorStore == VectorStoreQdrant && cfg.EmbeddingVectorSize == 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required when VECTOR_STORE is qdrant")
	}

	rate, err := strconv.ParseFloat(src.get("EMBEDDING_RATE_PER_SEC", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_RATE_PER_SEC must be a valid number: %w", err)
	}
	if rate < 0 {
		return nil, fmt.Errorf("EMBEDDING_RATE_PER_SEC must not be negative")
	}
	cfg.EmbeddingRatePerSec = rate

	timeoutSecs, err := src.getInt("HTTP_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if timeoutSecs <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSecs) * time.Second

	pauseMs, err := src.getInt("DOCUMENT_PAUSE_MS", 1000)
	if err != nil {
		return nil, err
	}
	if pauseMs < 0 {
		return nil, fmt.Errorf("DOCUMENT_PAUSE_MS must not be negative")
	}
	cfg.DocumentPause = time.Duration(pauseMs) * time.Millisecond

	if cfg.ChunkSize, err = src.getInt("CHUNK_SIZE", indexer.DefaultTargetSize); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = src.getInt("CHUNK_OVERLAP", indexer.DefaultOverlap); err != nil {
		return nil, err
	}
	if _, err := cfg.Chunking(); err != nil {
		return nil, err
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	// Create ./data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Chunking builds and validates the chunking configuration.
func (c *Config) Chunking() (indexer.ChunkingConfig, error) {
	strategy, err := indexer.ParseStrategy(c.ChunkStrategy)
	if err != nil {
		return indexer.ChunkingConfig{}, fmt.Errorf("invalid CHUNK_STRATEGY: %w", err)
	}
	cc := indexer.ChunkingConfig{
		TargetSize: c.ChunkSize,
		Overlap:    c.ChunkOverlap,
		Strategy:   strategy,
	}
	if err := cc.Validate(); err != nil {
		return indexer.ChunkingConfig{}, fmt.Errorf("invalid chunking configuration: %w", err)
	}
	return cc, nil
}

// NewLogger builds a slog logger writing to w with the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
}

// loadFile reads the YAML config file. A missing default file is not an error;
// a missing file named by KBINDEX_CONFIG is.
func loadFile() (map[string]string, error) {
	path := os.Getenv("KBINDEX_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		values[strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return values, nil
}

// get gets a value from the environment or config file, or returns a default value.
func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := s.file[key]; value != "" {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) (int, error) {
	raw := s.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
