// Package config loads service configuration from the environment. A .env
// file in the working directory is honored when present; explicit environment
// variables win. Every knob has a default so the server starts with no
// configuration at all (local embedding provider, in-memory vector store).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for every tunable.
const (
	DefaultCollection      = "codectx"
	DefaultSyncInterval    = 5 * time.Minute
	DefaultDebounce        = 60 * time.Second
	DefaultBatchSize       = 64
	DefaultMaxChunks       = 1000
	DefaultRetryCount      = 3
	DefaultBM25K1          = 1.5
	DefaultBM25B           = 0.75
	DefaultMinTokenLen     = 2
	DefaultBM25Weight      = 0.4
	DefaultSemanticWeight  = 0.6
	DefaultMaxSyncWorkers  = 4
	DefaultQueryTimeout    = 30 * time.Second
	DefaultSnapshotDirName = ".codectx"
)

// Config is the full configuration surface consumed by the core.
type Config struct {
	// Embedding provider: "openai", "jina", or "local".
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingAPIKey   string

	// Vector store: "qdrant" or "memory".
	VectorStoreProvider string
	VectorStoreAddr     string
	Collection          string
	SimilarityMetric    string // "cosine", "dot", or "euclid"

	// Hybrid fusion weights, kept in [0,1] but deliberately not
	// re-normalized so operators can tune emphasis independently.
	BM25Weight     float64
	SemanticWeight float64

	// BM25 parameters.
	BM25K1      float64
	BM25B       float64
	MinTokenLen int

	// Indexing pipeline.
	SyncInterval      time.Duration
	DebounceInterval  time.Duration
	MaxChunksPerFile  int
	EmbeddingBatch    int
	RetryCount        int
	MaxSyncWorkers    int
	HashSnapshots     bool
	SnapshotStorePath string

	// Query pipeline.
	QueryTimeout time.Duration
}

// Load reads configuration from the environment, after loading .env if one
// exists. Missing values fall back to defaults.
func Load() (*Config, error) {
	// Absence of .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		EmbeddingProvider:   envString("CODECTX_EMBEDDING_PROVIDER", ""),
		EmbeddingModel:      envString("CODECTX_EMBEDDING_MODEL", ""),
		EmbeddingAPIKey:     envString("CODECTX_EMBEDDING_API_KEY", ""),
		VectorStoreProvider: envString("CODECTX_VECTOR_STORE", "memory"),
		VectorStoreAddr:     envString("CODECTX_QDRANT_ADDR", "localhost:6334"),
		Collection:          envString("CODECTX_COLLECTION", DefaultCollection),
		SimilarityMetric:    envString("CODECTX_SIMILARITY_METRIC", "cosine"),
		BM25Weight:          envFloat("CODECTX_BM25_WEIGHT", DefaultBM25Weight),
		SemanticWeight:      envFloat("CODECTX_SEMANTIC_WEIGHT", DefaultSemanticWeight),
		BM25K1:              envFloat("CODECTX_BM25_K1", DefaultBM25K1),
		BM25B:               envFloat("CODECTX_BM25_B", DefaultBM25B),
		MinTokenLen:         envInt("CODECTX_BM25_MIN_TOKEN_LEN", DefaultMinTokenLen),
		SyncInterval:        envDuration("CODECTX_SYNC_INTERVAL", DefaultSyncInterval),
		DebounceInterval:    envDuration("CODECTX_DEBOUNCE_INTERVAL", DefaultDebounce),
		MaxChunksPerFile:    envInt("CODECTX_MAX_CHUNKS_PER_FILE", DefaultMaxChunks),
		EmbeddingBatch:      envInt("CODECTX_EMBEDDING_BATCH_SIZE", DefaultBatchSize),
		RetryCount:          envInt("CODECTX_RETRY_COUNT", DefaultRetryCount),
		MaxSyncWorkers:      envInt("CODECTX_MAX_SYNC_WORKERS", DefaultMaxSyncWorkers),
		HashSnapshots:       envBool("CODECTX_HASH_SNAPSHOTS", true),
		SnapshotStorePath:   envString("CODECTX_SNAPSHOT_DB", ""),
		QueryTimeout:        envDuration("CODECTX_QUERY_TIMEOUT", DefaultQueryTimeout),
	}

	if cfg.SnapshotStorePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.SnapshotStorePath = filepath.Join(home, DefaultSnapshotDirName, "snapshots.db")
	}

	cfg.clamp()
	return cfg, nil
}

// clamp keeps tunables inside workable ranges rather than failing startup.
func (c *Config) clamp() {
	if c.BM25Weight < 0 {
		c.BM25Weight = 0
	}
	if c.SemanticWeight < 0 {
		c.SemanticWeight = 0
	}
	if c.EmbeddingBatch <= 0 {
		c.EmbeddingBatch = DefaultBatchSize
	}
	if c.MaxChunksPerFile <= 0 {
		c.MaxChunksPerFile = DefaultMaxChunks
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.MaxSyncWorkers <= 0 {
		c.MaxSyncWorkers = DefaultMaxSyncWorkers
	}
	if c.MinTokenLen < 0 {
		c.MinTokenLen = 0
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
