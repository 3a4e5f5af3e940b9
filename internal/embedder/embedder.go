package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderFailed      = errors.New("embedding provider failed")
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrNoProviderEnabled   = errors.New("no embedding provider configured")
)

// Client is the embedding port. Implementations must be safe for concurrent
// use. EmbedBatch returns one vector per input text, in input order; every
// vector has exactly Dimensions() entries. An empty input yields an empty
// output and no provider call.
type Client interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ProviderName() string
	Dimensions() int
	Close() error
}

// DefaultCacheSize bounds the shared embedding cache.
const DefaultCacheSize = 10000

// Cache is an LRU of embedding vectors keyed by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates an embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of the cached vector so caller mutations cannot
// corrupt the cache.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector; LRU eviction is automatic at capacity.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int { return c.cache.Len() }

// Purge empties the cache.
func (c *Cache) Purge() { c.cache.Purge() }

// ComputeHash returns the SHA-256 of text, hex encoded, for cache keys.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// validateBatch rejects empty texts; an empty slice is valid and handled by
// the callers before a provider round trip.
func validateBatch(texts []string) error {
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// embedCached serves cache hits and routes only the misses to embed,
// preserving input order in the result.
func embedCached(ctx context.Context, cache *Cache, texts []string, embed func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	results := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if cache != nil {
			if vec, ok := cache.Get(ComputeHash(text)); ok {
				results[i] = vec
				continue
			}
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	vectors, err := embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrProviderFailed, len(vectors), len(missTexts))
	}

	for j, vec := range vectors {
		results[missIdx[j]] = vec
		if cache != nil {
			cache.Set(ComputeHash(missTexts[j]), vec)
		}
	}
	return results, nil
}

// NormalizeVector scales a vector to unit length for cosine similarity.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result
}
