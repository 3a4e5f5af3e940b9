// Package searcher implements the query pipeline: embed the query, fetch an
// over-provisioned semantic candidate set, fuse with the lexical index, and
// truncate to the requested limit.
package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codectx/codectx-mcp/internal/embedder"
	"github.com/codectx/codectx-mcp/internal/hybrid"
	"github.com/codectx/codectx-mcp/internal/vectorstore"
	"github.com/codectx/codectx-mcp/pkg/types"
)

// Limit bounds for one search call.
const (
	DefaultLimit = 10
	MaxLimit     = 1000

	// Overfetch bounds: the semantic candidate set is 2x the requested
	// limit, clamped into [MinOverfetch, MaxOverfetch].
	MinOverfetch = 20
	MaxOverfetch = 100

	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Hour
)

// cacheEntry is a cached result list with its expiry.
type cacheEntry struct {
	results   []types.SearchResult
	expiresAt time.Time
}

// Searcher answers search queries over one vector store and fusion engine.
type Searcher struct {
	embedder embedder.Client
	store    vectorstore.Store
	engine   *hybrid.Engine

	queryTimeout time.Duration
	cacheTTL     time.Duration

	cacheMu sync.Mutex
	cache   *lru.Cache[[32]byte, *cacheEntry]
}

// New creates a Searcher. A zero queryTimeout disables the per-query
// deadline.
func New(embedClient embedder.Client, store vectorstore.Store, engine *hybrid.Engine, queryTimeout time.Duration) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](DefaultCacheSize)
	if err != nil {
		panic(fmt.Sprintf("create query cache: %v", err))
	}

	return &Searcher{
		embedder:     embedClient,
		store:        store,
		engine:       engine,
		queryTimeout: queryTimeout,
		cacheTTL:     DefaultCacheTTL,
		cache:        cache,
	}
}

// Search returns up to limit results for query, ranked by fused score. A
// collection that does not exist yields an empty list, not an error.
func (s *Searcher) Search(ctx context.Context, collection, query string, limit int) ([]types.SearchResult, error) {
	if query == "" {
		return nil, types.NewError(types.KindInvalidArgument, "query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	key := queryHash(collection, query, limit)
	if results, ok := s.cachedResults(key); ok {
		return results, nil
	}

	exists, err := s.store.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []types.SearchResult{}, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, types.WrapError(types.KindEmbedding, err, "embed query")
	}
	if len(vectors) != 1 {
		return nil, types.NewError(types.KindEmbedding, "embedder returned %d vectors for one query", len(vectors))
	}

	overfetch := clamp(2*limit, MinOverfetch, MaxOverfetch)
	hits, err := s.store.SearchSimilar(ctx, collection, vectors[0], overfetch, nil)
	if err != nil {
		return nil, err
	}

	candidates := make([]types.SearchResult, len(hits))
	for i, hit := range hits {
		candidates[i] = candidateFromHit(hit)
	}

	fused := s.engine.Search(collection, query, candidates, limit)
	results := make([]types.SearchResult, len(fused))
	for i, scored := range fused {
		results[i] = scored.Result
		results[i].Score = scored.HybridScore
	}

	s.storeResults(key, results)
	return results, nil
}

// InvalidateCache drops cached query results. It runs on every re-index and
// clear so searches never serve stale hits.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Purge()
}

// candidateFromHit maps a vector store hit onto the result shape, applying
// safe defaults when payload fields are absent.
func candidateFromHit(hit vectorstore.ScoredPoint) types.SearchResult {
	payload := hit.Payload
	if payload == nil {
		payload = map[string]string{}
	}

	startLine := 0
	if n, err := strconv.Atoi(payload["start_line"]); err == nil {
		startLine = n
	}

	metadata := make(map[string]string)
	for k, v := range payload {
		switch k {
		case "content", "file_path", "start_line":
			continue
		}
		metadata[k] = v
	}

	return types.SearchResult{
		ID:        hit.ID,
		FilePath:  payload["file_path"],
		StartLine: startLine,
		Content:   payload["content"],
		Score:     float64(hit.Score),
		Metadata:  metadata,
	}
}

func (s *Searcher) cachedResults(key [32]byte) ([]types.SearchResult, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.cache.Remove(key)
		return nil, false
	}

	results := make([]types.SearchResult, len(entry.results))
	copy(results, entry.results)
	return results, true
}

func (s *Searcher) storeResults(key [32]byte, results []types.SearchResult) {
	entry := &cacheEntry{
		results:   make([]types.SearchResult, len(results)),
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	copy(entry.results, results)

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Add(key, entry)
}

func queryHash(collection, query string, limit int) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", collection, query, limit)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
