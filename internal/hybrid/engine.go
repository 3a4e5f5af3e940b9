package hybrid

import (
	"math"
	"sort"
	"sync"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// Default fusion weights.
const (
	DefaultBM25Weight     = 0.4
	DefaultSemanticWeight = 0.6
)

// ScoredResult is a fused search hit carrying its component scores.
type ScoredResult struct {
	Result        types.SearchResult
	BM25Score     float64
	SemanticScore float64
	HybridScore   float64
}

// Stats summarizes one collection's lexical index for status reporting.
type Stats struct {
	TotalDocuments   int     `json:"total_documents"`
	UniqueTerms      int     `json:"unique_terms"`
	AverageDocLength float64 `json:"average_doc_length"`
	K1               float64 `json:"bm25_k1"`
	B                float64 `json:"bm25_b"`
}

// collectionIndex is one collection's documents plus its rebuilt scorer.
type collectionIndex struct {
	scorer    *Scorer
	documents []types.CodeChunk
	keyIndex  map[string]int // <file_path>:<start_line> -> documents index
}

// Engine fuses BM25 and semantic scores per collection. Reads take the
// shared lock; indexing and clearing take the exclusive lock.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*collectionIndex

	bm25Weight     float64
	semanticWeight float64
	params         Params
}

// NewEngine creates a fusion engine. Negative weights are clamped to zero;
// a zero/zero pair falls back to the defaults. The weights are not
// re-normalized, so operators can tune emphasis independently.
func NewEngine(bm25Weight, semanticWeight float64, params Params) *Engine {
	bm25Weight = math.Max(0, bm25Weight)
	semanticWeight = math.Max(0, semanticWeight)
	if bm25Weight == 0 && semanticWeight == 0 {
		bm25Weight, semanticWeight = DefaultBM25Weight, DefaultSemanticWeight
	}
	if params.MinTokenLen == 0 && params.K1 == 0 && params.B == 0 {
		params = DefaultParams()
	}

	return &Engine{
		collections:    make(map[string]*collectionIndex),
		bm25Weight:     bm25Weight,
		semanticWeight: semanticWeight,
		params:         params,
	}
}

// Index appends chunks to a collection's lexical index, skipping keys that
// are already present, then rebuilds the scorer from the full document set.
func (e *Engine) Index(collection string, chunks []types.CodeChunk) {
	if len(chunks) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.collections[collection]
	if !ok {
		idx = &collectionIndex{keyIndex: make(map[string]int)}
		e.collections[collection] = idx
	}

	for _, chunk := range chunks {
		key := chunk.Key()
		if _, exists := idx.keyIndex[key]; exists {
			continue
		}
		idx.keyIndex[key] = len(idx.documents)
		idx.documents = append(idx.documents, chunk)
	}

	idx.scorer = NewScorer(idx.documents, e.params)
}

// Clear drops a collection's lexical index.
func (e *Engine) Clear(collection string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.collections, collection)
}

// HasIndex reports whether a collection has any indexed documents.
func (e *Engine) HasIndex(collection string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.collections[collection]
	return ok && idx.scorer != nil && idx.scorer.TotalDocs() > 0
}

// Stats returns the lexical index statistics for a collection.
func (e *Engine) Stats(collection string) (Stats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.collections[collection]
	if !ok || idx.scorer == nil {
		return Stats{}, false
	}
	return Stats{
		TotalDocuments:   idx.scorer.TotalDocs(),
		UniqueTerms:      idx.scorer.UniqueTerms(),
		AverageDocLength: idx.scorer.AvgDocLen(),
		K1:               e.params.K1,
		B:                e.params.B,
	}, true
}

// Search fuses BM25 and semantic scores over the semantic candidate set and
// returns the top results by hybrid score. A collection without a lexical
// index passes candidates through on their semantic score alone.
func (e *Engine) Search(collection, query string, candidates []types.SearchResult, limit int) []ScoredResult {
	if limit <= 0 || len(candidates) == 0 {
		return []ScoredResult{}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, ok := e.collections[collection]
	if !ok || idx.scorer == nil {
		return passthrough(candidates, limit)
	}

	queryTokens := idx.scorer.Tokenize(query)

	results := make([]ScoredResult, 0, len(candidates))
	for _, candidate := range candidates {
		semantic := candidate.Score

		docIdx, found := idx.keyIndex[candidate.Key()]
		if !found {
			// No lexical document for this hit: degrade to the
			// weighted semantic component.
			results = append(results, ScoredResult{
				Result:        candidate,
				SemanticScore: semantic,
				HybridScore:   e.semanticWeight * semantic,
			})
			continue
		}

		raw := idx.scorer.ScoreWithTokens(&idx.documents[docIdx], queryTokens)
		normalized := 0.0
		if raw > 0 {
			normalized = 1.0 / (1.0 + math.Exp(-raw))
		}

		results = append(results, ScoredResult{
			Result:        candidate,
			BM25Score:     raw,
			SemanticScore: semantic,
			HybridScore:   e.bm25Weight*normalized + e.semanticWeight*semantic,
		})
	}

	sortByHybridScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func passthrough(candidates []types.SearchResult, limit int) []ScoredResult {
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	results := make([]ScoredResult, len(candidates))
	for i, candidate := range candidates {
		results[i] = ScoredResult{
			Result:        candidate,
			SemanticScore: candidate.Score,
			HybridScore:   candidate.Score,
		}
	}
	return results
}

// sortByHybridScore orders descending by hybrid score with an id tiebreak
// so equal scores rank deterministically.
func sortByHybridScore(results []ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].HybridScore != results[j].HybridScore {
			return results[i].HybridScore > results[j].HybridScore
		}
		return results[i].Result.ID < results[j].Result.ID
	})
}
