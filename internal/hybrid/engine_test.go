package hybrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx/codectx-mcp/pkg/types"
)

func chunkAt(file string, line int, content string) types.CodeChunk {
	return types.CodeChunk{
		ID:        file + "_chunk",
		Content:   content,
		FilePath:  file,
		StartLine: line,
		EndLine:   line + 5,
		Language:  types.LangGo,
	}
}

func candidateAt(id, file string, line int, score float64) types.SearchResult {
	return types.SearchResult{ID: id, FilePath: file, StartLine: line, Score: score}
}

func TestNewEngineWeights(t *testing.T) {
	e := NewEngine(-1, -2, DefaultParams())
	assert.Equal(t, DefaultBM25Weight, e.bm25Weight, "negative weights clamp then fall back")
	assert.Equal(t, DefaultSemanticWeight, e.semanticWeight)

	e = NewEngine(0.7, 0.3, DefaultParams())
	assert.Equal(t, 0.7, e.bm25Weight)
	assert.Equal(t, 0.3, e.semanticWeight)

	e = NewEngine(0.5, 0, DefaultParams())
	assert.Equal(t, 0.5, e.bm25Weight)
	assert.Equal(t, 0.0, e.semanticWeight, "a single zero weight is honored")
}

func TestEngineIndexAndStats(t *testing.T) {
	e := NewEngine(0, 0, DefaultParams())

	assert.False(t, e.HasIndex("code"))
	_, ok := e.Stats("code")
	assert.False(t, ok)

	e.Index("code", []types.CodeChunk{
		chunkAt("a.go", 1, "parse request body into struct"),
		chunkAt("b.go", 1, "close idle database connections"),
	})

	assert.True(t, e.HasIndex("code"))
	stats, ok := e.Stats("code")
	require.True(t, ok)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, DefaultK1, stats.K1)
	assert.Equal(t, DefaultB, stats.B)
}

func TestEngineIndexDeduplicatesByKey(t *testing.T) {
	e := NewEngine(0, 0, DefaultParams())

	chunk := chunkAt("a.go", 1, "parse request body into struct")
	e.Index("code", []types.CodeChunk{chunk})
	e.Index("code", []types.CodeChunk{chunk, chunkAt("b.go", 1, "handle websocket upgrade frames")})

	stats, ok := e.Stats("code")
	require.True(t, ok)
	assert.Equal(t, 2, stats.TotalDocuments, "re-indexed chunks are not duplicated")
}

func TestEngineSearchFusion(t *testing.T) {
	e := NewEngine(0.4, 0.6, DefaultParams())
	e.Index("code", []types.CodeChunk{
		chunkAt("lexical.go", 1, "token cache lookup token cache eviction"),
		chunkAt("semantic.go", 1, "filesystem watcher debounce loop"),
	})

	// The semantically-weaker candidate matches the query lexically.
	candidates := []types.SearchResult{
		candidateAt("sem", "semantic.go", 1, 0.9),
		candidateAt("lex", "lexical.go", 1, 0.5),
	}

	results := e.Search("code", "token cache", candidates, 10)
	require.Len(t, results, 2)

	var lex, sem ScoredResult
	for _, r := range results {
		switch r.Result.ID {
		case "lex":
			lex = r
		case "sem":
			sem = r
		}
	}

	assert.Greater(t, lex.BM25Score, 0.0)
	assert.Equal(t, 0.0, sem.BM25Score)

	// Hybrid = bm25Weight * sigmoid(raw) + semanticWeight * semantic.
	wantLex := 0.4*(1.0/(1.0+math.Exp(-lex.BM25Score))) + 0.6*0.5
	assert.InDelta(t, wantLex, lex.HybridScore, 1e-9)
	assert.InDelta(t, 0.6*0.9, sem.HybridScore, 1e-9, "zero raw BM25 contributes nothing")

	assert.Equal(t, "lex", results[0].Result.ID, "lexical match reranks above the semantic hit")
}

func TestEngineSearchUnindexedCandidate(t *testing.T) {
	e := NewEngine(0.4, 0.6, DefaultParams())
	e.Index("code", []types.CodeChunk{
		chunkAt("known.go", 1, "token cache lookup"),
	})

	results := e.Search("code", "token",
		[]types.SearchResult{candidateAt("ghost", "unknown.go", 99, 0.8)}, 10)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.6*0.8, results[0].HybridScore, 1e-9,
		"candidates without a lexical document keep the weighted semantic score")
}

func TestEngineSearchPassthroughWithoutIndex(t *testing.T) {
	e := NewEngine(0.4, 0.6, DefaultParams())

	candidates := []types.SearchResult{
		candidateAt("a", "a.go", 1, 0.9),
		candidateAt("b", "b.go", 1, 0.7),
		candidateAt("c", "c.go", 1, 0.5),
	}

	results := e.Search("code", "anything", candidates, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Result.ID)
	assert.Equal(t, 0.9, results[0].HybridScore, "passthrough keeps the semantic score")
	assert.Equal(t, "b", results[1].Result.ID)
}

func TestEngineSearchLimitAndTiebreak(t *testing.T) {
	e := NewEngine(0.4, 0.6, DefaultParams())
	e.Index("code", []types.CodeChunk{
		chunkAt("a.go", 1, "identical lexical content here"),
		chunkAt("b.go", 1, "identical lexical content here"),
	})

	candidates := []types.SearchResult{
		candidateAt("zzz", "b.go", 1, 0.5),
		candidateAt("aaa", "a.go", 1, 0.5),
	}

	results := e.Search("code", "identical content", candidates, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "aaa", results[0].Result.ID, "equal hybrid scores break ties by id")

	limited := e.Search("code", "identical content", candidates, 1)
	assert.Len(t, limited, 1)
}

func TestEngineSearchEmptyInputs(t *testing.T) {
	e := NewEngine(0.4, 0.6, DefaultParams())
	assert.Empty(t, e.Search("code", "query", nil, 10))
	assert.Empty(t, e.Search("code", "query", []types.SearchResult{candidateAt("a", "a.go", 1, 0.5)}, 0))
}

func TestEngineClear(t *testing.T) {
	e := NewEngine(0.4, 0.6, DefaultParams())
	e.Index("code", []types.CodeChunk{chunkAt("a.go", 1, "token cache lookup here")})
	require.True(t, e.HasIndex("code"))

	e.Clear("code")
	assert.False(t, e.HasIndex("code"))

	results := e.Search("code", "token",
		[]types.SearchResult{candidateAt("a", "a.go", 1, 0.5)}, 10)
	require.Len(t, results, 1)
	assert.Equal(t, 0.5, results[0].HybridScore, "cleared collection degrades to passthrough")
}
