package hybrid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codectx/codectx-mcp/pkg/types"
)

func doc(id, content string) types.CodeChunk {
	return types.CodeChunk{
		ID:        id,
		Content:   content,
		FilePath:  id + ".go",
		StartLine: 1,
		EndLine:   10,
		Language:  types.LangGo,
	}
}

func TestTokenize(t *testing.T) {
	s := NewScorer(nil, DefaultParams())

	tokens := s.Tokenize("Parse the HTTP request, then re-encode it!")
	assert.Equal(t, []string{"parse", "the", "http", "request", "then", "encode"}, tokens,
		"lowercased, split on punctuation, short tokens dropped")

	assert.Empty(t, s.Tokenize("a, an; of"))
	assert.Empty(t, s.Tokenize(""))
}

func TestTokenizeMinLengthExclusive(t *testing.T) {
	s := NewScorer(nil, Params{K1: DefaultK1, B: DefaultB, MinTokenLen: 2})
	assert.Empty(t, s.Tokenize("ab cd"), "tokens must be strictly longer than the minimum")
	assert.Equal(t, []string{"abc"}, s.Tokenize("ab abc"))
}

func TestScorePositivity(t *testing.T) {
	docs := []types.CodeChunk{
		doc("a", "parse json payload into struct"),
		doc("b", "open database connection pool"),
		doc("c", "parse yaml configuration file"),
	}
	s := NewScorer(docs, DefaultParams())

	match := s.Score(&docs[0], "parse json")
	assert.Greater(t, match, 0.0)

	miss := s.Score(&docs[1], "parse json")
	assert.GreaterOrEqual(t, match, miss)

	unknown := s.Score(&docs[0], "zzzmissing")
	assert.Equal(t, 0.0, unknown, "terms absent from the corpus are skipped")
}

func TestScoreMonotonicInMatchedTerms(t *testing.T) {
	docs := []types.CodeChunk{
		doc("both", "token cache lookup token cache"),
		doc("one", "token bucket rate limiter"),
		doc("none", "filesystem watcher loop"),
	}
	s := NewScorer(docs, DefaultParams())

	both := s.Score(&docs[0], "token cache")
	one := s.Score(&docs[1], "token cache")
	none := s.Score(&docs[2], "token cache")

	assert.Greater(t, both, one, "matching more query terms scores higher")
	assert.Greater(t, one, none)
	assert.Equal(t, 0.0, none)
}

func TestScoreEqualDocsEqualScores(t *testing.T) {
	docs := []types.CodeChunk{
		doc("x", "hash the chunk content"),
		doc("y", "hash the chunk content"),
	}
	s := NewScorer(docs, DefaultParams())
	assert.Equal(t, s.Score(&docs[0], "hash chunk"), s.Score(&docs[1], "hash chunk"))
}

func TestSingleDocumentIDF(t *testing.T) {
	docs := []types.CodeChunk{doc("only", "lexical index rebuild pass")}
	s := NewScorer(docs, DefaultParams())

	score := s.Score(&docs[0], "lexical index")
	assert.Greater(t, score, 0.0, "a one-document corpus still ranks matches above zero")
}

func TestIDFStaysPositiveForUbiquitousTerms(t *testing.T) {
	docs := make([]types.CodeChunk, 5)
	for i := range docs {
		docs[i] = doc(fmt.Sprintf("d%d", i), fmt.Sprintf("common term plus filler%d", i))
	}
	s := NewScorer(docs, DefaultParams())

	score := s.Score(&docs[0], "common")
	assert.Greater(t, score, 0.0, "BM25+ IDF never goes negative")
}

func TestScorerStats(t *testing.T) {
	docs := []types.CodeChunk{
		doc("a", "alpha beta gamma"),
		doc("b", "alpha delta"),
	}
	s := NewScorer(docs, DefaultParams())

	assert.Equal(t, 2, s.TotalDocs())
	assert.Equal(t, 4, s.UniqueTerms())
	assert.InDelta(t, 2.5, s.AvgDocLen(), 1e-9)
}

func TestNewScorerEmptyCorpus(t *testing.T) {
	s := NewScorer(nil, DefaultParams())
	require.Equal(t, 0, s.TotalDocs())
	d := doc("a", "anything at all here")
	assert.Equal(t, 0.0, s.Score(&d, "anything"))
}
