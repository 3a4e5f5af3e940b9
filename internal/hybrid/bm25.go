package hybrid

import (
	"math"
	"strings"
	"unicode"

	"github.com/codectx/codectx-mcp/pkg/types"
)

// Default scoring parameters.
const (
	DefaultK1          = 1.5
	DefaultB           = 0.75
	DefaultMinTokenLen = 2
)

// Params tunes the BM25 scorer. MinTokenLen is exclusive: tokens must be
// strictly longer to survive tokenization.
type Params struct {
	K1          float64
	B           float64
	MinTokenLen int
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{K1: DefaultK1, B: DefaultB, MinTokenLen: DefaultMinTokenLen}
}

// Scorer ranks documents against a query with BM25. It is built from a full
// document set and is immutable afterwards, so concurrent reads are safe.
type Scorer struct {
	docFreq   map[string]int
	totalDocs int
	avgDocLen float64
	params    Params
}

// NewScorer computes document frequencies and average length over docs.
func NewScorer(docs []types.CodeChunk, params Params) *Scorer {
	if params.K1 <= 0 {
		params.K1 = DefaultK1
	}
	if params.B <= 0 {
		params.B = DefaultB
	}

	s := &Scorer{
		docFreq:   make(map[string]int),
		totalDocs: len(docs),
		params:    params,
	}

	totalLength := 0.0
	for i := range docs {
		tokens := s.Tokenize(docs[i].Content)
		totalLength += float64(len(tokens))

		seen := make(map[string]bool, len(tokens))
		for _, token := range tokens {
			if !seen[token] {
				seen[token] = true
				s.docFreq[token]++
			}
		}
	}

	if s.totalDocs > 0 {
		s.avgDocLen = totalLength / float64(s.totalDocs)
	}
	return s
}

// Tokenize lowercases, splits on non-alphanumeric runes, and drops tokens
// at or below the minimum length.
func (s *Scorer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, field := range fields {
		if len(field) > s.params.MinTokenLen {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// Score ranks one document against a raw query string.
func (s *Scorer) Score(doc *types.CodeChunk, query string) float64 {
	return s.ScoreWithTokens(doc, s.Tokenize(query))
}

// ScoreWithTokens ranks a document against a pre-tokenized query, avoiding
// repeated query tokenization across a candidate set.
func (s *Scorer) ScoreWithTokens(doc *types.CodeChunk, queryTokens []string) float64 {
	docTokens := s.Tokenize(doc.Content)
	docLength := float64(len(docTokens))

	termFreq := make(map[string]int, len(docTokens))
	for _, token := range docTokens {
		termFreq[token]++
	}

	score := 0.0
	for _, term := range queryTokens {
		df := float64(s.docFreq[term])
		if df == 0 {
			continue
		}
		tf := float64(termFreq[term])

		// BM25+ IDF stays positive even for terms present in every
		// document. A single-document corpus degenerates to ln(1), so
		// use a constant there.
		idf := 1.0
		if s.totalDocs > 1 {
			idf = math.Log(1.0 + (float64(s.totalDocs)-df+0.5)/(df+0.5))
		}

		tfNorm := (tf * (s.params.K1 + 1.0)) /
			(tf + s.params.K1*(1.0-s.params.B+s.params.B*docLength/s.avgDocLen))

		score += idf * tfNorm
	}
	return score
}

// TotalDocs returns the indexed document count.
func (s *Scorer) TotalDocs() int { return s.totalDocs }

// UniqueTerms returns the vocabulary size.
func (s *Scorer) UniqueTerms() int { return len(s.docFreq) }

// AvgDocLen returns the average document length in tokens.
func (s *Scorer) AvgDocLen() float64 { return s.avgDocLen }
