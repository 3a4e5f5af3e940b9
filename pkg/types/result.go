package types

import (
	"errors"
	"fmt"
)

// SearchResult is one ranked match returned by the query pipeline. Score is
// the final fused score; for semantic-only collections it equals the
// similarity reported by the vector backend.
type SearchResult struct {
	ID        string
	FilePath  string
	StartLine int
	Content   string
	Score     float64
	Metadata  map[string]string
}

// Key returns the lexical-index key of the matched chunk, mirroring
// CodeChunk.Key.
func (r *SearchResult) Key() string {
	return fmt.Sprintf("%s:%d", r.FilePath, r.StartLine)
}

// Validate checks result invariants before it is handed to the transport.
func (r *SearchResult) Validate() error {
	if r.ID == "" {
		return errors.New("result id cannot be empty")
	}
	if r.Score < 0 {
		return errors.New("score cannot be negative")
	}
	return nil
}
