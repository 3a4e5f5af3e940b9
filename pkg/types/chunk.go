package types

import (
	"errors"
	"fmt"
)

// Metadata keys attached to chunks by the chunker.
const (
	MetaChunkType  = "chunk_type"
	MetaNodeKind   = "node_kind"
	MetaSymbolName = "symbol_name"
	MetaFileName   = "file"
)

// Chunk extraction methods recorded under MetaChunkType.
const (
	ChunkTypeAST      = "ast"
	ChunkTypeFallback = "fallback"
)

// CodeChunk is a contiguous span of source code treated as one retrievable
// unit. It is produced by the chunker and persisted as a vector plus payload
// in the vector store and as a token stream in the lexical index.
type CodeChunk struct {
	// ID is deterministic: <file>_<start>_<end>, optionally kind-prefixed
	// on the AST path. Identical spans produce identical ids.
	ID        string
	Content   string
	FilePath  string // relative to the codebase root
	StartLine int    // 1-based
	EndLine   int    // 1-based, >= StartLine
	Language  Language
	Metadata  map[string]string
}

// Key returns the deterministic lexical-index key for the chunk.
func (c *CodeChunk) Key() string {
	return fmt.Sprintf("%s:%d", c.FilePath, c.StartLine)
}

// Validate enforces the chunk invariants: non-empty content, a non-empty
// 1-based line range, and a non-empty id.
func (c *CodeChunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk id cannot be empty")
	}
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.FilePath == "" {
		return errors.New("chunk file path cannot be empty")
	}
	if c.StartLine < 1 || c.EndLine < 1 {
		return errors.New("line numbers must be positive")
	}
	if c.StartLine > c.EndLine {
		return errors.New("start line must be before or equal to end line")
	}
	return nil
}

// Embedding is a dense vector with provenance. Dimensions always equals
// len(Vector); all vectors returned by one provider instance share it.
type Embedding struct {
	Vector     []float32
	Model      string
	Dimensions int
}

// Validate checks the embedding invariants.
func (e *Embedding) Validate() error {
	if len(e.Vector) == 0 {
		return errors.New("embedding vector cannot be empty")
	}
	if e.Model == "" {
		return errors.New("embedding model cannot be empty")
	}
	if e.Dimensions != len(e.Vector) {
		return fmt.Errorf("dimensions %d does not match vector length %d", e.Dimensions, len(e.Vector))
	}
	return nil
}
