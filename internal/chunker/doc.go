// Package chunker divides source code into semantic chunks for embedding
// and search.
//
// Go files take the primary path: the file is parsed with go/parser and one
// chunk is emitted per top-level declaration (functions, methods, type,
// const and var groups). Every other supported language, and any Go file
// whose parse fails or yields nothing, takes the fallback path: precompiled
// per-language block-start patterns combined with brace balancing, or
// indentation tracking for brace-less languages such as Python.
//
// Chunk ids are deterministic: the same file and line range always produce
// the same id, so re-indexing an unchanged file overwrites rather than
// duplicates.
//
//	c := chunker.New(0)
//	chunks := c.ChunkFile("internal/server.go", content)
package chunker
