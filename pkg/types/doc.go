// Package types defines the shared domain model for the code-search service:
// code chunks, language detection, filesystem snapshots, search results, and
// the typed error kinds surfaced to callers.
//
// Types in this package are plain data with validation helpers. They carry no
// I/O and are safe to copy; a chunk is never mutated after the chunker emits
// it.
package types
