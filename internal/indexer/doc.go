// Package indexer orchestrates the indexing pipeline: snapshot diff ->
// chunk -> embed -> store.
//
// One run handles one codebase root. The sync coordinator enforces at most
// one run per root and a debounce window between runs; a global semaphore
// caps runs across roots. Failures are isolated per batch: a batch that
// fails to embed or store is logged and counted, and the pipeline moves on.
// The filesystem snapshot is rotated only after a fully clean run, so files
// touched by a failed batch surface again in the next diff.
package indexer
