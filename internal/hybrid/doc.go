// Package hybrid fuses lexical BM25 ranking with semantic similarity.
//
// The BM25 index is in-memory and per collection. Indexing rebuilds term
// statistics from scratch after each append, which keeps the scorer easy to
// reason about at the corpus sizes this service targets. Fusion weights
// default to 0.4 lexical / 0.6 semantic.
package hybrid
