// Package embedder turns text into dense vectors through a pluggable
// provider port.
//
// Three providers are built in: OpenAI (text-embedding-3-small, 1536
// dimensions), Jina AI (jina-embeddings-v3, 1024 dimensions), and a
// deterministic local provider (384 dimensions) that needs no credentials
// and backs tests and offline use.
//
// All providers share an LRU cache keyed by the SHA-256 of the input text
// and wrap remote calls in exponential-backoff retries.
package embedder
