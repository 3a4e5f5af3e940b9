// Package vectorstore persists embedding vectors with payloads and answers
// nearest-neighbor queries, behind a backend-neutral port.
//
// Two backends are provided: Qdrant over gRPC for deployments, and an
// in-memory store for tests and credential-free local use. Point ids are
// arbitrary strings at the port; backends that require UUID ids derive a
// deterministic UUID from the string so re-inserting the same id always
// overwrites the same point.
package vectorstore
