package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codectx/codectx-mcp/internal/chunker"
	"github.com/codectx/codectx-mcp/internal/config"
	"github.com/codectx/codectx-mcp/internal/embedder"
	"github.com/codectx/codectx-mcp/internal/hybrid"
	"github.com/codectx/codectx-mcp/internal/indexer"
	"github.com/codectx/codectx-mcp/internal/searcher"
	"github.com/codectx/codectx-mcp/internal/snapshot"
	"github.com/codectx/codectx-mcp/internal/syncer"
	"github.com/codectx/codectx-mcp/internal/vectorstore"
)

const (
	// ServerName is the MCP server name
	ServerName = "codectx-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp       *server.MCPServer
	cfg       *config.Config
	snapshots *snapshot.Store
	manager   *snapshot.Manager
	embedder  embedder.Client
	store     vectorstore.Store
	engine    *hybrid.Engine
	pipeline  *indexer.Pipeline
	searcher  *searcher.Searcher
}

// NewServer wires the full indexing and query stack from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.SnapshotStorePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	snaps, err := snapshot.NewStore(cfg.SnapshotStorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	manager := snapshot.NewManager(snaps, cfg.HashSnapshots)

	emb, err := embedder.New(embedder.Config{
		Provider:   cfg.EmbeddingProvider,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		RetryCount: cfg.RetryCount,
	})
	if err != nil {
		_ = snaps.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store, err := newVectorStore(cfg)
	if err != nil {
		_ = emb.Close()
		_ = snaps.Close()
		return nil, err
	}

	engine := hybrid.NewEngine(cfg.BM25Weight, cfg.SemanticWeight, hybrid.Params{
		K1:          cfg.BM25K1,
		B:           cfg.BM25B,
		MinTokenLen: cfg.MinTokenLen,
	})

	pipeline := indexer.New(indexer.Config{
		Snapshots:   manager,
		Coordinator: syncer.New(cfg.SyncInterval, cfg.DebounceInterval),
		Chunker:     chunker.New(cfg.MaxChunksPerFile),
		Embedder:    emb,
		Store:       store,
		Engine:      engine,
		Collection:  cfg.Collection,
		Metric:      vectorstore.Metric(cfg.SimilarityMetric),
		BatchSize:   cfg.EmbeddingBatch,
		MaxWorkers:  cfg.MaxSyncWorkers,
	})

	srch := searcher.New(emb, store, engine, cfg.QueryTimeout)

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		cfg:       cfg,
		snapshots: snaps,
		manager:   manager,
		embedder:  emb,
		store:     store,
		engine:    engine,
		pipeline:  pipeline,
		searcher:  srch,
	}
	s.registerTools()
	return s, nil
}

// newVectorStore selects the vector backend from configuration.
func newVectorStore(cfg *config.Config) (vectorstore.Store, error) {
	switch strings.ToLower(cfg.VectorStoreProvider) {
	case "qdrant":
		store, err := vectorstore.NewQdrant(cfg.VectorStoreAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant at %s: %w", cfg.VectorStoreAddr, err)
		}
		return store, nil
	case "", "memory":
		return vectorstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.VectorStoreProvider)
	}
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.close()
	return server.ServeStdio(s.mcp)
}

func (s *Server) close() {
	_ = s.embedder.Close()
	_ = s.store.Close()
	_ = s.snapshots.Close()
}

// registerTools registers all MCP tools.
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getIndexingStatusTool(), s.handleGetIndexingStatus)
	s.mcp.AddTool(clearIndexTool(), s.handleClearIndex)
}
