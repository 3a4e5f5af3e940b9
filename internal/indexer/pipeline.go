package indexer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codectx/codectx-mcp/internal/chunker"
	"github.com/codectx/codectx-mcp/internal/embedder"
	"github.com/codectx/codectx-mcp/internal/hybrid"
	"github.com/codectx/codectx-mcp/internal/snapshot"
	"github.com/codectx/codectx-mcp/internal/syncer"
	"github.com/codectx/codectx-mcp/internal/vectorstore"
	"github.com/codectx/codectx-mcp/pkg/types"
)

// DefaultBatchSize is the embedding batch size: chunks accumulate into a
// bounded buffer that flushes at this count.
const DefaultBatchSize = 64

// DefaultMaxWorkers caps concurrent pipeline runs across codebases.
const DefaultMaxWorkers = 4

// fileGroupSize bounds how many changed files are read and chunked at once.
const fileGroupSize = 32

// Config wires the pipeline's collaborators.
type Config struct {
	Snapshots   *snapshot.Manager
	Coordinator *syncer.Coordinator
	Chunker     *chunker.Chunker
	Embedder    embedder.Client
	Store       vectorstore.Store
	Engine      *hybrid.Engine

	Collection string
	Metric     vectorstore.Metric
	BatchSize  int
	MaxWorkers int
}

// Options modifies one Index call.
type Options struct {
	// Force bypasses the debounce window. The single-flight slot still
	// applies.
	Force bool
}

// Result reports one Index call.
type Result struct {
	Performed     bool   `json:"performed"`
	BatchID       string `json:"batch_id,omitempty"`
	FilesChanged  int    `json:"files_changed"`
	FilesIndexed  int    `json:"files_indexed"`
	FilesFailed   int    `json:"files_failed"`
	ChunksIndexed int    `json:"chunks_indexed"`
	FailedBatches int    `json:"failed_batches"`
	DurationMs    int64  `json:"duration_ms"`
}

// Status is a point-in-time snapshot of pipeline activity.
type Status struct {
	Collection    string   `json:"collection"`
	Provider      string   `json:"embedding_provider"`
	Dimensions    int      `json:"embedding_dimensions"`
	ActiveSyncs   int      `json:"active_syncs"`
	ActiveRoots   []string `json:"active_roots,omitempty"`
	TotalSyncs    int64    `json:"total_syncs"`
	FilesIndexed  int64    `json:"files_indexed"`
	ChunksIndexed int64    `json:"chunks_indexed"`
	FailedBatches int64    `json:"failed_batches"`
}

// Pipeline brings a collection into sync with on-disk codebases.
type Pipeline struct {
	snapshots   *snapshot.Manager
	coordinator *syncer.Coordinator
	chunker     *chunker.Chunker
	embedder    embedder.Client
	store       vectorstore.Store
	engine      *hybrid.Engine

	collection string
	metric     vectorstore.Metric
	batchSize  int
	workers    chan struct{}

	totalSyncs    atomic.Int64
	filesIndexed  atomic.Int64
	chunksIndexed atomic.Int64
	failedBatches atomic.Int64
}

// New creates a pipeline from its collaborators.
func New(cfg Config) *Pipeline {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	return &Pipeline{
		snapshots:   cfg.Snapshots,
		coordinator: cfg.Coordinator,
		chunker:     cfg.Chunker,
		embedder:    cfg.Embedder,
		store:       cfg.Store,
		engine:      cfg.Engine,
		collection:  cfg.Collection,
		metric:      cfg.Metric,
		batchSize:   batchSize,
		workers:     make(chan struct{}, maxWorkers),
	}
}

// Index synchronizes one codebase root into the collection. Runs inside the
// debounce window return Performed=false unless forced; a root already
// being indexed is skipped the same way.
func (p *Pipeline) Index(ctx context.Context, root string, opts Options) (*Result, error) {
	start := time.Now()

	key, err := snapshot.CanonicalKey(root)
	if err != nil {
		return nil, types.WrapError(types.KindInvalidArgument, err, "canonicalize %s", root)
	}
	info, err := os.Stat(key)
	if err != nil || !info.IsDir() {
		return nil, types.NewError(types.KindNotFound, "codebase path %s is not an existing directory", root)
	}

	if !opts.Force && p.coordinator.ShouldDebounce(key) {
		return &Result{Performed: false, DurationMs: time.Since(start).Milliseconds()}, nil
	}

	batch, runCtx := p.coordinator.AcquireSlot(ctx, key)
	if batch == nil {
		return &Result{Performed: false, DurationMs: time.Since(start).Milliseconds()}, nil
	}
	defer p.coordinator.ReleaseSlot(batch)

	select {
	case p.workers <- struct{}{}:
		defer func() { <-p.workers }()
	case <-runCtx.Done():
		return nil, runCtx.Err()
	}

	p.totalSyncs.Add(1)

	changes, current, err := p.snapshots.ChangedFiles(runCtx, key, key)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Performed:    true,
		BatchID:      batch.ID,
		FilesChanged: len(changes.Added) + len(changes.Modified),
	}

	if result.FilesChanged == 0 {
		_ = p.snapshots.Commit(runCtx, key, current)
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	if err := p.indexChangedFiles(runCtx, key, &changes, result); err != nil {
		return nil, err
	}

	if err := p.store.Flush(runCtx, p.collection); err != nil {
		log.Printf("[INDEX] flush failed for %s: %v", p.collection, err)
		result.FailedBatches++
		p.failedBatches.Add(1)
	}

	// Rotate the snapshot only after a fully clean run, so every file
	// touched by a failure diffs as changed on the next sync.
	if result.FilesFailed == 0 && result.FailedBatches == 0 {
		_ = p.snapshots.Commit(runCtx, key, current)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	log.Printf("[INDEX] %s: %d files changed, %d chunks indexed, %d failed batches in %dms",
		key, result.FilesChanged, result.ChunksIndexed, result.FailedBatches, result.DurationMs)
	return result, nil
}

// indexChangedFiles chunks each added or modified file and flushes chunks
// through the embedder into the vector store and lexical index in bounded
// batches.
func (p *Pipeline) indexChangedFiles(ctx context.Context, root string, changes *types.SnapshotChanges, result *Result) error {
	files := make([]string, 0, len(changes.Added)+len(changes.Modified))
	files = append(files, changes.Added...)
	files = append(files, changes.Modified...)
	sort.Strings(files)

	var ensureOnce sync.Once
	var ensureErr error
	ensureCollection := func() error {
		ensureOnce.Do(func() {
			exists, err := p.store.CollectionExists(ctx, p.collection)
			if err != nil {
				ensureErr = err
				return
			}
			if !exists {
				ensureErr = p.store.CreateCollection(ctx, p.collection, p.embedder.Dimensions(), p.metric)
			}
		})
		return ensureErr
	}

	buffer := make([]types.CodeChunk, 0, p.batchSize)
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if err := p.storeBatch(ctx, ensureCollection, buffer); err != nil {
			log.Printf("[INDEX] batch of %d chunks failed: %v", len(buffer), err)
			result.FailedBatches++
			p.failedBatches.Add(1)
		} else {
			result.ChunksIndexed += len(buffer)
			p.chunksIndexed.Add(int64(len(buffer)))
		}
		buffer = buffer[:0]
	}

	supported := files[:0]
	for _, rel := range files {
		if types.IsSupportedSourceFile(rel) {
			supported = append(supported, rel)
		}
	}

	readRel := func(rel string) ([]byte, error) {
		return snapshot.ReadSourceFile(filepath.Join(root, filepath.FromSlash(rel)))
	}

	// Files go through the chunker in bounded groups so read and chunk work
	// fans out across workers while memory stays proportional to the group.
	for start := 0; start < len(supported); start += fileGroupSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + fileGroupSize
		if end > len(supported) {
			end = len(supported)
		}
		group := supported[start:end]

		batch := p.chunker.ChunkBatch(group, readRel)
		result.FilesFailed += len(batch.Failed)
		for _, rel := range group {
			if batch.PerFile[rel] > 0 {
				result.FilesIndexed++
				p.filesIndexed.Add(1)
			}
		}

		for _, chunk := range batch.Chunks {
			buffer = append(buffer, chunk)
			if len(buffer) >= p.batchSize {
				flush()
			}
		}
	}

	flush()
	return nil
}

// storeBatch embeds one chunk batch and writes it to the vector store and
// the lexical index.
func (p *Pipeline) storeBatch(ctx context.Context, ensureCollection func() error, chunks []types.CodeChunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return types.WrapError(types.KindEmbedding, err, "embed batch of %d chunks", len(chunks))
	}
	if len(vectors) != len(chunks) {
		return types.NewError(types.KindEmbedding, "embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	if err := ensureCollection(); err != nil {
		return err
	}

	points := make([]vectorstore.Point, len(chunks))
	for i := range chunks {
		points[i] = vectorstore.Point{
			ID:      chunks[i].ID,
			Vector:  vectors[i],
			Payload: chunkPayload(&chunks[i]),
		}
	}

	if _, err := p.store.InsertVectors(ctx, p.collection, points); err != nil {
		return err
	}

	p.engine.Index(p.collection, chunks)
	return nil
}

// chunkPayload flattens a chunk into the vector store payload consumed by
// the query pipeline.
func chunkPayload(chunk *types.CodeChunk) map[string]string {
	payload := map[string]string{
		"content":    chunk.Content,
		"file_path":  chunk.FilePath,
		"start_line": strconv.Itoa(chunk.StartLine),
		"end_line":   strconv.Itoa(chunk.EndLine),
		"language":   string(chunk.Language),
	}
	for k, v := range chunk.Metadata {
		payload[k] = v
	}
	return payload
}

// Cancel stops the active run for a codebase root, if any.
func (p *Pipeline) Cancel(root string) bool {
	key, err := snapshot.CanonicalKey(root)
	if err != nil {
		return false
	}
	return p.coordinator.Cancel(key)
}

// Status reports pipeline activity for get_indexing_status.
func (p *Pipeline) Status() Status {
	roots := p.coordinator.ActiveKeys()
	return Status{
		Collection:    p.collection,
		Provider:      p.embedder.ProviderName(),
		Dimensions:    p.embedder.Dimensions(),
		ActiveSyncs:   len(roots),
		ActiveRoots:   roots,
		TotalSyncs:    p.totalSyncs.Load(),
		FilesIndexed:  p.filesIndexed.Load(),
		ChunksIndexed: p.chunksIndexed.Load(),
		FailedBatches: p.failedBatches.Load(),
	}
}

// Collection returns the collection this pipeline writes to.
func (p *Pipeline) Collection() string { return p.collection }
