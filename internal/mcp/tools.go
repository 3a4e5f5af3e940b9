package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codectx/codectx-mcp/internal/indexer"
	"github.com/codectx/codectx-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound          = -32001 // Path or collection does not exist
	ErrorCodeEmbeddingFailed   = -32002 // Embedding provider failure
	ErrorCodeVectorStoreFailed = -32003 // Vector store failure
)

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(path) {
		return nil, newMCPError(ErrorCodeInvalidParams, "path must be absolute", map[string]interface{}{
			"param": "path",
			"value": path,
		})
	}

	force := getBoolDefault(args, "force", false)

	result, err := s.pipeline.Index(ctx, path, indexer.Options{Force: force})
	if err != nil {
		return nil, toolError(err)
	}
	if result.Performed && result.ChunksIndexed > 0 {
		s.searcher.InvalidateCache()
	}

	response := map[string]interface{}{
		"performed":      result.Performed,
		"files_changed":  result.FilesChanged,
		"files_indexed":  result.FilesIndexed,
		"files_failed":   result.FilesFailed,
		"chunks_indexed": result.ChunksIndexed,
		"failed_batches": result.FailedBatches,
		"duration_ms":    result.DurationMs,
	}
	if result.BatchID != "" {
		response["batch_id"] = result.BatchID
	}
	if !result.Performed {
		response["reason"] = "debounced or already syncing"
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	collection := getStringDefault(args, "collection", s.pipeline.Collection())

	results, err := s.searcher.Search(ctx, collection, query, limit)
	if err != nil {
		return nil, toolError(err)
	}

	formatted := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		entry := map[string]interface{}{
			"id":         r.ID,
			"file_path":  r.FilePath,
			"start_line": r.StartLine,
			"content":    r.Content,
			"score":      r.Score,
		}
		if len(r.Metadata) > 0 {
			entry["metadata"] = r.Metadata
		}
		formatted = append(formatted, entry)
	}

	response := map[string]interface{}{
		"collection": collection,
		"query":      query,
		"count":      len(formatted),
		"results":    formatted,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetIndexingStatus handles the get_indexing_status tool invocation
func (s *Server) handleGetIndexingStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	collection := getStringDefault(args, "collection", s.pipeline.Collection())

	status := s.pipeline.Status()

	response := map[string]interface{}{
		"collection":           collection,
		"embedding_provider":   status.Provider,
		"embedding_dimensions": status.Dimensions,
		"active_syncs":         status.ActiveSyncs,
		"total_syncs":          status.TotalSyncs,
		"files_indexed":        status.FilesIndexed,
		"chunks_indexed":       status.ChunksIndexed,
		"failed_batches":       status.FailedBatches,
	}
	if len(status.ActiveRoots) > 0 {
		response["active_roots"] = status.ActiveRoots
	}

	if stats, ok := s.engine.Stats(collection); ok {
		response["bm25"] = map[string]interface{}{
			"total_documents":    stats.TotalDocuments,
			"unique_terms":       stats.UniqueTerms,
			"average_doc_length": stats.AverageDocLength,
			"k1":                 stats.K1,
			"b":                  stats.B,
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearIndex handles the clear_index tool invocation
func (s *Server) handleClearIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	collection := getStringDefault(args, "collection", s.pipeline.Collection())

	// DeleteCollection is idempotent on both backends, so report what was
	// actually there.
	deleted, err := s.store.CollectionExists(ctx, collection)
	if err != nil {
		return nil, toolError(err)
	}
	if deleted {
		if err := s.store.DeleteCollection(ctx, collection); err != nil {
			return nil, toolError(err)
		}
	}

	s.engine.Clear(collection)
	s.searcher.InvalidateCache()

	// Snapshots are keyed by root, not collection; with a single configured
	// collection every tracked root belongs to it.
	forgotten := 0
	keys, err := s.snapshots.Keys(ctx)
	if err != nil {
		return nil, toolError(err)
	}
	for _, key := range keys {
		if err := s.manager.Forget(ctx, key); err != nil {
			return nil, toolError(err)
		}
		forgotten++
	}

	response := map[string]interface{}{
		"collection":          collection,
		"deleted":             deleted,
		"snapshots_forgotten": forgotten,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// toolError maps a service error onto an MCP error code.
func toolError(err error) error {
	code := ErrorCodeInternalError
	switch types.KindOf(err) {
	case types.KindNotFound:
		code = ErrorCodeNotFound
	case types.KindInvalidArgument:
		code = ErrorCodeInvalidParams
	case types.KindEmbedding:
		code = ErrorCodeEmbeddingFailed
	case types.KindVectorStore:
		code = ErrorCodeVectorStoreFailed
	}
	return newMCPError(code, err.Error(), nil)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
