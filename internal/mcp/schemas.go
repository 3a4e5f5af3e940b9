package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Index a codebase directory to make it searchable. Incremental: only changed files are re-embedded.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the codebase root directory",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, bypass the debounce window and sync immediately",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed code with natural language or keyword queries (hybrid BM25 + semantic ranking)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-1000)",
					"default":     10,
					"minimum":     1,
					"maximum":     1000,
				},
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to search; defaults to the configured collection",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getIndexingStatusTool returns the tool definition for get_indexing_status
func getIndexingStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_indexing_status",
		Description: "Report indexing activity, lifetime totals, and lexical index statistics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to report on; defaults to the configured collection",
				},
			},
		},
	}
}

// clearIndexTool returns the tool definition for clear_index
func clearIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_index",
		Description: "Delete a collection's vectors, lexical index, cached queries, and file snapshots",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection to clear; defaults to the configured collection",
				},
			},
		},
	}
}
