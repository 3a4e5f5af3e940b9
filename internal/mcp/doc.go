// Package mcp implements the Model Context Protocol (MCP) server for CodeCtx.
//
// The server exposes four tools to AI coding assistants over a JSON-RPC 2.0
// stdio transport:
//   - index_codebase: synchronize a codebase root into the search index
//   - search_code: hybrid semantic + keyword search over indexed code
//   - get_indexing_status: pipeline activity, totals, and BM25 statistics
//   - clear_index: drop a collection's vectors, lexical index, and snapshots
//
// # Tool: index_codebase
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "force": false
//	  }
//	}
//
//	Response:
//	{
//	  "performed": true,
//	  "batch_id": "5c2f...",
//	  "files_changed": 12,
//	  "files_indexed": 12,
//	  "chunks_indexed": 87,
//	  "duration_ms": 1430
//	}
//
// A call landing inside the debounce window, or racing an in-flight sync of
// the same root, responds with performed=false rather than an error.
//
// # Tool: search_code
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "query": "user authentication logic",
//	    "limit": 10
//	  }
//	}
//
// Results carry the fused relevance score, file path, 1-based start line, and
// the chunk content. Searching a collection that was never indexed returns an
// empty result list.
//
// # Error Handling
//
// Tool failures map the service's error kinds onto JSON-RPC codes:
//   - -32602: invalid params (missing/invalid arguments)
//   - -32603: internal error
//   - -32001: not found (path or collection)
//   - -32002: embedding provider failure
//   - -32003: vector store failure
//
// Logging goes to stderr; stdout is reserved for the MCP protocol.
package mcp
