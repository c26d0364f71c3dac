// ABOUTME: MCP tool handler implementations
// ABOUTME: Bridges tool calls onto the request pipeline, retriever, and indexer
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ask-cli/ask/internal/models"
)

// Asker runs one full prompt request, conversation continuity included.
type Asker interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Retriever serves raw document retrieval without a model call.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (models.RetrievalResult, error)
}

// Indexer brings the document namespace up to date.
type Indexer interface {
	Index(ctx context.Context, force bool) (models.IndexReport, error)
}

// Handlers contains the handler functions for all MCP tools. Retriever and
// indexer are nil when no document directory is configured.
type Handlers struct {
	asker     Asker
	retriever Retriever
	indexer   Indexer
}

// Ask handles the ask tool. The reply is the same text the CLI would
// print, sources included in RAG mode.
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("prompt argument is required and must be a string"), nil
	}

	reply, err := h.asker.Run(ctx, prompt)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("request failed: %v", err)), nil
	}
	return mcp.NewToolResultText(reply), nil
}

// RetrieveContext handles the retrieve_context tool, returning scored
// chunks as JSON without calling the answer model.
func (h *Handlers) RetrieveContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.retriever == nil {
		return mcp.NewToolResultError("retrieval is not configured; set a document directory"), nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 4)

	result, err := h.retriever.Retrieve(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	chunks := make([]map[string]interface{}, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		chunks = append(chunks, map[string]interface{}{
			"source_path": chunk.SourcePath,
			"chunk_index": chunk.ChunkIndex,
			"score":       chunk.Score,
			"text":        chunk.Text,
		})
	}

	responseJSON, err := json.Marshal(map[string]interface{}{"chunks": chunks})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// IndexDocuments handles the index_documents tool.
func (h *Handlers) IndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.indexer == nil {
		return mcp.NewToolResultError("indexing is not configured; set a document directory"), nil
	}

	force := request.GetBool("force", false)

	report, err := h.indexer.Index(ctx, force)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	responseJSON, err := json.Marshal(map[string]interface{}{
		"added":     report.Added,
		"updated":   report.Updated,
		"removed":   report.Removed,
		"unchanged": report.Unchanged,
		"failed":    report.Failed,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
