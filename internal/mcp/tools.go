// ABOUTME: MCP tool definitions and registration
// ABOUTME: Exposes ask, retrieve_context, and index_documents over stdio
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server. Retriever and
// indexer may be nil; their tools then report a configuration error.
func RegisterTools(server *mcpserver.MCPServer, asker Asker, retriever Retriever, indexer Indexer) *Handlers {
	handlers := &Handlers{
		asker:     asker,
		retriever: retriever,
		indexer:   indexer,
	}

	// 1. ask - run a full prompt request with conversation continuity
	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Send a prompt to the configured model. Continues the most recent conversation when it is still within the resumption window; in RAG mode the answer carries source citations.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The user prompt to send",
				},
			},
			Required: []string{"prompt"},
		},
	}, handlers.Ask)

	// 2. retrieve_context - similarity search without a model call
	server.AddTool(mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve the most similar indexed document chunks for a query. Returns scored chunks as JSON without calling the answer model.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query to embed and match against the index",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: 4)",
					"default":     4,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.RetrieveContext)

	// 3. index_documents - bring the document index up to date
	server.AddTool(mcp.Tool{
		Name:        "index_documents",
		Description: "Index the configured document directory. Unchanged chunks are skipped; set force to rebuild the index from scratch.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Clear the index and re-embed everything (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.IndexDocuments)

	return handlers
}
