// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to use ask and its document index via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/llm"
	"github.com/ask-cli/ask/internal/mcp"
	"github.com/ask-cli/ask/internal/rag"
	"github.com/ask-cli/ask/internal/storage/sqlite"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs ask as an MCP (Model Context Protocol) server over stdio, exposing
the ask, retrieve_context, and index_documents tools to LLM agents.
Retrieval tools are available when the RAG settings are configured.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  ask mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "ask": {
  #       "command": "ask",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	addConfigFlags(cmd.Flags())

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	pipeline, err := buildPipeline(cfg, db, logger, false)
	if err != nil {
		return err
	}

	// Retrieval tools need the full RAG configuration; without it the
	// ask tool still works
	var (
		retriever mcp.Retriever
		indexer   mcp.Indexer
	)
	if cfg.RAG.Endpoint != "" && cfg.RAG.EmbedModel != "" && cfg.RAG.DocDir != "" {
		client, err := llm.NewClient(llm.ClientConfig{
			Endpoint:   cfg.RAG.Endpoint,
			APIKey:     cfg.RAG.APIKey,
			EmbedModel: cfg.RAG.EmbedModel,
		})
		if err != nil {
			return err
		}
		chunkStore := sqlite.NewChunkStore(db)
		retriever = rag.NewRetriever(cfg.RAG.DocDir, chunkStore, client,
			cfg.RAG.EmbedModel, cfg.RAG.ExcerptLength, cfg.RAG.SourceLinkFormat, logger)
		indexer = rag.NewIndexer(cfg.RAG.DocDir, chunkStore, client,
			cfg.RAG.EmbedModel, rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap), logger)
	}

	// Create MCP server
	server := mcpserver.NewMCPServer(
		"ask",
		versionInfo.Version,
	)

	mcp.RegisterTools(server, pipeline, retriever, indexer)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		log.Println("ask MCP server starting on stdio...")
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, shutting down...")
		}
		logger.Info("mcp server stopped", zap.String("reason", "signal"))

	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
