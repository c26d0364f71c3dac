// ABOUTME: Index command bringing the RAG document index up to date
// ABOUTME: Walks the document directory and embeds only changed chunks
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ask-cli/ask/internal/config"
	"github.com/ask-cli/ask/internal/llm"
	"github.com/ask-cli/ask/internal/rag"
	"github.com/ask-cli/ask/internal/storage/sqlite"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the document directory for retrieval",
		Long: `Index the document directory for retrieval

Walks the configured document directory, chunks every supported file,
and stores chunk embeddings in the local vector store. Chunks whose
content is unchanged since the last run are skipped, so re-running is
cheap. Use --force to rebuild the index from scratch, which is also how
the index switches to a different embedding model.`,
		RunE: runIndex,
		Example: `  # Incremental index of the configured directory
  ask index --rag-doc-dir ~/notes

  # Full rebuild, re-embedding everything
  ask index --rag-doc-dir ~/notes --force`,
	}

	cmd.Flags().Bool("force", false, "Clear the index and re-embed everything")
	addConfigFlags(cmd.Flags())

	return cmd
}

// runIndex runs one indexing pass
func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Indexing needs the RAG settings but never the answer model
	for _, required := range []struct{ field, value string }{
		{"rag.endpoint", cfg.RAG.Endpoint},
		{"rag.embed_model", cfg.RAG.EmbedModel},
		{"rag.doc_dir", cfg.RAG.DocDir},
	} {
		if required.value == "" {
			return &config.ConfigError{Field: required.field, Reason: "required for indexing"}
		}
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

	client, err := llm.NewClient(llm.ClientConfig{
		Endpoint:   cfg.RAG.Endpoint,
		APIKey:     cfg.RAG.APIKey,
		EmbedModel: cfg.RAG.EmbedModel,
	})
	if err != nil {
		return err
	}

	indexer := rag.NewIndexer(cfg.RAG.DocDir, sqlite.NewChunkStore(db), client,
		cfg.RAG.EmbedModel, rag.NewChunker(rag.DefaultChunkSize, rag.DefaultChunkOverlap), logger)

	force, _ := cmd.Flags().GetBool("force")
	report, err := indexer.Index(cmd.Context(), force)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %d added, %d updated, %d removed, %d unchanged\n",
			cfg.RAG.DocDir, report.Added, report.Updated, report.Removed, report.Unchanged)
		if report.Failed > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: %d file(s) could not be indexed, see the log\n", report.Failed)
		}
	}
	return nil
}
