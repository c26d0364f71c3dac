// ABOUTME: Document indexer walking a directory into the chunk vector store
// ABOUTME: Content hashes make re-runs skip unchanged chunks without embedding calls
package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/config"
	"github.com/ask-cli/ask/internal/models"
)

// Embedder computes an embedding vector for a piece of text. The same
// embedder must serve indexing and retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChunkStore is the persistence the indexer needs.
type ChunkStore interface {
	Upsert(namespace string, chunk models.DocumentChunk) error
	Hashes(namespace, sourcePath string) (map[int]string, error)
	DeleteFrom(namespace, sourcePath string, fromIndex int) error
	ClearNamespace(namespace string) error
	EmbedModel(namespace string) (string, error)
	SetEmbedModel(namespace, model string) error
}

// supportedExts are the text-like formats the indexer reads.
var supportedExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Indexer walks a document directory and upserts chunk embeddings into the
// vector store under the directory's namespace.
type Indexer struct {
	docDir     string
	namespace  string
	store      ChunkStore
	embedder   Embedder
	embedModel string
	chunker    *Chunker
	log        *zap.Logger
}

// NewIndexer creates an indexer for docDir. The namespace is the cleaned
// directory path, so distinct collections never cross-contaminate.
func NewIndexer(docDir string, store ChunkStore, embedder Embedder, embedModel string, chunker *Chunker, logger *zap.Logger) *Indexer {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		docDir:     docDir,
		namespace:  filepath.Clean(docDir),
		store:      store,
		embedder:   embedder,
		embedModel: embedModel,
		chunker:    chunker,
		log:        logger,
	}
}

// Namespace returns the vector store namespace this indexer writes to.
func (ix *Indexer) Namespace() string {
	return ix.namespace
}

// Index walks the document directory and brings the namespace up to date.
// With force set, the namespace is cleared first so no stale chunks
// survive. A single unreadable file is logged and counted, not fatal.
func (ix *Indexer) Index(ctx context.Context, force bool) (models.IndexReport, error) {
	var report models.IndexReport

	if force {
		if err := ix.store.ClearNamespace(ix.namespace); err != nil {
			return report, fmt.Errorf("clearing namespace %s: %w", ix.namespace, err)
		}
	} else {
		existing, err := ix.store.EmbedModel(ix.namespace)
		if err != nil {
			return report, fmt.Errorf("reading namespace metadata: %w", err)
		}
		if existing != "" && existing != ix.embedModel {
			return report, &config.ConfigError{
				Field:  "rag.embed_model",
				Reason: fmt.Sprintf("namespace %s was indexed with %q; re-run with a full reindex to switch to %q", ix.namespace, existing, ix.embedModel),
			}
		}
	}

	walkErr := filepath.WalkDir(ix.docDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !supportedExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := ix.indexFile(ctx, path, &report); err != nil {
			// Per-file failure: log and keep going
			ix.log.Warn("skipping document", zap.String("path", path), zap.Error(err))
			report.Failed++
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walking %s: %w", ix.docDir, walkErr)
	}

	if err := ix.store.SetEmbedModel(ix.namespace, ix.embedModel); err != nil {
		return report, fmt.Errorf("recording namespace metadata: %w", err)
	}

	ix.log.Info("index run completed",
		zap.String("namespace", ix.namespace),
		zap.Int("added", report.Added),
		zap.Int("updated", report.Updated),
		zap.Int("removed", report.Removed),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed))
	return report, nil
}

// indexFile chunks one document and upserts the chunks whose content
// changed since the last run.
func (ix *Indexer) indexFile(ctx context.Context, path string, report *models.IndexReport) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}

	rel, err := filepath.Rel(ix.docDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	// Provenance prefix so the model sees which file a chunk came from
	text := "Filename: " + filepath.Base(path) + "\n\n" + string(data)
	chunks := ix.chunker.Split(text)

	existing, err := ix.store.Hashes(ix.namespace, rel)
	if err != nil {
		return fmt.Errorf("loading stored hashes: %w", err)
	}

	for i, chunkText := range chunks {
		hash := HashChunk(chunkText)
		if existing[i] == hash {
			report.Unchanged++
			continue
		}

		vector, err := ix.embedder.Embed(ctx, chunkText)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", i, err)
		}

		chunk := models.DocumentChunk{
			SourcePath:  rel,
			ChunkIndex:  i,
			Text:        chunkText,
			ContentHash: hash,
			Vector:      vector,
		}
		if err := ix.store.Upsert(ix.namespace, chunk); err != nil {
			return fmt.Errorf("storing chunk %d: %w", i, err)
		}

		if _, had := existing[i]; had {
			report.Updated++
		} else {
			report.Added++
		}
	}

	// Trailing chunks from a longer previous version of the document
	for idx := range existing {
		if idx >= len(chunks) {
			report.Removed++
		}
	}
	if err := ix.store.DeleteFrom(ix.namespace, rel, len(chunks)); err != nil {
		return fmt.Errorf("removing stale chunks: %w", err)
	}

	return nil
}
