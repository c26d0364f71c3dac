// ABOUTME: Query-time retrieval against the chunk vector store
// ABOUTME: Builds the model context block and the source citation list
package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/config"
	"github.com/ask-cli/ask/internal/models"
)

// SearchStore is the persistence the retriever needs.
type SearchStore interface {
	SearchSimilar(namespace string, vector []float64, maxResults int) ([]models.ScoredChunk, error)
	Count(namespace string) (int, error)
	EmbedModel(namespace string) (string, error)
}

// Retriever embeds a query and returns the most similar chunks from the
// namespace of a document directory.
type Retriever struct {
	docDir        string
	namespace     string
	store         SearchStore
	embedder      Embedder
	embedModel    string
	excerptLength int
	linkFormat    string
	log           *zap.Logger
}

// NewRetriever creates a retriever over the namespace of docDir.
func NewRetriever(docDir string, store SearchStore, embedder Embedder, embedModel string, excerptLength int, linkFormat string, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		docDir:        docDir,
		namespace:     filepath.Clean(docDir),
		store:         store,
		embedder:      embedder,
		embedModel:    embedModel,
		excerptLength: excerptLength,
		linkFormat:    linkFormat,
		log:           logger,
	}
}

// Retrieve returns the top k chunks for a query. An empty or unreachable
// vector store yields an empty result and a nil error so the caller can
// fall back to an unaugmented prompt. An embedding-model mismatch between
// index time and query time is a ConfigError, never silently tolerated.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (models.RetrievalResult, error) {
	result := models.RetrievalResult{ExcerptLength: r.excerptLength}

	count, err := r.store.Count(r.namespace)
	if err != nil {
		r.log.Warn("vector store unreachable, retrieving nothing", zap.Error(err))
		return result, nil
	}
	if count == 0 {
		r.log.Info("vector store empty for namespace", zap.String("namespace", r.namespace))
		return result, nil
	}

	indexedWith, err := r.store.EmbedModel(r.namespace)
	if err != nil {
		r.log.Warn("namespace metadata unreachable, retrieving nothing", zap.Error(err))
		return result, nil
	}
	if indexedWith != "" && indexedWith != r.embedModel {
		return result, &config.ConfigError{
			Field:  "rag.embed_model",
			Reason: fmt.Sprintf("namespace %s was indexed with %q but the configured query model is %q", r.namespace, indexedWith, r.embedModel),
		}
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return result, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := r.store.SearchSimilar(r.namespace, vector, k)
	if err != nil {
		r.log.Warn("similarity search failed, retrieving nothing", zap.Error(err))
		return result, nil
	}

	result.Chunks = chunks
	return result, nil
}

// answerTemplate is the QA prompt wrapped around retrieved context.
const answerTemplate = `Use the provided context to answer the question concisely.

Context:
%s

Question: %s

Answer:`

// AnswerPrompt builds the RAG user turn from the retrieved context block
// and the user's question.
func AnswerPrompt(contextBlock, question string) string {
	return fmt.Sprintf(answerTemplate, contextBlock, question)
}

// ContextBlock concatenates the full text of the retrieved chunks. The
// full chunk text goes to the model; excerpt truncation applies only to
// the citation display.
func ContextBlock(result models.RetrievalResult) string {
	parts := make([]string, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		parts = append(parts, chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// FormatSources renders the citation list for an answer, one line per
// unique (excerpt, link) pair, preserving similarity order.
func (r *Retriever) FormatSources(result models.RetrievalResult, answer string) string {
	type key struct{ excerpt, link string }
	seen := make(map[key]bool)

	var b strings.Builder
	for _, chunk := range result.Chunks {
		flat := strings.Join(strings.Fields(chunk.Text), " ")
		excerpt := CenteredExcerpt(flat, answer, result.ExcerptLength)
		link := formatSourceLink(chunk.SourcePath, r.linkFormat, r.docDir)

		k := key{excerpt, link}
		if seen[k] {
			continue
		}
		seen[k] = true
		fmt.Fprintf(&b, "- %q %s\n", excerpt, link)
	}
	return b.String()
}

// CenteredExcerpt returns a window of text of roughly length runes,
// centered on the first occurrence of answer when it appears in text,
// otherwise the head of the text. Ellipses mark trimmed sides.
func CenteredExcerpt(text, answer string, length int) string {
	runes := []rune(text)
	if length <= 0 || len(runes) <= length {
		return strings.TrimSpace(text)
	}

	runeIdx := runeIndexFold(runes, []rune(answer))
	if runeIdx < 0 {
		head := strings.TrimSpace(string(runes[:length]))
		return head + "..."
	}

	start := runeIdx - length/2
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > len(runes) {
		end = len(runes)
		start = end - length
	}

	excerpt := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(runes) {
		excerpt = excerpt + "..."
	}
	return excerpt
}

// runeIndexFold returns the rune offset of the first occurrence of needle
// in haystack under simple case folding, or -1. Rune offsets keep the
// excerpt window aligned with the original text even where full-string
// lowercasing would change byte or rune counts.
func runeIndexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// formatSourceLink renders a citation link for a source file in the
// configured style.
func formatSourceLink(sourcePath, style, docDir string) string {
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if style == config.LinkFormatWikilinks {
		return "[[" + name + "]]"
	}
	full := filepath.Join(docDir, sourcePath)
	return fmt.Sprintf("[%s](%s)", name, full)
}
