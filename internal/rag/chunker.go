// ABOUTME: Deterministic document chunking for the RAG indexer
// ABOUTME: Fixed rune windows with fixed overlap, no locale-dependent normalization
package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// DefaultChunkSize is the window size in runes.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of runes shared between windows.
	DefaultChunkOverlap = 50
)

// Chunker splits text into fixed-size rune windows with overlap. The same
// input always yields the same boundaries, which the indexer's
// content-hash skip optimization depends on.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Non-positive size falls back to the
// default; overlap is clamped below size.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split returns the chunks of text in document order. Whitespace-only
// input yields no chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// HashChunk returns the hex SHA-256 digest of a chunk's text.
func HashChunk(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
