// ABOUTME: DocumentChunk and retrieval types for the RAG subsystem
// ABOUTME: Chunks are the unit of embedding, storage, and similarity search
package models

// DocumentChunk is a bounded slice of a source document together with its
// embedding vector. (SourcePath, ChunkIndex) is unique within a namespace.
type DocumentChunk struct {
	SourcePath  string    `json:"source_path"`
	ChunkIndex  int       `json:"chunk_index"`
	Text        string    `json:"text"`
	ContentHash string    `json:"content_hash"`
	Vector      []float64 `json:"-"`
}

// ScoredChunk pairs a chunk with its similarity score for a query.
type ScoredChunk struct {
	DocumentChunk
	Score float64 `json:"score"`
}

// RetrievalResult holds the top-ranked chunks for a query, ordered by
// descending similarity. Ephemeral, never persisted.
type RetrievalResult struct {
	Chunks        []ScoredChunk
	ExcerptLength int
}

// Empty reports whether retrieval produced no usable context.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// IndexReport summarizes one indexing run over a document directory.
type IndexReport struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Total returns the number of chunks touched or inspected by the run.
func (r IndexReport) Total() int {
	return r.Added + r.Updated + r.Unchanged
}
