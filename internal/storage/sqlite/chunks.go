// ABOUTME: Chunk vector storage operations for SQLite
// ABOUTME: Implements vector storage as BLOB and cosine similarity search
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"sort"
	"time"

	"github.com/ask-cli/ask/internal/models"
)

// ChunkStore handles document chunk persistence for the RAG subsystem.
// Every operation is scoped to a namespace (the indexed document
// directory), so multiple collections coexist in one database.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// Upsert inserts or replaces a chunk keyed by (namespace, source_path,
// chunk_index). A changed chunk is replaced, never duplicated.
func (s *ChunkStore) Upsert(namespace string, chunk models.DocumentChunk) error {
	blob := vectorToBlob(chunk.Vector)

	_, err := s.db.Exec(`
		INSERT INTO chunks (namespace, source_path, chunk_index, text, content_hash, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, source_path, chunk_index) DO UPDATE SET
			text = excluded.text,
			content_hash = excluded.content_hash,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`, namespace, chunk.SourcePath, chunk.ChunkIndex, chunk.Text, chunk.ContentHash, blob, time.Now().UTC())

	return err
}

// Hashes returns the stored content hash for each chunk index of a source.
func (s *ChunkStore) Hashes(namespace, sourcePath string) (map[int]string, error) {
	rows, err := s.db.Query(`
		SELECT chunk_index, content_hash
		FROM chunks
		WHERE namespace = ? AND source_path = ?
	`, namespace, sourcePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[int]string)
	for rows.Next() {
		var (
			idx  int
			hash string
		)
		if err := rows.Scan(&idx, &hash); err != nil {
			return nil, err
		}
		hashes[idx] = hash
	}
	return hashes, rows.Err()
}

// DeleteFrom removes all chunks of a source at or beyond fromIndex. Used
// to drop trailing chunks when a document shrinks.
func (s *ChunkStore) DeleteFrom(namespace, sourcePath string, fromIndex int) error {
	_, err := s.db.Exec(`
		DELETE FROM chunks
		WHERE namespace = ? AND source_path = ? AND chunk_index >= ?
	`, namespace, sourcePath, fromIndex)
	return err
}

// ClearNamespace removes every chunk and the metadata row for a namespace.
func (s *ChunkStore) ClearNamespace(namespace string) error {
	if _, err := s.db.Exec(`DELETE FROM chunks WHERE namespace = ?`, namespace); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM namespaces WHERE namespace = ?`, namespace)
	return err
}

// Count returns the number of chunks stored in a namespace.
func (s *ChunkStore) Count(namespace string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE namespace = ?`, namespace).Scan(&count)
	return count, err
}

// EmbedModel returns the embedding model a namespace was indexed with, or
// "" when the namespace has never been indexed.
func (s *ChunkStore) EmbedModel(namespace string) (string, error) {
	var model string
	err := s.db.QueryRow(`SELECT embed_model FROM namespaces WHERE namespace = ?`, namespace).Scan(&model)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return model, err
}

// SetEmbedModel records the embedding model used for a namespace.
func (s *ChunkStore) SetEmbedModel(namespace, model string) error {
	_, err := s.db.Exec(`
		INSERT INTO namespaces (namespace, embed_model, indexed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			embed_model = excluded.embed_model,
			indexed_at = excluded.indexed_at
	`, namespace, model, time.Now().UTC())
	return err
}

// SearchSimilar performs cosine similarity search within a namespace and
// returns the top maxResults chunks ranked by descending score.
func (s *ChunkStore) SearchSimilar(namespace string, queryVector []float64, maxResults int) ([]models.ScoredChunk, error) {
	// maxResults may come from an untrusted caller
	if maxResults < 0 {
		maxResults = 0
	}

	rows, err := s.db.Query(`
		SELECT source_path, chunk_index, text, content_hash, vector
		FROM chunks
		WHERE namespace = ?
	`, namespace)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.ScoredChunk
	for rows.Next() {
		var (
			chunk models.DocumentChunk
			blob  []byte
		)
		if err := rows.Scan(&chunk.SourcePath, &chunk.ChunkIndex, &chunk.Text, &chunk.ContentHash, &blob); err != nil {
			return nil, err
		}
		chunk.Vector = blobToVector(blob)

		results = append(results, models.ScoredChunk{
			DocumentChunk: chunk,
			Score:         CosineSimilarity(queryVector, chunk.Vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// vectorToBlob converts a float64 slice to a little-endian binary blob.
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob back to a float64 slice.
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}

// CosineSimilarity calculates cosine similarity between two vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
