// ABOUTME: Tests for chunk vector storage
// ABOUTME: Verifies upsert identity, namespace isolation, and similarity ranking
package sqlite

import (
	"math"
	"testing"

	"github.com/ask-cli/ask/internal/models"
)

func testChunk(source string, index int, text string, vector []float64) models.DocumentChunk {
	return models.DocumentChunk{
		SourcePath:  source,
		ChunkIndex:  index,
		Text:        text,
		ContentHash: "hash-" + text,
		Vector:      vector,
	}
}

func TestChunkUpsert_ReplacesNotDuplicates(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewChunkStore(db)

	if err := store.Upsert("docs", testChunk("a.md", 0, "v1", []float64{1, 0})); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert("docs", testChunk("a.md", 0, "v2", []float64{0, 1})); err != nil {
		t.Fatalf("Upsert() replace error = %v", err)
	}

	count, err := store.Count("docs")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after replace", count)
	}

	hashes, err := store.Hashes("docs", "a.md")
	if err != nil {
		t.Fatalf("Hashes() error = %v", err)
	}
	if hashes[0] != "hash-v2" {
		t.Errorf("hash = %q, want hash-v2", hashes[0])
	}
}

func TestChunkSearchSimilar_RanksByScore(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewChunkStore(db)

	chunks := []models.DocumentChunk{
		testChunk("a.md", 0, "exact", []float64{1, 0, 0}),
		testChunk("a.md", 1, "close", []float64{0.9, 0.1, 0}),
		testChunk("b.md", 0, "far", []float64{0, 0, 1}),
	}
	for _, c := range chunks {
		if err := store.Upsert("docs", c); err != nil {
			t.Fatalf("Upsert(%s) error = %v", c.Text, err)
		}
	}

	results, err := store.SearchSimilar("docs", []float64{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Text != "exact" {
		t.Errorf("results[0].Text = %q, want exact", results[0].Text)
	}
	if results[1].Text != "close" {
		t.Errorf("results[1].Text = %q, want close", results[1].Text)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("scores not descending: %f < %f", results[0].Score, results[1].Score)
	}
}

func TestChunkSearchSimilar_EmptyNamespace(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	results, err := NewChunkStore(db).SearchSimilar("empty", []float64{1, 0}, 5)
	if err != nil {
		t.Fatalf("SearchSimilar() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0 for empty namespace", len(results))
	}
}

func TestChunkSearchSimilar_NonPositiveLimit(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewChunkStore(db)
	for i := 0; i < 3; i++ {
		if err := store.Upsert("docs", testChunk("a.md", i, "t", []float64{1, 0})); err != nil {
			t.Fatalf("Upsert(%d) error = %v", i, err)
		}
	}

	// The limit can arrive from an untrusted caller (the MCP
	// retrieve_context tool passes it straight through)
	for _, limit := range []int{-1, 0} {
		results, err := store.SearchSimilar("docs", []float64{1, 0}, limit)
		if err != nil {
			t.Fatalf("SearchSimilar(limit=%d) error = %v", limit, err)
		}
		if len(results) != 0 {
			t.Errorf("SearchSimilar(limit=%d) = %d results, want 0", limit, len(results))
		}
	}
}

func TestChunkNamespaceIsolation(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewChunkStore(db)
	if err := store.Upsert("notes", testChunk("a.md", 0, "notes chunk", []float64{1})); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert("wiki", testChunk("a.md", 0, "wiki chunk", []float64{1})); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := store.ClearNamespace("notes"); err != nil {
		t.Fatalf("ClearNamespace() error = %v", err)
	}

	notesCount, _ := store.Count("notes")
	wikiCount, _ := store.Count("wiki")
	if notesCount != 0 {
		t.Errorf("notes count = %d, want 0 after clear", notesCount)
	}
	if wikiCount != 1 {
		t.Errorf("wiki count = %d, want 1 (must not cross-contaminate)", wikiCount)
	}
}

func TestChunkDeleteFrom_DropsTrailing(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewChunkStore(db)
	for i := 0; i < 4; i++ {
		if err := store.Upsert("docs", testChunk("a.md", i, "t", []float64{1})); err != nil {
			t.Fatalf("Upsert(%d) error = %v", i, err)
		}
	}

	if err := store.DeleteFrom("docs", "a.md", 2); err != nil {
		t.Fatalf("DeleteFrom() error = %v", err)
	}

	hashes, err := store.Hashes("docs", "a.md")
	if err != nil {
		t.Fatalf("Hashes() error = %v", err)
	}
	if len(hashes) != 2 {
		t.Errorf("remaining chunks = %d, want 2", len(hashes))
	}
	if _, ok := hashes[2]; ok {
		t.Error("chunk index 2 should be deleted")
	}
}

func TestEmbedModelRoundTrip(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewChunkStore(db)

	model, err := store.EmbedModel("docs")
	if err != nil {
		t.Fatalf("EmbedModel() error = %v", err)
	}
	if model != "" {
		t.Errorf("EmbedModel() = %q, want empty for unindexed namespace", model)
	}

	if err := store.SetEmbedModel("docs", "nomic-embed-text"); err != nil {
		t.Fatalf("SetEmbedModel() error = %v", err)
	}
	model, err = store.EmbedModel("docs")
	if err != nil {
		t.Fatalf("EmbedModel() error = %v", err)
	}
	if model != "nomic-embed-text" {
		t.Errorf("EmbedModel() = %q, want nomic-embed-text", model)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"mismatched length", []float64{1, 0}, []float64{1}, 0.0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vector := []float64{0.25, -1.5, 3.14159, 0}
	got := blobToVector(vectorToBlob(vector))

	if len(got) != len(vector) {
		t.Fatalf("length = %d, want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("vector[%d] = %v, want %v", i, got[i], vector[i])
		}
	}
}
