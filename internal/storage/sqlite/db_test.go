// ABOUTME: Tests for database lifecycle and schema initialization
// ABOUTME: Uses in-memory and temp-file databases
package sqlite

import (
	"path/filepath"
	"testing"
)

func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	// Schema tables must exist
	for _, table := range []string{"conversations", "messages", "chunks", "namespaces"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not created: %v", table, err)
		}
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ask.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestOpen_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ask.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store := NewConversationStore(db)
	conv, err := store.Create("A helpful assistant")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = db2.Close() }()

	latest, err := NewConversationStore(db2).Latest()
	if err != nil {
		t.Fatalf("Latest() after reopen error = %v", err)
	}
	if latest == nil || latest.ID != conv.ID {
		t.Errorf("Latest() = %+v, want conversation %s", latest, conv.ID)
	}
}
