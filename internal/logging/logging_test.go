// ABOUTME: Tests for logger construction
// ABOUTME: Verifies level parsing and file sink wiring
package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("", "loud"); err == nil {
		t.Error("New() with invalid level should return error")
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ask.log")

	logger, err := New(path, "debug")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("indexing started", zap.String("doc_dir", "/tmp/docs"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "indexing started") {
		t.Errorf("log file missing entry, got: %s", data)
	}
}

func TestNew_StderrDefault(t *testing.T) {
	logger, err := New("", "warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("New() returned nil logger")
	}
}
