// ABOUTME: Tests for MCP tool handlers
// ABOUTME: Verifies argument handling, JSON responses, and unconfigured-tool errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ask-cli/ask/internal/models"
)

type fakeAsker struct {
	reply  string
	err    error
	prompt string
}

func (a *fakeAsker) Run(_ context.Context, prompt string) (string, error) {
	a.prompt = prompt
	return a.reply, a.err
}

type fakeRetriever struct {
	result models.RetrievalResult
	k      int
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string, k int) (models.RetrievalResult, error) {
	r.k = k
	return r.result, nil
}

type fakeIndexer struct {
	report models.IndexReport
	force  bool
}

func (ix *fakeIndexer) Index(_ context.Context, force bool) (models.IndexReport, error) {
	ix.force = force
	return ix.report, nil
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestAsk_ReturnsPipelineReply(t *testing.T) {
	asker := &fakeAsker{reply: "four"}
	h := &Handlers{asker: asker}

	result, err := h.Ask(context.Background(), toolRequest(map[string]any{"prompt": "what is 2+2?"}))
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("Ask() returned tool error: %s", resultText(t, result))
	}
	if got := resultText(t, result); got != "four" {
		t.Errorf("reply = %q, want %q", got, "four")
	}
	if asker.prompt != "what is 2+2?" {
		t.Errorf("pipeline received prompt %q", asker.prompt)
	}
}

func TestAsk_MissingPromptIsToolError(t *testing.T) {
	h := &Handlers{asker: &fakeAsker{}}

	result, err := h.Ask(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("Ask() error = %v, want tool-level error", err)
	}
	if !result.IsError {
		t.Error("IsError = false, want true for missing prompt")
	}
}

func TestAsk_PipelineFailureIsToolError(t *testing.T) {
	h := &Handlers{asker: &fakeAsker{err: errors.New("provider down")}}

	result, err := h.Ask(context.Background(), toolRequest(map[string]any{"prompt": "hi"}))
	if err != nil {
		t.Fatalf("Ask() error = %v, want tool-level error", err)
	}
	if !result.IsError {
		t.Error("IsError = false, want true for pipeline failure")
	}
	if !strings.Contains(resultText(t, result), "provider down") {
		t.Error("tool error should carry the underlying failure")
	}
}

func TestRetrieveContext_ReturnsChunksJSON(t *testing.T) {
	retriever := &fakeRetriever{result: models.RetrievalResult{
		Chunks: []models.ScoredChunk{
			{DocumentChunk: models.DocumentChunk{SourcePath: "a.md", ChunkIndex: 2, Text: "body"}, Score: 0.9},
		},
	}}
	h := &Handlers{retriever: retriever}

	result, err := h.RetrieveContext(context.Background(), toolRequest(map[string]any{"query": "q", "max_results": 7}))
	if err != nil {
		t.Fatalf("RetrieveContext() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	if retriever.k != 7 {
		t.Errorf("max_results = %d, want 7", retriever.k)
	}

	var payload struct {
		Chunks []struct {
			SourcePath string  `json:"source_path"`
			ChunkIndex int     `json:"chunk_index"`
			Score      float64 `json:"score"`
			Text       string  `json:"text"`
		} `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(payload.Chunks) != 1 || payload.Chunks[0].SourcePath != "a.md" || payload.Chunks[0].Score != 0.9 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRetrieveContext_UnconfiguredIsToolError(t *testing.T) {
	h := &Handlers{}

	result, err := h.RetrieveContext(context.Background(), toolRequest(map[string]any{"query": "q"}))
	if err != nil {
		t.Fatalf("RetrieveContext() error = %v, want tool-level error", err)
	}
	if !result.IsError {
		t.Error("IsError = false, want true when retrieval is not configured")
	}
}

func TestIndexDocuments_ReportsCounts(t *testing.T) {
	indexer := &fakeIndexer{report: models.IndexReport{Added: 3, Unchanged: 5}}
	h := &Handlers{indexer: indexer}

	result, err := h.IndexDocuments(context.Background(), toolRequest(map[string]any{"force": true}))
	if err != nil {
		t.Fatalf("IndexDocuments() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", resultText(t, result))
	}
	if !indexer.force {
		t.Error("force argument not passed through")
	}

	var payload map[string]int
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if payload["added"] != 3 || payload["unchanged"] != 5 {
		t.Errorf("payload = %v", payload)
	}
}
