// ABOUTME: Tests for the provider client
// ABOUTME: Uses an httptest server speaking the OpenAI wire format
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		Endpoint:   server.URL + "/v1",
		APIKey:     "test-key",
		EmbedModel: "text-embedding-3-small",
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(ClientConfig{APIKey: "k"}); err == nil {
		t.Error("NewClient() without endpoint should fail")
	}
}

func TestSend_ReturnsAssistantText(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello there"}},
			},
		})
	})

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "sys"},
		{Role: openai.ChatMessageRoleUser, Content: "hi"},
	}
	got, err := client.Send(context.Background(), messages, "gpt-4o-mini", 1.0)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got != "hello there" {
		t.Errorf("Send() = %q, want %q", got, "hello there")
	}
}

func TestSend_ServerErrorIsProviderError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	_, err := client.Send(context.Background(), nil, "gpt-4o-mini", 1.0)
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Send() error = %v, want *ProviderError", err)
	}
	if provErr.Op != "chat" {
		t.Errorf("ProviderError.Op = %q, want chat", provErr.Op)
	}
}

func TestEmbed_ConvertsVector(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.5, -0.25, 1}},
			},
		})
	})

	got, err := client.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	want := []float64{0.5, -0.25, 1}
	if len(got) != len(want) {
		t.Fatalf("vector length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vector[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEmbed_NoModelConfigured(t *testing.T) {
	client, err := NewClient(ClientConfig{Endpoint: "http://localhost:1/v1"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Embed(context.Background(), "text")
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Embed() error = %v, want *ProviderError", err)
	}
}
