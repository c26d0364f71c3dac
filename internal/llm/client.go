// ABOUTME: Model provider client for chat completions and embeddings
// ABOUTME: Wraps go-openai against any OpenAI-compatible endpoint with retry logic
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ask-cli/ask/internal/util"
)

// ProviderError is a fatal failure of the model provider: transport error,
// non-2xx status, or a malformed response body.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClientConfig holds configuration for the provider client. Endpoint is
// the API base URL (the path up to but excluding /chat/completions).
type ClientConfig struct {
	Endpoint   string
	APIKey     string
	EmbedModel string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Client wraps an OpenAI-compatible API with retry and timeout handling.
// The same client shape serves the answer provider and, with a different
// endpoint, the RAG embedding provider.
type Client struct {
	api        *openai.Client
	embedModel string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

// NewClient creates a provider client. Zero retry/timeout values fall back
// to 3 retries, 2s base delay, and a 30s per-call timeout.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("provider endpoint is required")
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		embedModel: cfg.EmbedModel,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
	}, nil
}

// Send submits a chat completion request and returns the assistant text.
func (c *Client) Send(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", &ProviderError{Op: "chat", Err: ctx.Err()}
			case <-time.After(util.CalculateBackoff(c.retryDelay, attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			Temperature: temperature,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", &ProviderError{Op: "chat", Err: fmt.Errorf("after %d attempts: %w", c.maxRetries+1, lastErr)}
}

// Embed generates an embedding vector for the given text. The same model
// must be used at index time and query time.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.embedModel == "" {
		return nil, &ProviderError{Op: "embed", Err: fmt.Errorf("no embedding model configured")}
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &ProviderError{Op: "embed", Err: ctx.Err()}
			case <-time.After(util.CalculateBackoff(c.retryDelay, attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embedModel),
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("attempt %d: no embeddings returned", attempt+1)
			continue
		}

		embedding32 := resp.Data[0].Embedding
		embedding64 := make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding64[i] = float64(v)
		}
		return embedding64, nil
	}

	return nil, &ProviderError{Op: "embed", Err: fmt.Errorf("after %d attempts: %w", c.maxRetries+1, lastErr)}
}

// EmbedModel returns the configured embedding model name.
func (c *Client) EmbedModel() string {
	return c.embedModel
}
