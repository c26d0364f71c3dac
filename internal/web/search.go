// ABOUTME: Web search collaborator client (Jina-style reader/search API)
// ABOUTME: Returns ordered search hits; errors are distinct from empty results
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/models"
)

// SearchError is a failure of the search provider. An empty result list is
// not a SearchError.
type SearchError struct {
	Status int
	Err    error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search: %v", e.Err)
	}
	return fmt.Sprintf("search: provider returned status %d", e.Status)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// SearchClient queries a Jina-style web search endpoint.
type SearchClient struct {
	endpoint    string
	apiKey      string
	fullContent bool
	httpc       *http.Client
	log         *zap.Logger
}

// NewSearchClient creates a search client. fullContent requests the full
// page text of each hit instead of snippets.
func NewSearchClient(endpoint, apiKey string, fullContent bool, logger *zap.Logger) *SearchClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		fullContent: fullContent,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		log:         logger,
	}
}

// searchResponse is the provider's JSON envelope.
type searchResponse struct {
	Data []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Content     string `json:"content"`
	} `json:"data"`
}

// Search runs a query and returns the ordered hits.
func (c *SearchClient) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &SearchError{Err: fmt.Errorf("parsing endpoint: %w", err)}
	}
	q := reqURL.Query()
	q.Set("q", query)
	q.Set("format", "json")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &SearchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Timeout", "10")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.fullContent {
		req.Header.Set("X-Engine", "direct")
	} else {
		req.Header.Set("X-Respond-With", "no-content")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &SearchError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &SearchError{Status: resp.StatusCode}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &SearchError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	results := make([]models.SearchResult, 0, len(body.Data))
	for _, hit := range body.Data {
		snippet := hit.Content
		if snippet == "" {
			snippet = hit.Description
		}
		results = append(results, models.SearchResult{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: snippet,
		})
	}

	c.log.Debug("web search completed",
		zap.String("query", query),
		zap.Int("results", len(results)))
	return results, nil
}
