// ABOUTME: Page reader collaborator for fetching webpage text
// ABOUTME: Uses a reader endpoint when configured, go-readability extraction otherwise
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// FetchError is a failure to fetch or extract a single page.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PageReader fetches the readable text content of a URL.
type PageReader struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
	log      *zap.Logger
}

// NewPageReader creates a page reader. With an empty endpoint the reader
// falls back to fetching pages directly and extracting the article text
// locally with go-readability.
func NewPageReader(endpoint, apiKey string, logger *zap.Logger) *PageReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageReader{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		log:      logger,
	}
}

// Fetch returns the text content of the page at pageURL.
func (r *PageReader) Fetch(ctx context.Context, pageURL string) (string, error) {
	if r.endpoint != "" {
		return r.fetchViaReader(ctx, pageURL)
	}
	return r.fetchDirect(ctx, pageURL)
}

// readerResponse is the reader endpoint's JSON envelope.
type readerResponse struct {
	Data struct {
		Content string `json:"content"`
	} `json:"data"`
}

func (r *PageReader) fetchViaReader(ctx context.Context, pageURL string) (string, error) {
	reqURL := strings.TrimSuffix(r.endpoint, "/") + "/" + pageURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("DNT", "1")
	req.Header.Set("X-Engine", "direct")
	req.Header.Set("X-Locale", "en-GB")
	req.Header.Set("X-Timeout", "10")
	req.Header.Set("X-Token-Budget", "200000")
	req.Header.Set("X-With-Links-Summary", "all")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: pageURL, Status: resp.StatusCode}
	}

	var body readerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if body.Data.Content == "" {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("empty content in reader response")}
	}

	r.log.Debug("page fetched via reader", zap.String("url", pageURL))
	return body.Data.Content, nil
}

func (r *PageReader) fetchDirect(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: pageURL, Status: resp.StatusCode}
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("extracting article: %w", err)}
	}

	r.log.Debug("page fetched directly", zap.String("url", pageURL))
	return article.TextContent, nil
}
