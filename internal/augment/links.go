// ABOUTME: Link-follow augmenter fetching the pages mentioned in the prompt
// ABOUTME: Preserves URL order, deduplicates, and skips unreachable pages
package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\)\]]+`)

// ExtractURLs returns the URLs found in text in order of first appearance,
// with exact duplicates removed.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool, len(matches))
	var urls []string
	for _, u := range matches {
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

// Fetcher is the page-reader collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// LinkFollow injects the content of pages whose URLs appear in the prompt.
type LinkFollow struct {
	fetcher Fetcher
	log     *zap.Logger
}

// NewLinkFollow creates a link-follow augmenter.
func NewLinkFollow(fetcher Fetcher, logger *zap.Logger) *LinkFollow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkFollow{fetcher: fetcher, log: logger}
}

// Name implements Augmenter.
func (l *LinkFollow) Name() string { return "link-follow" }

type pageContent struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Augment implements Augmenter. A page that fails to fetch is logged and
// left out of the block; the remaining pages keep prompt order.
func (l *LinkFollow) Augment(ctx context.Context, prompt string) (string, error) {
	urls := ExtractURLs(prompt)
	if len(urls) == 0 {
		return "", nil
	}

	var pages []pageContent
	for _, u := range urls {
		content, err := l.fetcher.Fetch(ctx, u)
		if err != nil {
			l.log.Warn("page fetch failed, skipping", zap.String("url", u), zap.Error(err))
			continue
		}
		pages = append(pages, pageContent{URL: u, Content: content})
	}
	if len(pages) == 0 {
		l.log.Info("no pages could be fetched", zap.Int("urls", len(urls)))
		return "", nil
	}

	serialized, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing page contents: %w", err)
	}

	return fmt.Sprintf(`Your goal is to answer the user's question using the contents of the webpages mentioned in the question.
Here is the content of those webpages, in JSON format:
------------
%s
------------
Use this context to answer the user's question in a clear manner. Be very concise.`, serialized), nil
}
