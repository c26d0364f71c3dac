// ABOUTME: SearchResult is a single web search hit from the search provider
// ABOUTME: Ordering reflects provider ranking and is preserved end to end
package models

// SearchResult is one entry returned by the web search collaborator.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}
