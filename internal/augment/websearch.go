// ABOUTME: Web search augmenter injecting search results into the user turn
// ABOUTME: Derives an LLM-generated search phrase before querying the provider
package augment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/models"
)

const (
	// maxSearchResults bounds the size of the injected context block.
	maxSearchResults = 8
	// maxSnippetRunes truncates oversized per-result text.
	maxSnippetRunes = 2000
)

// searchPhrasePrompt asks the model for a compact query for the user's
// question.
const searchPhrasePrompt = `You are an intelligent and resourceful assistant for web searching. Your goal is to help users generate good search queries based on their questions. Respond only with the exact text for optimal web searching.

Examples:
Q: What is the capital of France?
A: Capital of France

Q: How do I use the SearxNG API?
A: SearxNG API documentation

Q: Who won the Nobel Peace Prize in 2024?
A: Nobel Peace Prize laureate 2024

Here is the user's input:

%s`

// Searcher is the web search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Sender is the model collaborator used to derive the search phrase.
type Sender interface {
	Send(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32) (string, error)
}

// WebSearch injects serialized search results before the user question.
type WebSearch struct {
	searcher    Searcher
	sender      Sender
	model       string
	temperature float32
	systemRole  string
	now         func() time.Time
	log         *zap.Logger
}

// NewWebSearch creates a web search augmenter.
func NewWebSearch(searcher Searcher, sender Sender, model string, temperature float32, systemRole string, logger *zap.Logger) *WebSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearch{
		searcher:    searcher,
		sender:      sender,
		model:       model,
		temperature: temperature,
		systemRole:  systemRole,
		now:         time.Now,
		log:         logger,
	}
}

// SetClock overrides the clock used for the "today" stamp (for testing).
func (w *WebSearch) SetClock(now func() time.Time) {
	w.now = now
}

// Name implements Augmenter.
func (w *WebSearch) Name() string { return "web-search" }

// Augment implements Augmenter.
func (w *WebSearch) Augment(ctx context.Context, prompt string) (string, error) {
	phrase := w.searchPhrase(ctx, prompt)

	results, err := w.searcher.Search(ctx, phrase)
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", phrase, err)
	}
	if len(results) == 0 {
		w.log.Info("web search returned no results", zap.String("phrase", phrase))
		return "", nil
	}

	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	for i := range results {
		if runes := []rune(results[i].Snippet); len(runes) > maxSnippetRunes {
			results[i].Snippet = string(runes[:maxSnippetRunes])
		}
	}

	serialized, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing search results: %w", err)
	}

	today := w.now().Format("02 January 2006")
	block := fmt.Sprintf(`Your goal is to answer the user's question using the results from a web search.
Today's date is %s.
Here is the information retrieved from the web search, in JSON format. The text of each page is in the "snippet" field.
------------
%s
------------
Use this context to answer the user's question in a clear manner. Be very concise. At the end, list the titles, urls, and publication dates of the three main sources you relied on to answer the question. Use markdown format like so: * [title](url) (dd mmm YYYY).`,
		today, serialized)

	return block, nil
}

// searchPhrase derives a compact search query from the prompt via the
// model; on failure the raw prompt is used as the query.
func (w *WebSearch) searchPhrase(ctx context.Context, prompt string) string {
	if w.sender == nil {
		return prompt
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: w.systemRole},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(searchPhrasePrompt, prompt)},
	}
	phrase, err := w.sender.Send(ctx, messages, w.model, w.temperature)
	if err != nil || phrase == "" {
		w.log.Warn("search phrase generation failed, using raw prompt", zap.Error(err))
		return prompt
	}
	return phrase
}
