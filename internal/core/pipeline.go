// ABOUTME: Request pipeline tying conversation, augmentation, retrieval, and the provider together
// ABOUTME: One Run call is one CLI invocation or one MCP tool call
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/config"
	"github.com/ask-cli/ask/internal/models"
	"github.com/ask-cli/ask/internal/rag"
)

// Sender submits a chat request to the model provider.
type Sender interface {
	Send(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32) (string, error)
}

// ConversationResolver picks the conversation an invocation belongs to.
type ConversationResolver interface {
	Resolve(now time.Time) (*models.Conversation, error)
}

// Appender persists one message of a conversation.
type Appender interface {
	Append(conversationID string, role models.Role, content string) error
}

// ContextAugmenter produces the combined optional context block for a
// prompt. Failures inside the chain degrade to less context, never to an
// error.
type ContextAugmenter interface {
	Augment(ctx context.Context, prompt string) string
}

// ContextRetriever serves document retrieval when RAG mode is on.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) (models.RetrievalResult, error)
	FormatSources(result models.RetrievalResult, answer string) string
}

// Pipeline orchestrates a single request. Exactly one of augmenter or
// retriever drives the prompt: RAG mode replaces the augmentation chain.
type Pipeline struct {
	resolver    ConversationResolver
	store       Appender
	sender      Sender
	augmenter   ContextAugmenter
	retriever   ContextRetriever
	model       string
	temperature float32
	topK        int
	log         *zap.Logger
	now         func() time.Time
}

// Options configures a pipeline. Retriever may be nil when RAG mode is
// off; Augmenter may be nil when no augmenters are enabled.
type Options struct {
	Resolver    ConversationResolver
	Store       Appender
	Sender      Sender
	Augmenter   ContextAugmenter
	Retriever   ContextRetriever
	Model       string
	Temperature float32
	TopK        int
	Logger      *zap.Logger
}

// NewPipeline assembles a pipeline from its collaborators.
func NewPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &Pipeline{
		resolver:    opts.Resolver,
		store:       opts.Store,
		sender:      opts.Sender,
		augmenter:   opts.Augmenter,
		retriever:   opts.Retriever,
		model:       opts.Model,
		temperature: opts.Temperature,
		topK:        opts.TopK,
		log:         opts.Logger,
		now:         time.Now,
	}
}

// SetClock overrides the pipeline clock (for testing).
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Run executes one request: resolve the conversation, build the user turn,
// call the provider, and persist both turns. The user turn is committed
// before the provider call, so a crash mid-request leaves a conversation
// that ends with the user's words rather than losing them.
func (p *Pipeline) Run(ctx context.Context, prompt string) (string, error) {
	conv, err := p.resolver.Resolve(p.now())
	if err != nil {
		return "", fmt.Errorf("resolving conversation: %w", err)
	}

	userContent := prompt
	var retrieval models.RetrievalResult

	if p.retriever != nil {
		retrieval, err = p.retriever.Retrieve(ctx, prompt, p.topK)
		if err != nil {
			var cfgErr *config.ConfigError
			if errors.As(err, &cfgErr) {
				return "", err
			}
			return "", fmt.Errorf("retrieving context: %w", err)
		}
		if !retrieval.Empty() {
			userContent = rag.AnswerPrompt(rag.ContextBlock(retrieval), prompt)
		} else {
			p.log.Info("no documents retrieved, sending the prompt unaugmented")
		}
	} else if p.augmenter != nil {
		if block := p.augmenter.Augment(ctx, prompt); block != "" {
			userContent = block + "\n\n" + prompt
		}
	}

	messages := BuildRequest(conv, userContent)

	if err := p.store.Append(conv.ID, models.RoleUser, userContent); err != nil {
		return "", fmt.Errorf("persisting user turn: %w", err)
	}

	reply, err := p.sender.Send(ctx, messages, p.model, p.temperature)
	if err != nil {
		// The user turn stays committed; the failed exchange has no
		// assistant turn.
		return "", err
	}

	if err := p.store.Append(conv.ID, models.RoleAssistant, reply); err != nil {
		return "", fmt.Errorf("persisting assistant turn: %w", err)
	}

	if !retrieval.Empty() {
		sources := p.retriever.FormatSources(retrieval, reply)
		return fmt.Sprintf("\nAnswer: %s\n\nSources:\n%s", reply, sources), nil
	}
	return reply, nil
}

// BuildRequest flattens a conversation's history plus the new user turn
// into the provider message list, oldest first.
func BuildRequest(conv *models.Conversation, userContent string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(conv.Messages)+1)
	for _, msg := range conv.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userContent,
	})
	return messages
}
