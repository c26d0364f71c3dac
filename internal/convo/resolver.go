// ABOUTME: Conversation resolver deciding between resuming and starting fresh
// ABOUTME: Resumption window is a configurable timeout since the last activity
package convo

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ask-cli/ask/internal/models"
)

// Store is the conversation persistence the resolver needs.
type Store interface {
	Latest() (*models.Conversation, error)
	Create(systemPrompt string) (*models.Conversation, error)
}

// Resolver decides whether a new invocation continues the most recent
// conversation or starts a new one.
type Resolver struct {
	store        Store
	timeout      time.Duration
	systemPrompt string
	log          *zap.Logger
}

// NewResolver creates a resolver. A timeout of zero or less always forces
// a new conversation.
func NewResolver(store Store, timeoutMinutes int, systemPrompt string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:        store,
		timeout:      time.Duration(timeoutMinutes) * time.Minute,
		systemPrompt: systemPrompt,
		log:          logger,
	}
}

// Resolve returns the conversation this invocation belongs to. It is
// read-only apart from creating the new record (seeded with one system
// message) when no conversation can be resumed.
func (r *Resolver) Resolve(now time.Time) (*models.Conversation, error) {
	if r.timeout > 0 {
		latest, err := r.store.Latest()
		if err != nil {
			return nil, fmt.Errorf("loading latest conversation: %w", err)
		}
		if latest != nil && latest.Age(now) <= r.timeout {
			r.log.Debug("resuming conversation",
				zap.String("id", latest.ID),
				zap.Duration("age", latest.Age(now)))
			return latest, nil
		}
	}

	conv, err := r.store.Create(r.systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	r.log.Debug("started new conversation", zap.String("id", conv.ID))
	return conv, nil
}
