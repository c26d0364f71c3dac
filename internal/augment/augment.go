// ABOUTME: Augmenter strategy interface and composition chain
// ABOUTME: Order is fixed: clipboard, then web search, then link follow
package augment

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Augmenter produces optional extra context text for a prompt. An empty
// string means the augmenter had nothing to add.
type Augmenter interface {
	Name() string
	Augment(ctx context.Context, prompt string) (string, error)
}

// Chain composes augmenters in order, appending each non-empty fragment to
// the growing context string. A failing augmenter is logged and skipped;
// augmentation never aborts the request.
type Chain struct {
	augmenters []Augmenter
	log        *zap.Logger
}

// NewChain creates a chain over the given augmenters in order.
func NewChain(logger *zap.Logger, augmenters ...Augmenter) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{augmenters: augmenters, log: logger}
}

// Augment runs every augmenter against the raw prompt and returns the
// combined context block, possibly empty.
func (c *Chain) Augment(ctx context.Context, prompt string) string {
	var fragments []string

	for _, a := range c.augmenters {
		fragment, err := a.Augment(ctx, prompt)
		if err != nil {
			c.log.Warn("augmentation failed, continuing without it",
				zap.String("augmenter", a.Name()),
				zap.Error(err))
			continue
		}
		if fragment == "" {
			continue
		}
		c.log.Debug("augmentation added context",
			zap.String("augmenter", a.Name()),
			zap.Int("chars", len(fragment)))
		fragments = append(fragments, fragment)
	}

	return strings.Join(fragments, "\n\n")
}
