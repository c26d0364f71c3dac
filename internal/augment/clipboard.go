// ABOUTME: Clipboard augmenter injecting clipboard content into the user turn
// ABOUTME: Never touches the clipboard unless explicitly enabled
package augment

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// ReadFunc reads the system clipboard.
type ReadFunc func() (string, error)

// SystemClipboard reads the real system clipboard.
func SystemClipboard() (string, error) {
	return clipboard.ReadAll()
}

// ClearClipboard empties the system clipboard. Called when clipboard use
// is disallowed, and after clipboard content has been consumed as the
// prompt so a later invocation does not send it again.
func ClearClipboard() error {
	return clipboard.WriteAll("")
}

// Clipboard appends clipboard content to the user turn when it is
// non-empty and differs from the prompt itself.
type Clipboard struct {
	read ReadFunc
}

// NewClipboard creates a clipboard augmenter. A nil read function uses the
// system clipboard.
func NewClipboard(read ReadFunc) *Clipboard {
	if read == nil {
		read = SystemClipboard
	}
	return &Clipboard{read: read}
}

// Name implements Augmenter.
func (c *Clipboard) Name() string { return "clipboard" }

// Augment implements Augmenter.
func (c *Clipboard) Augment(_ context.Context, prompt string) (string, error) {
	content, err := c.read()
	if err != nil {
		return "", fmt.Errorf("reading clipboard: %w", err)
	}

	content = strings.TrimSpace(content)
	if content == "" || content == strings.TrimSpace(prompt) {
		return "", nil
	}

	return "The user's clipboard contains the following content, which may be relevant to the question:\n----\n" + content + "\n----", nil
}
