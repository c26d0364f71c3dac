// ABOUTME: Conversation and Message domain types for the chat pipeline
// ABOUTME: Roles mirror the OpenAI chat roles (system/user/assistant)
package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged turn in a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is an ordered sequence of messages with activity tracking.
// A conversation always carries at least its system seed message.
type Conversation struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Age returns the elapsed time since the last appended message.
func (c *Conversation) Age(now time.Time) time.Duration {
	return now.Sub(c.LastActivity)
}
