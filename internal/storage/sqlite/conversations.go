// ABOUTME: Conversation persistence for SQLite
// ABOUTME: Stores ordered role-tagged messages with last-activity tracking
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ask-cli/ask/internal/models"
)

// ConversationStore handles conversation persistence.
type ConversationStore struct {
	db  *DB
	now func() time.Time
}

// NewConversationStore creates a new ConversationStore.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db, now: time.Now}
}

// SetClock overrides the store clock (for testing).
func (s *ConversationStore) SetClock(now func() time.Time) {
	s.now = now
}

// Create starts a new conversation seeded with a single system message.
func (s *ConversationStore) Create(systemPrompt string) (*models.Conversation, error) {
	now := s.now().UTC()
	conv := &models.Conversation{
		ID:           "conv_" + uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: systemPrompt, CreatedAt: now},
		},
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO conversations (id, created_at, last_activity)
		VALUES (?, ?, ?)
	`, conv.ID, now, now); err != nil {
		return nil, fmt.Errorf("inserting conversation: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO messages (conversation_id, seq, role, content, created_at)
		VALUES (?, 0, ?, ?, ?)
	`, conv.ID, string(models.RoleSystem), systemPrompt, now); err != nil {
		return nil, fmt.Errorf("inserting system message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing conversation: %w", err)
	}
	return conv, nil
}

// Latest returns the most recently active conversation with its full
// message list, or (nil, nil) when the store is empty.
func (s *ConversationStore) Latest() (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.QueryRow(`
		SELECT id, created_at, last_activity
		FROM conversations
		ORDER BY last_activity DESC, created_at DESC
		LIMIT 1
	`).Scan(&conv.ID, &conv.CreatedAt, &conv.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest conversation: %w", err)
	}

	messages, err := s.messages(conv.ID)
	if err != nil {
		return nil, err
	}
	conv.Messages = messages
	return &conv, nil
}

// Append adds one message to a conversation and bumps its last activity.
// The seq column is assigned inside a transaction so ordering within a
// single process is never corrupted.
func (s *ConversationStore) Append(conversationID string, role models.Role, content string) error {
	now := s.now().UTC()

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var nextSeq int
	if err := tx.QueryRow(`
		SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE conversation_id = ?
	`, conversationID).Scan(&nextSeq); err != nil {
		return fmt.Errorf("computing next seq: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO messages (conversation_id, seq, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, conversationID, nextSeq, string(role), content, now); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE conversations SET last_activity = ? WHERE id = ?
	`, now, conversationID); err != nil {
		return fmt.Errorf("updating last activity: %w", err)
	}

	return tx.Commit()
}

// messages loads the ordered message list for a conversation.
func (s *ConversationStore) messages(conversationID string) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []models.Message
	for rows.Next() {
		var (
			msg  models.Message
			role string
		)
		if err := rows.Scan(&role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = models.Role(role)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
