// ABOUTME: Tests for conversation resolution
// ABOUTME: Covers the timeout window boundary and zero/negative timeouts
package convo

import (
	"testing"
	"time"

	"github.com/ask-cli/ask/internal/models"
)

type fakeStore struct {
	latest  *models.Conversation
	created int
}

func (f *fakeStore) Latest() (*models.Conversation, error) {
	return f.latest, nil
}

func (f *fakeStore) Create(systemPrompt string) (*models.Conversation, error) {
	f.created++
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return &models.Conversation{
		ID:           "conv_new",
		CreatedAt:    now,
		LastActivity: now,
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: systemPrompt, CreatedAt: now},
		},
	}, nil
}

func TestResolve_TimeoutWindow(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		timeoutMinutes int
		gap            time.Duration
		wantResume     bool
	}{
		{"within window", 10, 5 * time.Minute, true},
		{"exactly at boundary", 10, 10 * time.Minute, true},
		{"just past boundary", 10, 10*time.Minute + time.Second, false},
		{"long gap", 10, 24 * time.Hour, false},
		{"zero timeout always new", 0, 0, false},
		{"negative timeout always new", -5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				latest: &models.Conversation{
					ID:           "conv_old",
					LastActivity: now.Add(-tt.gap),
					Messages: []models.Message{
						{Role: models.RoleSystem, Content: "sys"},
					},
				},
			}

			resolver := NewResolver(store, tt.timeoutMinutes, "sys", nil)
			conv, err := resolver.Resolve(now)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if tt.wantResume {
				if conv.ID != "conv_old" {
					t.Errorf("Resolve() = %s, want resumed conv_old", conv.ID)
				}
				if store.created != 0 {
					t.Errorf("Create called %d times, want 0", store.created)
				}
			} else {
				if conv.ID != "conv_new" {
					t.Errorf("Resolve() = %s, want new conversation", conv.ID)
				}
				if store.created != 1 {
					t.Errorf("Create called %d times, want 1", store.created)
				}
				if len(conv.Messages) != 1 || conv.Messages[0].Role != models.RoleSystem {
					t.Errorf("new conversation not seeded with exactly one system message: %+v", conv.Messages)
				}
			}
		})
	}
}

func TestResolve_EmptyStoreCreates(t *testing.T) {
	store := &fakeStore{}
	resolver := NewResolver(store, 10, "A helpful assistant", nil)

	conv, err := resolver.Resolve(time.Now())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if store.created != 1 {
		t.Errorf("Create called %d times, want 1", store.created)
	}
	if conv.Messages[0].Content != "A helpful assistant" {
		t.Errorf("system seed = %q, want configured system role", conv.Messages[0].Content)
	}
}
