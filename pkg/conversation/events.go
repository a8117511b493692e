package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventConversationCreated is published after a conversation is stored.
const EventConversationCreated = "conversation.created"

// Event describes a conversation lifecycle change.
type Event struct {
	Type           string    `json:"type"`
	TenantID       uuid.UUID `json:"tenant_id"`
	TenantSlug     string    `json:"tenant_slug"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Number         int64     `json:"number"`
	Mailbox        string    `json:"mailbox"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher delivers events. Failures are reported, never retried here.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
