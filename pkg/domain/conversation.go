package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a support thread owned by exactly one tenant.
// Number is unique within the tenant and never changes after creation.
type Conversation struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Number    int64
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message belongs to exactly one conversation. Internal messages are
// staff-only notes.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	AuthorID       *uuid.UUID
	Body           string
	Internal       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
