package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-helpdesk/pkg/domain"
)

// MessageScope restricts which messages a query returns.
type MessageScope int

const (
	// ScopeAll returns internal and public messages.
	ScopeAll MessageScope = iota
	// ScopePublic excludes internal messages.
	ScopePublic
)

func (s MessageScope) clause() string {
	if s == ScopePublic {
		return " AND internal = FALSE"
	}
	return ""
}

// MessagesRepository handles message persistence.
type MessagesRepository struct {
	db *sql.DB
}

// NewMessagesRepository creates a new messages repository.
func NewMessagesRepository(db *sql.DB) *MessagesRepository {
	return &MessagesRepository{db: db}
}

const messageColumns = `id, conversation_id, author_id, body, internal, created_at, updated_at`

// Create inserts a message.
func (r *MessagesRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.UpdatedAt.IsZero() {
		msg.UpdatedAt = msg.CreatedAt
	}

	query := `
		INSERT INTO messages (id, conversation_id, author_id, body, internal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.AuthorID,
		msg.Body,
		msg.Internal,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	return err
}

// ListByConversation retrieves a conversation's messages in creation order.
func (r *MessagesRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, scope MessageScope) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1` + scope.clause() + `
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.AuthorID,
			&msg.Body,
			&msg.Internal,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// MostRecent retrieves the message with the latest updated_at. Ties go to the
// highest id.
func (r *MessagesRepository) MostRecent(ctx context.Context, conversationID uuid.UUID, scope MessageScope) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1` + scope.clause() + `
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`

	var msg domain.Message
	err := r.db.QueryRowContext(ctx, query, conversationID).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.AuthorID,
		&msg.Body,
		&msg.Internal,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}
