package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-helpdesk/pkg/domain"
)

// ConversationsRepository handles conversation persistence and the
// per-tenant conversation number sequence.
type ConversationsRepository struct {
	db *sql.DB
}

// NewConversationsRepository creates a new conversations repository.
func NewConversationsRepository(db *sql.DB) *ConversationsRepository {
	return &ConversationsRepository{db: db}
}

const conversationColumns = `c.id, c.tenant_id, c.number, c.archived, c.created_at, c.updated_at`

// nextNumber atomically increments and returns the tenant's conversation
// sequence. The increment and read are a single statement holding the tenant
// row lock, so concurrent transactions always observe distinct values. It only
// runs inside the transaction that inserts the conversation, so a rollback
// returns the number and the sequence never skips.
func nextNumber(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID) (int64, error) {
	query := `
		UPDATE tenants
		SET conversation_seq = conversation_seq + 1
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING conversation_seq
	`
	var number int64
	if err := tx.QueryRowContext(ctx, query, tenantID).Scan(&number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrTenantNotFound
		}
		return 0, err
	}
	return number, nil
}

// Create allocates the next number for the tenant and inserts a new open
// conversation in the same transaction.
func (r *ConversationsRepository) Create(ctx context.Context, tenantID uuid.UUID) (*domain.Conversation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	number, err := nextNumber(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Number:    number,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO conversations (id, tenant_id, number, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, query,
		conv.ID,
		conv.TenantID,
		conv.Number,
		conv.Archived,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing conversation: %w", err)
	}
	return conv, nil
}

// GetByID retrieves a conversation by ID.
func (r *ConversationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations c
		WHERE c.id = $1
	`
	return scanConversation(r.db.QueryRowContext(ctx, query, id))
}

// GetByNumber retrieves a conversation by its tenant and number.
func (r *ConversationsRepository) GetByNumber(ctx context.Context, tenantID uuid.UUID, number int64) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations c
		WHERE c.tenant_id = $1 AND c.number = $2
	`
	return scanConversation(r.db.QueryRowContext(ctx, query, tenantID, number))
}

// ListOpen retrieves the unarchived conversations of a tenant, oldest first.
func (r *ConversationsRepository) ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations c
		WHERE c.tenant_id = $1 AND c.archived = FALSE
		ORDER BY c.number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		err := rows.Scan(
			&conv.ID,
			&conv.TenantID,
			&conv.Number,
			&conv.Archived,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, &conv)
	}

	return conversations, rows.Err()
}

// SetArchived sets the archived flag of a conversation.
func (r *ConversationsRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	query := `
		UPDATE conversations
		SET archived = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, archived, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrConversationNotFound)
}

// Delete removes a conversation. Its messages are removed by cascade.
func (r *ConversationsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrConversationNotFound)
}

func scanConversation(row *sql.Row) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := row.Scan(
		&conv.ID,
		&conv.TenantID,
		&conv.Number,
		&conv.Archived,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
