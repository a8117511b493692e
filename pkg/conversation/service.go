// Package conversation numbers conversations per tenant, maps them to and
// from mailbox addresses, and decides which messages a caller may read.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/mailbox"
	"github.com/tendant/simple-helpdesk/pkg/repository"
)

// TenantStore looks up tenants.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// ConversationStore persists conversations. Create must allocate the
// conversation number with a single atomic increment of the tenant's
// sequence; numbers are never computed client-side.
type ConversationStore interface {
	Create(ctx context.Context, tenantID uuid.UUID) (*domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByNumber(ctx context.Context, tenantID uuid.UUID, number int64) (*domain.Conversation, error)
	ListOpen(ctx context.Context, tenantID uuid.UUID) ([]*domain.Conversation, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageStore persists messages.
type MessageStore interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID, scope repository.MessageScope) ([]*domain.Message, error)
	MostRecent(ctx context.Context, conversationID uuid.UUID, scope repository.MessageScope) (*domain.Message, error)
}

// Config holds service configuration.
type Config struct {
	// IncomingEmailDomain is the domain of every mailbox address. It is read
	// once at startup.
	IncomingEmailDomain string
	Publisher           Publisher
	Logger              *slog.Logger
}

// Service implements conversation identity, addressing and visibility.
type Service struct {
	tenants       TenantStore
	conversations ConversationStore
	messages      MessageStore
	codec         *mailbox.Codec
	publisher     Publisher
	logger        *slog.Logger
}

// NewService creates a new conversation service.
func NewService(cfg Config, tenants TenantStore, conversations ConversationStore, messages MessageStore) (*Service, error) {
	domainName := strings.TrimSpace(cfg.IncomingEmailDomain)
	if domainName == "" {
		return nil, errors.New("conversation: incoming email domain is required")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = NopPublisher{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		tenants:       tenants,
		conversations: conversations,
		messages:      messages,
		codec:         mailbox.NewCodec(domainName),
		publisher:     cfg.Publisher,
		logger:        cfg.Logger.With("component", "conversation"),
	}, nil
}

// Codec returns the address codec bound to the incoming email domain.
func (s *Service) Codec() *mailbox.Codec {
	return s.codec
}

// Create opens a new conversation for the tenant with the next number in its
// sequence.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID) (*domain.Conversation, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.Create(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	addr := s.AddressFor(tenant, conv)
	s.logger.Info("conversation created",
		"tenant", tenant.Slug,
		"number", conv.Number,
		"mailbox", addr.Addr(),
	)

	evt := Event{
		Type:           EventConversationCreated,
		TenantID:       tenant.ID,
		TenantSlug:     tenant.Slug,
		ConversationID: conv.ID,
		Number:         conv.Number,
		Mailbox:        addr.String(),
		OccurredAt:     conv.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish conversation event",
			"type", evt.Type,
			"conversation_id", conv.ID,
			"error", err,
		)
	}

	return conv, nil
}

// Get returns a conversation of the caller's tenant.
func (s *Service) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.TenantID != caller.TenantID {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

// ListOpen returns the unarchived conversations of the caller's tenant.
func (s *Service) ListOpen(ctx context.Context, caller domain.Caller) ([]*domain.Conversation, error) {
	return s.conversations.ListOpen(ctx, caller.TenantID)
}

// SetArchived is the single mutation path for the archived flag.
func (s *Service) SetArchived(ctx context.Context, caller domain.Caller, id uuid.UUID, archived bool) (*domain.Conversation, error) {
	conv, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.SetArchived(ctx, conv.ID, archived); err != nil {
		return nil, err
	}
	conv.Archived = archived
	conv.UpdatedAt = time.Now().UTC()
	return conv, nil
}

// Delete removes a conversation and its messages. Only staff may delete.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if !caller.IsAgentOrHigher() {
		return domain.ErrForbidden
	}
	conv, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conv.ID)
}

// AddressFor derives the mailbox address of conv owned by tenant.
func (s *Service) AddressFor(tenant *domain.Tenant, conv *domain.Conversation) mailbox.Address {
	return mailbox.NewAddress(tenant.Slug, conv.Number, s.codec.Domain(), tenant.Name)
}

// MailboxAddressOf derives the mailbox address of a stored conversation.
func (s *Service) MailboxAddressOf(ctx context.Context, conv *domain.Conversation) (mailbox.Address, error) {
	tenant, err := s.tenants.GetByID(ctx, conv.TenantID)
	if err != nil {
		return mailbox.Address{}, err
	}
	return s.AddressFor(tenant, conv), nil
}

// ResolveStrict maps an inbound address to its conversation. Decode failures
// are returned as *mailbox.DecodeError; a missing tenant or conversation as
// an error matching domain.ErrNotFound.
func (s *Service) ResolveStrict(ctx context.Context, address string) (*domain.Conversation, error) {
	slug, number, err := s.codec.Decode(address)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetByNumber(ctx, tenant.ID, number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mailbox.Encode(slug, number, s.codec.Domain()), err)
	}
	return conv, nil
}

// ResolveSoft is ResolveStrict for best-effort lookups: any failure yields
// (nil, false).
func (s *Service) ResolveSoft(ctx context.Context, address string) (*domain.Conversation, bool) {
	conv, err := s.ResolveStrict(ctx, address)
	if err != nil {
		s.logger.Debug("mailbox did not resolve", "address", address, "error", err)
		return nil, false
	}
	return conv, true
}

// VisibleMessages loads the messages of conv that viewer may read. Viewers
// that cannot see internal notes get a query that excludes them; others get
// an unrestricted query.
func (s *Service) VisibleMessages(ctx context.Context, viewer domain.Viewer, conv *domain.Conversation) ([]*domain.Message, error) {
	return s.messages.ListByConversation(ctx, conv.ID, ScopeFor(viewer))
}

// MostRecentMessage returns the most recently updated message of conv, or nil
// if it has none.
func (s *Service) MostRecentMessage(ctx context.Context, conv *domain.Conversation) (*domain.Message, error) {
	return s.mostRecent(ctx, conv, repository.ScopeAll)
}

// MostRecentVisibleMessage is MostRecentMessage restricted to what viewer may
// read.
func (s *Service) MostRecentVisibleMessage(ctx context.Context, viewer domain.Viewer, conv *domain.Conversation) (*domain.Message, error) {
	return s.mostRecent(ctx, conv, ScopeFor(viewer))
}

func (s *Service) mostRecent(ctx context.Context, conv *domain.Conversation, scope repository.MessageScope) (*domain.Message, error) {
	msg, err := s.messages.MostRecent(ctx, conv.ID, scope)
	if errors.Is(err, domain.ErrMessageNotFound) {
		return nil, nil
	}
	return msg, err
}

// AddMessage appends a message to a conversation of the caller's tenant.
// Only callers that can read internal notes may write them.
func (s *Service) AddMessage(ctx context.Context, caller domain.Caller, conversationID uuid.UUID, body string, internal bool) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if internal && !caller.CanViewInternal() {
		return nil, domain.ErrForbidden
	}

	conv, err := s.Get(ctx, caller, conversationID)
	if err != nil {
		return nil, err
	}

	authorID := caller.UserID
	msg := &domain.Message{
		ConversationID: conv.ID,
		AuthorID:       &authorID,
		Body:           body,
		Internal:       internal,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
