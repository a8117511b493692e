package conversations

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-helpdesk/internal/http/features/common"
	"github.com/tendant/simple-helpdesk/internal/httputil"
	"github.com/tendant/simple-helpdesk/pkg/conversation"
	"github.com/tendant/simple-helpdesk/pkg/domain"
)

// Handler handles conversation endpoints.
type Handler struct {
	logger  *slog.Logger
	service *conversation.Service
}

// NewHandler creates a new conversations handler.
func NewHandler(logger *slog.Logger, service *conversation.Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// ConversationResponse represents a conversation with its mailbox.
type ConversationResponse struct {
	ID             string    `json:"id"`
	Number         int64     `json:"number"`
	Archived       bool      `json:"archived"`
	Mailbox        string    `json:"mailbox"`
	MailboxAddress string    `json:"mailbox_address"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MessageResponse represents a message.
type MessageResponse struct {
	ID        string    `json:"id"`
	AuthorID  *string   `json:"author_id,omitempty"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchiveRequest sets the archived flag.
type ArchiveRequest struct {
	Archived *bool `json:"archived"`
}

// MessageRequest appends a message.
type MessageRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// Create opens a conversation in the caller's tenant.
// POST /v1/conversations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Create(r.Context(), caller.TenantID)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	h.writeConversation(w, r, http.StatusCreated, conv)
}

// List returns the open conversations of the caller's tenant.
// GET /v1/conversations?status=open
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	if status := r.URL.Query().Get("status"); status != "" && status != "open" {
		httputil.Error(w, http.StatusBadRequest, "unsupported status filter")
		return
	}

	convs, err := h.service.ListOpen(r.Context(), caller)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		item, err := h.toResponse(r, conv)
		if err != nil {
			common.WriteError(w, h.logger, err)
			return
		}
		resp = append(resp, item)
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// Get returns one conversation.
// GET /v1/conversations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	h.writeConversation(w, r, http.StatusOK, conv)
}

// SetArchived archives or reopens a conversation.
// PUT /v1/conversations/{id}/archived
func (h *Handler) SetArchived(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var req ArchiveRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Archived == nil {
		httputil.Error(w, http.StatusBadRequest, "archived is required")
		return
	}

	conv, err := h.service.SetArchived(r.Context(), caller, id, *req.Archived)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	h.writeConversation(w, r, http.StatusOK, conv)
}

// Delete removes a conversation and its messages.
// DELETE /v1/conversations/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Messages returns the messages the caller may read.
// GET /v1/conversations/{id}/messages
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	msgs, err := h.service.VisibleMessages(r.Context(), caller, conv)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// LatestMessage returns the most recently updated message the caller may read.
// GET /v1/conversations/{id}/messages/latest
func (h *Handler) LatestMessage(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	msg, err := h.service.MostRecentVisibleMessage(r.Context(), caller, conv)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	if msg == nil {
		httputil.Error(w, http.StatusNotFound, "conversation has no messages")
		return
	}

	httputil.JSON(w, http.StatusOK, toMessageResponse(msg))
}

// AddMessage appends a message to a conversation.
// POST /v1/conversations/{id}/messages
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	msg, err := h.service.AddMessage(r.Context(), caller, id, req.Body, req.Internal)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) callerAndID(w http.ResponseWriter, r *http.Request) (domain.Caller, uuid.UUID, bool) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return domain.Caller{}, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid conversation id")
		return domain.Caller{}, uuid.Nil, false
	}

	return caller, id, true
}

func (h *Handler) writeConversation(w http.ResponseWriter, r *http.Request, status int, conv *domain.Conversation) {
	resp, err := h.toResponse(r, conv)
	if err != nil {
		common.WriteError(w, h.logger, err)
		return
	}
	httputil.JSON(w, status, resp)
}

func (h *Handler) toResponse(r *http.Request, conv *domain.Conversation) (ConversationResponse, error) {
	addr, err := h.service.MailboxAddressOf(r.Context(), conv)
	if err != nil {
		return ConversationResponse{}, err
	}

	return ConversationResponse{
		ID:             conv.ID.String(),
		Number:         conv.Number,
		Archived:       conv.Archived,
		Mailbox:        addr.String(),
		MailboxAddress: addr.Addr(),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}, nil
}

func toMessageResponse(m *domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID.String(),
		Body:      m.Body,
		Internal:  m.Internal,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.AuthorID != nil {
		author := m.AuthorID.String()
		resp.AuthorID = &author
	}
	return resp
}
