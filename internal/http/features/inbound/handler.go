package inbound

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/simple-helpdesk/internal/http/features/common"
	"github.com/tendant/simple-helpdesk/internal/httputil"
	"github.com/tendant/simple-helpdesk/pkg/conversation"
	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/mailbox"
)

// Handler resolves recipient addresses of inbound mail to conversations.
type Handler struct {
	logger  *slog.Logger
	service *conversation.Service
}

// NewHandler creates a new inbound handler.
func NewHandler(logger *slog.Logger, service *conversation.Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// ResolveRequest carries the recipient address of an inbound email.
type ResolveRequest struct {
	Address string `json:"address"`
}

// ResolveResponse identifies the conversation an address belongs to.
type ResolveResponse struct {
	ConversationID string `json:"conversation_id"`
	TenantID       string `json:"tenant_id"`
	Number         int64  `json:"number"`
	Archived       bool   `json:"archived"`
}

// Resolve maps an address to its conversation. Addresses of other tenants
// resolve as not found.
// POST /v1/inbound/resolve
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.Caller(w, r)
	if !ok {
		return
	}

	var req ResolveRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		httputil.Error(w, http.StatusBadRequest, "address is required")
		return
	}

	conv, err := h.service.ResolveStrict(r.Context(), req.Address)
	if err == nil && conv.TenantID != caller.TenantID {
		h.logger.Warn("inbound address belongs to another tenant",
			"address", req.Address,
			"caller_tenant_id", caller.TenantID,
		)
		err = domain.ErrConversationNotFound
	}
	if err != nil {
		var decodeErr *mailbox.DecodeError
		switch {
		case errors.As(err, &decodeErr):
			h.logger.Warn("inbound address rejected", "address", req.Address, "kind", decodeErr.KindName())
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Info("inbound address has no conversation", "address", req.Address, "error", err)
			// Unknown tenants, unknown numbers and foreign conversations
			// look the same to the caller.
			err = fmt.Errorf("%s: %w", req.Address, domain.ErrConversationNotFound)
		}
		common.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ResolveResponse{
		ConversationID: conv.ID.String(),
		TenantID:       conv.TenantID.String(),
		Number:         conv.Number,
		Archived:       conv.Archived,
	})
}
