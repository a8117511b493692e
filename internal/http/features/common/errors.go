package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-helpdesk/internal/http/middleware"
	"github.com/tendant/simple-helpdesk/internal/httputil"
	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/mailbox"
)

// DecodeErrorResponse is returned for addresses that cannot be decoded.
type DecodeErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// WriteError maps service errors to HTTP responses. Decode failures and
// missing entities always get distinct statuses.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var decodeErr *mailbox.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		httputil.JSON(w, http.StatusUnprocessableEntity, DecodeErrorResponse{
			Error: decodeErr.Kind.Error(),
			Kind:  decodeErr.KindName(),
		})
	case errors.Is(err, domain.ErrNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrEmptyMessage):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// Caller returns the authenticated caller, writing 401 if there is none.
func Caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return caller, ok
}
