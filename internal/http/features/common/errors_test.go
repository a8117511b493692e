package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tendant/simple-helpdesk/pkg/domain"
	"github.com/tendant/simple-helpdesk/pkg/mailbox"
)

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{name: "decode error", err: &mailbox.DecodeError{Kind: mailbox.ErrMalformedNumber, Address: "a+b@c"}, wantStatus: http.StatusUnprocessableEntity, wantKind: "malformed_number"},
		{name: "tenant not found", err: domain.ErrTenantNotFound, wantStatus: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("acme+1@x: %w", domain.ErrConversationNotFound), wantStatus: http.StatusNotFound},
		{name: "forbidden", err: domain.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "empty message", err: domain.ErrEmptyMessage, wantStatus: http.StatusBadRequest},
		{name: "unexpected", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, logger, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantKind != "" {
				var resp DecodeErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode failed: %v", err)
				}
				if resp.Kind != tt.wantKind {
					t.Errorf("Kind = %q, want %q", resp.Kind, tt.wantKind)
				}
			}
		})
	}
}
