package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every "entity absent" error below.
var ErrNotFound = errors.New("not found")

// Lookup errors
var (
	ErrTenantNotFound       = fmt.Errorf("tenant %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
)

// Authorization errors
var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")
)

// Validation errors
var (
	ErrInvalidSlug  = errors.New("invalid tenant slug")
	ErrEmptyMessage = errors.New("message body is required")
)
