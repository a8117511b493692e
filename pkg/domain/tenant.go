package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an account owning its own conversation numbering space
// and mailbox namespace.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// ValidSlug reports whether slug can be used as the mailbox prefix of a tenant.
// A slug is non-empty and made of lowercase letters, digits, '-', '_' and '.'.
// It never contains '+' or '@'.
func ValidSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") || strings.HasSuffix(slug, ".") {
		return false
	}
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
