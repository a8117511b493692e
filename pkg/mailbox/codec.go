package mailbox

import (
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
)

// ErrDecode matches every DecodeError.
var ErrDecode = errors.New("mailbox: cannot decode address")

// Decode failure kinds
var (
	ErrDomainMismatch     = errors.New("domain mismatch")
	ErrMalformedLocalPart = errors.New("malformed local part")
	ErrMalformedSlug      = errors.New("malformed slug")
	ErrMalformedNumber    = errors.New("malformed number")
)

var kindNames = map[error]string{
	ErrDomainMismatch:     "domain_mismatch",
	ErrMalformedLocalPart: "malformed_local_part",
	ErrMalformedSlug:      "malformed_slug",
	ErrMalformedNumber:    "malformed_number",
}

// DecodeError is returned when an address cannot be mapped to a conversation.
// errors.Is matches both ErrDecode and the specific Kind.
type DecodeError struct {
	Kind    error
	Address string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mailbox: %v: %q", e.Kind, e.Address)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Kind}
}

// KindName returns a stable identifier for the failure kind, suitable for
// API responses and log fields.
func (e *DecodeError) KindName() string {
	if name, ok := kindNames[e.Kind]; ok {
		return name
	}
	return "unknown"
}

// Codec encodes and decodes mailbox addresses for one incoming email domain.
type Codec struct {
	domain string
}

// NewCodec creates a codec for the configured incoming email domain.
func NewCodec(domain string) *Codec {
	return &Codec{domain: domain}
}

// Domain returns the incoming email domain.
func (c *Codec) Domain() string {
	return c.domain
}

// Encode returns the address of conversation number of the tenant with slug.
func (c *Codec) Encode(slug string, number int64) string {
	return Encode(slug, number, c.domain)
}

// Decode parses raw back into a tenant slug and conversation number.
// Display names and angle brackets are accepted ("Acme <acme+1@domain>"), and
// RFC 5322 comments are dropped before the local part is split.
func (c *Codec) Decode(raw string) (string, int64, error) {
	addr := strings.TrimSpace(raw)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}

	at := indexUnescapedAt(addr)
	if at < 0 || !strings.EqualFold(addr[at+1:], c.domain) {
		return "", 0, &DecodeError{Kind: ErrDomainMismatch, Address: raw}
	}

	local := addr[:at]
	plus := strings.LastIndexByte(local, '+')
	if plus < 0 {
		return "", 0, &DecodeError{Kind: ErrMalformedLocalPart, Address: raw}
	}

	number, ok := parseNumber(local[plus+1:])
	if !ok {
		return "", 0, &DecodeError{Kind: ErrMalformedNumber, Address: raw}
	}

	slug := local[:plus]
	if slug == "" {
		return "", 0, &DecodeError{Kind: ErrMalformedSlug, Address: raw}
	}

	return slug, number, nil
}

// indexUnescapedAt returns the index of the first '@' not preceded by a
// backslash escape, or -1.
func indexUnescapedAt(s string) int {
	escaped := false
	for i := 0; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '@':
			return i
		}
	}
	return -1
}

// parseNumber accepts a positive base-10 integer without sign or leading zeros.
func parseNumber(s string) (int64, bool) {
	if s == "" || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
