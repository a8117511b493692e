// Package mailbox maps conversations to and from the email addresses that
// route inbound correspondence to them.
//
// An address is built from the tenant slug and the conversation number:
//
//	acme+42@help.example.com
//
// The local part is split on the last '+', so slugs must not contain '+'.
package mailbox

import (
	"net/mail"
	"strconv"
)

// Address is a derived mailbox address. It is never persisted.
type Address struct {
	Local       string
	Domain      string
	DisplayName string
}

// Encode returns "<slug>+<number>@<domain>".
func Encode(slug string, number int64, domain string) string {
	return LocalPart(slug, number) + "@" + domain
}

// LocalPart returns "<slug>+<number>".
func LocalPart(slug string, number int64) string {
	return slug + "+" + strconv.FormatInt(number, 10)
}

// NewAddress builds the address of conversation number in the tenant
// identified by slug.
func NewAddress(slug string, number int64, domain, displayName string) Address {
	return Address{
		Local:       LocalPart(slug, number),
		Domain:      domain,
		DisplayName: displayName,
	}
}

// Addr returns the bare local@domain form.
func (a Address) Addr() string {
	return a.Local + "@" + a.Domain
}

// String renders the address with its display name, if any, in RFC 5322 form.
func (a Address) String() string {
	if a.DisplayName == "" {
		return a.Addr()
	}
	return (&mail.Address{Name: a.DisplayName, Address: a.Addr()}).String()
}

// Equal reports whether both addresses render identically.
func (a Address) Equal(other Address) bool {
	return a.String() == other.String()
}
