package mailbox

import "testing"

func TestNewAddress(t *testing.T) {
	addr := NewAddress("acme", 42, testDomain, "Acme Inc")

	if addr.Local != "acme+42" {
		t.Errorf("Local = %q, want %q", addr.Local, "acme+42")
	}
	if addr.Domain != testDomain {
		t.Errorf("Domain = %q, want %q", addr.Domain, testDomain)
	}
	if addr.DisplayName != "Acme Inc" {
		t.Errorf("DisplayName = %q, want %q", addr.DisplayName, "Acme Inc")
	}
	if addr.Addr() != "acme+42@help.example.com" {
		t.Errorf("Addr() = %q, want %q", addr.Addr(), "acme+42@help.example.com")
	}
	if addr.String() != `"Acme Inc" <acme+42@help.example.com>` {
		t.Errorf("String() = %q", addr.String())
	}
}

func TestAddress_StringWithoutDisplayName(t *testing.T) {
	addr := NewAddress("acme", 1, testDomain, "")
	if addr.String() != "acme+1@help.example.com" {
		t.Errorf("String() = %q, want %q", addr.String(), "acme+1@help.example.com")
	}
}

func TestAddress_Equal(t *testing.T) {
	a := NewAddress("acme", 1, testDomain, "Acme")
	b := NewAddress("acme", 1, testDomain, "Acme")
	c := NewAddress("acme", 2, testDomain, "Acme")

	if !a.Equal(b) {
		t.Error("identical addresses should be equal")
	}
	if a.Equal(c) {
		t.Error("addresses of different conversations should differ")
	}
}

func TestAddress_StringDecodes(t *testing.T) {
	codec := NewCodec(testDomain)
	addr := NewAddress("acme", 5, testDomain, "Acme, Inc.")

	slug, number, err := codec.Decode(addr.String())
	if err != nil {
		t.Fatalf("Decode(%q) failed: %v", addr.String(), err)
	}
	if slug != "acme" || number != 5 {
		t.Errorf("Decode() = (%q, %d), want (%q, %d)", slug, number, "acme", 5)
	}
}
