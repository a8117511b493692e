package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		other Role
		want  bool
	}{
		{name: "customer vs agent", role: RoleCustomer, other: RoleAgent, want: false},
		{name: "agent vs agent", role: RoleAgent, other: RoleAgent, want: true},
		{name: "admin vs agent", role: RoleAdmin, other: RoleAgent, want: true},
		{name: "owner vs admin", role: RoleOwner, other: RoleAdmin, want: true},
		{name: "agent vs owner", role: RoleAgent, other: RoleOwner, want: false},
		{name: "unknown vs customer", role: Role("guest"), other: RoleCustomer, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.AtLeast(tt.other); got != tt.want {
				t.Errorf("AtLeast() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaller_CanViewInternal(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleCustomer, false},
		{RoleAgent, true},
		{RoleAdmin, true},
		{RoleOwner, true},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c := Caller{UserID: uuid.New(), TenantID: uuid.New(), Role: tt.role}
			if got := c.CanViewInternal(); got != tt.want {
				t.Errorf("CanViewInternal() = %v, want %v", got, tt.want)
			}
			if got := c.IsAgentOrHigher(); got != tt.want {
				t.Errorf("IsAgentOrHigher() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFoundErrors(t *testing.T) {
	for _, err := range []error{ErrTenantNotFound, ErrConversationNotFound, ErrMessageNotFound} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%v should match ErrNotFound", err)
		}
	}
	if ErrTenantNotFound.Error() != "tenant not found" {
		t.Errorf("ErrTenantNotFound = %q, want %q", ErrTenantNotFound.Error(), "tenant not found")
	}
}
