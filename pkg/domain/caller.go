package domain

import "github.com/google/uuid"

// Role is the level of a caller inside a tenant.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
)

var roleRank = map[Role]int{
	RoleCustomer: 0,
	RoleAgent:    1,
	RoleAdmin:    2,
	RoleOwner:    3,
}

// Valid returns true for known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above other. Unknown roles rank below
// every known role.
func (r Role) AtLeast(other Role) bool {
	rank, ok := roleRank[r]
	if !ok {
		return false
	}
	return rank >= roleRank[other]
}

// CanViewInternal is true for agents and above.
func (r Role) CanViewInternal() bool {
	return r.AtLeast(RoleAgent)
}

// Viewer is anything that can answer whether it may see internal messages.
type Viewer interface {
	CanViewInternal() bool
}

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

// CanViewInternal implements Viewer.
func (c Caller) CanViewInternal() bool {
	return c.Role.CanViewInternal()
}

// IsAgentOrHigher returns true if the caller is staff.
func (c Caller) IsAgentOrHigher() bool {
	return c.Role.AtLeast(RoleAgent)
}
