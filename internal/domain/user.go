package domain

import "time"

// Role enumerates the actor roles known to the maintenance workflow.
type Role string

const (
	RoleRequester  Role = "requester"
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleTechnician, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// IsPrivileged reports whether the role may approve, triage and override assignments.
func (r Role) IsPrivileged() bool {
	return r == RoleManager || r == RoleAdmin
}

// User is the persisted account behind an Actor.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is an authenticated identity as seen by the lifecycle engine.
type Actor struct {
	ID   string
	Role Role
}

// Actor projects the user onto the identity the lifecycle engine needs.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
