package domain

import "time"

// Role enumerates the three account roles in the helpdesk.
type Role string

const (
	RoleParticipant Role = "PARTICIPANT"
	RoleHead        Role = "HEAD"
	RoleAdmin       Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleParticipant, RoleHead, RoleAdmin:
		return true
	}
	return false
}

// User is the domain model for any account: participants who submit
// queries, department heads who work them, and admins who route them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsBlocked    bool
	Department   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller passed into every operation.
// The core trusts it verbatim; credential checks happen at the edge.
type Identity struct {
	ID   string
	Name string
	Role Role
}
