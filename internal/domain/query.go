package domain

import "time"

// QueryStatus enumerates lifecycle states for queries.
type QueryStatus string

const (
	QueryStatusUnassigned QueryStatus = "UNASSIGNED"
	QueryStatusAssigned   QueryStatus = "ASSIGNED"
	QueryStatusResolved   QueryStatus = "RESOLVED"
	QueryStatusEscalated  QueryStatus = "ESCALATED"
)

// SenderRole is the role an actor held when producing an event. It is
// recorded for conversation rendering and never re-derived from the
// actor's current role.
type SenderRole string

const (
	SenderRoleUser  SenderRole = "USER"
	SenderRoleHead  SenderRole = "HEAD"
	SenderRoleAdmin SenderRole = "ADMIN"
)

// SenderRoleFor maps an account role to the sender role stamped on
// events it produces.
func SenderRoleFor(role Role) SenderRole {
	switch role {
	case RoleHead:
		return SenderRoleHead
	case RoleAdmin:
		return SenderRoleAdmin
	default:
		return SenderRoleUser
	}
}

// EventAction tags what a history entry represents.
type EventAction string

const (
	ActionResolved  EventAction = "RESOLVED"
	ActionEscalated EventAction = "ESCALATED"
	ActionReopened  EventAction = "REOPENED"
	ActionComment   EventAction = "COMMENT"
)

// QueryEvent is one immutable entry in a query's append-only history.
type QueryEvent struct {
	ID         string
	QueryID    string
	Sender     string
	SenderRole SenderRole
	Message    string
	Action     EventAction
	Date       time.Time
}

// Query is the aggregate for a helpdesk ticket. Events grow
// monotonically and are only ever appended through the lifecycle
// operations. AssignedTo is always set while ASSIGNED, retained on
// RESOLVED to record which head closed the query, and never present
// on UNASSIGNED or ESCALATED.
type Query struct {
	ID          string
	Title       string
	Description string
	Status      QueryStatus
	SubmittedBy string
	AssignedTo  *string

	// LegacyAnswer holds the single-field resolution text written
	// before the structured event log existed. It is still mirrored
	// on resolve for old readers, but thread construction ignores it
	// once any event exists.
	LegacyAnswer string

	Events    []QueryEvent
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewQuery builds a query in its initial state.
func NewQuery(title, description, submittedBy string, now time.Time) *Query {
	return &Query{
		Title:       title,
		Description: description,
		Status:      QueryStatusUnassigned,
		SubmittedBy: submittedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsAssignedTo reports whether the query is currently assigned to the
// given user.
func (q *Query) IsAssignedTo(userID string) bool {
	return q.AssignedTo != nil && *q.AssignedTo == userID
}
