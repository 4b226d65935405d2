package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventQueryCreated   EventType = "query_created"
	EventQueryAssigned  EventType = "query_assigned"
	EventQueryResolved  EventType = "query_resolved"
	EventQueryEscalated EventType = "query_escalated"
	EventQueryReopened  EventType = "query_reopened"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	QueryID   string      `json:"query_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// QueryCreatedPayload payload.
type QueryCreatedPayload struct {
	Title       string `json:"title"`
	SubmittedBy string `json:"submitted_by"`
}

// QueryAssignedPayload payload. AssignedTo is nil when the query was
// returned to the unassigned pool.
type QueryAssignedPayload struct {
	AssignedTo *string            `json:"assigned_to,omitempty"`
	Status     domain.QueryStatus `json:"status"`
}

// QueryResolvedPayload payload.
type QueryResolvedPayload struct {
	AnswerPreview string `json:"answer_preview"`
}

// QueryEscalatedPayload payload.
type QueryEscalatedPayload struct {
	ReasonPreview string `json:"reason_preview"`
}

// QueryReopenedPayload payload.
type QueryReopenedPayload struct {
	ReasonPreview string `json:"reason_preview"`
}
