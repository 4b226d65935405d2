package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateQueryRequest payload.
type CreateQueryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AssignRequest payload. An empty head_id returns the query to the
// unassigned pool.
type AssignRequest struct {
	QueryID string `json:"query_id"`
	HeadID  string `json:"head_id"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	QueryID string `json:"query_id"`
	Answer  string `json:"answer"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	QueryID string `json:"query_id"`
	Reason  string `json:"reason"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	QueryID string `json:"query_id"`
	Reason  string `json:"reason"`
}

// ThreadMessageResponse is one conversation entry, annotated with
// whether it renders on the requesting viewer's side.
type ThreadMessageResponse struct {
	Sender     string             `json:"sender"`
	SenderRole domain.SenderRole  `json:"sender_role"`
	Message    string             `json:"message"`
	Action     domain.EventAction `json:"action"`
	Date       time.Time          `json:"date"`
	Mine       bool               `json:"mine"`
}

// QueryResponse provides full query info including the reconciled
// thread.
type QueryResponse struct {
	ID            string                  `json:"id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Status        domain.QueryStatus      `json:"status"`
	SubmittedBy   string                  `json:"submitted_by"`
	SubmitterName string                  `json:"submitter_name"`
	AssignedTo    *string                 `json:"assigned_to"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Thread        []ThreadMessageResponse `json:"thread"`
}
