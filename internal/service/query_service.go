package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// QueryService coordinates the query lifecycle: it loads a query,
// applies one transition through the domain engine, and persists the
// result atomically. Each operation is a single read-modify-write;
// nothing is saved when a precondition fails.
type QueryService struct {
	queries    repository.QueryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	clock      clock.Clock
}

// QueryDependencies bundles collaborators for the query service.
type QueryDependencies struct {
	QueryRepo  repository.QueryRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
}

// QueryView is a query together with its reconciled conversation,
// ready for rendering. Thread ownership flags are applied per viewer
// at the transport layer.
type QueryView struct {
	Query         domain.Query
	SubmitterName string
	Thread        []domain.ThreadMessage
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	c := deps.Clock
	if c == nil {
		c = clock.NewSystem()
	}
	return &QueryService{
		queries:    deps.QueryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		clock:      c,
	}
}

// Create opens a new query for the submitting participant.
func (s *QueryService) Create(ctx context.Context, actor domain.Identity, title, description string) (*QueryView, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	query := domain.NewQuery(title, description, actor.ID, s.clock.Now())
	if err := s.queries.Create(ctx, query); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventQueryCreated,
		QueryID: query.ID,
		Actor:   eventActor(actor),
		Payload: events.QueryCreatedPayload{
			Title:       query.Title,
			SubmittedBy: query.SubmittedBy,
		},
	})
	return s.view(ctx, query, actor.Name), nil
}

// ListForSubmitter returns the caller's own queries, newest first,
// each with its reconciled thread.
func (s *QueryService) ListForSubmitter(ctx context.Context, actor domain.Identity) ([]QueryView, error) {
	queries, err := s.queries.ListBySubmitter(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.views(ctx, queries)
}

// ListAssigned returns the queries currently assigned to the head.
// Only ASSIGNED queries appear: resolved and escalated ones have left
// the head's plate.
func (s *QueryService) ListAssigned(ctx context.Context, actor domain.Identity) ([]QueryView, error) {
	queries, err := s.queries.ListByAssignee(ctx, actor.ID, domain.QueryStatusAssigned)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.views(ctx, queries)
}

// ListAll returns every query for the admin view, newest first.
func (s *QueryService) ListAll(ctx context.Context) ([]QueryView, error) {
	queries, err := s.queries.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.views(ctx, queries)
}

// Assign routes a query to a head, or back to the unassigned pool when
// headID is empty.
func (s *QueryService) Assign(ctx context.Context, actor domain.Identity, queryID, headID string) (*QueryView, error) {
	if headID != "" {
		head, err := s.users.GetByID(ctx, headID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("head", map[string]any{"head_id": headID})
			}
			return nil, apperrors.MapError(err)
		}
		if head.Role != domain.RoleHead {
			return nil, apperrors.NewValidationError("assignee is not a department head", map[string]any{"head_id": headID})
		}
		if head.IsBlocked {
			return nil, apperrors.NewValidationError("assignee is blocked", map[string]any{"head_id": headID})
		}
	}

	return s.applyTransition(ctx, actor, queryID, func(q *domain.Query) error {
		return q.Assign(actor, headID, s.clock.Now())
	}, func(q *domain.Query) events.Event {
		return events.Event{
			Type:    events.EventQueryAssigned,
			QueryID: q.ID,
			Actor:   eventActor(actor),
			Payload: events.QueryAssignedPayload{
				AssignedTo: q.AssignedTo,
				Status:     q.Status,
			},
		}
	})
}

// Resolve answers a query on behalf of its current assignee or an
// admin.
func (s *QueryService) Resolve(ctx context.Context, actor domain.Identity, queryID, answer string) (*QueryView, error) {
	return s.applyTransition(ctx, actor, queryID, func(q *domain.Query) error {
		return q.Resolve(actor, answer, s.clock.Now())
	}, func(q *domain.Query) events.Event {
		return events.Event{
			Type:    events.EventQueryResolved,
			QueryID: q.ID,
			Actor:   eventActor(actor),
			Payload: events.QueryResolvedPayload{
				AnswerPreview: stringPreview(answer, 120),
			},
		}
	})
}

// Escalate sends an assigned query back to the admin pool with a
// reason.
func (s *QueryService) Escalate(ctx context.Context, actor domain.Identity, queryID, reason string) (*QueryView, error) {
	return s.applyTransition(ctx, actor, queryID, func(q *domain.Query) error {
		return q.Escalate(actor, reason, s.clock.Now())
	}, func(q *domain.Query) events.Event {
		return events.Event{
			Type:    events.EventQueryEscalated,
			QueryID: q.ID,
			Actor:   eventActor(actor),
			Payload: events.QueryEscalatedPayload{
				ReasonPreview: stringPreview(reason, 120),
			},
		}
	})
}

// Reopen lets the submitter push a resolved query back into the
// unassigned pool with a follow-up.
func (s *QueryService) Reopen(ctx context.Context, actor domain.Identity, queryID, reason string) (*QueryView, error) {
	return s.applyTransition(ctx, actor, queryID, func(q *domain.Query) error {
		return q.Reopen(actor, reason, s.clock.Now())
	}, func(q *domain.Query) events.Event {
		return events.Event{
			Type:    events.EventQueryReopened,
			QueryID: q.ID,
			Actor:   eventActor(actor),
			Payload: events.QueryReopenedPayload{
				ReasonPreview: stringPreview(reason, 120),
			},
		}
	})
}

// applyTransition is the shared load → validate+mutate → persist →
// publish path for all four lifecycle operations.
func (s *QueryService) applyTransition(ctx context.Context, actor domain.Identity, queryID string, transition func(*domain.Query) error, buildEvent func(*domain.Query) events.Event) (*QueryView, error) {
	query, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("query", map[string]any{"query_id": queryID})
		}
		return nil, apperrors.MapError(err)
	}

	if err := transition(query); err != nil {
		return nil, mapLifecycleError(err)
	}

	if err := s.queries.UpdateWithEvent(ctx, query, query.PendingEvent()); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, buildEvent(query))

	submitterName, err := s.submitterName(ctx, query.SubmittedBy, map[string]string{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.view(ctx, query, submitterName), nil
}

func (s *QueryService) view(_ context.Context, query *domain.Query, submitterName string) *QueryView {
	return &QueryView{
		Query:         *query,
		SubmitterName: submitterName,
		Thread:        domain.BuildThread(query, submitterName),
	}
}

func (s *QueryService) views(ctx context.Context, queries []domain.Query) ([]QueryView, error) {
	result := make([]QueryView, 0, len(queries))
	names := map[string]string{}
	for i := range queries {
		name, err := s.submitterName(ctx, queries[i].SubmittedBy, names)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, *s.view(ctx, &queries[i], name))
	}
	return result, nil
}

func (s *QueryService) submitterName(ctx context.Context, userID string, memo map[string]string) (string, error) {
	if name, ok := memo[userID]; ok {
		return name, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Submitter account deleted out of band: keep the thread
			// renderable.
			memo[userID] = "Unknown"
			return "Unknown", nil
		}
		return "", err
	}
	memo[userID] = user.Name
	return user.Name, nil
}

func mapLifecycleError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRoleNotAllowed):
		return apperrors.NewUnauthorized("role may not perform this transition")
	case errors.Is(err, domain.ErrNotOwner):
		return apperrors.NewForbidden("not authorized for this query")
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.NewInvalidTransition("transition precondition not met", nil)
	}
	return apperrors.MapError(err)
}

func (s *QueryService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func eventActor(actor domain.Identity) events.Actor {
	return events.Actor{UserID: actor.ID, Role: actor.Role}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
