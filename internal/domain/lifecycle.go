package domain

import (
	"strings"
	"time"
)

// The lifecycle operations below validate every precondition before
// touching the query, so a failed call leaves it untouched. Callers
// persist the mutated query and any appended event as one unit.

// Assign routes the query to a head, or back to the unassigned pool
// when headID is empty. Reassignment is legal from any state, including
// directly overriding ESCALATED or an existing assignee; assigning the
// same head again succeeds as a state no-op. No event is appended:
// routing is an administrative action, not a conversation turn.
func (q *Query) Assign(actor Identity, headID string, now time.Time) error {
	if !RoleAllowed(actor.Role, TransitionAssign) {
		return ErrRoleNotAllowed
	}
	if headID != "" {
		id := headID
		q.AssignedTo = &id
		q.Status = QueryStatusAssigned
	} else {
		q.AssignedTo = nil
		q.Status = QueryStatusUnassigned
	}
	q.UpdatedAt = now
	return nil
}

// Resolve marks the query answered. Admins may resolve any query;
// heads only the one currently assigned to them. The assignee is kept
// so a resolved query still records which head closed it; workload
// counters depend on that. The answer is mirrored into LegacyAnswer
// for readers of the pre-event-log format.
func (q *Query) Resolve(actor Identity, answer string, now time.Time) error {
	if !RoleAllowed(actor.Role, TransitionResolve) {
		return ErrRoleNotAllowed
	}
	if actor.Role != RoleAdmin && !q.IsAssignedTo(actor.ID) {
		return ErrNotOwner
	}
	if strings.TrimSpace(answer) == "" {
		return ErrInvalidTransition
	}
	q.Status = QueryStatusResolved
	q.LegacyAnswer = answer
	q.appendEvent(actor.Name, SenderRoleFor(actor.Role), answer, ActionResolved, now)
	return nil
}

// Escalate returns the query to the unassigned pool for admin
// re-triage. Only the currently assigned head may escalate, and the
// assignee is always cleared.
func (q *Query) Escalate(actor Identity, reason string, now time.Time) error {
	if !RoleAllowed(actor.Role, TransitionEscalate) {
		return ErrRoleNotAllowed
	}
	if !q.IsAssignedTo(actor.ID) {
		return ErrNotOwner
	}
	if strings.TrimSpace(reason) == "" {
		return ErrInvalidTransition
	}
	q.Status = QueryStatusEscalated
	q.AssignedTo = nil
	q.appendEvent(actor.Name, SenderRoleHead, reason, ActionEscalated, now)
	return nil
}

// Reopen lets the original submitter send a resolved query back to the
// unassigned pool with a follow-up message.
func (q *Query) Reopen(actor Identity, reason string, now time.Time) error {
	if !RoleAllowed(actor.Role, TransitionReopen) {
		return ErrRoleNotAllowed
	}
	if q.SubmittedBy != actor.ID {
		return ErrNotOwner
	}
	if strings.TrimSpace(reason) == "" {
		return ErrInvalidTransition
	}
	q.Status = QueryStatusUnassigned
	q.AssignedTo = nil
	q.appendEvent(actor.Name, SenderRoleUser, reason, ActionReopened, now)
	return nil
}

func (q *Query) appendEvent(sender string, role SenderRole, message string, action EventAction, now time.Time) {
	q.Events = append(q.Events, QueryEvent{
		QueryID:    q.ID,
		Sender:     sender,
		SenderRole: role,
		Message:    message,
		Action:     action,
		Date:       now,
	})
	q.UpdatedAt = now
}

// PendingEvent returns the event appended by the last lifecycle
// operation, or nil when the operation appended none (assignment).
// Repositories persist it together with the status update.
func (q *Query) PendingEvent() *QueryEvent {
	if len(q.Events) == 0 {
		return nil
	}
	last := &q.Events[len(q.Events)-1]
	if last.ID != "" {
		return nil
	}
	return last
}
