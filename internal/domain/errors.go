package domain

import "errors"

// Lifecycle failures. The service layer maps these onto transport
// errors; inside the domain they stay plain sentinels so the engine
// remains testable without any HTTP vocabulary.
var (
	// ErrRoleNotAllowed: the caller's role can never perform this
	// transition, regardless of which query it targets.
	ErrRoleNotAllowed = errors.New("role not allowed for transition")

	// ErrNotOwner: the role-level check passed but this specific actor
	// may not act on this specific query (head not assigned to it, or
	// participant not the submitter).
	ErrNotOwner = errors.New("actor does not own this query")

	// ErrInvalidTransition: a state-machine precondition is unmet,
	// e.g. resolving with an empty answer.
	ErrInvalidTransition = errors.New("invalid transition")
)
