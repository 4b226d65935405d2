package domain

// Transition identifies one of the four lifecycle operations for
// authorization purposes.
type Transition string

const (
	TransitionAssign   Transition = "ASSIGN"
	TransitionResolve  Transition = "RESOLVE"
	TransitionEscalate Transition = "ESCALATE"
	TransitionReopen   Transition = "REOPEN"
)

// rolePolicy is the full role × transition table. It answers "can this
// role ever do this"; ownership ("can this actor do it to this query")
// is checked by the lifecycle operations against the query itself.
var rolePolicy = map[Role]map[Transition]bool{
	RoleParticipant: {
		TransitionAssign:   false,
		TransitionResolve:  false,
		TransitionEscalate: false,
		TransitionReopen:   true,
	},
	RoleHead: {
		TransitionAssign:   false,
		TransitionResolve:  true,
		TransitionEscalate: true,
		TransitionReopen:   false,
	},
	RoleAdmin: {
		TransitionAssign:   true,
		TransitionResolve:  true,
		TransitionEscalate: false,
		TransitionReopen:   false,
	},
}

// RoleAllowed reports whether the role may ever perform the transition.
// Unknown roles and transitions are denied.
func RoleAllowed(role Role, transition Transition) bool {
	return rolePolicy[role][transition]
}
