package domain

import "time"

// LegacySender labels the synthetic message built from a migrated
// query's single-field answer, whose real author was never recorded.
const LegacySender = "Support"

// ThreadMessage is one entry in the reconciled conversation for a
// query. Action-typed events render the same as comments; Action is
// metadata for clients, not a rendering switch.
type ThreadMessage struct {
	Sender     string
	SenderRole SenderRole
	Message    string
	Action     EventAction
	Date       time.Time
}

// BuildThread reconciles a query's history into an ordered
// conversation. The description always opens the thread as a USER
// message from the submitter. Structured events follow in stored
// order; only when none exist does the legacy single-field answer
// contribute one synthetic support message. The function is pure and
// recomputed on every read.
func BuildThread(q *Query, submitterName string) []ThreadMessage {
	thread := make([]ThreadMessage, 0, len(q.Events)+2)
	thread = append(thread, ThreadMessage{
		Sender:     submitterName,
		SenderRole: SenderRoleUser,
		Message:    q.Description,
		Action:     ActionComment,
		Date:       q.CreatedAt,
	})

	if len(q.Events) > 0 {
		for _, ev := range q.Events {
			thread = append(thread, ThreadMessage{
				Sender:     ev.Sender,
				SenderRole: ev.SenderRole,
				Message:    ev.Message,
				Action:     ev.Action,
				Date:       ev.Date,
			})
		}
		return thread
	}

	if q.LegacyAnswer != "" {
		// Migrated query with no structured log: the resolving role was
		// never stored, so ADMIN is assumed.
		thread = append(thread, ThreadMessage{
			Sender:     LegacySender,
			SenderRole: SenderRoleAdmin,
			Message:    q.LegacyAnswer,
			Action:     ActionComment,
			Date:       q.UpdatedAt,
		})
	}
	return thread
}

// ownMessage records, per viewer role, which sender roles render as the
// viewer's own side of the conversation. The asymmetry is deliberate:
// support-side viewers (HEAD, ADMIN) see every non-user message as
// their own, so an admin reading a head's resolution sees it on the
// support side of the thread.
var ownMessage = map[Role]map[SenderRole]bool{
	RoleParticipant: {
		SenderRoleUser:  true,
		SenderRoleHead:  false,
		SenderRoleAdmin: false,
	},
	RoleHead: {
		SenderRoleUser:  false,
		SenderRoleHead:  true,
		SenderRoleAdmin: true,
	},
	RoleAdmin: {
		SenderRoleUser:  false,
		SenderRoleHead:  true,
		SenderRoleAdmin: true,
	},
}

// MessageIsOwn reports whether a message with the given sender role is
// displayed as the viewer's own bubble.
func MessageIsOwn(viewer Role, sender SenderRole) bool {
	return ownMessage[viewer][sender]
}
