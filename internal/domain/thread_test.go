package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestBuildThread_SeedsWithDescription(t *testing.T) {
	q := newTestQuery(t)
	thread := BuildThread(q, "Priya")

	if len(thread) != 1 {
		t.Fatalf("expected 1 message, got %d", len(thread))
	}
	first := thread[0]
	if first.Sender != "Priya" || first.SenderRole != SenderRoleUser {
		t.Fatalf("unexpected seed message: %+v", first)
	}
	if first.Message != q.Description {
		t.Fatalf("seed message must be the description, got %q", first.Message)
	}
	if !first.Date.Equal(q.CreatedAt) {
		t.Fatalf("seed message must carry the creation time")
	}
}

func TestBuildThread_AppendsEventsInStoredOrder(t *testing.T) {
	q := newTestQuery(t)
	now := q.CreatedAt.Add(time.Hour)
	if err := q.Assign(admin, head.ID, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := q.Resolve(head, "fixed", now.Add(time.Minute)); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := q.Reopen(participant, "still broken", now.Add(2*time.Minute)); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	thread := BuildThread(q, "Priya")
	if len(thread) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(thread))
	}
	if thread[1].Action != ActionResolved || thread[1].Message != "fixed" || thread[1].SenderRole != SenderRoleHead {
		t.Fatalf("unexpected second message: %+v", thread[1])
	}
	if thread[2].Action != ActionReopened || thread[2].Message != "still broken" || thread[2].SenderRole != SenderRoleUser {
		t.Fatalf("unexpected third message: %+v", thread[2])
	}
}

func TestBuildThread_LegacyFallback(t *testing.T) {
	q := newTestQuery(t)
	q.LegacyAnswer = "restart the printer"
	q.UpdatedAt = q.CreatedAt.Add(2 * time.Hour)

	thread := BuildThread(q, "Priya")
	if len(thread) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(thread))
	}
	legacy := thread[1]
	if legacy.Sender != LegacySender || legacy.SenderRole != SenderRoleAdmin {
		t.Fatalf("unexpected legacy message: %+v", legacy)
	}
	if legacy.Message != "restart the printer" {
		t.Fatalf("legacy message text wrong: %q", legacy.Message)
	}
	if !legacy.Date.Equal(q.UpdatedAt) {
		t.Fatal("legacy message must carry the last-modified time")
	}
}

func TestBuildThread_EventsSuppressLegacyAnswer(t *testing.T) {
	q := newTestQuery(t)
	q.LegacyAnswer = "old single-field answer"
	now := q.CreatedAt.Add(time.Hour)
	if err := q.Assign(admin, head.ID, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := q.Resolve(head, "new structured answer", now.Add(time.Minute)); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	thread := BuildThread(q, "Priya")
	for _, msg := range thread {
		if msg.Sender == LegacySender {
			t.Fatalf("legacy message must not appear once events exist: %+v", msg)
		}
	}
	if len(thread) != 2 {
		t.Fatalf("expected description + 1 event, got %d messages", len(thread))
	}
}

func TestBuildThread_Idempotent(t *testing.T) {
	q := newTestQuery(t)
	now := q.CreatedAt.Add(time.Hour)
	if err := q.Assign(admin, head.ID, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := q.Resolve(head, "done", now.Add(time.Minute)); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	first := BuildThread(q, "Priya")
	second := BuildThread(q, "Priya")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("BuildThread must be deterministic for the same query state")
	}
}

func TestMessageIsOwn_FullTable(t *testing.T) {
	cases := []struct {
		viewer Role
		sender SenderRole
		want   bool
	}{
		{RoleParticipant, SenderRoleUser, true},
		{RoleParticipant, SenderRoleHead, false},
		{RoleParticipant, SenderRoleAdmin, false},

		{RoleHead, SenderRoleUser, false},
		{RoleHead, SenderRoleHead, true},
		{RoleHead, SenderRoleAdmin, true},

		// The admin asymmetry: head-authored messages render as the
		// admin's own support side.
		{RoleAdmin, SenderRoleUser, false},
		{RoleAdmin, SenderRoleHead, true},
		{RoleAdmin, SenderRoleAdmin, true},
	}

	for _, tc := range cases {
		if got := MessageIsOwn(tc.viewer, tc.sender); got != tc.want {
			t.Errorf("MessageIsOwn(%s, %s) = %v, want %v", tc.viewer, tc.sender, got, tc.want)
		}
	}
}

func TestSenderRoleFor(t *testing.T) {
	if SenderRoleFor(RoleParticipant) != SenderRoleUser {
		t.Fatal("participants author USER messages")
	}
	if SenderRoleFor(RoleHead) != SenderRoleHead {
		t.Fatal("heads author HEAD messages")
	}
	if SenderRoleFor(RoleAdmin) != SenderRoleAdmin {
		t.Fatal("admins author ADMIN messages")
	}
}
