package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

var (
	participant = domain.Identity{ID: "u1", Name: "Priya", Role: domain.RoleParticipant}
	head        = domain.Identity{ID: "h1", Name: "Hana", Role: domain.RoleHead}
	otherHead   = domain.Identity{ID: "h2", Name: "Marco", Role: domain.RoleHead}
	admin       = domain.Identity{ID: "a1", Name: "Alex", Role: domain.RoleAdmin}
)

// fakeQueryRepo keeps queries in memory and hands out copies, so a
// mutation the service abandons never reaches the store. That mirrors
// the transactional contract of the real repository.
type fakeQueryRepo struct {
	stored   map[string]*domain.Query
	order    []string
	seq      int
	eventSeq int
	updates  int
}

func newFakeQueryRepo() *fakeQueryRepo {
	return &fakeQueryRepo{stored: map[string]*domain.Query{}}
}

func cloneQuery(q *domain.Query) *domain.Query {
	c := *q
	if q.AssignedTo != nil {
		id := *q.AssignedTo
		c.AssignedTo = &id
	}
	c.Events = append([]domain.QueryEvent(nil), q.Events...)
	return &c
}

func (r *fakeQueryRepo) Create(_ context.Context, query *domain.Query) error {
	r.seq++
	query.ID = fmt.Sprintf("q-%d", r.seq)
	r.stored[query.ID] = cloneQuery(query)
	r.order = append(r.order, query.ID)
	return nil
}

func (r *fakeQueryRepo) GetByID(_ context.Context, id string) (*domain.Query, error) {
	query, ok := r.stored[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneQuery(query), nil
}

func (r *fakeQueryRepo) ListBySubmitter(_ context.Context, userID string) ([]domain.Query, error) {
	return r.filter(func(q *domain.Query) bool { return q.SubmittedBy == userID }), nil
}

func (r *fakeQueryRepo) ListByAssignee(_ context.Context, userID string, status domain.QueryStatus) ([]domain.Query, error) {
	return r.filter(func(q *domain.Query) bool { return q.IsAssignedTo(userID) && q.Status == status }), nil
}

func (r *fakeQueryRepo) ListAll(_ context.Context) ([]domain.Query, error) {
	return r.filter(func(*domain.Query) bool { return true }), nil
}

func (r *fakeQueryRepo) UpdateWithEvent(_ context.Context, query *domain.Query, event *domain.QueryEvent) error {
	if _, ok := r.stored[query.ID]; !ok {
		return pgx.ErrNoRows
	}
	if event != nil {
		r.eventSeq++
		event.ID = strconv.Itoa(r.eventSeq)
		event.QueryID = query.ID
	}
	r.stored[query.ID] = cloneQuery(query)
	r.updates++
	return nil
}

func (r *fakeQueryRepo) CountByAssigneeAndStatus(_ context.Context, userID string, status domain.QueryStatus) (int64, error) {
	return int64(len(r.filter(func(q *domain.Query) bool { return q.IsAssignedTo(userID) && q.Status == status }))), nil
}

func (r *fakeQueryRepo) CountBySubmitter(_ context.Context, userID string) (int64, error) {
	return int64(len(r.filter(func(q *domain.Query) bool { return q.SubmittedBy == userID }))), nil
}

func (r *fakeQueryRepo) filter(keep func(*domain.Query) bool) []domain.Query {
	var result []domain.Query
	for _, id := range r.order {
		if q := r.stored[id]; keep(q) {
			result = append(result, *cloneQuery(q))
		}
	}
	return result
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(identities ...domain.Identity) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, id := range identities {
		repo.users[id.ID] = &domain.User{ID: id.ID, Name: id.Name, Role: id.Role}
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.Role == role {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) ListExcludingRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.Role != role {
			result = append(result, *user)
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type serviceFixture struct {
	service    *QueryService
	queries    *fakeQueryRepo
	users      *fakeUserRepo
	dispatcher *recordingDispatcher
	clock      *clock.Fixed
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	queries := newFakeQueryRepo()
	users := newFakeUserRepo(participant, head, otherHead, admin)
	dispatcher := &recordingDispatcher{}
	clk := clock.NewFixed(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	return &serviceFixture{
		service: NewQueryService(QueryDependencies{
			QueryRepo:  queries,
			UserRepo:   users,
			Dispatcher: dispatcher,
			Clock:      clk,
		}),
		queries:    queries,
		users:      users,
		dispatcher: dispatcher,
		clock:      clk,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError %s, got %v", code, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, domainErr.Code, err)
	}
}

func TestCreate_OpensUnassignedQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "the office printer is jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Query.Status != domain.QueryStatusUnassigned {
		t.Fatalf("expected UNASSIGNED, got %s", view.Query.Status)
	}
	if len(view.Thread) != 1 || view.Thread[0].Sender != "Priya" || view.Thread[0].SenderRole != domain.SenderRoleUser {
		t.Fatalf("unexpected thread: %+v", view.Thread)
	}
	if len(f.dispatcher.published) != 1 || f.dispatcher.published[0].Type != events.EventQueryCreated {
		t.Fatalf("expected a single query_created event, got %+v", f.dispatcher.published)
	}
}

func TestCreate_RejectsBlankInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, participant, "   ", "desc")
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = f.service.Create(ctx, participant, "title", "")
	assertCode(t, err, "VALIDATION_FAILED")

	if len(f.queries.stored) != 0 {
		t.Fatal("nothing must be stored on validation failure")
	}
}

func TestAssign_RoutesToHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assigned, err := f.service.Assign(ctx, admin, view.Query.ID, head.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Query.Status != domain.QueryStatusAssigned || !assigned.Query.IsAssignedTo(head.ID) {
		t.Fatalf("unexpected state after assign: %+v", assigned.Query)
	}

	stored := f.queries.stored[view.Query.ID]
	if stored.Status != domain.QueryStatusAssigned || !stored.IsAssignedTo(head.ID) {
		t.Fatal("assignment must be persisted")
	}
	if len(stored.Events) != 0 {
		t.Fatal("assignment must not append an event")
	}
	last := f.dispatcher.published[len(f.dispatcher.published)-1]
	if last.Type != events.EventQueryAssigned {
		t.Fatalf("expected query_assigned event, got %s", last.Type)
	}
}

func TestAssign_ValidatesHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.service.Assign(ctx, admin, view.Query.ID, "nobody")
	assertCode(t, err, "NOT_FOUND")

	_, err = f.service.Assign(ctx, admin, view.Query.ID, participant.ID)
	assertCode(t, err, "VALIDATION_FAILED")

	blocked := &domain.User{ID: "h9", Name: "Bea", Role: domain.RoleHead, IsBlocked: true}
	f.users.users[blocked.ID] = blocked
	_, err = f.service.Assign(ctx, admin, view.Query.ID, blocked.ID)
	assertCode(t, err, "VALIDATION_FAILED")

	if f.queries.updates != 0 {
		t.Fatal("rejected assignments must not touch the store")
	}
}

func TestResolve_PersistsEventAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Assign(ctx, admin, view.Query.ID, head.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	f.clock.Advance(time.Minute)

	resolved, err := f.service.Resolve(ctx, head, view.Query.ID, "replaced the cartridge")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Query.Status != domain.QueryStatusResolved || !resolved.Query.IsAssignedTo(head.ID) {
		t.Fatalf("unexpected state after resolve: %+v", resolved.Query)
	}

	stored := f.queries.stored[view.Query.ID]
	if stored.LegacyAnswer != "replaced the cartridge" {
		t.Fatalf("answer not mirrored, got %q", stored.LegacyAnswer)
	}
	if len(stored.Events) != 1 || stored.Events[0].ID == "" {
		t.Fatalf("expected one persisted event with an id, got %+v", stored.Events)
	}
	if len(resolved.Thread) != 2 || resolved.Thread[1].Action != domain.ActionResolved {
		t.Fatalf("unexpected thread: %+v", resolved.Thread)
	}
}

func TestResolve_WrongHeadNothingPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Assign(ctx, admin, view.Query.ID, head.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	updatesBefore := f.queries.updates
	publishedBefore := len(f.dispatcher.published)

	_, err = f.service.Resolve(ctx, otherHead, view.Query.ID, "not mine")
	assertCode(t, err, "FORBIDDEN")

	stored := f.queries.stored[view.Query.ID]
	if stored.Status != domain.QueryStatusAssigned || !stored.IsAssignedTo(head.ID) || len(stored.Events) != 0 {
		t.Fatal("failed resolve must leave the stored query untouched")
	}
	if f.queries.updates != updatesBefore || len(f.dispatcher.published) != publishedBefore {
		t.Fatal("failed resolve must neither update the store nor publish")
	}
}

func TestResolve_UnknownQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Resolve(context.Background(), admin, "missing", "answer")
	assertCode(t, err, "NOT_FOUND")
}

func TestLifecycle_CreateAssignResolveReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	queryID := view.Query.ID

	f.clock.Advance(time.Minute)
	if _, err := f.service.Assign(ctx, admin, queryID, head.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.service.Resolve(ctx, head, queryID, "fixed"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	f.clock.Advance(time.Minute)
	reopened, err := f.service.Reopen(ctx, participant, queryID, "still broken")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	if reopened.Query.Status != domain.QueryStatusUnassigned || reopened.Query.AssignedTo != nil {
		t.Fatalf("unexpected state after reopen: %+v", reopened.Query)
	}
	if len(reopened.Thread) != 3 {
		t.Fatalf("expected 3 thread messages, got %d", len(reopened.Thread))
	}
	if reopened.Thread[2].Message != "still broken" || reopened.Thread[2].SenderRole != domain.SenderRoleUser {
		t.Fatalf("unexpected reopen message: %+v", reopened.Thread[2])
	}

	wantTypes := []events.EventType{
		events.EventQueryCreated,
		events.EventQueryAssigned,
		events.EventQueryResolved,
		events.EventQueryReopened,
	}
	if len(f.dispatcher.published) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d", len(wantTypes), len(f.dispatcher.published))
	}
	for i, want := range wantTypes {
		if f.dispatcher.published[i].Type != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, f.dispatcher.published[i].Type)
		}
	}
}

func TestEscalate_ReturnsQueryToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.service.Create(ctx, participant, "printer broken", "jammed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Assign(ctx, admin, view.Query.ID, head.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	escalated, err := f.service.Escalate(ctx, head, view.Query.ID, "needs budget approval")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if escalated.Query.Status != domain.QueryStatusEscalated || escalated.Query.AssignedTo != nil {
		t.Fatalf("unexpected state after escalate: %+v", escalated.Query)
	}
	stored := f.queries.stored[view.Query.ID]
	if len(stored.Events) != 1 || stored.Events[0].Action != domain.ActionEscalated {
		t.Fatalf("expected one ESCALATED event, got %+v", stored.Events)
	}
}

func TestListAssigned_OnlyCurrentlyAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.service.Create(ctx, participant, "mine", "assigned to hana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	someoneElses, err := f.service.Create(ctx, participant, "other", "assigned to marco")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done, err := f.service.Create(ctx, participant, "done", "already resolved")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.service.Assign(ctx, admin, mine.Query.ID, head.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.service.Assign(ctx, admin, someoneElses.Query.ID, otherHead.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.service.Assign(ctx, admin, done.Query.ID, head.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.service.Resolve(ctx, head, done.Query.ID, "done"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	views, err := f.service.ListAssigned(ctx, head)
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(views) != 1 || views[0].Query.ID != mine.Query.ID {
		t.Fatalf("expected only the open assignment, got %+v", views)
	}
}

func TestListAll_UnknownSubmitterStillRenders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ghost := domain.Identity{ID: "ghost", Name: "Gone", Role: domain.RoleParticipant}
	f.users.users[ghost.ID] = &domain.User{ID: ghost.ID, Name: ghost.Name, Role: ghost.Role}
	if _, err := f.service.Create(ctx, ghost, "orphaned", "submitter deleted later"); err != nil {
		t.Fatalf("create: %v", err)
	}
	delete(f.users.users, ghost.ID)

	views, err := f.service.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 query, got %d", len(views))
	}
	if views[0].SubmitterName != "Unknown" || views[0].Thread[0].Sender != "Unknown" {
		t.Fatalf("expected Unknown submitter fallback, got %+v", views[0])
	}
}
