package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// QueryRepository encapsulates query persistence. Loaded queries carry
// their full event log in stored order.
type QueryRepository interface {
	Create(ctx context.Context, query *domain.Query) error
	GetByID(ctx context.Context, id string) (*domain.Query, error)
	ListBySubmitter(ctx context.Context, userID string) ([]domain.Query, error)
	ListByAssignee(ctx context.Context, userID string, status domain.QueryStatus) ([]domain.Query, error)
	ListAll(ctx context.Context) ([]domain.Query, error)

	// UpdateWithEvent persists the mutated status/assignee/answer and,
	// when event is non-nil, appends it to the log inside the same
	// transaction. A lifecycle transition is therefore atomic: either
	// both land or neither does.
	UpdateWithEvent(ctx context.Context, query *domain.Query, event *domain.QueryEvent) error

	CountByAssigneeAndStatus(ctx context.Context, userID string, status domain.QueryStatus) (int64, error)
	CountBySubmitter(ctx context.Context, userID string) (int64, error)
}

type queryRepository struct {
	pool *pgxpool.Pool
}

// NewQueryRepository instantiates repository.
func NewQueryRepository(pool *pgxpool.Pool) QueryRepository {
	return &queryRepository{pool: pool}
}

const queryColumns = `id, title, description, status, submitted_by, assigned_to, legacy_answer, created_at, updated_at`

func (r *queryRepository) Create(ctx context.Context, query *domain.Query) error {
	const stmt = `
        INSERT INTO queries (title, description, status, submitted_by, assigned_to, legacy_answer)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, stmt,
		query.Title,
		query.Description,
		query.Status,
		query.SubmittedBy,
		query.AssignedTo,
		query.LegacyAnswer,
	).Scan(&query.ID, &query.CreatedAt, &query.UpdatedAt)
}

func (r *queryRepository) GetByID(ctx context.Context, id string) (*domain.Query, error) {
	const stmt = `SELECT ` + queryColumns + ` FROM queries WHERE id=$1`

	var query domain.Query
	if err := r.pool.QueryRow(ctx, stmt, id).Scan(
		&query.ID,
		&query.Title,
		&query.Description,
		&query.Status,
		&query.SubmittedBy,
		&query.AssignedTo,
		&query.LegacyAnswer,
		&query.CreatedAt,
		&query.UpdatedAt,
	); err != nil {
		return nil, err
	}

	events, err := r.eventsFor(ctx, []string{query.ID})
	if err != nil {
		return nil, err
	}
	query.Events = events[query.ID]
	return &query, nil
}

func (r *queryRepository) ListBySubmitter(ctx context.Context, userID string) ([]domain.Query, error) {
	const stmt = `SELECT ` + queryColumns + ` FROM queries WHERE submitted_by=$1 ORDER BY created_at DESC`
	return r.list(ctx, stmt, userID)
}

func (r *queryRepository) ListByAssignee(ctx context.Context, userID string, status domain.QueryStatus) ([]domain.Query, error) {
	const stmt = `SELECT ` + queryColumns + ` FROM queries WHERE assigned_to=$1 AND status=$2 ORDER BY created_at DESC`
	return r.list(ctx, stmt, userID, status)
}

func (r *queryRepository) ListAll(ctx context.Context) ([]domain.Query, error) {
	const stmt = `SELECT ` + queryColumns + ` FROM queries ORDER BY created_at DESC`
	return r.list(ctx, stmt)
}

func (r *queryRepository) UpdateWithEvent(ctx context.Context, query *domain.Query, event *domain.QueryEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateStmt = `
        UPDATE queries SET status=$1, assigned_to=$2, legacy_answer=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := tx.Exec(ctx, updateStmt,
		query.Status,
		query.AssignedTo,
		query.LegacyAnswer,
		query.UpdatedAt,
		query.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if event != nil {
		const insertStmt = `
            INSERT INTO query_events (query_id, sender, sender_role, message, action, date)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING id`
		var eventID int64
		if err := tx.QueryRow(ctx, insertStmt,
			query.ID,
			event.Sender,
			event.SenderRole,
			event.Message,
			event.Action,
			event.Date,
		).Scan(&eventID); err != nil {
			return err
		}
		event.ID = strconv.FormatInt(eventID, 10)
		event.QueryID = query.ID
	}

	return tx.Commit(ctx)
}

func (r *queryRepository) CountByAssigneeAndStatus(ctx context.Context, userID string, status domain.QueryStatus) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM queries WHERE assigned_to=$1 AND status=$2`
	var count int64
	err := r.pool.QueryRow(ctx, stmt, userID, status).Scan(&count)
	return count, err
}

func (r *queryRepository) CountBySubmitter(ctx context.Context, userID string) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM queries WHERE submitted_by=$1`
	var count int64
	err := r.pool.QueryRow(ctx, stmt, userID).Scan(&count)
	return count, err
}

func (r *queryRepository) list(ctx context.Context, stmt string, args ...any) ([]domain.Query, error) {
	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queries, err := scanQueries(rows)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return queries, nil
	}

	ids := make([]string, 0, len(queries))
	for i := range queries {
		ids = append(ids, queries[i].ID)
	}
	events, err := r.eventsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range queries {
		queries[i].Events = events[queries[i].ID]
	}
	return queries, nil
}

// eventsFor loads event logs for a set of queries in one round trip,
// grouped by query id and ordered by insertion.
func (r *queryRepository) eventsFor(ctx context.Context, queryIDs []string) (map[string][]domain.QueryEvent, error) {
	const stmt = `
        SELECT id, query_id, sender, sender_role, message, action, date
        FROM query_events WHERE query_id = ANY($1) ORDER BY query_id, id`
	rows, err := r.pool.Query(ctx, stmt, queryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.QueryEvent, len(queryIDs))
	for rows.Next() {
		var (
			event domain.QueryEvent
			id    int64
		)
		if err := rows.Scan(
			&id,
			&event.QueryID,
			&event.Sender,
			&event.SenderRole,
			&event.Message,
			&event.Action,
			&event.Date,
		); err != nil {
			return nil, err
		}
		event.ID = strconv.FormatInt(id, 10)
		result[event.QueryID] = append(result[event.QueryID], event)
	}
	return result, rows.Err()
}

func scanQueries(rows pgx.Rows) ([]domain.Query, error) {
	var result []domain.Query
	for rows.Next() {
		var query domain.Query
		if err := rows.Scan(
			&query.ID,
			&query.Title,
			&query.Description,
			&query.Status,
			&query.SubmittedBy,
			&query.AssignedTo,
			&query.LegacyAnswer,
			&query.CreatedAt,
			&query.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, query)
	}
	return result, rows.Err()
}
