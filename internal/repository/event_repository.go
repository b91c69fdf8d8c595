package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"service-schedule/internal/domain"
)

// FreeformQuery selects a user's freeform events that intersect [From, To].
type FreeformQuery struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
}

// MaterializedFilter selects a user's materialized rows of one course whose
// start lies in [From, To].
type MaterializedFilter struct {
	UserID   uuid.UUID
	CourseID int64
	From     time.Time
	To       time.Time
}

type EventRepository interface {
	// InsertBatch writes all events in one statement, skipping ids that
	// already exist, and reports how many rows were new.
	InsertBatch(ctx context.Context, events []domain.PersistedEvent) (int64, error)
	DeleteMaterialized(ctx context.Context, filter MaterializedFilter) (int64, error)
	QueryFreeform(ctx context.Context, query FreeformQuery) ([]domain.PersistedEvent, error)

	Create(ctx context.Context, event domain.PersistedEvent) error
	// UpdateFreeform and DeleteFreeform only touch freeform rows owned by
	// the user and return ErrNotFound otherwise.
	UpdateFreeform(ctx context.Context, event domain.PersistedEvent) (domain.PersistedEvent, error)
	DeleteFreeform(ctx context.Context, userID, eventID uuid.UUID) error
}

type eventRow struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	CourseID    sql.NullInt64  `db:"course_id"`
	InstanceKey sql.NullString `db:"instance_key"`
	Title       string         `db:"title"`
	Start       time.Time      `db:"start_time"`
	End         time.Time      `db:"end_time"`
}

func newEventRow(event domain.PersistedEvent) eventRow {
	row := eventRow{
		ID:     event.ID,
		UserID: event.UserID,
		Title:  event.Title,
		Start:  event.Start,
		End:    event.End,
	}
	if event.CourseID != nil {
		row.CourseID = sql.NullInt64{Int64: *event.CourseID, Valid: true}
	}
	if event.InstanceKey != "" {
		row.InstanceKey = sql.NullString{String: event.InstanceKey, Valid: true}
	}
	return row
}

func (r eventRow) toDomain() domain.PersistedEvent {
	event := domain.PersistedEvent{
		ID:          r.ID,
		UserID:      r.UserID,
		InstanceKey: r.InstanceKey.String,
		Title:       r.Title,
		Start:       r.Start,
		End:         r.End,
	}
	if r.CourseID.Valid {
		courseID := r.CourseID.Int64
		event.CourseID = &courseID
	}
	return event
}

type EventPostgresRepository struct {
	execer Execer
}

func NewEventPostgresRepository(execer Execer) *EventPostgresRepository {
	return &EventPostgresRepository{execer: execer}
}

func (r *EventPostgresRepository) InsertBatch(ctx context.Context, events []domain.PersistedEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	const query = `
INSERT INTO schedule.events (id, user_id, course_id, instance_key, title, start_time, end_time)
VALUES (:id, :user_id, :course_id, :instance_key, :title, :start_time, :end_time)
ON CONFLICT (id) DO NOTHING
`

	rows := make([]eventRow, 0, len(events))
	for _, event := range events {
		rows = append(rows, newEventRow(event))
	}

	result, err := sqlx.NamedExecContext(ctx, r.execer, query, rows)
	if err != nil {
		return 0, errors.Wrap(err, "insert events")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "insert events")
	}
	return affected, nil
}

func (r *EventPostgresRepository) DeleteMaterialized(ctx context.Context, filter MaterializedFilter) (int64, error) {
	const query = `
DELETE FROM schedule.events
WHERE user_id = $1
  AND course_id = $2
  AND start_time BETWEEN $3 AND $4
`

	result, err := r.execer.ExecContext(ctx, query, filter.UserID, filter.CourseID, filter.From, filter.To)
	if err != nil {
		return 0, errors.Wrap(err, "delete materialized events")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "delete materialized events")
	}
	return affected, nil
}

func (r *EventPostgresRepository) QueryFreeform(ctx context.Context, q FreeformQuery) ([]domain.PersistedEvent, error) {
	const query = `
SELECT id, user_id, course_id, instance_key, title, start_time, end_time
FROM schedule.events
WHERE user_id = $1
  AND course_id IS NULL
  AND start_time <= $3
  AND end_time >= $2
ORDER BY start_time ASC, id ASC
`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, r.execer, &rows, query, q.UserID, q.From, q.To); err != nil {
		return nil, errors.Wrap(err, "query freeform events")
	}

	events := make([]domain.PersistedEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toDomain())
	}
	return events, nil
}

func (r *EventPostgresRepository) Create(ctx context.Context, event domain.PersistedEvent) error {
	const query = `
INSERT INTO schedule.events (id, user_id, course_id, instance_key, title, start_time, end_time)
VALUES (:id, :user_id, :course_id, :instance_key, :title, :start_time, :end_time)
`

	if _, err := sqlx.NamedExecContext(ctx, r.execer, query, newEventRow(event)); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "create event")
	}
	return nil
}

func (r *EventPostgresRepository) UpdateFreeform(ctx context.Context, event domain.PersistedEvent) (domain.PersistedEvent, error) {
	const query = `
UPDATE schedule.events
SET title = $3,
    start_time = $4,
    end_time = $5,
    updated_at = now()
WHERE id = $1
  AND user_id = $2
  AND course_id IS NULL
RETURNING id, user_id, course_id, instance_key, title, start_time, end_time
`

	var row eventRow
	err := sqlx.GetContext(ctx, r.execer, &row, query, event.ID, event.UserID, event.Title, event.Start, event.End)
	if err != nil {
		if isNoRows(err) {
			return domain.PersistedEvent{}, ErrNotFound
		}
		return domain.PersistedEvent{}, errors.Wrap(err, "update event")
	}
	return row.toDomain(), nil
}

func (r *EventPostgresRepository) DeleteFreeform(ctx context.Context, userID, eventID uuid.UUID) error {
	const query = `
DELETE FROM schedule.events
WHERE id = $1
  AND user_id = $2
  AND course_id IS NULL
`

	result, err := r.execer.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
