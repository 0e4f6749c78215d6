package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
)

// EventReader reads the event catalogue. LockEvent takes the row lock that
// serialises joins on the same event.
type EventReader interface {
	GetEvent(ctx context.Context, q database.Querier, eventID string) (*models.EventSnapshot, error)
	LockEvent(ctx context.Context, tx *sql.Tx, eventID string) (*models.EventSnapshot, error)
}

type PostgresEventReader struct{}

func NewPostgresEventReader() *PostgresEventReader {
	return &PostgresEventReader{}
}

var _ EventReader = (*PostgresEventReader)(nil)

const selectEventSnapshot = `
		SELECT id, status, host_id, event_datetime, min_age, max_age, gender_rule_enabled,
			allowed_genders, cost_per_attendee, min_group_size, max_group_size
		FROM events
		WHERE id = $1`

func (r *PostgresEventReader) GetEvent(ctx context.Context, q database.Querier, eventID string) (*models.EventSnapshot, error) {
	return scanEventSnapshot(q.QueryRowContext(ctx, selectEventSnapshot, eventID), eventID)
}

func (r *PostgresEventReader) LockEvent(ctx context.Context, tx *sql.Tx, eventID string) (*models.EventSnapshot, error) {
	return scanEventSnapshot(tx.QueryRowContext(ctx, selectEventSnapshot+`
		FOR UPDATE`, eventID), eventID)
}

func scanEventSnapshot(row *sql.Row, eventID string) (*models.EventSnapshot, error) {
	var (
		event          models.EventSnapshot
		minAge, maxAge sql.NullInt64
		maxGroupSize   sql.NullInt64
		minGroupSize   sql.NullInt64
		allowed        []string
	)

	err := row.Scan(&event.ID, &event.Status, &event.HostID, &event.EventDatetime, &minAge, &maxAge,
		&event.GenderRuleEnabled, pq.Array(&allowed), &event.CostPerAttendee, &minGroupSize, &maxGroupSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}

	event.MinAge = nullIntPtr(minAge)
	event.MaxAge = nullIntPtr(maxAge)
	event.MaxGroupSize = nullIntPtr(maxGroupSize)
	event.AllowedGenders = allowed
	event.MinGroupSize = 1
	if minGroupSize.Valid {
		event.MinGroupSize = int(minGroupSize.Int64)
	}
	return &event, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
