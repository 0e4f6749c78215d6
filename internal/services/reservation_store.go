package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
)

const pqUniqueViolation = "23505"

type ReservationStore struct {
	db *sql.DB
}

func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

const reservationColumns = `id, event_id, user_id, status, total_members, cost_per_member, total_cost,
			members, joined_at, cancelled_at, cancellation_reason`

// FindLatestForUpdate locks the user's most recent reservation for the event.
func (s *ReservationStore) FindLatestForUpdate(ctx context.Context, tx *sql.Tx, userID, eventID string) (*models.Reservation, error) {
	reservation, err := scanReservation(tx.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE user_id = $1 AND event_id = $2
		ORDER BY joined_at DESC
		LIMIT 1
		FOR UPDATE`, userID, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s has no reservation for event %s", ErrReservationNotFound, userID, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock reservation: %w", err)
	}
	return reservation, nil
}

func (s *ReservationStore) ExistsActive(ctx context.Context, q database.Querier, userID, eventID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE user_id = $1 AND event_id = $2 AND status = ANY($3)
		)`, userID, eventID, pq.Array(models.ActiveReservationStatuses)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active reservation: %w", err)
	}
	return exists, nil
}

// Insert stores a new reservation. The partial unique index on active
// (event_id, user_id) pairs surfaces as ErrAlreadyJoined.
func (s *ReservationStore) Insert(ctx context.Context, tx *sql.Tx, r *models.Reservation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (id, event_id, user_id, status, total_members, cost_per_member, total_cost, members, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.EventID, r.UserID, r.Status, r.TotalMembers, r.CostPerMember, r.TotalCost, r.Members, r.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: event %s", ErrAlreadyJoined, r.EventID)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// MarkCancelled moves an active reservation to cancelled. Zero affected rows
// means another request cancelled it first.
func (s *ReservationStore) MarkCancelled(ctx context.Context, tx *sql.Tx, reservationID, reason string, at time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE reservations
		SET status = $1, cancelled_at = $2, cancellation_reason = $3
		WHERE id = $4 AND status = ANY($5)`,
		models.ReservationStatusCancelled, at, nullString(reason), reservationID, pq.Array(models.ActiveReservationStatuses))
	if err != nil {
		return fmt.Errorf("cancel reservation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyCancelled, reservationID)
	}
	return nil
}

// ListByUser returns the user's reservations, most recent first.
func (s *ReservationStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE user_id = $1
		ORDER BY joined_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *reservation)
	}
	return reservations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r           models.Reservation
		cancelledAt sql.NullTime
		reason      sql.NullString
	)
	err := row.Scan(&r.ID, &r.EventID, &r.UserID, &r.Status, &r.TotalMembers, &r.CostPerMember, &r.TotalCost,
		&r.Members, &r.JoinedAt, &cancelledAt, &reason)
	if err != nil {
		return nil, err
	}

	if cancelledAt.Valid {
		r.CancelledAt = &cancelledAt.Time
	}
	r.CancellationReason = reason.String
	return &r, nil
}
