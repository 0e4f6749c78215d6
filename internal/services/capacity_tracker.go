package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
)

// CapacityTracker answers seat questions for an event. Callers that act on the
// answer must hold the event row lock, otherwise two joins can both see room.
type CapacityTracker struct {
	db *sql.DB
}

func NewCapacityTracker(db *sql.DB) *CapacityTracker {
	return &CapacityTracker{db: db}
}

// CurrentReservedSeats sums total_members over the event's active reservations.
func (c *CapacityTracker) CurrentReservedSeats(ctx context.Context, q database.Querier, eventID string) (int, error) {
	var seats int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_members), 0)
		FROM reservations
		WHERE event_id = $1 AND status = ANY($2)`,
		eventID, pq.Array(models.ActiveReservationStatuses)).Scan(&seats)
	if err != nil {
		return 0, fmt.Errorf("count reserved seats: %w", err)
	}
	return seats, nil
}

// HasCapacity reports whether additionalSeats fit. Unlimited events always fit.
func (c *CapacityTracker) HasCapacity(ctx context.Context, q database.Querier, capacity models.EventCapacity, additionalSeats int) (bool, error) {
	if capacity.Unlimited() {
		return true, nil
	}

	reserved, err := c.CurrentReservedSeats(ctx, q, capacity.EventID)
	if err != nil {
		return false, err
	}

	return reserved+additionalSeats <= *capacity.MaxGroupSize, nil
}

// Availability is a lock-free snapshot for read APIs; it may be stale by the
// time the client acts on it.
func (c *CapacityTracker) Availability(ctx context.Context, capacity models.EventCapacity) (*models.Availability, error) {
	reserved, err := c.CurrentReservedSeats(ctx, c.db, capacity.EventID)
	if err != nil {
		return nil, err
	}

	availability := &models.Availability{
		EventID:       capacity.EventID,
		ReservedSeats: reserved,
		MaxGroupSize:  capacity.MaxGroupSize,
	}
	if !capacity.Unlimited() {
		remaining := max(*capacity.MaxGroupSize-reserved, 0)
		availability.Remaining = &remaining
	}
	return availability, nil
}
