package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/olosevents/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func expectReservedSeats(mock sqlmock.Sqlmock, eventID string, seats int) {
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(total_members\\), 0\\) FROM reservations WHERE event_id = \\$1 AND status = ANY\\(\\$2\\)").
		WithArgs(eventID, pq.Array(models.ActiveReservationStatuses)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(seats))
}

func TestCapacityTracker_HasCapacity(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := NewCapacityTracker(db)

	tests := []struct {
		name       string
		max        *int
		reserved   int
		additional int
		want       bool
	}{
		{"exactly fills the event", intPtr(10), 7, 3, true},
		{"one seat over", intPtr(10), 8, 3, false},
		{"empty event", intPtr(2), 0, 2, true},
		{"unlimited", nil, 0, 500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.max != nil {
				expectReservedSeats(mock, "event-1", tt.reserved)
			}

			ok, err := tracker.HasCapacity(ctx, db, models.EventCapacity{EventID: "event-1", MaxGroupSize: tt.max}, tt.additional)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("query failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").WillReturnError(errors.New("timeout"))

		_, err := tracker.HasCapacity(ctx, db, models.EventCapacity{EventID: "event-1", MaxGroupSize: intPtr(5)}, 1)
		assert.ErrorContains(t, err, "count reserved seats")
	})
}

func TestCapacityTracker_Availability(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := NewCapacityTracker(db)

	t.Run("bounded event", func(t *testing.T) {
		expectReservedSeats(mock, "event-1", 7)

		availability, err := tracker.Availability(ctx, models.EventCapacity{EventID: "event-1", MaxGroupSize: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, 7, availability.ReservedSeats)
		require.NotNil(t, availability.Remaining)
		assert.Equal(t, 3, *availability.Remaining)
	})

	t.Run("overbooked legacy data never goes negative", func(t *testing.T) {
		expectReservedSeats(mock, "event-1", 12)

		availability, err := tracker.Availability(ctx, models.EventCapacity{EventID: "event-1", MaxGroupSize: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, 0, *availability.Remaining)
	})

	t.Run("unlimited event", func(t *testing.T) {
		expectReservedSeats(mock, "event-2", 40)

		availability, err := tracker.Availability(ctx, models.EventCapacity{EventID: "event-2"})
		require.NoError(t, err)
		assert.Nil(t, availability.Remaining)
		assert.Nil(t, availability.MaxGroupSize)
	})
}
