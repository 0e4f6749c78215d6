package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{"id", "status", "host_id", "event_datetime", "min_age", "max_age", "gender_rule_enabled",
	"allowed_genders", "cost_per_attendee", "min_group_size", "max_group_size"}

func TestPostgresEventReader(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewPostgresEventReader()
	start := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)

	t.Run("lock event with bounds", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1 FOR UPDATE").
			WithArgs("event-1").
			WillReturnRows(sqlmock.NewRows(eventColumns).
				AddRow("event-1", "published", "host-1", start, 21, 35, true, "{female,non_binary}", "20.00", 1, 10))
		mock.ExpectRollback()

		tx, err := db.Begin()
		require.NoError(t, err)
		event, err := reader.LockEvent(ctx, tx, "event-1")
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())

		assert.Equal(t, "host-1", event.HostID)
		assert.Equal(t, 21, *event.MinAge)
		assert.Equal(t, 35, *event.MaxAge)
		assert.Equal(t, []string{"female", "non_binary"}, event.AllowedGenders)
		assert.Equal(t, "20", event.CostPerAttendee.String())
		assert.Equal(t, 10, *event.MaxGroupSize)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unbounded event", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM events WHERE id = \\$1").
			WithArgs("event-2").
			WillReturnRows(sqlmock.NewRows(eventColumns).
				AddRow("event-2", "published", "host-1", start, nil, nil, false, nil, "0", nil, nil))

		event, err := reader.GetEvent(ctx, db, "event-2")
		require.NoError(t, err)
		assert.Nil(t, event.MinAge)
		assert.Nil(t, event.MaxGroupSize)
		assert.Equal(t, 1, event.MinGroupSize)
		assert.True(t, event.Capacity().Unlimited())
	})

	t.Run("missing event", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM events").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(eventColumns))

		_, err := reader.GetEvent(ctx, db, "nope")
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresUserReader(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewPostgresUserReader()

	t.Run("user with profile", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, EXTRACT\\(YEAR FROM age\\(date_of_birth\\)\\)::int, gender FROM users WHERE id = \\$1").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "age", "gender"}).AddRow("user-1", 28, "female"))

		user, err := reader.GetUser(ctx, db, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 28, *user.Age)
		assert.Equal(t, "female", user.Gender)
	})

	t.Run("user without date of birth", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("user-2").
			WillReturnRows(sqlmock.NewRows([]string{"id", "age", "gender"}).AddRow("user-2", nil, nil))

		user, err := reader.GetUser(ctx, db, "user-2")
		require.NoError(t, err)
		assert.Nil(t, user.Age)
		assert.Empty(t, user.Gender)
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "age", "gender"}))

		_, err := reader.GetUser(ctx, db, "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
