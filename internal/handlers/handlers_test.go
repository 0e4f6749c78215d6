package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/olosevents/backend/internal/audit"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/middleware"
	"github.com/olosevents/backend/internal/models"
	"github.com/olosevents/backend/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvents struct {
	event *models.EventSnapshot
	err   error
}

func (s stubEvents) GetEvent(context.Context, database.Querier, string) (*models.EventSnapshot, error) {
	return s.event, s.err
}

func (s stubEvents) LockEvent(context.Context, *sql.Tx, string) (*models.EventSnapshot, error) {
	return s.event, s.err
}

type testServer struct {
	router http.Handler
	mock   sqlmock.Sqlmock
}

func newTestServer(t *testing.T, events services.EventReader, userID string) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditLogger := audit.NewLoggerTo(log.New(io.Discard, "", 0))
	uow := database.NewTxManager(db)
	ledger := services.NewLedgerService(db, uow, nil, auditLogger)
	reservations := services.NewReservationService(services.ReservationServiceDeps{
		DB:         db,
		UnitOfWork: uow,
		Ledger:     ledger,
		Capacity:   services.NewCapacityTracker(db),
		Store:      services.NewReservationStore(db),
		Events:     events,
		Users:      services.NewPostgresUserReader(),
		Audit:      auditLogger,
	})

	ledgerHandler := NewLedgerHandler(ledger)
	reservationHandler := NewReservationHandler(reservations)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(middleware.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/ledger/balance", ledgerHandler.GetBalance)
	r.Get("/ledger/transactions", ledgerHandler.GetTransactions)
	r.Get("/ledger/reconciliation", ledgerHandler.Reconcile)
	r.Get("/reservations", reservationHandler.ListReservations)
	r.Get("/events/{eventId}/capacity", reservationHandler.GetCapacity)
	r.Post("/events/{eventId}/reservations", reservationHandler.JoinEvent)
	r.Post("/events/{eventId}/reservations/cancel", reservationHandler.CancelReservation)

	return &testServer{router: r, mock: mock}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) services.ErrorResponse {
	t.Helper()
	var resp services.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func futureEvent(cost int64, maxSeats *int) *models.EventSnapshot {
	return &models.EventSnapshot{
		ID:              "event-1",
		Status:          models.EventStatusPublished,
		HostID:          "host-1",
		EventDatetime:   time.Now().Add(72 * time.Hour),
		CostPerAttendee: decimal.NewFromInt(cost),
		MinGroupSize:    1,
		MaxGroupSize:    maxSeats,
	}
}

func TestLedgerHandler(t *testing.T) {
	t.Run("balance", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "user-1")
		s.mock.ExpectQuery("SELECT (.+) FROM user_ledgers WHERE user_id = \\$1").
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "total_earned", "total_spent", "version", "updated_at"}).
				AddRow("user-1", "75.50", "100", "24.50", 2, time.Now()))

		w := s.do(http.MethodGet, "/ledger/balance", "")
		require.Equal(t, http.StatusOK, w.Code)

		var ledger models.UserLedger
		decodeData(t, w, &ledger)
		assert.Equal(t, "75.5", ledger.Balance.String())
		assert.Equal(t, "24.5", ledger.TotalSpent.String())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "")

		w := s.do(http.MethodGet, "/ledger/balance", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("transactions clamp limit", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "user-1")
		s.mock.ExpectQuery("SELECT (.+) FROM ledger_transactions WHERE user_id = \\$1 ORDER BY seq DESC LIMIT \\$2").
			WithArgs("user-1", 100).
			WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "user_id", "direction", "amount", "balance_before",
				"balance_after", "kind", "reference_id", "metadata", "status", "created_at"}))

		w := s.do(http.MethodGet, "/ledger/transactions?limit=500", "")
		require.Equal(t, http.StatusOK, w.Code)
		var entries []models.LedgerTransaction
		decodeData(t, w, &entries)
		assert.Empty(t, entries)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("transactions reject bad limit", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "user-1")

		w := s.do(http.MethodGet, "/ledger/transactions?limit=ten", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReservationHandler_JoinEvent(t *testing.T) {
	t.Run("free event created", func(t *testing.T) {
		s := newTestServer(t, stubEvents{event: futureEvent(0, nil)}, "user-1")

		s.mock.ExpectBegin()
		s.mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		s.mock.ExpectExec("INSERT INTO user_ledgers").WillReturnResult(sqlmock.NewResult(0, 1))
		s.mock.ExpectQuery("SELECT (.+) FROM user_ledgers WHERE user_id = \\$1 FOR UPDATE").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "total_earned", "total_spent", "version", "updated_at"}).
				AddRow("user-1", "0", "0", "0", 0, time.Now()))
		s.mock.ExpectExec("UPDATE user_ledgers").WillReturnResult(sqlmock.NewResult(0, 1))
		s.mock.ExpectExec("INSERT INTO ledger_transactions").WillReturnResult(sqlmock.NewResult(1, 1))
		s.mock.ExpectExec("INSERT INTO reservations").WillReturnResult(sqlmock.NewResult(1, 1))
		s.mock.ExpectCommit()

		w := s.do(http.MethodPost, "/events/event-1/reservations", `{"members":[{"name":"Ada"},{"name":"Grace"}]}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var result models.ReservationResult
		decodeData(t, w, &result)
		assert.Equal(t, 2, result.TotalMembers)
		assert.Equal(t, models.ReservationStatusInterested, result.Status)
		assert.True(t, result.TotalCost.IsZero())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("capacity exceeded is a conflict", func(t *testing.T) {
		seats := 1
		s := newTestServer(t, stubEvents{event: futureEvent(20, &seats)}, "user-1")

		s.mock.ExpectBegin()
		s.mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		s.mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(1))
		s.mock.ExpectRollback()

		w := s.do(http.MethodPost, "/events/event-1/reservations", `{"members":[{"name":"Ada"}]}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "capacity_exceeded", decodeError(t, w).Code)
	})

	t.Run("invalid member reports the field", func(t *testing.T) {
		s := newTestServer(t, stubEvents{event: futureEvent(20, nil)}, "user-1")

		s.mock.ExpectBegin()
		s.mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		s.mock.ExpectRollback()

		w := s.do(http.MethodPost, "/events/event-1/reservations", `{"members":[{"name":"Ada"},{"name":"Bob","email":"bob@"}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "invalid_member", resp.Code)
		assert.Contains(t, resp.Details, "members[1].email")
	})

	t.Run("missing event", func(t *testing.T) {
		s := newTestServer(t, stubEvents{err: services.ErrEventNotFound}, "user-1")

		s.mock.ExpectBegin()
		s.mock.ExpectRollback()

		w := s.do(http.MethodPost, "/events/nope/reservations", `{"members":[{"name":"Ada"}]}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "event_not_found", decodeError(t, w).Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "user-1")

		w := s.do(http.MethodPost, "/events/event-1/reservations", `{"members":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do(http.MethodPost, "/events/event-1/reservations", `{"members":[],"seats":3}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReservationHandler_CancelReservation(t *testing.T) {
	t.Run("no reservation", func(t *testing.T) {
		s := newTestServer(t, stubEvents{event: futureEvent(20, nil)}, "user-1")

		s.mock.ExpectBegin()
		s.mock.ExpectQuery("SELECT (.+) FROM reservations").
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "total_members", "cost_per_member",
				"total_cost", "members", "joined_at", "cancelled_at", "cancellation_reason"}))
		s.mock.ExpectRollback()

		w := s.do(http.MethodPost, "/events/event-1/reservations/cancel", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "reservation_not_found", decodeError(t, w).Code)
	})

	t.Run("reason too long", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "user-1")

		w := s.do(http.MethodPost, "/events/event-1/reservations/cancel", fmt.Sprintf(`{"reason":%q}`, strings.Repeat("a", 501)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Details, "reason")
	})
}

func TestReservationHandler_ReadModels(t *testing.T) {
	t.Run("capacity", func(t *testing.T) {
		seats := 10
		s := newTestServer(t, stubEvents{event: futureEvent(20, &seats)}, "user-1")
		s.mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(4))

		w := s.do(http.MethodGet, "/events/event-1/capacity", "")
		require.Equal(t, http.StatusOK, w.Code)

		var availability models.Availability
		decodeData(t, w, &availability)
		assert.Equal(t, 4, availability.ReservedSeats)
		assert.Equal(t, 6, *availability.Remaining)
	})

	t.Run("reservations list", func(t *testing.T) {
		s := newTestServer(t, stubEvents{}, "user-1")
		s.mock.ExpectQuery("SELECT (.+) FROM reservations WHERE user_id = \\$1").
			WithArgs("user-1", 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "total_members", "cost_per_member",
				"total_cost", "members", "joined_at", "cancelled_at", "cancellation_reason"}).
				AddRow("res-1", "event-1", "user-1", "interested", 1, "20", "20", `[{"name":"Ada"}]`, time.Now(), nil, nil))

		w := s.do(http.MethodGet, "/reservations", "")
		require.Equal(t, http.StatusOK, w.Code)

		var reservations []models.Reservation
		decodeData(t, w, &reservations)
		require.Len(t, reservations, 1)
		assert.Equal(t, "Ada", reservations[0].Members[0].Name)
	})
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient balance", fmt.Errorf("%w: balance 30", services.ErrInsufficientBalance), http.StatusPaymentRequired, "insufficient_balance"},
		{"already joined", services.ErrAlreadyJoined, http.StatusConflict, "already_joined"},
		{"already cancelled", services.ErrAlreadyCancelled, http.StatusConflict, "already_cancelled"},
		{"too late", services.ErrTooLateToCancel, http.StatusConflict, "too_late_to_cancel"},
		{"host", services.ErrNotEligible, http.StatusForbidden, "not_eligible"},
		{"eligibility", services.ErrEligibilityFailed, http.StatusForbidden, "eligibility_failed"},
		{"user missing", services.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"negative amount", services.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
		{"rate limited", services.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "pq:")
			}
		})
	}
}
