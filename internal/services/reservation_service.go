package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olosevents/backend/internal/audit"
	"github.com/olosevents/backend/internal/config"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NotificationPort delivers host notifications. Calls happen after commit and
// their errors are only logged.
type NotificationPort interface {
	NotifyHostOfJoin(ctx context.Context, n models.ReservationNotification) error
	NotifyHostOfCancellation(ctx context.Context, n models.ReservationNotification) error
}

// ChatPort manages event chat membership.
type ChatPort interface {
	AddUserToEventChat(ctx context.Context, eventID, userID string) error
	RemoveUserFromEventChat(ctx context.Context, eventID, userID string) error
}

type ReservationServiceDeps struct {
	DB          *sql.DB
	UnitOfWork  database.UnitOfWork
	Ledger      *LedgerService
	Capacity    *CapacityTracker
	Store       *ReservationStore
	Events      EventReader
	Users       UserReader
	Notifier    NotificationPort
	Chat        ChatPort
	RateLimiter *JoinRateLimiter
	Config      *config.ReservationConfig
	Audit       *audit.Logger
}

// ReservationService coordinates joins and cancellations. All seat, ledger
// and reservation changes for one request commit or roll back together.
type ReservationService struct {
	db        *sql.DB
	uow       database.UnitOfWork
	ledger    *LedgerService
	capacity  *CapacityTracker
	store     *ReservationStore
	events    EventReader
	users     UserReader
	notifier  NotificationPort
	chat      ChatPort
	limiter   *JoinRateLimiter
	validator *ValidationHelper
	cfg       *config.ReservationConfig
	audit     *audit.Logger
	now       func() time.Time

	sideEffects sync.WaitGroup
}

func NewReservationService(deps ReservationServiceDeps) *ReservationService {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultReservationConfig()
	}
	auditLogger := deps.Audit
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &ReservationService{
		db:        deps.DB,
		uow:       deps.UnitOfWork,
		ledger:    deps.Ledger,
		capacity:  deps.Capacity,
		store:     deps.Store,
		events:    deps.Events,
		users:     deps.Users,
		notifier:  deps.Notifier,
		chat:      deps.Chat,
		limiter:   deps.RateLimiter,
		validator: NewValidationHelper(),
		cfg:       cfg,
		audit:     auditLogger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// JoinEvent reserves one seat per member for userID and debits the total cost.
// The event row is locked first and the ledger row second.
func (s *ReservationService) JoinEvent(ctx context.Context, userID, eventID string, members []models.MemberDescriptor) (*models.ReservationResult, error) {
	ctx, span := tracer.Start(ctx, "reservation.join", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("event.id", eventID),
		attribute.Int("reservation.members", len(members)),
	))
	defer span.End()

	if err := s.limiter.Check(ctx, userID); err != nil {
		return nil, s.fail(span, "join", userID, eventID, err)
	}

	var (
		event       *models.EventSnapshot
		reservation *models.Reservation
		entry       *models.LedgerTransaction
	)

	err := s.uow.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		now := s.now()

		event, err = s.events.LockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventStatusPublished {
			return fmt.Errorf("%w: status is %s", ErrEventNotJoinable, event.Status)
		}
		if !event.EventDatetime.After(now) {
			return fmt.Errorf("%w: event started at %s", ErrEventNotJoinable, event.EventDatetime.Format(time.RFC3339))
		}

		if !validAmount(event.CostPerAttendee) {
			return fmt.Errorf("%w: event %s costs %s per attendee", ErrInvalidAmount, eventID, event.CostPerAttendee)
		}

		if event.HostID == userID {
			return ErrNotEligible
		}

		if err := s.checkEligibility(ctx, tx, event, userID); err != nil {
			return err
		}

		exists, err := s.store.ExistsActive(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: event %s", ErrAlreadyJoined, eventID)
		}

		if err := s.validator.ValidateMembers(members, s.cfg.MaxMembers); err != nil {
			return err
		}

		totalMembers := len(members)
		totalCost := event.CostPerAttendee.Mul(decimal.NewFromInt(int64(totalMembers)))

		ok, err := s.capacity.HasCapacity(ctx, tx, event.Capacity(), totalMembers)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d seats requested for event %s", ErrCapacityExceeded, totalMembers, eventID)
		}

		entry, err = s.ledger.DebitTx(ctx, tx, userID, totalCost, models.KindEventJoin, eventID, models.Metadata{
			"total_members":   totalMembers,
			"cost_per_member": event.CostPerAttendee.String(),
		})
		if err != nil {
			return err
		}

		reservation = &models.Reservation{
			ID:            uuid.New().String(),
			EventID:       eventID,
			UserID:        userID,
			Status:        models.ReservationStatusInterested,
			TotalMembers:  totalMembers,
			CostPerMember: event.CostPerAttendee,
			TotalCost:     totalCost,
			Members:       members,
			JoinedAt:      now,
		}
		return s.store.Insert(ctx, tx, reservation)
	})
	if err != nil {
		return nil, s.fail(span, "join", userID, eventID, err)
	}

	s.limiter.Record(ctx, userID)
	s.audit.LogLedgerTransaction(entry)
	s.audit.LogReservation("RESERVATION_JOINED", reservation)
	log.Printf("[RESERVATION] User %s joined event %s with %d members, cost %s", userID, eventID, reservation.TotalMembers, reservation.TotalCost)

	notification := models.ReservationNotification{
		Type:          models.ReservationEventJoined,
		EventID:       eventID,
		HostID:        event.HostID,
		UserID:        userID,
		ReservationID: reservation.ID,
		MemberCount:   reservation.TotalMembers,
		OccurredAt:    reservation.JoinedAt,
	}
	if s.notifier != nil {
		s.dispatch(ctx, "notify host of join", func(ctx context.Context) error {
			return s.notifier.NotifyHostOfJoin(ctx, notification)
		})
	}
	if s.chat != nil {
		s.dispatch(ctx, "add user to event chat", func(ctx context.Context) error {
			return s.chat.AddUserToEventChat(ctx, eventID, userID)
		})
	}

	return &models.ReservationResult{
		ReservationID: reservation.ID,
		Status:        reservation.Status,
		TotalMembers:  reservation.TotalMembers,
		CostPerMember: reservation.CostPerMember,
		TotalCost:     reservation.TotalCost,
		Balance:       entry.BalanceAfter,
	}, nil
}

func (s *ReservationService) checkEligibility(ctx context.Context, tx *sql.Tx, event *models.EventSnapshot, userID string) error {
	if event.MinAge == nil && event.MaxAge == nil && !event.GenderRuleEnabled {
		return nil
	}

	user, err := s.users.GetUser(ctx, tx, userID)
	if err != nil {
		return err
	}

	if !event.AllowsAge(user.Age) {
		return fmt.Errorf("%w: age outside event range", ErrEligibilityFailed)
	}
	if !event.AllowsGender(user.Gender) {
		return fmt.Errorf("%w: gender not allowed for event", ErrEligibilityFailed)
	}
	return nil
}

// CancelReservation cancels the user's reservation and refunds its total cost
// exactly once. The reservation row is locked first and the ledger row second.
func (s *ReservationService) CancelReservation(ctx context.Context, userID, eventID, reason string) (*models.RefundResult, error) {
	ctx, span := tracer.Start(ctx, "reservation.cancel", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("event.id", eventID),
	))
	defer span.End()

	var (
		event       *models.EventSnapshot
		reservation *models.Reservation
		entry       *models.LedgerTransaction
	)

	err := s.uow.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		now := s.now()

		reservation, err = s.store.FindLatestForUpdate(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		if reservation.Status == models.ReservationStatusCancelled {
			return fmt.Errorf("%w: %s", ErrAlreadyCancelled, reservation.ID)
		}

		event, err = s.events.GetEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if event.EventDatetime.Sub(now) < s.cfg.CancellationWindow {
			return fmt.Errorf("%w: cancellations close %s before the event", ErrTooLateToCancel, s.cfg.CancellationWindow)
		}

		if err := s.store.MarkCancelled(ctx, tx, reservation.ID, reason, now); err != nil {
			return err
		}
		reservation.Status = models.ReservationStatusCancelled
		reservation.CancelledAt = &now
		reservation.CancellationReason = reason

		entry, err = s.ledger.CreditTx(ctx, tx, userID, reservation.TotalCost, models.KindEventRefund, eventID, models.Metadata{
			"reservation_id": reservation.ID,
		})
		return err
	})
	if err != nil {
		return nil, s.fail(span, "cancel", userID, eventID, err)
	}

	s.audit.LogLedgerTransaction(entry)
	s.audit.LogReservation("RESERVATION_CANCELLED", reservation)
	log.Printf("[RESERVATION] User %s cancelled reservation %s for event %s, refunded %s", userID, reservation.ID, eventID, reservation.TotalCost)

	notification := models.ReservationNotification{
		Type:          models.ReservationEventCancelled,
		EventID:       eventID,
		HostID:        event.HostID,
		UserID:        userID,
		ReservationID: reservation.ID,
		MemberCount:   reservation.TotalMembers,
		OccurredAt:    *reservation.CancelledAt,
	}
	if s.chat != nil {
		s.dispatch(ctx, "remove user from event chat", func(ctx context.Context) error {
			return s.chat.RemoveUserFromEventChat(ctx, eventID, userID)
		})
	}
	if s.notifier != nil {
		s.dispatch(ctx, "notify host of cancellation", func(ctx context.Context) error {
			return s.notifier.NotifyHostOfCancellation(ctx, notification)
		})
	}

	return &models.RefundResult{
		ReservationID:  reservation.ID,
		Status:         reservation.Status,
		RefundedAmount: reservation.TotalCost,
		Balance:        entry.BalanceAfter,
	}, nil
}

// ListReservations returns the caller's reservations, most recent first.
func (s *ReservationService) ListReservations(ctx context.Context, userID string, limit int) ([]models.Reservation, error) {
	return s.store.ListByUser(ctx, userID, s.cfg.ClampHistoryLimit(limit))
}

// GetAvailability reports seats taken and remaining for an event.
func (s *ReservationService) GetAvailability(ctx context.Context, eventID string) (*models.Availability, error) {
	event, err := s.events.GetEvent(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	return s.capacity.Availability(ctx, event.Capacity())
}

// WaitForSideEffects blocks until dispatched notifications finish or ctx ends.
func (s *ReservationService) WaitForSideEffects(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.sideEffects.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReservationService) dispatch(ctx context.Context, name string, fn func(ctx context.Context) error) {
	s.sideEffects.Add(1)
	go func() {
		defer s.sideEffects.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SideEffectTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("[NOTIFY] %v", fmt.Errorf("%w: %s: %v", ErrExternalService, name, err))
		}
	}()
}

func (s *ReservationService) fail(span trace.Span, operation, userID, eventID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.audit.LogError(operation, userID, eventID, err)
	log.Printf("[RESERVATION] %s failed for user %s on event %s: %v", operation, userID, eventID, err)
	return err
}
