package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus
const (
	ReservationStatusInterested = "interested"
	ReservationStatusConfirmed  = "confirmed"
	ReservationStatusCancelled  = "cancelled"
)

// ActiveReservationStatuses hold seats and block a second join by the same user.
var ActiveReservationStatuses = []string{ReservationStatusInterested, ReservationStatusConfirmed}

// IsActiveReservationStatus reports whether status still holds seats.
func IsActiveReservationStatus(status string) bool {
	return status == ReservationStatusInterested || status == ReservationStatusConfirmed
}

// MemberDescriptor describes one physical attendee covered by a reservation.
type MemberDescriptor struct {
	Name          string `json:"name" validate:"required,notblank,max=120"`
	Email         string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Contact       string `json:"contact,omitempty" validate:"omitempty,max=64"`
	IDDocumentRef string `json:"id_document_ref,omitempty" validate:"omitempty,max=255"`
}

// Members is the per-seat snapshot stored with a reservation.
type Members []MemberDescriptor

// Value implements driver.Valuer for Members
func (m Members) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for Members
func (m *Members) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("members: type assertion to []byte failed")
	}

	return json.Unmarshal(b, m)
}

// Reservation is one user's booking for an event, covering one or more members.
type Reservation struct {
	ID                 string          `json:"id" db:"id"`
	EventID            string          `json:"event_id" db:"event_id"`
	UserID             string          `json:"user_id" db:"user_id"`
	Status             string          `json:"status" db:"status"`
	TotalMembers       int             `json:"total_members" db:"total_members"`
	CostPerMember      decimal.Decimal `json:"cost_per_member" db:"cost_per_member"`
	TotalCost          decimal.Decimal `json:"total_cost" db:"total_cost"`
	Members            Members         `json:"members" db:"members"`
	JoinedAt           time.Time       `json:"joined_at" db:"joined_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
}

// ReservationResult is returned by a successful join.
type ReservationResult struct {
	ReservationID string          `json:"reservation_id"`
	Status        string          `json:"status"`
	TotalMembers  int             `json:"total_members"`
	CostPerMember decimal.Decimal `json:"cost_per_member"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Balance       decimal.Decimal `json:"balance"`
}

// RefundResult is returned by a successful cancellation.
type RefundResult struct {
	ReservationID  string          `json:"reservation_id"`
	Status         string          `json:"status"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Balance        decimal.Decimal `json:"balance"`
}
