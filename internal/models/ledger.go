package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a ledger transaction relative to the user's balance.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// TransactionKind classifies why a balance changed.
type TransactionKind string

const (
	KindRegistrationBonus TransactionKind = "registration_bonus"
	KindEventJoin         TransactionKind = "event_join"
	KindEventRefund       TransactionKind = "event_refund"
	KindPurchase          TransactionKind = "purchase"
	KindReferralBonus     TransactionKind = "referral_bonus"
	KindProfileCheck      TransactionKind = "profile_check"
)

// Valid reports whether k is one of the known transaction kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindRegistrationBonus, KindEventJoin, KindEventRefund,
		KindPurchase, KindReferralBonus, KindProfileCheck:
		return true
	}
	return false
}

// TransactionStatus
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// UserLedger is the per-user balance aggregate. Balance always equals
// TotalEarned - TotalSpent and never drops below zero.
type UserLedger struct {
	UserID      string          `json:"user_id" db:"user_id"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	TotalEarned decimal.Decimal `json:"total_earned" db:"total_earned"`
	TotalSpent  decimal.Decimal `json:"total_spent" db:"total_spent"`
	Version     int             `json:"-" db:"version"` // for optimistic locking
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// LedgerTransaction is one immutable row of the append-only transaction log.
type LedgerTransaction struct {
	ID            string          `json:"id" db:"id"`
	Seq           int64           `json:"-" db:"seq"`
	UserID        string          `json:"user_id" db:"user_id"`
	Direction     Direction       `json:"direction" db:"direction"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	Kind          TransactionKind `json:"transaction_kind" db:"kind"`
	ReferenceID   string          `json:"reference_id,omitempty" db:"reference_id"`
	Metadata      Metadata        `json:"metadata,omitempty" db:"metadata"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// SignedAmount returns the amount with the sign of its direction.
func (t LedgerTransaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
