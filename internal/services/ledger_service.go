package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/olosevents/backend/internal/audit"
	"github.com/olosevents/backend/internal/config"
	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/olosevents/backend/internal/services")

// LedgerService owns every mutation of user_ledgers and ledger_transactions.
type LedgerService struct {
	db    *sql.DB
	uow   database.UnitOfWork
	cfg   *config.ReservationConfig
	audit *audit.Logger
	now   func() time.Time
}

func NewLedgerService(db *sql.DB, uow database.UnitOfWork, cfg *config.ReservationConfig, auditLogger *audit.Logger) *LedgerService {
	if cfg == nil {
		cfg = config.DefaultReservationConfig()
	}
	if auditLogger == nil {
		auditLogger = audit.NewLogger()
	}
	return &LedgerService{
		db:    db,
		uow:   uow,
		cfg:   cfg,
		audit: auditLogger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetBalance returns zero for users that have never been credited.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT balance
		FROM user_ledgers
		WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetLedger returns the user's aggregate, zero-valued when no row exists yet.
func (s *LedgerService) GetLedger(ctx context.Context, userID string) (*models.UserLedger, error) {
	ledger, err := scanLedger(s.db.QueryRowContext(ctx, `
		SELECT user_id, balance, total_earned, total_spent, version, updated_at
		FROM user_ledgers
		WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserLedger{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return ledger, nil
}

func (s *LedgerService) Credit(ctx context.Context, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	return s.mutate(ctx, userID, models.DirectionCredit, amount, kind, referenceID, metadata)
}

func (s *LedgerService) Debit(ctx context.Context, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	return s.mutate(ctx, userID, models.DirectionDebit, amount, kind, referenceID, metadata)
}

// CreditTx applies a credit inside a transaction owned by the caller.
func (s *LedgerService) CreditTx(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	return s.apply(ctx, tx, userID, models.DirectionCredit, amount, kind, referenceID, metadata)
}

// DebitTx applies a debit inside a transaction owned by the caller.
func (s *LedgerService) DebitTx(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	return s.apply(ctx, tx, userID, models.DirectionDebit, amount, kind, referenceID, metadata)
}

func (s *LedgerService) mutate(ctx context.Context, userID string, direction models.Direction, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	var entry *models.LedgerTransaction
	err := s.uow.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		entry, err = s.apply(ctx, tx, userID, direction, amount, kind, referenceID, metadata)
		return err
	})
	if err != nil {
		s.audit.LogError("ledger_"+string(direction), userID, referenceID, err)
		return nil, err
	}

	s.audit.LogLedgerTransaction(entry)
	return entry, nil
}

func (s *LedgerService) apply(ctx context.Context, tx *sql.Tx, userID string, direction models.Direction, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	ctx, span := tracer.Start(ctx, "ledger."+string(direction), trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("ledger.kind", string(kind)),
		attribute.String("ledger.amount", amount.String()),
	))
	defer span.End()

	entry, err := s.applyLocked(ctx, tx, userID, direction, amount, kind, referenceID, metadata)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return entry, nil
}

func (s *LedgerService) applyLocked(ctx context.Context, tx *sql.Tx, userID string, direction models.Direction, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !validAmount(amount) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	if err := s.ensureLedger(ctx, tx, userID); err != nil {
		return nil, err
	}

	ledger, err := s.lockLedger(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	before := ledger.Balance
	after := before
	earned, spent := ledger.TotalEarned, ledger.TotalSpent
	switch direction {
	case models.DirectionCredit:
		after = before.Add(amount)
		earned = earned.Add(amount)
	case models.DirectionDebit:
		if before.LessThan(amount) {
			return nil, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientBalance, before, amount)
		}
		after = before.Sub(amount)
		spent = spent.Add(amount)
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrValidation, direction)
	}

	now := s.now()
	if err := s.updateLedger(ctx, tx, userID, after, earned, spent, ledger.Version, now); err != nil {
		return nil, err
	}

	entry := &models.LedgerTransaction{
		ID:            uuid.New().String(),
		UserID:        userID,
		Direction:     direction,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Kind:          kind,
		ReferenceID:   referenceID,
		Metadata:      metadata,
		Status:        models.TransactionStatusCompleted,
		CreatedAt:     now,
	}
	if err := s.insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] %s %s for user %s (%s): %s -> %s", direction, amount, userID, kind, before, after)
	return entry, nil
}

// amountScale matches the NUMERIC(18,2) money columns.
const amountScale = 2

func validAmount(amount decimal.Decimal) bool {
	return !amount.IsNegative() && amount.Equal(amount.Truncate(amountScale))
}

func (s *LedgerService) ensureLedger(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_ledgers (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("ensure ledger: %w", err)
	}
	return nil
}

func (s *LedgerService) lockLedger(ctx context.Context, tx *sql.Tx, userID string) (*models.UserLedger, error) {
	ledger, err := scanLedger(tx.QueryRowContext(ctx, `
		SELECT user_id, balance, total_earned, total_spent, version, updated_at
		FROM user_ledgers
		WHERE user_id = $1
		FOR UPDATE`, userID))
	if err != nil {
		return nil, fmt.Errorf("lock ledger: %w", err)
	}
	return ledger, nil
}

func (s *LedgerService) updateLedger(ctx context.Context, tx *sql.Tx, userID string, balance, earned, spent decimal.Decimal, version int, now time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE user_ledgers
		SET balance = $1, total_earned = $2, total_spent = $3, version = version + 1, updated_at = $4
		WHERE user_id = $5 AND version = $6`,
		balance, earned, spent, now, userID, version)
	if err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w for ledger %s", ErrOptimisticLock, userID)
	}

	return nil
}

func (s *LedgerService) insertTransaction(ctx context.Context, tx *sql.Tx, entry *models.LedgerTransaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_transactions (id, user_id, direction, amount, balance_before, balance_after, kind, reference_id, metadata, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.UserID, string(entry.Direction), entry.Amount, entry.BalanceBefore, entry.BalanceAfter,
		string(entry.Kind), nullString(entry.ReferenceID), entry.Metadata, entry.Status, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

// GetTransactionHistory returns the user's transactions newest first.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, userID string, limit int) ([]models.LedgerTransaction, error) {
	limit = s.cfg.ClampHistoryLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ledgerTransactionColumns+`
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transaction history: %w", err)
	}
	defer rows.Close()

	return scanLedgerTransactions(rows)
}

// ReconciliationReport compares the stored aggregate with a replay of the
// completed transaction log.
type ReconciliationReport struct {
	UserID           string          `json:"user_id"`
	StoredBalance    decimal.Decimal `json:"stored_balance"`
	ReplayedBalance  decimal.Decimal `json:"replayed_balance"`
	StoredEarned     decimal.Decimal `json:"stored_total_earned"`
	ReplayedEarned   decimal.Decimal `json:"replayed_total_earned"`
	StoredSpent      decimal.Decimal `json:"stored_total_spent"`
	ReplayedSpent    decimal.Decimal `json:"replayed_total_spent"`
	TransactionCount int             `json:"transaction_count"`
	Discrepancies    []string        `json:"discrepancies,omitempty"`
	Consistent       bool            `json:"consistent"`
}

// Reconcile replays the completed log in sequence order and reports every
// mismatch against the stored aggregate, including breaks in the
// balance_before/balance_after chain.
func (s *LedgerService) Reconcile(ctx context.Context, userID string) (*ReconciliationReport, error) {
	ledger, err := s.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ledgerTransactionColumns+`
		FROM ledger_transactions
		WHERE user_id = $1 AND status = $2
		ORDER BY seq ASC`, userID, models.TransactionStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("query ledger replay: %w", err)
	}
	defer rows.Close()

	entries, err := scanLedgerTransactions(rows)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		UserID:           userID,
		StoredBalance:    ledger.Balance,
		StoredEarned:     ledger.TotalEarned,
		StoredSpent:      ledger.TotalSpent,
		ReplayedBalance:  decimal.Zero,
		ReplayedEarned:   decimal.Zero,
		ReplayedSpent:    decimal.Zero,
		TransactionCount: len(entries),
	}

	for _, entry := range entries {
		if !entry.BalanceBefore.Equal(report.ReplayedBalance) {
			report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
				"transaction %s: balance_before %s, expected %s", entry.ID, entry.BalanceBefore, report.ReplayedBalance))
		}

		report.ReplayedBalance = report.ReplayedBalance.Add(entry.SignedAmount())
		if entry.Direction == models.DirectionCredit {
			report.ReplayedEarned = report.ReplayedEarned.Add(entry.Amount)
		} else {
			report.ReplayedSpent = report.ReplayedSpent.Add(entry.Amount)
		}

		if !entry.BalanceAfter.Equal(report.ReplayedBalance) {
			report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
				"transaction %s: balance_after %s, expected %s", entry.ID, entry.BalanceAfter, report.ReplayedBalance))
		}
	}

	if !report.StoredBalance.Equal(report.ReplayedBalance) {
		report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
			"balance %s, replayed %s", report.StoredBalance, report.ReplayedBalance))
	}
	if !report.StoredEarned.Equal(report.ReplayedEarned) {
		report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
			"total_earned %s, replayed %s", report.StoredEarned, report.ReplayedEarned))
	}
	if !report.StoredSpent.Equal(report.ReplayedSpent) {
		report.Discrepancies = append(report.Discrepancies, fmt.Sprintf(
			"total_spent %s, replayed %s", report.StoredSpent, report.ReplayedSpent))
	}

	report.Consistent = len(report.Discrepancies) == 0
	if !report.Consistent {
		log.Printf("[LEDGER] Reconciliation mismatch for user %s: %d discrepancies", userID, len(report.Discrepancies))
	}
	return report, nil
}

const ledgerTransactionColumns = `id, seq, user_id, direction, amount, balance_before, balance_after, kind, reference_id, metadata, status, created_at`

func scanLedger(row *sql.Row) (*models.UserLedger, error) {
	var ledger models.UserLedger
	err := row.Scan(&ledger.UserID, &ledger.Balance, &ledger.TotalEarned, &ledger.TotalSpent, &ledger.Version, &ledger.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func scanLedgerTransactions(rows *sql.Rows) ([]models.LedgerTransaction, error) {
	var entries []models.LedgerTransaction
	for rows.Next() {
		var (
			entry       models.LedgerTransaction
			direction   string
			kind        string
			referenceID sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.Seq, &entry.UserID, &direction, &entry.Amount,
			&entry.BalanceBefore, &entry.BalanceAfter, &kind, &referenceID, &entry.Metadata,
			&entry.Status, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		entry.Direction = models.Direction(direction)
		entry.Kind = models.TransactionKind(kind)
		entry.ReferenceID = referenceID.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
