package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/olosevents/backend/internal/models"
)

type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
}

// Logger writes one AUDIT line per ledger mutation or reservation change.
type Logger struct {
	logger *log.Logger
}

func NewLogger() *Logger {
	return &Logger{logger: log.Default()}
}

// NewLoggerTo is used by tests to capture the audit stream.
func NewLoggerTo(l *log.Logger) *Logger {
	return &Logger{logger: l}
}

func (a *Logger) LogLedgerTransaction(tx *models.LedgerTransaction) {
	a.log(Event{
		Timestamp:   tx.CreatedAt,
		EventType:   "LEDGER_" + string(tx.Direction),
		UserID:      tx.UserID,
		ReferenceID: tx.ReferenceID,
		Amount:      tx.Amount.String(),
		Status:      tx.Status,
		Details: map[string]string{
			"transaction_id": tx.ID,
			"kind":           string(tx.Kind),
			"balance_before": tx.BalanceBefore.String(),
			"balance_after":  tx.BalanceAfter.String(),
		},
	})
}

func (a *Logger) LogReservation(eventType string, r *models.Reservation) {
	a.log(Event{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		UserID:      r.UserID,
		ReferenceID: r.EventID,
		Amount:      r.TotalCost.String(),
		Status:      r.Status,
		Details: map[string]any{
			"reservation_id": r.ID,
			"total_members":  r.TotalMembers,
		},
	})
}

func (a *Logger) LogError(operation, userID, referenceID string, err error) {
	a.log(Event{
		Timestamp:   time.Now().UTC(),
		EventType:   "ERROR",
		UserID:      userID,
		ReferenceID: referenceID,
		Status:      "FAILED",
		Details: map[string]string{
			"operation": operation,
			"error":     err.Error(),
		},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	a.logger.Printf("AUDIT: %s", string(data))
}
