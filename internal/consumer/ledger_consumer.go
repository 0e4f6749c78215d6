package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/olosevents/backend/internal/models"
	"github.com/olosevents/backend/internal/services"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	RoutingKeyCredit = "ledger.credit"
	RoutingKeyDebit  = "ledger.debit"
)

// LedgerKeys are the routing keys the ledger queue is bound to.
var LedgerKeys = []string{RoutingKeyCredit, RoutingKeyDebit}

// LedgerWriter applies standalone ledger mutations such as registration
// bonuses, purchases and referral rewards.
type LedgerWriter interface {
	Credit(ctx context.Context, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error)
	Debit(ctx context.Context, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error)
}

type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// LedgerCommand is published by the rest of the platform, e.g.
// {"event":"ledger.credit","version":1,"data":{"user_id":"u1","amount":"50","kind":"registration_bonus"}}
type LedgerCommand struct {
	Event   string `json:"event"`
	Version int    `json:"version"`
	Data    struct {
		UserID      string                 `json:"user_id"`
		Amount      decimal.Decimal        `json:"amount"`
		Kind        models.TransactionKind `json:"kind"`
		ReferenceID string                 `json:"reference_id"`
		Metadata    models.Metadata        `json:"metadata"`
	} `json:"data"`
}

type ledgerFunc func(ctx context.Context, userID string, amount decimal.Decimal, kind models.TransactionKind, referenceID string, metadata models.Metadata) (*models.LedgerTransaction, error)

type LedgerConsumer struct {
	ledger LedgerWriter
	source DeliverySource
}

func NewLedgerConsumer(ledger LedgerWriter, source DeliverySource) *LedgerConsumer {
	return &LedgerConsumer{ledger: ledger, source: source}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *LedgerConsumer) Run(ctx context.Context) error {
	msgs, err := c.source.Deliveries(ctx)
	if err != nil {
		return err
	}
	go func() {
		for d := range msgs {
			c.handle(ctx, d)
		}
		log.Printf("[LEDGER-CONSUMER] delivery channel closed")
	}()
	return nil
}

func (c *LedgerConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var apply ledgerFunc
	switch d.RoutingKey {
	case RoutingKeyCredit:
		apply = c.ledger.Credit
	case RoutingKeyDebit:
		apply = c.ledger.Debit
	default:
		_ = d.Ack(false)
		return
	}

	var cmd LedgerCommand
	if err := json.Unmarshal(d.Body, &cmd); err != nil {
		log.Printf("[LEDGER-CONSUMER] unmarshal error: %v", err)
		_ = d.Nack(false, false)
		return
	}
	if cmd.Data.Kind == models.KindEventJoin || cmd.Data.Kind == models.KindEventRefund {
		log.Printf("[LEDGER-CONSUMER] %s kind is reserved for reservations", cmd.Data.Kind)
		_ = d.Nack(false, false)
		return
	}
	if cmd.Data.UserID == "" {
		log.Printf("[LEDGER-CONSUMER] invalid command payload on %s", d.RoutingKey)
		_ = d.Ack(false)
		return
	}

	entry, err := apply(ctx, cmd.Data.UserID, cmd.Data.Amount, cmd.Data.Kind, cmd.Data.ReferenceID, cmd.Data.Metadata)
	switch {
	case err == nil:
		log.Printf("[LEDGER-CONSUMER] %s %s applied for user %s, balance %s", d.RoutingKey, entry.Amount, entry.UserID, entry.BalanceAfter)
		_ = d.Ack(false)
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInsufficientBalance):
		// Redelivery cannot succeed.
		log.Printf("[LEDGER-CONSUMER] %s rejected for user %s: %v", d.RoutingKey, cmd.Data.UserID, err)
		_ = d.Nack(false, false)
	default:
		log.Printf("[LEDGER-CONSUMER] %s failed for user %s, requeueing: %v", d.RoutingKey, cmd.Data.UserID, err)
		_ = d.Nack(false, true)
	}
}
