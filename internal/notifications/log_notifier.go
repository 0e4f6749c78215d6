package notifications

import (
	"context"
	"log"

	"github.com/olosevents/backend/internal/models"
)

// LogNotifier is used when no message broker is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyHostOfJoin(_ context.Context, n models.ReservationNotification) error {
	log.Printf("[NOTIFY] Host %s: user %s joined event %s with %d members", n.HostID, n.UserID, n.EventID, n.MemberCount)
	return nil
}

func (LogNotifier) NotifyHostOfCancellation(_ context.Context, n models.ReservationNotification) error {
	log.Printf("[NOTIFY] Host %s: user %s cancelled reservation %s for event %s", n.HostID, n.UserID, n.ReservationID, n.EventID)
	return nil
}
