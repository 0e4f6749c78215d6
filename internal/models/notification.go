package models

import "time"

// ReservationEventType
const (
	ReservationEventJoined    = "reservation.joined"
	ReservationEventCancelled = "reservation.cancelled"
)

// ReservationNotification is the payload delivered to an event host after a
// committed join or cancellation.
type ReservationNotification struct {
	Type          string    `json:"type"`
	EventID       string    `json:"event_id"`
	HostID        string    `json:"host_id"`
	UserID        string    `json:"user_id"`
	ReservationID string    `json:"reservation_id"`
	MemberCount   int       `json:"member_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}
