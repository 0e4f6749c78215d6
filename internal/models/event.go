package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventStatusPublished is the only event status that accepts joins.
const EventStatusPublished = "published"

// EventSnapshot is the slice of an event the reservation core needs.
type EventSnapshot struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	HostID            string          `json:"host_id"`
	EventDatetime     time.Time       `json:"event_datetime"`
	MinAge            *int            `json:"min_age,omitempty"`
	MaxAge            *int            `json:"max_age,omitempty"`
	GenderRuleEnabled bool            `json:"gender_rule_enabled"`
	AllowedGenders    []string        `json:"allowed_genders,omitempty"`
	CostPerAttendee   decimal.Decimal `json:"cost_per_attendee"`
	MinGroupSize      int             `json:"min_group_size"`
	MaxGroupSize      *int            `json:"max_group_size,omitempty"` // nil means unlimited
}

// Capacity projects the seat-related fields of the event.
func (e *EventSnapshot) Capacity() EventCapacity {
	return EventCapacity{
		EventID:         e.ID,
		MinGroupSize:    e.MinGroupSize,
		MaxGroupSize:    e.MaxGroupSize,
		CostPerAttendee: e.CostPerAttendee,
	}
}

// AllowsGender reports whether gender passes the event's gender rule.
func (e *EventSnapshot) AllowsGender(gender string) bool {
	if !e.GenderRuleEnabled {
		return true
	}
	for _, g := range e.AllowedGenders {
		if strings.EqualFold(strings.TrimSpace(g), strings.TrimSpace(gender)) {
			return true
		}
	}
	return false
}

// AllowsAge reports whether age falls inside the event's bounds. A user with an
// unknown age only passes events without age bounds.
func (e *EventSnapshot) AllowsAge(age *int) bool {
	if e.MinAge == nil && e.MaxAge == nil {
		return true
	}
	if age == nil {
		return false
	}
	if e.MinAge != nil && *age < *e.MinAge {
		return false
	}
	if e.MaxAge != nil && *age > *e.MaxAge {
		return false
	}
	return true
}

// EventCapacity is a read-only projection of an event's seat limits.
type EventCapacity struct {
	EventID         string          `json:"event_id"`
	MinGroupSize    int             `json:"min_group_size"`
	MaxGroupSize    *int            `json:"max_group_size,omitempty"`
	CostPerAttendee decimal.Decimal `json:"cost_per_attendee"`
}

// Unlimited reports whether the event has no seat cap.
func (c EventCapacity) Unlimited() bool {
	return c.MaxGroupSize == nil
}

// Availability is the capacity read model served to clients.
type Availability struct {
	EventID       string `json:"event_id"`
	ReservedSeats int    `json:"reserved_seats"`
	MaxGroupSize  *int   `json:"max_group_size,omitempty"`
	Remaining     *int   `json:"remaining,omitempty"`
}

// UserSnapshot is the slice of a user profile used by eligibility checks.
type UserSnapshot struct {
	ID     string `json:"id"`
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender"`
}
