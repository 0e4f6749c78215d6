package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger and reservation services
// wraps exactly one of these, so callers can branch with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrState               = errors.New("invalid state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrEligibility         = errors.New("not eligible")
	ErrExternalService     = errors.New("external service error")
	ErrRateLimited         = errors.New("rate limit exceeded")
)

var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be non-negative with at most two decimal places", ErrValidation)
	ErrInvalidMember       = fmt.Errorf("%w: invalid member", ErrValidation)
	ErrInvalidMemberCount  = fmt.Errorf("%w: invalid member count", ErrValidation)
	ErrInvalidKind         = fmt.Errorf("%w: unknown transaction kind", ErrValidation)
	ErrEventNotFound       = fmt.Errorf("%w: event", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("%w: reservation", ErrNotFound)
	ErrEventNotJoinable    = fmt.Errorf("%w: event is not open for joining", ErrState)
	ErrAlreadyJoined       = fmt.Errorf("%w: user already joined this event", ErrState)
	ErrAlreadyCancelled    = fmt.Errorf("%w: reservation already cancelled", ErrState)
	ErrTooLateToCancel     = fmt.Errorf("%w: cancellation window has closed", ErrState)
	ErrNotEligible         = fmt.Errorf("%w: host cannot join own event", ErrEligibility)
	ErrEligibilityFailed   = fmt.Errorf("%w: eligibility requirements not met", ErrEligibility)
	ErrOptimisticLock      = errors.New("optimistic lock failed")
)

// InvalidMemberError reports which member descriptor failed validation.
type InvalidMemberError struct {
	Index int
	Field string
	Tag   string
}

func (e *InvalidMemberError) Error() string {
	return fmt.Sprintf("%v: member %d field %s failed on '%s'", ErrInvalidMember, e.Index, e.Field, e.Tag)
}

func (e *InvalidMemberError) Unwrap() error {
	return ErrInvalidMember
}
