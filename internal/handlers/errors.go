package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/olosevents/backend/internal/services"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Specific errors come before the kinds they wrap.
var errorMappings = []errorMapping{
	{services.ErrInsufficientBalance, http.StatusPaymentRequired, "insufficient_balance"},
	{services.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
	{services.ErrAlreadyJoined, http.StatusConflict, "already_joined"},
	{services.ErrAlreadyCancelled, http.StatusConflict, "already_cancelled"},
	{services.ErrTooLateToCancel, http.StatusConflict, "too_late_to_cancel"},
	{services.ErrEventNotJoinable, http.StatusConflict, "event_not_joinable"},
	{services.ErrState, http.StatusConflict, "invalid_state"},
	{services.ErrNotEligible, http.StatusForbidden, "not_eligible"},
	{services.ErrEligibility, http.StatusForbidden, "eligibility_failed"},
	{services.ErrEventNotFound, http.StatusNotFound, "event_not_found"},
	{services.ErrReservationNotFound, http.StatusNotFound, "reservation_not_found"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrInvalidMember, http.StatusBadRequest, "invalid_member"},
	{services.ErrValidation, http.StatusBadRequest, "validation_error"},
	{services.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
}

func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}

		resp := services.ErrorResponse{Error: err.Error(), Code: m.code}
		var memberErr *services.InvalidMemberError
		if errors.As(err, &memberErr) {
			resp.Details = map[string]string{
				fmt.Sprintf("members[%d].%s", memberErr.Index, memberErr.Field): fmt.Sprintf("Field Validation Failed on '%s' tag", memberErr.Tag),
			}
		}
		services.WriteErrorResponse(w, m.status, resp)
		return
	}

	log.Printf("[HTTP] Internal error: %v", err)
	services.WriteErrorResponse(w, http.StatusInternalServerError, services.ErrorResponse{
		Error: "Internal server error",
		Code:  "internal_error",
	})
}
