package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/olosevents/backend/internal/models"
	"github.com/olosevents/backend/internal/services"
)

type ReservationHandler struct {
	service   *services.ReservationService
	validator *services.ValidationHelper
}

func NewReservationHandler(service *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type joinEventRequest struct {
	Members []models.MemberDescriptor `json:"members"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// JoinEvent reserves seats for the caller and the listed members
// @Summary Join event
// @Description Reserves one seat per member and debits members x cost_per_attendee Olos
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param request body joinEventRequest true "Members covered by the reservation"
// @Success 201 {object} object{success=bool,data=models.ReservationResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 402 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /events/{eventId}/reservations [post]
func (h *ReservationHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventId")

	var req joinEventRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	log.Printf("[RESERVATION] JoinEvent - user=%s event=%s members=%d", userID, eventID, len(req.Members))

	result, err := h.service.JoinEvent(r.Context(), userID, eventID, req.Members)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// CancelReservation cancels the caller's reservation and refunds it
// @Summary Cancel reservation
// @Description Cancels the active reservation at least 24h before the event and refunds its total cost
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param request body cancelReservationRequest false "Cancellation reason"
// @Success 200 {object} object{success=bool,data=models.RefundResult}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /events/{eventId}/reservations/cancel [post]
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "eventId")

	var req cancelReservationRequest
	if !decodeBody(w, r, &req, true) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.service.CancelReservation(r.Context(), userID, eventID, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListReservations lists the caller's reservations
// @Summary List reservations
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of reservations"
// @Success 200 {object} object{success=bool,data=[]models.Reservation}
// @Failure 400 {object} services.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	reservations, err := h.service.ListReservations(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}

	writeJSON(w, http.StatusOK, reservations)
}

// GetCapacity reports reserved and remaining seats
// @Summary Event capacity
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} object{success=bool,data=models.Availability}
// @Failure 404 {object} services.ErrorResponse
// @Router /events/{eventId}/capacity [get]
func (h *ReservationHandler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	availability, err := h.service.GetAvailability(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availability)
}
