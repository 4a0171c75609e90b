package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/wizard"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// BookingSessions drives booking wizards
type BookingSessions interface {
	CreateSession(ctx context.Context) entities.BookingSessionState
	GetSession(ctx context.Context, id string) (entities.BookingSessionState, error)
	DeleteSession(ctx context.Context, id string) error
	ApplyAction(ctx context.Context, id string, action wizard.Action) (entities.BookingSessionState, error)
	SubmitBooking(ctx context.Context, id string) (entities.BookingSessionState, error)
}

// BookingHandler handles booking wizard requests
type BookingHandler struct {
	sessions BookingSessions
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(sessions BookingSessions) *BookingHandler {
	return &BookingHandler{sessions: sessions}
}

// CreateSession handles POST /api/booking/sessions
func (h *BookingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusCreated, h.sessions.CreateSession(r.Context()))
}

// GetSession handles GET /api/booking/sessions/{id}
func (h *BookingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /api/booking/sessions/{id}
func (h *BookingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type actionRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ApplyAction handles POST /api/booking/sessions/{id}/actions
func (h *BookingHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	action, err := wizard.ParseUserAction(req.Type, req.Value)
	if err != nil {
		respondWithAppError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	state, err := h.sessions.ApplyAction(r.Context(), r.PathValue("id"), action)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}

// Submit handles POST /api/booking/sessions/{id}/submit. A failed booking is
// reported in the returned state's last_error, not as an HTTP error.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.SubmitBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, state)
}
