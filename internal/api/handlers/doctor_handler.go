package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// DoctorCatalog lists doctors and the dates they can be booked on
type DoctorCatalog interface {
	ListDoctors(ctx context.Context) ([]*entities.Doctor, error)
	GetDoctor(ctx context.Context, employeeID string) (*entities.Doctor, error)
	OfferableDates() []services.OfferableDate
}

// SlotFinder computes a doctor's slots on a date
type SlotFinder interface {
	GetSlotsForDate(ctx context.Context, doctorID string, date entities.CalendarDate) []entities.TimeSlot
}

// DoctorHandler handles doctor directory and availability requests
type DoctorHandler struct {
	doctors DoctorCatalog
	slots   SlotFinder
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(doctors DoctorCatalog, slots SlotFinder) *DoctorHandler {
	return &DoctorHandler{
		doctors: doctors,
		slots:   slots,
	}
}

// ListDoctors handles GET /api/doctors
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.ListDoctors(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

// GetOfferableDates handles GET /api/doctors/{id}/dates
func (h *DoctorHandler) GetOfferableDates(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.doctors.GetDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"doctor_id": doctor.EmployeeID,
		"dates":     h.doctors.OfferableDates(),
	})
}

// GetSlots handles GET /api/doctors/{id}/slots?date=YYYY-MM-DD
func (h *DoctorHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		respondWithError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := entities.ParseCalendarDate(dateParam)
	if err != nil {
		respondWithAppError(w, r, apperrors.NewValidationError("date must be YYYY-MM-DD"))
		return
	}

	doctor, err := h.doctors.GetDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	slots := h.slots.GetSlotsForDate(r.Context(), doctor.EmployeeID, date)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"doctor_id": doctor.EmployeeID,
		"date":      date,
		"slots":     slots,
		"count":     len(slots),
	})
}
