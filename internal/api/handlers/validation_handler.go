package handlers

import (
	"net/http"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/validation"
)

// ValidationHandler exposes the personal details rules to the presentation layer
type ValidationHandler struct {
	validator *validation.Validator
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(validator *validation.Validator) *ValidationHandler {
	return &ValidationHandler{validator: validator}
}

type validateFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ValidateField handles POST /api/validation/field
func (h *ValidationHandler) ValidateField(w http.ResponseWriter, r *http.Request) {
	var req validateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Field == "" {
		respondWithError(w, http.StatusBadRequest, "field is required")
		return
	}

	respondWithJSON(w, http.StatusOK, h.validator.ValidateField(validation.Field(req.Field), req.Value))
}

// ValidateForm handles POST /api/validation/form
func (h *ValidationHandler) ValidateForm(w http.ResponseWriter, r *http.Request) {
	var details validation.PersonalDetails
	if err := decodeJSON(r, &details); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.validator.ValidateForm(details))
}
