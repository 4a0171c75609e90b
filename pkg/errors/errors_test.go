package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "not found", err: apperrors.NewNotFoundError("doctor not found"), expected: http.StatusNotFound},
		{name: "validation", err: apperrors.NewValidationError("bad date"), expected: http.StatusBadRequest},
		{name: "conflict", err: apperrors.NewConflictError("busy", nil), expected: http.StatusConflict},
		{name: "unauthorized", err: apperrors.NewUnauthorizedError("token"), expected: http.StatusUnauthorized},
		{name: "external", err: apperrors.NewExternalError("clinic api", errors.New("boom")), expected: http.StatusBadGateway},
		{name: "internal", err: apperrors.NewInternalError("oops", nil), expected: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("raw"), expected: http.StatusInternalServerError},
		{name: "wrapped", err: fmt.Errorf("outer: %w", apperrors.NewNotFoundError("x")), expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apperrors.HTTPStatus(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperrors.NewExternalError("patient registration failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.Equal(t, "EXTERNAL: patient registration failed: connection refused", err.Error())
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad date", apperrors.PublicMessage(apperrors.NewValidationError("bad date")))
	assert.Equal(t, "internal server error", apperrors.PublicMessage(apperrors.NewInternalError("db password wrong", nil)))
	assert.Equal(t, "internal server error", apperrors.PublicMessage(errors.New("raw")))
}
