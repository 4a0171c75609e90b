package validation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/validation"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

var today = entities.CalendarDate{Year: 2026, Month: time.October, Day: 17}

func validDetails() validation.PersonalDetails {
	return validation.PersonalDetails{
		FirstName:   "John",
		LastName:    "Doe",
		DateOfBirth: "1990-01-01",
		Email:       "john@x.com",
		Phone:       "9876543210",
	}
}

func TestValidateField_Names(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{name: "simple", value: "John"},
		{name: "internal whitespace", value: "Mary Ann"},
		{name: "leading whitespace", value: "  Jo", wantErr: "First name should only contain alphabets"},
		{name: "trailing whitespace", value: "Jo  ", wantErr: "First name should only contain alphabets"},
		{name: "empty", value: "", wantErr: "First name is required"},
		{name: "only spaces", value: "   ", wantErr: "First name is required"},
		{name: "digits", value: "J0hn", wantErr: "First name should only contain alphabets"},
		{name: "punctuation", value: "O'Neil", wantErr: "First name should only contain alphabets"},
		{name: "too short", value: "J", wantErr: "First name must be at least 2 characters long"},
		{name: "max length", value: strings.Repeat("a", 50)},
		{name: "non-ascii letters", value: "José", wantErr: "First name should only contain alphabets"},
		{name: "too long", value: strings.Repeat("a", 51), wantErr: "First name must be at most 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validation.ValidateField(validation.FieldFirstName, tt.value, today)
			if tt.wantErr == "" {
				assert.True(t, result.Valid)
				assert.Empty(t, result.Error)
				return
			}
			assert.False(t, result.Valid)
			assert.Equal(t, tt.wantErr, result.Error)
		})
	}

	result := validation.ValidateField(validation.FieldLastName, "", today)
	assert.Equal(t, "Last name is required", result.Error)
}

func TestValidateField_DateOfBirth(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{name: "adult", value: "1990-01-01"},
		{name: "exactly five years old", value: "2021-10-17"},
		{name: "one day short of five", value: "2021-10-18", wantErr: validation.MsgInvalidDateOfBirth},
		{name: "born today", value: "2026-10-17", wantErr: validation.MsgInvalidDateOfBirth},
		{name: "future", value: "2030-01-01", wantErr: validation.MsgInvalidDateOfBirth},
		{name: "unparseable", value: "17/10/2000", wantErr: validation.MsgInvalidDateOfBirth},
		{name: "missing", value: "", wantErr: validation.MsgDateOfBirthMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validation.ValidateField(validation.FieldDateOfBirth, tt.value, today)
			if tt.wantErr == "" {
				assert.True(t, result.Valid)
				return
			}
			assert.False(t, result.Valid)
			assert.Equal(t, tt.wantErr, result.Error)
		})
	}
}

func TestValidateField_Email(t *testing.T) {
	assert.True(t, validation.ValidateField(validation.FieldEmail, "john@x.com", today).Valid)
	assert.Equal(t, validation.MsgEmailRequired, validation.ValidateField(validation.FieldEmail, "", today).Error)
	assert.Equal(t, validation.MsgEmailInvalid, validation.ValidateField(validation.FieldEmail, "john@x", today).Error)
	assert.Equal(t, validation.MsgEmailInvalid, validation.ValidateField(validation.FieldEmail, "jo hn@x.com", today).Error)

	long := strings.Repeat("a", 95) + "@x.com"
	assert.Equal(t, validation.MsgEmailTooLong, validation.ValidateField(validation.FieldEmail, long, today).Error)
}

func TestValidateField_Phone(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{value: "9876543210", valid: true},
		{value: "+91 9876543210", valid: true},
		{value: "+919876543210", valid: true},
		{value: "+91   9876543210", valid: true},
		{value: "987654321", valid: false},
		{value: "98765432101", valid: false},
		{value: "98765-43210", valid: false},
		{value: "+44 9876543210", valid: false},
		{value: "+91 ", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			result := validation.ValidateField(validation.FieldPhone, tt.value, today)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, validation.MsgPhoneInvalid, result.Error)
			}
		})
	}

	assert.Equal(t, validation.MsgPhoneRequired, validation.ValidateField(validation.FieldPhone, "", today).Error)
}

func TestValidateField_MatchesForm(t *testing.T) {
	details := validation.PersonalDetails{
		FirstName:   "J0hn",
		LastName:    "D",
		DateOfBirth: "2030-01-01",
		Email:       "john@x",
		Phone:       "+44 9876543210",
	}

	form := validation.ValidateForm(details, today)
	require.Len(t, form.Errors, len(validation.Fields))
	for _, field := range validation.Fields {
		result := validation.ValidateField(field, details.Value(field), today)
		assert.False(t, result.Valid, field)
		assert.Equal(t, form.Errors[string(field)], result.Error, field)
	}
}

func TestValidateField_UnknownField(t *testing.T) {
	result := validation.ValidateField(validation.Field("middleName"), "x", today)
	assert.False(t, result.Valid)
	assert.Equal(t, validation.MsgUnknownField, result.Error)
}

func TestValidateForm(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		result := validation.ValidateForm(validDetails(), today)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		assert.NoError(t, result.Err())
	})

	t.Run("aggregates every failing field", func(t *testing.T) {
		details := validDetails()
		details.Email = "not-an-email"
		details.Phone = "12345"

		result := validation.ValidateForm(details, today)

		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, validation.MsgEmailInvalid, result.Errors["email"])
		assert.Equal(t, validation.MsgPhoneInvalid, result.Errors["phone"])
	})

	t.Run("empty record reports all fields", func(t *testing.T) {
		result := validation.ValidateForm(validation.PersonalDetails{}, today)
		assert.Len(t, result.Errors, len(validation.Fields))

		err := result.Err()
		require.Error(t, err)
		appErr, ok := err.(*apperrors.AppError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		assert.Equal(t, "First name is required", appErr.Message)
	})

	t.Run("is deterministic", func(t *testing.T) {
		details := validDetails()
		details.LastName = "D"
		assert.Equal(t, validation.ValidateForm(details, today), validation.ValidateForm(details, today))
	})
}

func TestValidator_UsesClock(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, time.October, 17, 22, 0, 0, 0, time.UTC) }
	v := validation.NewValidator(clock)

	assert.True(t, v.ValidateField(validation.FieldDateOfBirth, "2021-10-17").Valid)
	assert.False(t, v.ValidateField(validation.FieldDateOfBirth, "2021-10-18").Valid)
	assert.True(t, v.ValidateForm(validDetails()).Valid)
}

func TestPersonalDetails_FullName(t *testing.T) {
	assert.Equal(t, "John Doe", validDetails().FullName())
	assert.Equal(t, "John", validation.PersonalDetails{FirstName: " John "}.FullName())
}
