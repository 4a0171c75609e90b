// Package validation checks patient personal details before a booking is submitted.
package validation

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// Field names a validated personal-details input
type Field string

const (
	FieldFirstName   Field = "firstName"
	FieldLastName    Field = "lastName"
	FieldDateOfBirth Field = "dateOfBirth"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
)

// Fields lists every field in display order
var Fields = []Field{FieldFirstName, FieldLastName, FieldDateOfBirth, FieldEmail, FieldPhone}

const (
	minimumAgeYears = 5

	// CountryCodePrefix is stripped from phone numbers before checking digits
	CountryCodePrefix = "+91"
)

// Error messages
const (
	MsgInvalidDateOfBirth = "Patient must be at least 5 years old and cannot be born in the future"
	MsgDateOfBirthMissing = "Date of birth is required"
	MsgEmailRequired      = "Email is required"
	MsgEmailInvalid       = "Please enter a valid email address"
	MsgEmailTooLong       = "Email must be less than 100 characters"
	MsgPhoneRequired      = "Phone number is required"
	MsgPhoneInvalid       = "Phone number must be exactly 10 digits"
	MsgUnknownField       = "Unknown field"
)

// PersonalDetails is the record validated as a whole. The validate tags are
// the rules for both whole-record and single-field validation.
type PersonalDetails struct {
	FirstName   string `json:"firstName" validate:"notblank,name,min=2,max=50"`
	LastName    string `json:"lastName" validate:"notblank,name,min=2,max=50"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,dob5y"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Phone       string `json:"phone" validate:"required,phone10"`
}

// FullName joins first and last name
func (p PersonalDetails) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Value returns the input for a field
func (p PersonalDetails) Value(field Field) string {
	switch field {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldDateOfBirth:
		return p.DateOfBirth
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	}
	return ""
}

// FieldResult is the outcome of validating one field
type FieldResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// FormResult aggregates every failing field of a record
type FormResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Err converts a failed result into a validation AppError
func (r FormResult) Err() error {
	if r.Valid {
		return nil
	}
	for _, field := range Fields {
		if msg, ok := r.Errors[string(field)]; ok {
			return apperrors.NewValidationError(msg)
		}
	}
	return apperrors.NewValidationError("invalid personal details")
}

var (
	nameRegex        = regexp.MustCompile(`^[A-Za-z]+(\s+[A-Za-z]+)*$`)
	phonePrefixRegex = regexp.MustCompile(`^\` + CountryCodePrefix + `\s*`)

	validate  = newValidate()
	fieldTags = tagsByField()
)

type todayKey struct{}

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
	})

	mustRegister(v.RegisterValidation("notblank", validators.NotBlank))
	mustRegister(v.RegisterValidation("name", func(fl validator.FieldLevel) bool {
		return nameRegex.MatchString(fl.Field().String())
	}))
	mustRegister(v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return v.Var(StripCountryCode(fl.Field().String()), "len=10,number") == nil
	}))
	mustRegister(v.RegisterValidationCtx("dob5y", func(ctx context.Context, fl validator.FieldLevel) bool {
		return bornFiveYearsAgo(fl.Field().String(), todayFrom(ctx))
	}))
	return v
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// tagsByField reads the validate tag of each PersonalDetails field
func tagsByField() map[Field]string {
	tags := make(map[Field]string, len(Fields))
	t := reflect.TypeOf(PersonalDetails{})
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tags[Field(strings.SplitN(sf.Tag.Get("json"), ",", 2)[0])] = sf.Tag.Get("validate")
	}
	return tags
}

// messages maps a failed rule to the text shown under the field
var messages = map[Field]map[string]string{
	FieldFirstName:   nameMessages("First name"),
	FieldLastName:    nameMessages("Last name"),
	FieldDateOfBirth: {"required": MsgDateOfBirthMissing, "dob5y": MsgInvalidDateOfBirth},
	FieldEmail:       {"required": MsgEmailRequired, "email": MsgEmailInvalid, "max": MsgEmailTooLong},
	FieldPhone:       {"required": MsgPhoneRequired, "phone10": MsgPhoneInvalid},
}

func nameMessages(label string) map[string]string {
	return map[string]string{
		"notblank": label + " is required",
		"name":     label + " should only contain alphabets",
		"min":      label + " must be at least 2 characters long",
		"max":      label + " must be at most 50 characters",
	}
}

func message(field Field, fe validator.FieldError) string {
	if msg, ok := messages[field][fe.Tag()]; ok {
		return msg
	}
	return "Invalid " + string(field)
}

func withToday(today entities.CalendarDate) context.Context {
	return context.WithValue(context.Background(), todayKey{}, today)
}

func todayFrom(ctx context.Context) entities.CalendarDate {
	if today, ok := ctx.Value(todayKey{}).(entities.CalendarDate); ok {
		return today
	}
	return entities.CalendarDateOf(time.Now())
}

// bornFiveYearsAgo rejects future dates and patients younger than five.
// Both bounds compare whole days, so a birthday exactly five years ago passes.
func bornFiveYearsAgo(value string, today entities.CalendarDate) bool {
	dob, err := entities.ParseCalendarDate(value)
	if err != nil {
		return false
	}
	latestAllowed := entities.CalendarDateOf(today.Time().AddDate(-minimumAgeYears, 0, 0))
	return !dob.Time().After(today.Time()) && !dob.Time().After(latestAllowed.Time())
}

// ValidateField validates a single field. today anchors the date-of-birth bounds.
func ValidateField(field Field, value string, today entities.CalendarDate) FieldResult {
	tag, ok := fieldTags[field]
	if !ok {
		return FieldResult{Error: MsgUnknownField}
	}

	err := validate.VarCtx(withToday(today), value, tag)
	if err == nil {
		return FieldResult{Valid: true}
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return FieldResult{Error: message(field, errs[0])}
	}
	return FieldResult{Error: err.Error()}
}

// ValidateForm validates every field and reports all failures at once
func ValidateForm(details PersonalDetails, today entities.CalendarDate) FormResult {
	result := FormResult{Valid: true, Errors: map[string]string{}}

	err := validate.StructCtx(withToday(today), details)
	if err == nil {
		return result
	}
	result.Valid = false

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		result.Errors["form"] = err.Error()
		return result
	}
	for _, fe := range errs {
		field := Field(fe.Field())
		result.Errors[string(field)] = message(field, fe)
	}
	return result
}

// StripCountryCode removes a leading "+91" and any whitespace after it
func StripCountryCode(phone string) string {
	return phonePrefixRegex.ReplaceAllString(phone, "")
}

// Validator binds the validation functions to a clock
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator. A nil clock uses time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// ValidateField validates one field against today's date
func (v *Validator) ValidateField(field Field, value string) FieldResult {
	return ValidateField(field, value, entities.CalendarDateOf(v.now()))
}

// ValidateForm validates a whole record against today's date
func (v *Validator) ValidateForm(details PersonalDetails) FormResult {
	return ValidateForm(details, entities.CalendarDateOf(v.now()))
}
