package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/wizard"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// SubmissionStage identifies which remote call of a submission failed
type SubmissionStage string

const (
	StagePatientRegistration SubmissionStage = "PatientRegistration"
	StageAppointmentBooking  SubmissionStage = "AppointmentBooking"
)

// ErrSubmissionInProgress is returned when a wizard is already submitting or submitted
var ErrSubmissionInProgress = apperrors.NewConflictError("a submission is already in progress or complete", nil)

// ErrNotReadyToSubmit is returned when the wizard has not reached the personal details step
var ErrNotReadyToSubmit = apperrors.NewValidationError("complete the previous steps before submitting")

// IncompleteDraftError lists the draft fields that must be filled before submitting
type IncompleteDraftError struct {
	Missing []string
}

func (e *IncompleteDraftError) Error() string {
	return "booking is incomplete, missing " + strings.Join(e.Missing, ", ")
}

// RemoteFailureError is a failed clinic call during submission
type RemoteFailureError struct {
	Stage SubmissionStage
	Err   error
}

func (e *RemoteFailureError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *RemoteFailureError) Unwrap() error {
	return e.Err
}

// RegistrationDefaults fills the patient registration fields the wizard does not collect
type RegistrationDefaults struct {
	DateOfBirth         string
	Gender              string
	AddressType         string
	Address             string
	Location            string
	City                string
	Pin                 string
	Landline            string
	ContactType         string
	ContactRelationship string
	FallbackEmail       string
}

// DefaultRegistrationDefaults returns the clinic's standard registration defaults
func DefaultRegistrationDefaults() RegistrationDefaults {
	return RegistrationDefaults{
		DateOfBirth:         "1990-01-01",
		Gender:              "Male",
		AddressType:         "H",
		Address:             "1st Main Road",
		Location:            "Default Location",
		City:                "Mumbai",
		Pin:                 "400001",
		Landline:            "02212345678",
		ContactType:         "S",
		ContactRelationship: "Self",
		FallbackEmail:       "default@example.com",
	}
}

// DoctorNamer resolves a doctor's display name for confirmations
type DoctorNamer interface {
	DoctorName(ctx context.Context, employeeID string) string
}

// BookingCoordinator sequences the two clinic calls that make up one booking
type BookingCoordinator struct {
	booking    providers.BookingService
	facilityID string
	defaults   RegistrationDefaults
	doctors    DoctorNamer
	metrics    *observability.Metrics
	now        func() time.Time
}

// CoordinatorOption customizes a BookingCoordinator
type CoordinatorOption func(*BookingCoordinator)

// WithRegistrationDefaults overrides the registration defaults
func WithRegistrationDefaults(defaults RegistrationDefaults) CoordinatorOption {
	return func(c *BookingCoordinator) { c.defaults = defaults }
}

// WithDoctorNamer adds doctor names to confirmations
func WithDoctorNamer(namer DoctorNamer) CoordinatorOption {
	return func(c *BookingCoordinator) { c.doctors = namer }
}

// WithMetrics records submission outcomes
func WithMetrics(metrics *observability.Metrics) CoordinatorOption {
	return func(c *BookingCoordinator) { c.metrics = metrics }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *BookingCoordinator) { c.now = now }
}

// NewBookingCoordinator creates a coordinator booking into facilityID
func NewBookingCoordinator(booking providers.BookingService, facilityID string, opts ...CoordinatorOption) *BookingCoordinator {
	c := &BookingCoordinator{
		booking:    booking,
		facilityID: facilityID,
		defaults:   DefaultRegistrationDefaults(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit registers the patient and then books the appointment. Nothing is sent
// when the draft is incomplete, and a failed registration skips the booking.
// Submit never retries.
func (c *BookingCoordinator) Submit(ctx context.Context, draft entities.BookingDraft) (*entities.BookingConfirmation, error) {
	ctx, span := observability.StartSpan(ctx, "booking.Submit")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	record, err := c.buildRecord(draft)
	if err != nil {
		observability.RecordSubmission(ctx, c.metrics, "rejected")
		return nil, err
	}

	patientID, err := c.booking.RegisterPatient(ctx, record.Patient)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSubmission(ctx, c.metrics, "failed")
		logger.Error().Err(err).Str("stage", string(StagePatientRegistration)).Msg("Patient registration failed")
		return nil, remoteFailure(StagePatientRegistration, err)
	}
	logger.Info().Str("patient_id", patientID).Msg("Patient registered")

	appointmentID, err := c.booking.BookAppointment(ctx, record.Appointment)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSubmission(ctx, c.metrics, "failed")
		logger.Error().Err(err).Str("stage", string(StageAppointmentBooking)).Str("patient_id", patientID).Msg("Appointment booking failed")
		return nil, remoteFailure(StageAppointmentBooking, err)
	}

	observability.RecordSubmission(ctx, c.metrics, "confirmed")
	logger.Info().
		Str("appointment_id", appointmentID).
		Str("employee_id", record.Appointment.EmployeeID).
		Str("date", record.Appointment.Date).
		Str("start_time", record.Appointment.StartTime).
		Msg("Appointment booked")

	confirmation := &entities.BookingConfirmation{
		DoctorID:      draft.DoctorID,
		Date:          *draft.Date,
		Time:          record.Appointment.StartTime,
		PatientName:   strings.TrimSpace(draft.PatientName),
		PatientID:     patientID,
		AppointmentID: appointmentID,
		ConfirmedAt:   c.now(),
	}
	if c.doctors != nil {
		confirmation.DoctorName = c.doctors.DoctorName(ctx, draft.DoctorID)
	}
	return confirmation, nil
}

// SubmitWizard submits the machine's draft. It is the only caller of the
// machine's submission transitions: one BeginSubmit, then exactly one of
// SubmitSucceeded or SubmitFailed. The draft is captured as the submission
// begins, so later edits do not reach the clinic. onBegin, if set, runs once
// the machine is submitting and before the first remote call. The remote
// calls outlive ctx's cancellation.
func (c *BookingCoordinator) SubmitWizard(ctx context.Context, machine *wizard.Machine, onBegin func()) (*entities.BookingConfirmation, error) {
	draft, ok := machine.StartSubmission()
	if !ok {
		if ui := machine.UI(); ui.IsSubmitting || ui.IsSubmitted {
			return nil, ErrSubmissionInProgress
		}
		return nil, ErrNotReadyToSubmit
	}
	if onBegin != nil {
		onBegin()
	}

	confirmation, err := c.Submit(context.WithoutCancel(ctx), draft)
	if err != nil {
		machine.SubmitFailed()
		return nil, err
	}
	machine.SubmitSucceeded()
	return confirmation, nil
}

// buildRecord validates the draft and builds the snapshot sent to the clinic
func (c *BookingCoordinator) buildRecord(draft entities.BookingDraft) (entities.BookingRecord, error) {
	var missing []string
	if strings.TrimSpace(draft.DoctorID) == "" {
		missing = append(missing, "doctor")
	}
	if draft.Date == nil {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(draft.Time) == "" {
		missing = append(missing, "time")
	}
	if strings.TrimSpace(draft.PatientName) == "" {
		missing = append(missing, "patient name")
	}
	if strings.TrimSpace(draft.PatientPhone) == "" {
		missing = append(missing, "patient phone")
	}
	if len(missing) > 0 {
		cause := &IncompleteDraftError{Missing: missing}
		return entities.BookingRecord{}, &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Message: cause.Error(), Err: cause}
	}

	startTime, err := scheduling.ConvertTo24Hour(draft.Time)
	if err != nil {
		return entities.BookingRecord{}, &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Message: "invalid appointment time", Err: err}
	}

	name := strings.TrimSpace(draft.PatientName)
	email := strings.TrimSpace(draft.PatientEmail)
	if email == "" {
		email = c.defaults.FallbackEmail
	}

	return entities.BookingRecord{
		Patient: entities.PatientRecord{
			PersonID:              fmt.Sprintf("person_%d", c.now().UnixMilli()),
			PatientDOB:            c.defaults.DateOfBirth,
			PatientName:           name,
			PatientGender:         c.defaults.Gender,
			PatientAddressType:    c.defaults.AddressType,
			Address:               c.defaults.Address,
			Location:              c.defaults.Location,
			City:                  c.defaults.City,
			Pin:                   c.defaults.Pin,
			PatientLandline:       c.defaults.Landline,
			PatientMobile:         mobileNumber(draft.PatientPhone),
			PatientEmailURL:       email,
			ContactPersonName:     name,
			ContactType:           c.defaults.ContactType,
			ContactRelationship:   c.defaults.ContactRelationship,
			ContactPersonLandline: c.defaults.Landline,
			ContactPersonEmailURL: email,
			FacilityID:            c.facilityID,
		},
		Appointment: entities.AppointmentRecord{
			FacilityID: c.facilityID,
			EmployeeID: draft.DoctorID,
			Date:       draft.Date.String(),
			StartTime:  startTime,
		},
	}, nil
}

// mobileNumber keeps the last ten digits of a phone number
func mobileNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func remoteFailure(stage SubmissionStage, err error) error {
	cause := &RemoteFailureError{Stage: stage, Err: err}
	return &apperrors.AppError{Type: apperrors.ErrorTypeExternal, Message: submissionFailedMessage, Err: cause}
}

const submissionFailedMessage = "Failed to book appointment. Please try again."

// SubmissionStageOf returns the failed stage of a submission error, if any
func SubmissionStageOf(err error) (SubmissionStage, bool) {
	var remote *RemoteFailureError
	if errors.As(err, &remote) {
		return remote.Stage, true
	}
	return "", false
}
