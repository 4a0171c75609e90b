package scheduling

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
	"github.com/zatekoja/appointmentbooking/backend/pkg/retry"
)

// ClinicAdapter serves schedules, the doctor directory and bookings from the clinic API
type ClinicAdapter struct {
	client      clinicapi.Client
	metrics     *observability.Metrics
	readRetries retry.Config
}

// NewClinicAdapter creates an adapter over the clinic API client. metrics may be nil.
func NewClinicAdapter(client clinicapi.Client, metrics *observability.Metrics) *ClinicAdapter {
	return &ClinicAdapter{
		client:  client,
		metrics: metrics,
		readRetries: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 5 * time.Second,
		},
	}
}

var (
	_ providers.ScheduleProvider = (*ClinicAdapter)(nil)
	_ providers.BookingService   = (*ClinicAdapter)(nil)
	_ providers.DoctorDirectory  = (*ClinicAdapter)(nil)
)

// FetchWeeklySchedule retries transient failures. Rejections from the clinic are final.
func (a *ClinicAdapter) FetchWeeklySchedule(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) (entities.WeeklySchedule, error) {
	ctx, span := observability.StartSpan(ctx, "clinic.FetchWeeklySchedule")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("clinic.resource_id", doctorResourceID),
		attribute.String("clinic.date", referenceDate.String()),
	)

	var schedule entities.WeeklySchedule
	err := a.read(ctx, "get_resource_schedule", func() error {
		var err error
		schedule, err = a.client.GetResourceSchedule(ctx, doctorResourceID, referenceDate)
		return err
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return schedule, nil
}

// ListDoctors returns the facility's doctors
func (a *ClinicAdapter) ListDoctors(ctx context.Context, facilityID string) ([]*entities.Doctor, error) {
	ctx, span := observability.StartSpan(ctx, "clinic.ListDoctors")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("clinic.facility_id", facilityID))

	var found []entities.Doctor
	err := a.read(ctx, "search_providers", func() error {
		var err error
		found, err = a.client.SearchProviders(ctx, facilityID)
		return err
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	doctors := make([]*entities.Doctor, 0, len(found))
	for i := range found {
		doctors = append(doctors, &found[i])
	}
	return doctors, nil
}

// RegisterPatient is attempted once; a retry could register the patient twice
func (a *ClinicAdapter) RegisterPatient(ctx context.Context, record entities.PatientRecord) (string, error) {
	ctx, span := observability.StartSpan(ctx, "clinic.RegisterPatient")
	defer span.End()

	start := time.Now()
	resp, err := a.client.RegisterPatient(ctx, record)
	observability.RecordRemoteCall(ctx, a.metrics, "register_patient", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return "", err
	}

	observability.SetSpanAttributes(span, attribute.String("clinic.patient_id", resp.PatientID))
	return resp.PatientID, nil
}

// BookAppointment is attempted once
func (a *ClinicAdapter) BookAppointment(ctx context.Context, record entities.AppointmentRecord) (string, error) {
	ctx, span := observability.StartSpan(ctx, "clinic.BookAppointment")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("clinic.employee_id", record.EmployeeID),
		attribute.String("clinic.date", record.Date),
		attribute.String("clinic.start_time", record.StartTime),
	)

	start := time.Now()
	resp, err := a.client.BookAppointment(ctx, record)
	observability.RecordRemoteCall(ctx, a.metrics, "book_appointment", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return "", err
	}

	observability.SetSpanAttributes(span, attribute.String("clinic.appointment_id", resp.AppointmentID))
	return resp.AppointmentID, nil
}

func (a *ClinicAdapter) read(ctx context.Context, operation string, call func() error) error {
	return retry.DoWithLog(ctx, a.readRetries, "clinic "+operation,
		func() error {
			start := time.Now()
			err := call()
			observability.RecordRemoteCall(ctx, a.metrics, operation, time.Since(start), err)
			if err != nil && !transient(err) {
				return retry.Permanent(err)
			}
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Clinic API call failed, retrying")
		},
	)
}

// transient reports whether a failed read is worth repeating
func transient(err error) bool {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound, apperrors.ErrorTypeUnauthorized, apperrors.ErrorTypeValidation:
		return false
	default:
		return true
	}
}
