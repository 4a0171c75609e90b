package providers

import (
	"context"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// ScheduleProvider fetches a doctor's weekly working schedule from the clinic
type ScheduleProvider interface {
	// FetchWeeklySchedule returns the schedule around referenceDate for the
	// doctor's scheduling resource (the doctor's primary key). A failure means
	// "no slots" to callers, never a fatal error.
	FetchWeeklySchedule(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) (entities.WeeklySchedule, error)
}

// BookingService registers patients and books appointments with the clinic
type BookingService interface {
	// RegisterPatient creates a patient record and returns its id
	RegisterPatient(ctx context.Context, record entities.PatientRecord) (patientID string, err error)

	// BookAppointment books a slot and returns the appointment id
	BookAppointment(ctx context.Context, record entities.AppointmentRecord) (appointmentID string, err error)
}

// DoctorDirectory lists the doctors practising at a facility
type DoctorDirectory interface {
	ListDoctors(ctx context.Context, facilityID string) ([]*entities.Doctor, error)
}
