package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// MockAdapter serves a fixed clinic for local development and demos
type MockAdapter struct {
	facilityID string
	doctors    []entities.Doctor
	schedule   entities.WeeklySchedule
}

var (
	_ providers.ScheduleProvider = (*MockAdapter)(nil)
	_ providers.BookingService   = (*MockAdapter)(nil)
	_ providers.DoctorDirectory  = (*MockAdapter)(nil)
)

// NewMockAdapter creates a mock clinic with three doctors sharing one weekly schedule
func NewMockAdapter(facilityID string) *MockAdapter {
	created := time.Date(2023, time.December, 14, 15, 44, 33, 0, time.FixedZone("IST", 5*60*60+30*60))
	doctor := func(pk, employeeID, username, specialty, phone, languages string) entities.Doctor {
		return entities.Doctor{
			PrimaryKey:           pk,
			FacilityID:           facilityID,
			EmployeeID:           employeeID,
			MemberUsername:       username,
			MedicalSpecialtyCode: specialty,
			ContactNumber:        phone,
			LanguagesKnown:       languages,
			CurrentCity:          "Mumbai",
			Status:               1,
			RegistrationCouncil:  "MCI",
			RegistrationNumber:   "123XYZ",
			CreatedAt:            created,
		}
	}

	return &MockAdapter{
		facilityID: facilityID,
		doctors: []entities.Doctor{
			doctor("6932daebfe5b43538f5cda02b5b374fd", "E314864344", "dr_anurag_aggarwal", "ORAL_SURGERY", "7777777777", "English, Hindi"),
			doctor("7842daebfe5b43538f5cda02b5b374fe", "E314864345", "dr_kavya_reddy", "COSMETIC_DENTISTRY", "8888888888", "English, Hindi, Telugu"),
			doctor("8952daebfe5b43538f5cda02b5b374ff", "E314864346", "dr_vikram_singh", "PERIODONTICS", "9999999999", "English, Hindi"),
		},
		schedule: mockWeeklySchedule(),
	}
}

func mockWeeklySchedule() entities.WeeklySchedule {
	session := func(startHour, endHour int) entities.Session {
		return entities.Session{
			StartTime:    entities.NewTimeOfDay(startHour, 0),
			EndTime:      entities.NewTimeOfDay(endHour, 0),
			DurationMins: 30,
			IsAvailable:  true,
		}
	}
	working := func(day string, sessions ...entities.Session) entities.DaySchedule {
		return entities.DaySchedule{DayName: day, IsWorking: true, Sessions: sessions}
	}

	return entities.WeeklySchedule{
		working("Mon", session(10, 13), session(15, 19)),
		working("Tue", session(9, 12), session(14, 18)),
		working("Wed", session(10, 13), session(15, 19)),
		working("Thu", session(9, 12), session(14, 18)),
		working("Fri", session(11, 18)),
		working("Sat", session(9, 14)),
		{DayName: "Sun", IsWorking: false, Sessions: []entities.Session{}},
	}
}

// FetchWeeklySchedule returns the shared schedule for any known doctor
func (m *MockAdapter) FetchWeeklySchedule(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) (entities.WeeklySchedule, error) {
	if _, ok := m.byPrimaryKey(doctorResourceID); !ok {
		return nil, apperrors.NewNotFoundError("Doctor not found")
	}

	// Callers own the returned schedule
	out := make(entities.WeeklySchedule, len(m.schedule))
	for i, day := range m.schedule {
		out[i] = day
		out[i].Sessions = append([]entities.Session{}, day.Sessions...)
	}
	return out, nil
}

// ListDoctors returns the mock doctors for the configured facility
func (m *MockAdapter) ListDoctors(ctx context.Context, facilityID string) ([]*entities.Doctor, error) {
	if facilityID != m.facilityID {
		return nil, apperrors.NewNotFoundError("Facility not found")
	}
	doctors := make([]*entities.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		doctors = append(doctors, &d)
	}
	return doctors, nil
}

// RegisterPatient accepts any complete registration
func (m *MockAdapter) RegisterPatient(ctx context.Context, record entities.PatientRecord) (string, error) {
	if record.PatientName == "" || record.PatientMobile == "" || record.FacilityID == "" {
		return "", apperrors.NewValidationError("patient_name, patient_mobile, and facility_id are required")
	}
	if record.FacilityID != m.facilityID {
		return "", apperrors.NewValidationError("Invalid facility_id")
	}
	return fmt.Sprintf("patient_%s", uuid.NewString()), nil
}

// BookAppointment accepts bookings for known doctors
func (m *MockAdapter) BookAppointment(ctx context.Context, record entities.AppointmentRecord) (string, error) {
	if record.FacilityID == "" || record.EmployeeID == "" || record.Date == "" || record.StartTime == "" {
		return "", apperrors.NewValidationError("facility_id, employee_id, date, and start_time are required")
	}
	if record.FacilityID != m.facilityID {
		return "", apperrors.NewValidationError("Invalid facility_id")
	}
	if _, ok := m.byEmployeeID(record.EmployeeID); !ok {
		return "", apperrors.NewNotFoundError("Doctor not found")
	}
	return fmt.Sprintf("appointment_%s", uuid.NewString()), nil
}

func (m *MockAdapter) byPrimaryKey(pk string) (entities.Doctor, bool) {
	for _, d := range m.doctors {
		if d.PrimaryKey == pk {
			return d, true
		}
	}
	return entities.Doctor{}, false
}

func (m *MockAdapter) byEmployeeID(id string) (entities.Doctor, bool) {
	for _, d := range m.doctors {
		if d.EmployeeID == id {
			return d, true
		}
	}
	return entities.Doctor{}, false
}
