package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/repositories"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// OfferableDate is a date the wizard offers, with the labels the date picker shows
type OfferableDate struct {
	Date    entities.CalendarDate `json:"date"`
	Weekday string                `json:"weekday"`
	Day     int                   `json:"day"`
	Month   string                `json:"month"`
}

// DoctorService serves the doctor directory and the date window
type DoctorService struct {
	repo       repositories.DoctorRepository
	directory  providers.DoctorDirectory
	profiles   entities.DoctorProfileTable
	facilityID string
	window     scheduling.Window
	now        func() time.Time

	mu    sync.RWMutex
	known map[string]*entities.Doctor
}

// NewDoctorService creates a doctor service. repo may be nil, in which case the
// clinic directory is always consulted.
func NewDoctorService(
	repo repositories.DoctorRepository,
	directory providers.DoctorDirectory,
	profiles entities.DoctorProfileTable,
	facilityID string,
	window scheduling.Window,
	now func() time.Time,
) *DoctorService {
	if now == nil {
		now = time.Now
	}
	return &DoctorService{
		repo:       repo,
		directory:  directory,
		profiles:   profiles,
		facilityID: facilityID,
		window:     window,
		now:        now,
		known:      make(map[string]*entities.Doctor),
	}
}

// ListDoctors returns the facility's doctors with display profiles applied. The
// local directory is preferred; an empty or failing one falls back to the clinic.
func (s *DoctorService) ListDoctors(ctx context.Context) ([]*entities.Doctor, error) {
	var doctors []*entities.Doctor
	if s.repo != nil {
		found, err := s.repo.List(ctx, s.facilityID)
		if err != nil {
			log.Warn().Err(err).Msg("Local doctor directory unavailable, asking clinic")
		}
		doctors = found
	}

	if len(doctors) == 0 {
		found, err := s.directory.ListDoctors(ctx, s.facilityID)
		if err != nil {
			return nil, err
		}
		doctors = found
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range doctors {
		s.profiles.Apply(d)
		s.known[d.EmployeeID] = d
	}
	return doctors, nil
}

// GetDoctor returns a doctor by employee id
func (s *DoctorService) GetDoctor(ctx context.Context, employeeID string) (*entities.Doctor, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.NewValidationError("doctor id is required")
	}

	s.mu.RLock()
	doctor, ok := s.known[employeeID]
	s.mu.RUnlock()
	if ok {
		return doctor, nil
	}

	if s.repo != nil {
		doctor, err := s.repo.GetByEmployeeID(ctx, employeeID)
		if err == nil {
			s.profiles.Apply(doctor)
			return doctor, nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			log.Warn().Err(err).Str("employee_id", employeeID).Msg("Local doctor lookup failed")
		}
	}

	doctors, err := s.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		if d.EmployeeID == employeeID {
			return d, nil
		}
	}
	return nil, apperrors.NewNotFoundError("doctor not found")
}

// DoctorName returns the doctor's display name, or empty when unknown
func (s *DoctorService) DoctorName(ctx context.Context, employeeID string) string {
	doctor, err := s.GetDoctor(ctx, employeeID)
	if err != nil {
		return ""
	}
	return doctor.DisplayName()
}

// OfferableDates returns the dates a patient may pick from today
func (s *DoctorService) OfferableDates() []OfferableDate {
	today := entities.CalendarDateOf(s.now())
	dates := scheduling.OfferableDates(today, s.window)

	out := make([]OfferableDate, 0, len(dates))
	for _, d := range dates {
		out = append(out, OfferableDate{
			Date:    d,
			Weekday: scheduling.WeekdayShort.Name(d.Weekday()),
			Day:     d.Day,
			Month:   d.Month.String()[:3],
		})
	}
	return out
}

// IsOfferable reports whether date lies in the booking window
func (s *DoctorService) IsOfferable(date entities.CalendarDate) bool {
	return s.window.Contains(entities.CalendarDateOf(s.now()), date)
}
