package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
)

// DoctorLookup finds a doctor by employee id
type DoctorLookup interface {
	GetDoctor(ctx context.Context, employeeID string) (*entities.Doctor, error)
}

// SlotService answers slot queries by composing the schedule provider, the
// weekday resolver and the slot generator
type SlotService struct {
	doctors  DoctorLookup
	schedule providers.ScheduleProvider
	resolver *scheduling.Resolver
	metrics  *observability.Metrics
}

// NewSlotService creates a slot service. metrics may be nil.
func NewSlotService(doctors DoctorLookup, schedule providers.ScheduleProvider, resolver *scheduling.Resolver, metrics *observability.Metrics) *SlotService {
	if resolver == nil {
		resolver = scheduling.NewResolver(scheduling.WeekdayShort)
	}
	return &SlotService{
		doctors:  doctors,
		schedule: schedule,
		resolver: resolver,
		metrics:  metrics,
	}
}

// FetchSchedule returns the doctor's weekly schedule around date. An unknown
// doctor or a failing provider yields an empty schedule: the schedule is
// unavailable, which is not an error for the caller.
func (s *SlotService) FetchSchedule(ctx context.Context, doctorID string, date entities.CalendarDate) entities.WeeklySchedule {
	ctx, span := observability.StartSpan(ctx, "slots.FetchSchedule")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("doctor.employee_id", doctorID),
		attribute.String("date", date.String()),
	)
	logger := observability.LoggerFromContext(ctx)

	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("Schedule unavailable: doctor lookup failed")
		return entities.WeeklySchedule{}
	}

	schedule, err := s.schedule.FetchWeeklySchedule(ctx, doctor.PrimaryKey, date)
	if err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Str("doctor_id", doctorID).Str("date", date.String()).Msg("Schedule unavailable: provider failed")
		return entities.WeeklySchedule{}
	}
	if schedule == nil {
		return entities.WeeklySchedule{}
	}
	return schedule
}

// GetSlotsForDate returns the doctor's slots on date, empty when the schedule
// is unavailable or the doctor does not work that day
func (s *SlotService) GetSlotsForDate(ctx context.Context, doctorID string, date entities.CalendarDate) []entities.TimeSlot {
	slots := s.SlotsFromSchedule(s.FetchSchedule(ctx, doctorID, date), date)
	observability.RecordSlotQuery(ctx, s.metrics, len(slots))
	return slots
}

// SlotsFromSchedule resolves date in an already fetched schedule
func (s *SlotService) SlotsFromSchedule(schedule entities.WeeklySchedule, date entities.CalendarDate) []entities.TimeSlot {
	return scheduling.GenerateSlots(s.resolver.ResolveDay(schedule, date))
}

// Resolver returns the weekday resolver slot queries use
func (s *SlotService) Resolver() *scheduling.Resolver {
	return s.resolver
}
