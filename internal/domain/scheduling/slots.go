// Package scheduling derives bookable time slots from weekly working schedules.
package scheduling

import (
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// GenerateSlots expands a day's sessions into fixed-size slots.
//
// Sessions are concatenated in input order and never sorted or merged, so
// overlapping sessions yield overlapping slots. A slot is emitted only when it
// fits entirely inside its session; a trailing partial slot is dropped. Every
// slot inherits its session's availability. A nil or non-working day yields no
// slots even when sessions are present.
func GenerateSlots(day *entities.DaySchedule) []entities.TimeSlot {
	slots := []entities.TimeSlot{}
	if day == nil || !day.IsWorking {
		return slots
	}

	for _, session := range day.Sessions {
		slots = append(slots, sessionSlots(session)...)
	}
	return slots
}

func sessionSlots(session entities.Session) []entities.TimeSlot {
	if session.DurationMins <= 0 || session.StartTime >= session.EndTime {
		return nil
	}

	var slots []entities.TimeSlot
	for start := session.StartTime; start.Add(session.DurationMins) <= session.EndTime; start = start.Add(session.DurationMins) {
		slots = append(slots, entities.TimeSlot{
			Time:      start,
			Available: session.IsAvailable,
		})
	}
	return slots
}

// SlotsForDate resolves the date's schedule and generates its slots
func SlotsForDate(schedule entities.WeeklySchedule, date entities.CalendarDate) []entities.TimeSlot {
	return GenerateSlots(ResolveDay(schedule, date))
}

// FindSlot returns the slot starting at t, if any
func FindSlot(slots []entities.TimeSlot, t entities.TimeOfDay) (entities.TimeSlot, bool) {
	for _, slot := range slots {
		if slot.Time == t {
			return slot, true
		}
	}
	return entities.TimeSlot{}, false
}
