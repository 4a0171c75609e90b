package scheduling

import (
	"time"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// Window is the policy for which calendar dates are offered to a patient
type Window struct {
	LookaheadDays    int
	ExcludedWeekdays []time.Weekday
}

// DefaultWindow offers the next seven days and never Sundays
func DefaultWindow() Window {
	return Window{
		LookaheadDays:    7,
		ExcludedWeekdays: []time.Weekday{time.Sunday},
	}
}

// Excludes reports whether the weekday is never offered
func (w Window) Excludes(day time.Weekday) bool {
	for _, excluded := range w.ExcludedWeekdays {
		if excluded == day {
			return true
		}
	}
	return false
}

// OfferableDates returns the dates in (today, today+LookaheadDays] that are not
// excluded. Today itself is never offered.
func OfferableDates(today entities.CalendarDate, w Window) []entities.CalendarDate {
	dates := make([]entities.CalendarDate, 0, w.LookaheadDays)
	for i := 1; i <= w.LookaheadDays; i++ {
		date := today.AddDays(i)
		if w.Excludes(date.Weekday()) {
			continue
		}
		dates = append(dates, date)
	}
	return dates
}

// Contains reports whether date is offerable from today under w
func (w Window) Contains(today, date entities.CalendarDate) bool {
	for _, d := range OfferableDates(today, w) {
		if d == date {
			return true
		}
	}
	return false
}
