package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// WeekdayNaming selects how weekday names are spelled in a schedule
type WeekdayNaming string

const (
	// WeekdayShort matches "Mon", "Tue", ... as sent by the clinic scheduling API
	WeekdayShort WeekdayNaming = "short"
	// WeekdayLong matches "Monday", "Tuesday", ...
	WeekdayLong WeekdayNaming = "long"
)

// Name returns the weekday's name under this naming
func (n WeekdayNaming) Name(day time.Weekday) string {
	if n == WeekdayLong {
		return day.String()
	}
	return day.String()[:3]
}

// Resolver picks a day's schedule out of a weekly schedule
type Resolver struct {
	Naming WeekdayNaming
}

// NewResolver creates a resolver for the given weekday naming
func NewResolver(naming WeekdayNaming) *Resolver {
	if naming == "" {
		naming = WeekdayShort
	}
	return &Resolver{Naming: naming}
}

// ResolveDay returns the entry whose name exactly matches the date's weekday,
// or nil when the schedule has none. It does not check that the date is in
// the future or inside the offerable window.
func (r *Resolver) ResolveDay(schedule entities.WeeklySchedule, date entities.CalendarDate) *entities.DaySchedule {
	name := r.Naming.Name(date.Weekday())
	for i := range schedule {
		if schedule[i].DayName == name {
			day := schedule[i]
			return &day
		}
	}
	return nil
}

var defaultResolver = NewResolver(WeekdayShort)

// ResolveDay resolves using short weekday names
func ResolveDay(schedule entities.WeeklySchedule, date entities.CalendarDate) *entities.DaySchedule {
	return defaultResolver.ResolveDay(schedule, date)
}

// ParseWeekday accepts short or long English weekday names, case-insensitively
func ParseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		long := strings.ToLower(d.String())
		if v == long || v == long[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", value)
}
