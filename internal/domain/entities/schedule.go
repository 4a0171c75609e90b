package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight
type TimeOfDay int

// MinutesPerDay bounds a valid TimeOfDay
const MinutesPerDay = 24 * 60

// NewTimeOfDay builds a TimeOfDay from hours and minutes
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (24-hour clock). Seconds are dropped.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if len(parts) == 3 {
		second, err := strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, fmt.Errorf("invalid second in %q", value)
		}
	}

	return NewTimeOfDay(hour, minute), nil
}

// Hour returns the hour component
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Add returns the time advanced by the given number of minutes
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// String formats the time as zero-padded 24-hour "HH:MM"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CalendarDate is a civil date without a time zone
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// CalendarDateLayout is the ISO wire format for dates
const CalendarDateLayout = "2006-01-02"

// ParseCalendarDate parses an ISO "YYYY-MM-DD" date
func ParseCalendarDate(value string) (CalendarDate, error) {
	t, err := time.Parse(CalendarDateLayout, strings.TrimSpace(value))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return CalendarDateOf(t), nil
}

// CalendarDateOf returns the civil date of t in t's location
func CalendarDateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date
func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of the week
func (d CalendarDate) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns the date shifted by n days
func (d CalendarDate) AddDays(n int) CalendarDate {
	return CalendarDateOf(d.Time().AddDate(0, 0, n))
}

// IsZero reports whether the date is unset
func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as "YYYY-MM-DD"
func (d CalendarDate) String() string {
	return d.Time().Format(CalendarDateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *CalendarDate) UnmarshalText(data []byte) error {
	parsed, err := ParseCalendarDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Session is a contiguous working interval subdivided into fixed-size slots
type Session struct {
	StartTime    TimeOfDay `json:"start_time"`
	EndTime      TimeOfDay `json:"end_time"`
	DurationMins int       `json:"duration_mins"`
	IsAvailable  bool      `json:"status"`
}

// DaySchedule is the working plan for one weekday
type DaySchedule struct {
	DayName   string    `json:"day_of_the_week"`
	IsWorking bool      `json:"is_working"`
	Sessions  []Session `json:"sessions"`
}

// WeeklySchedule is a sparse set of day schedules keyed by weekday name.
// A weekday without an entry is treated as unavailable.
type WeeklySchedule []DaySchedule

// TimeSlot is a bookable unit derived from a session. It is never persisted.
type TimeSlot struct {
	Time      TimeOfDay `json:"time"`
	Available bool      `json:"available"`
}
