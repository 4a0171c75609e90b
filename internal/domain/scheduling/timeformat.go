package scheduling

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// ParseClockTime parses a user-facing time selection. It accepts 12-hour
// "H:MM AM"/"H:MM PM" as well as 24-hour "HH:MM" and "HH:MM:SS".
func ParseClockTime(value string) (entities.TimeOfDay, error) {
	fields := strings.Fields(strings.TrimSpace(value))
	switch len(fields) {
	case 1:
		return entities.ParseTimeOfDay(fields[0])
	case 2:
		return parse12Hour(fields[0], strings.ToUpper(fields[1]))
	default:
		return 0, fmt.Errorf("invalid time %q", value)
	}
}

func parse12Hour(clock, meridiem string) (entities.TimeOfDay, error) {
	if meridiem != "AM" && meridiem != "PM" {
		return 0, fmt.Errorf("invalid meridiem %q", meridiem)
	}

	hourPart, minutePart, ok := strings.Cut(clock, ":")
	if !ok || len(minutePart) != 2 {
		return 0, fmt.Errorf("invalid time %q", clock)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}

	// 12 AM is midnight, 12 PM is noon
	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}
	return entities.NewTimeOfDay(hour, minute), nil
}

// ConvertTo24Hour converts a time selection to the 24-hour "HH:MM" wire format
func ConvertTo24Hour(value string) (string, error) {
	t, err := ParseClockTime(value)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
