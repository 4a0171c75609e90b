package wizard

import (
	"fmt"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// ActionType names a wizard transition
type ActionType string

const (
	ActionSelectDoctor      ActionType = "select_doctor"
	ActionSelectDate        ActionType = "select_date"
	ActionSelectTime        ActionType = "select_time"
	ActionSetName           ActionType = "set_name"
	ActionSetPhone          ActionType = "set_phone"
	ActionSetEmail          ActionType = "set_email"
	ActionAdvance           ActionType = "advance"
	ActionRetreat           ActionType = "retreat"
	ActionBeginSubmit       ActionType = "begin_submit"
	ActionSubmitSucceeded   ActionType = "submit_succeeded"
	ActionSubmitFailed      ActionType = "submit_failed"
	ActionIngestRemoteSlots ActionType = "ingest_remote_slots"
	ActionReset             ActionType = "reset"
)

// Action is one input to Reduce
type Action struct {
	Type     ActionType
	Text     string
	Date     *entities.CalendarDate
	Schedule entities.WeeklySchedule
}

// SelectDoctor sets the chosen doctor's employee id
func SelectDoctor(id string) Action { return Action{Type: ActionSelectDoctor, Text: id} }

// SelectTime sets the chosen time of day
func SelectTime(t string) Action { return Action{Type: ActionSelectTime, Text: t} }

// SetName sets the patient's name
func SetName(v string) Action { return Action{Type: ActionSetName, Text: v} }

// SetPhone sets the patient's phone number
func SetPhone(v string) Action { return Action{Type: ActionSetPhone, Text: v} }

// SetEmail sets the patient's email address
func SetEmail(v string) Action { return Action{Type: ActionSetEmail, Text: v} }

// Advance moves one step forward
func Advance() Action { return Action{Type: ActionAdvance} }

// Retreat moves one step back
func Retreat() Action { return Action{Type: ActionRetreat} }

// BeginSubmit marks the wizard as submitting
func BeginSubmit() Action { return Action{Type: ActionBeginSubmit} }

// SubmitSucceeded resolves a submission as booked
func SubmitSucceeded() Action { return Action{Type: ActionSubmitSucceeded} }

// SubmitFailed resolves a submission as failed
func SubmitFailed() Action { return Action{Type: ActionSubmitFailed} }

// Reset clears the draft and returns to step one
func Reset() Action { return Action{Type: ActionReset} }

// SelectDate sets the chosen appointment date
func SelectDate(d entities.CalendarDate) Action {
	return Action{Type: ActionSelectDate, Date: &d}
}

// IngestRemoteSlots replaces the held weekly schedule
func IngestRemoteSlots(schedule entities.WeeklySchedule) Action {
	return Action{Type: ActionIngestRemoteSlots, Schedule: schedule}
}

// userActions are the transitions a presentation layer may request directly.
// Submission lifecycle and slot ingestion belong to the server.
var userActions = map[ActionType]bool{
	ActionSelectDoctor: true,
	ActionSelectDate:   true,
	ActionSelectTime:   true,
	ActionSetName:      true,
	ActionSetPhone:     true,
	ActionSetEmail:     true,
	ActionAdvance:      true,
	ActionRetreat:      true,
	ActionReset:        true,
}

// ParseUserAction builds an action from its wire form
func ParseUserAction(actionType, value string) (Action, error) {
	t := ActionType(actionType)
	if !userActions[t] {
		return Action{}, fmt.Errorf("unsupported action %q", actionType)
	}
	if t == ActionSelectDate {
		date, err := entities.ParseCalendarDate(value)
		if err != nil {
			return Action{}, err
		}
		return SelectDate(date), nil
	}
	return Action{Type: t, Text: value}, nil
}
