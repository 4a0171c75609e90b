package wizard

import (
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// Reduce applies one action to a state and returns the next state.
// It never fails: an action that is illegal in the current state is a no-op.
func Reduce(state State, action Action) State {
	next, _ := reduce(state, action)
	return next
}

// reduce also reports whether the action changed anything
func reduce(state State, action Action) (State, bool) {
	next := state.clone()

	switch action.Type {
	case ActionSelectDoctor, ActionSelectDate, ActionSelectTime,
		ActionSetName, ActionSetPhone, ActionSetEmail:
		applyField(&next.Draft, action)

	case ActionAdvance:
		if state.UI.CurrentStep >= entities.StepPersonalDetails {
			return state, false
		}
		next.UI.CurrentStep = clampStep(state.UI.CurrentStep + 1)

	case ActionRetreat:
		if state.UI.CurrentStep <= entities.StepSelectDoctor {
			return state, false
		}
		next.UI.CurrentStep = clampStep(state.UI.CurrentStep - 1)

	case ActionBeginSubmit:
		if state.UI.CurrentStep != entities.StepPersonalDetails || state.Locked() {
			return state, false
		}
		next.UI.IsSubmitting = true

	case ActionSubmitSucceeded:
		if !state.UI.IsSubmitting {
			return state, false
		}
		next.UI.IsSubmitting = false
		next.UI.IsSubmitted = true

	case ActionSubmitFailed:
		if !state.UI.IsSubmitting {
			return state, false
		}
		next.UI.IsSubmitting = false

	case ActionIngestRemoteSlots:
		next.Schedule = action.Schedule

	case ActionReset:
		schedule := state.Schedule
		next = Initial()
		next.Schedule = schedule

	default:
		return state, false
	}

	return next, true
}

func applyField(draft *entities.BookingDraft, action Action) {
	switch action.Type {
	case ActionSelectDoctor:
		draft.DoctorID = action.Text
	case ActionSelectDate:
		if action.Date == nil {
			draft.Date = nil
			return
		}
		date := *action.Date
		draft.Date = &date
	case ActionSelectTime:
		draft.Time = action.Text
	case ActionSetName:
		draft.PatientName = action.Text
	case ActionSetPhone:
		draft.PatientPhone = action.Text
	case ActionSetEmail:
		draft.PatientEmail = action.Text
	}
}

func clampStep(step int) int {
	if step < entities.StepSelectDoctor {
		return entities.StepSelectDoctor
	}
	if step > entities.StepPersonalDetails {
		return entities.StepPersonalDetails
	}
	return step
}
