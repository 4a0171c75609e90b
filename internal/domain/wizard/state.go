// Package wizard implements the three-step booking wizard as a pure
// state-transition function plus a mutex-guarded owner of one wizard's state.
package wizard

import (
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// State is everything one booking wizard holds
type State struct {
	Draft entities.BookingDraft
	UI    entities.WizardUIState

	// Schedule is the last weekly schedule ingested for the selected doctor.
	// It survives Reset.
	Schedule entities.WeeklySchedule
}

// Initial returns the state of a freshly mounted wizard
func Initial() State {
	return State{
		UI: entities.WizardUIState{CurrentStep: entities.StepSelectDoctor},
	}
}

// CanAdvance reports whether the current step's prerequisites are filled in.
// Advance itself does not consult this; callers gate the affordance.
func (s State) CanAdvance() bool {
	if s.UI.IsSubmitting || s.UI.IsSubmitted {
		return false
	}
	switch s.UI.CurrentStep {
	case entities.StepSelectDoctor:
		return s.Draft.DoctorID != ""
	case entities.StepSelectDateTime:
		return s.Draft.Date != nil && s.Draft.Time != ""
	}
	return false
}

// Locked reports whether a submission is in flight or finished. Only
// BeginSubmit consults it; field edits and step moves stay legal.
func (s State) Locked() bool {
	return s.UI.IsSubmitting || s.UI.IsSubmitted
}

func (s State) clone() State {
	out := s
	if s.Draft.Date != nil {
		date := *s.Draft.Date
		out.Draft.Date = &date
	}
	return out
}
