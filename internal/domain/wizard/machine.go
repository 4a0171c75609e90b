package wizard

import (
	"sync"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
)

// Machine owns the state of one booking wizard. All transitions are
// serialized, so callers on different goroutines observe them in arrival order.
type Machine struct {
	mu       sync.Mutex
	state    State
	resolver *scheduling.Resolver
}

// NewMachine creates a wizard in its initial state. A nil resolver uses
// short weekday names.
func NewMachine(resolver *scheduling.Resolver) *Machine {
	if resolver == nil {
		resolver = scheduling.NewResolver(scheduling.WeekdayShort)
	}
	return &Machine{state: Initial(), resolver: resolver}
}

// Dispatch applies an action and reports whether the state changed
func (m *Machine) Dispatch(action Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, changed := reduce(m.state, action)
	if changed {
		m.state = next
	}
	return changed
}

// SelectDoctor sets the chosen doctor
func (m *Machine) SelectDoctor(id string) { m.Dispatch(SelectDoctor(id)) }

// SelectDate sets the chosen date
func (m *Machine) SelectDate(d entities.CalendarDate) { m.Dispatch(SelectDate(d)) }

// SelectTime sets the chosen time
func (m *Machine) SelectTime(t string) { m.Dispatch(SelectTime(t)) }

// SetName sets the patient's name
func (m *Machine) SetName(v string) { m.Dispatch(SetName(v)) }

// SetPhone sets the patient's phone number
func (m *Machine) SetPhone(v string) { m.Dispatch(SetPhone(v)) }

// SetEmail sets the patient's email address
func (m *Machine) SetEmail(v string) { m.Dispatch(SetEmail(v)) }

// Advance moves one step forward, stopping at the last step
func (m *Machine) Advance() { m.Dispatch(Advance()) }

// Retreat moves one step back, stopping at the first step
func (m *Machine) Retreat() { m.Dispatch(Retreat()) }

// Reset clears the draft and keeps the held schedule
func (m *Machine) Reset() { m.Dispatch(Reset()) }

// IngestRemoteSlots replaces the held schedule wholesale
func (m *Machine) IngestRemoteSlots(schedule entities.WeeklySchedule) {
	m.Dispatch(IngestRemoteSlots(schedule))
}

// BeginSubmit enters the submitting state. It returns false, leaving the
// state untouched, when the wizard is not on the last step or a submission
// is already running or finished.
func (m *Machine) BeginSubmit() bool { return m.Dispatch(BeginSubmit()) }

// StartSubmission enters the submitting state and returns the draft as it was
// at that moment. ok is false under the same conditions as BeginSubmit.
func (m *Machine) StartSubmission() (draft entities.BookingDraft, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, changed := reduce(m.state, BeginSubmit())
	if !changed {
		return entities.BookingDraft{}, false
	}
	m.state = next
	return m.state.clone().Draft, true
}

// SubmitSucceeded resolves an in-flight submission as successful
func (m *Machine) SubmitSucceeded() bool { return m.Dispatch(SubmitSucceeded()) }

// SubmitFailed resolves an in-flight submission as failed, keeping step and draft
func (m *Machine) SubmitFailed() bool { return m.Dispatch(SubmitFailed()) }

// Snapshot returns a copy of the whole state
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Draft returns a copy of the booking draft
func (m *Machine) Draft() entities.BookingDraft {
	return m.Snapshot().Draft
}

// UI returns the wizard's step and submission flags
func (m *Machine) UI() entities.WizardUIState {
	return m.Snapshot().UI
}

// CanAdvance reports whether the current step's prerequisites are met
func (m *Machine) CanAdvance() bool {
	return m.Snapshot().CanAdvance()
}

// Slots derives the time slots for the selected date from the held schedule
func (m *Machine) Slots() []entities.TimeSlot {
	s := m.Snapshot()
	if s.Draft.Date == nil {
		return []entities.TimeSlot{}
	}
	return scheduling.GenerateSlots(m.resolver.ResolveDay(s.Schedule, *s.Draft.Date))
}
