package entities

import (
	"time"

	"github.com/google/uuid"
)

// BookingEventType represents the kind of change applied to a booking session
type BookingEventType string

const (
	BookingEventTypeCreated          BookingEventType = "session_created"
	BookingEventTypeUpdated          BookingEventType = "session_updated"
	BookingEventTypeSlotsIngested    BookingEventType = "slots_ingested"
	BookingEventTypeSubmitting       BookingEventType = "submitting"
	BookingEventTypeSubmitted        BookingEventType = "submitted"
	BookingEventTypeSubmissionFailed BookingEventType = "submission_failed"
	BookingEventTypeReset            BookingEventType = "session_reset"
)

// BookingSessionState is the observable state of one booking wizard
type BookingSessionState struct {
	SessionID    string               `json:"session_id"`
	Draft        BookingDraft         `json:"draft"`
	UI           WizardUIState        `json:"ui"`
	Schedule     WeeklySchedule       `json:"schedule"`
	Slots        []TimeSlot           `json:"slots"`
	CanAdvance   bool                 `json:"can_advance"`
	Confirmation *BookingConfirmation `json:"confirmation,omitempty"`
	LastError    string               `json:"last_error,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// BookingEvent is published whenever a booking session changes
type BookingEvent struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	EventType BookingEventType    `json:"event_type"`
	Timestamp time.Time           `json:"timestamp"`
	State     BookingSessionState `json:"state"`
}

// NewBookingEvent creates a new booking event for the given state
func NewBookingEvent(eventType BookingEventType, state BookingSessionState) *BookingEvent {
	return &BookingEvent{
		ID:        uuid.New().String(),
		SessionID: state.SessionID,
		EventType: eventType,
		Timestamp: time.Now(),
		State:     state,
	}
}
