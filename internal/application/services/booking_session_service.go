package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/validation"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/wizard"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// DateWindow decides which dates may be selected
type DateWindow interface {
	IsOfferable(date entities.CalendarDate) bool
}

// SessionConfig holds booking session timing
type SessionConfig struct {
	// ResetDwell is how long a confirmed booking stays on screen before the wizard resets
	ResetDwell time.Duration
	// SessionTTL evicts sessions idle for longer than this
	SessionTTL time.Duration
}

// bookingSession is one user's wizard plus the submission outcome shown next to it
type bookingSession struct {
	id      string
	machine *wizard.Machine

	// ops serializes actions so a schedule fetch is ingested before the next action applies
	ops sync.Mutex

	mu           sync.Mutex
	submitting   bool
	confirmation *entities.BookingConfirmation
	lastError    string
	resetTimer   *time.Timer
	lastSeen     time.Time
}

// claimSubmit marks the session as submitting. It fails when another submit
// request for the session has not returned yet.
func (b *bookingSession) claimSubmit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return false
	}
	b.submitting = true
	return true
}

func (b *bookingSession) releaseSubmit() {
	b.mu.Lock()
	b.submitting = false
	b.mu.Unlock()
}

// BookingSessionService owns the live booking wizards
type BookingSessionService struct {
	slots       *SlotService
	coordinator *BookingCoordinator
	window      DateWindow
	bus         providers.EventBus
	cfg         SessionConfig
	metrics     *observability.Metrics
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*bookingSession
}

// NewBookingSessionService creates the session service. window, bus and metrics may be nil.
func NewBookingSessionService(
	slots *SlotService,
	coordinator *BookingCoordinator,
	window DateWindow,
	bus providers.EventBus,
	cfg SessionConfig,
	metrics *observability.Metrics,
) *BookingSessionService {
	return &BookingSessionService{
		slots:       slots,
		coordinator: coordinator,
		window:      window,
		bus:         bus,
		cfg:         cfg,
		metrics:     metrics,
		now:         time.Now,
		sessions:    make(map[string]*bookingSession),
	}
}

// CreateSession mounts a fresh wizard
func (s *BookingSessionService) CreateSession(ctx context.Context) entities.BookingSessionState {
	session := &bookingSession{
		id:       uuid.New().String(),
		machine:  wizard.NewMachine(s.slots.Resolver()),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	observability.RecordSessionDelta(ctx, s.metrics, 1)
	log.Debug().Str("session_id", session.id).Msg("Booking session created")

	state := s.stateOf(session)
	s.publish(ctx, entities.BookingEventTypeCreated, state)
	return state
}

// GetSession returns a session's observable state
func (s *BookingSessionService) GetSession(ctx context.Context, id string) (entities.BookingSessionState, error) {
	session, err := s.lookup(id)
	if err != nil {
		return entities.BookingSessionState{}, err
	}
	return s.stateOf(session), nil
}

// DeleteSession discards a session and cancels its pending reset
func (s *BookingSessionService) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return apperrors.NewNotFoundError("booking session not found")
	}

	session.mu.Lock()
	session.stopResetTimer()
	session.mu.Unlock()

	observability.RecordSessionDelta(ctx, s.metrics, -1)
	if s.bus != nil {
		if err := s.bus.Unsubscribe(ctx, providers.GetBookingSessionChannel(id)); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("Failed to close session stream")
		}
	}
	return nil
}

// ApplyAction applies one user action. Selecting a doctor or date refetches the
// doctor's schedule once both are chosen.
func (s *BookingSessionService) ApplyAction(ctx context.Context, id string, action wizard.Action) (entities.BookingSessionState, error) {
	session, err := s.lookup(id)
	if err != nil {
		return entities.BookingSessionState{}, err
	}
	ctx = observability.WithSessionID(ctx, id)

	session.ops.Lock()
	defer session.ops.Unlock()

	if err := s.checkAction(session, action); err != nil {
		return entities.BookingSessionState{}, err
	}

	changed := session.machine.Dispatch(action)
	if !changed {
		return s.stateOf(session), nil
	}

	if action.Type == wizard.ActionReset {
		session.mu.Lock()
		session.stopResetTimer()
		session.confirmation = nil
		session.lastError = ""
		session.mu.Unlock()
		state := s.stateOf(session)
		s.publish(ctx, entities.BookingEventTypeReset, state)
		return state, nil
	}

	s.publish(ctx, entities.BookingEventTypeUpdated, s.stateOf(session))

	if action.Type == wizard.ActionSelectDoctor || action.Type == wizard.ActionSelectDate {
		draft := session.machine.Draft()
		if draft.DoctorID != "" && draft.Date != nil {
			schedule := s.slots.FetchSchedule(ctx, draft.DoctorID, *draft.Date)
			session.machine.IngestRemoteSlots(schedule)
			s.publish(ctx, entities.BookingEventTypeSlotsIngested, s.stateOf(session))
		}
	}

	return s.stateOf(session), nil
}

// checkAction rejects selections the wizard would otherwise accept blindly
func (s *BookingSessionService) checkAction(session *bookingSession, action wizard.Action) error {
	switch action.Type {
	case wizard.ActionSelectDate:
		if action.Date == nil {
			return apperrors.NewValidationError("date is required")
		}
		if s.window != nil && !s.window.IsOfferable(*action.Date) {
			return apperrors.NewValidationError("date is outside the booking window")
		}
	case wizard.ActionSelectTime:
		t, err := scheduling.ParseClockTime(action.Text)
		if err != nil {
			return apperrors.NewValidationError("invalid time")
		}
		slots := session.machine.Slots()
		if len(slots) == 0 {
			return nil
		}
		slot, ok := scheduling.FindSlot(slots, t)
		if !ok || !slot.Available {
			return apperrors.NewValidationError("selected time is not available")
		}
	}
	return nil
}

// checkContact validates the contact details about to be sent to the clinic.
// An empty email is allowed; the registration falls back to a default address.
func (s *BookingSessionService) checkContact(draft entities.BookingDraft) error {
	today := entities.CalendarDateOf(s.now())
	if draft.PatientPhone != "" {
		if result := validation.ValidateField(validation.FieldPhone, draft.PatientPhone, today); !result.Valid {
			return apperrors.NewValidationError(result.Error)
		}
	}
	if draft.PatientEmail != "" {
		if result := validation.ValidateField(validation.FieldEmail, draft.PatientEmail, today); !result.Valid {
			return apperrors.NewValidationError(result.Error)
		}
	}
	return nil
}

// SubmitBooking runs the submission for a session. The outcome is reported
// through the returned state: a confirmation on success, LastError on failure.
// Errors are returned only when no submission was attempted. A submit request
// arriving while another is pending returns ErrSubmissionInProgress at once.
// Other actions on the session wait until the submission resolves.
func (s *BookingSessionService) SubmitBooking(ctx context.Context, id string) (entities.BookingSessionState, error) {
	session, err := s.lookup(id)
	if err != nil {
		return entities.BookingSessionState{}, err
	}

	ctx = observability.WithSessionID(ctx, id)

	if !session.claimSubmit() {
		return entities.BookingSessionState{}, ErrSubmissionInProgress
	}
	defer session.releaseSubmit()

	session.ops.Lock()
	defer session.ops.Unlock()

	if err := s.checkContact(session.machine.Draft()); err != nil {
		return entities.BookingSessionState{}, err
	}

	session.mu.Lock()
	previousError := session.lastError
	session.lastError = ""
	session.mu.Unlock()

	confirmation, err := s.coordinator.SubmitWizard(ctx, session.machine, func() {
		s.publish(ctx, entities.BookingEventTypeSubmitting, s.stateOf(session))
	})
	if errors.Is(err, ErrSubmissionInProgress) || errors.Is(err, ErrNotReadyToSubmit) {
		session.mu.Lock()
		session.lastError = previousError
		session.mu.Unlock()
		return entities.BookingSessionState{}, err
	}

	ctx = context.WithoutCancel(ctx)
	if err != nil {
		session.mu.Lock()
		session.lastError = apperrors.PublicMessage(err)
		session.mu.Unlock()

		state := s.stateOf(session)
		s.publish(ctx, entities.BookingEventTypeSubmissionFailed, state)
		return state, nil
	}

	session.mu.Lock()
	session.confirmation = confirmation
	session.stopResetTimer()
	if s.cfg.ResetDwell > 0 {
		session.resetTimer = time.AfterFunc(s.cfg.ResetDwell, func() { s.autoReset(id) })
	}
	session.mu.Unlock()

	state := s.stateOf(session)
	s.publish(ctx, entities.BookingEventTypeSubmitted, state)
	return state, nil
}

// autoReset returns a confirmed wizard to step one after the dwell
func (s *BookingSessionService) autoReset(id string) {
	session, err := s.lookup(id)
	if err != nil {
		return
	}

	session.ops.Lock()
	defer session.ops.Unlock()

	if !session.machine.UI().IsSubmitted {
		return
	}
	session.machine.Reset()

	session.mu.Lock()
	session.confirmation = nil
	session.lastError = ""
	session.resetTimer = nil
	session.mu.Unlock()

	log.Debug().Str("session_id", id).Msg("Booking session reset after confirmation")
	s.publish(context.Background(), entities.BookingEventTypeReset, s.stateOf(session))
}

// StartJanitor evicts idle sessions every interval until ctx is done
func (s *BookingSessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.cfg.SessionTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := s.EvictIdle(ctx); evicted > 0 {
					log.Info().Int("evicted", evicted).Msg("Evicted idle booking sessions")
				}
			}
		}
	}()
}

// EvictIdle removes sessions idle longer than the TTL. Submitting sessions are kept.
func (s *BookingSessionService) EvictIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	var idle []string
	s.mu.RLock()
	for id, session := range s.sessions {
		session.mu.Lock()
		stale := session.lastSeen.Before(cutoff)
		session.mu.Unlock()
		if stale && !session.machine.UI().IsSubmitting {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range idle {
		_ = s.DeleteSession(ctx, id)
	}
	return len(idle)
}

// Count returns the number of live sessions
func (s *BookingSessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close cancels all pending resets
func (s *BookingSessionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		session.mu.Lock()
		session.stopResetTimer()
		session.mu.Unlock()
	}
}

func (s *BookingSessionService) lookup(id string) (*bookingSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("booking session not found")
	}

	session.mu.Lock()
	session.lastSeen = s.now()
	session.mu.Unlock()
	return session, nil
}

func (s *BookingSessionService) stateOf(session *bookingSession) entities.BookingSessionState {
	snapshot := session.machine.Snapshot()

	session.mu.Lock()
	confirmation := session.confirmation
	lastError := session.lastError
	session.mu.Unlock()

	schedule := snapshot.Schedule
	if schedule == nil {
		schedule = entities.WeeklySchedule{}
	}
	return entities.BookingSessionState{
		SessionID:    session.id,
		Draft:        snapshot.Draft,
		UI:           snapshot.UI,
		Schedule:     schedule,
		Slots:        session.machine.Slots(),
		CanAdvance:   snapshot.CanAdvance(),
		Confirmation: confirmation,
		LastError:    lastError,
		UpdatedAt:    s.now(),
	}
}

func (s *BookingSessionService) publish(ctx context.Context, eventType entities.BookingEventType, state entities.BookingSessionState) {
	if s.bus == nil {
		return
	}
	event := entities.NewBookingEvent(eventType, state)
	if err := s.bus.Publish(ctx, providers.GetBookingSessionChannel(state.SessionID), event); err != nil {
		log.Warn().Err(err).Str("session_id", state.SessionID).Str("event_type", string(eventType)).Msg("Failed to publish booking event")
	}
	if eventType == entities.BookingEventTypeSubmitted {
		if err := s.bus.Publish(ctx, providers.EventChannelBookingsConfirmed, event); err != nil {
			log.Warn().Err(err).Str("session_id", state.SessionID).Msg("Failed to publish booking confirmation")
		}
	}
}

// stopResetTimer must be called with session.mu held
func (b *bookingSession) stopResetTimer() {
	if b.resetTimer != nil {
		b.resetTimer.Stop()
		b.resetTimer = nil
	}
}
