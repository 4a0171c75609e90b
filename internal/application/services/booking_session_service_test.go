package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/events"
	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/wizard"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

type sessionFixture struct {
	service  *services.BookingSessionService
	booking  *MockBookingService
	schedule *MockScheduleProvider
	bus      *events.MemoryEventBus
	order    *[]string
}

func newSessionFixture(t *testing.T, cfg services.SessionConfig) *sessionFixture {
	t.Helper()

	order := []string{}
	booking := new(MockBookingService)
	schedule := new(MockScheduleProvider)
	schedule.On("FetchWeeklySchedule", mock.Anything, "res-D", monday).Return(mondayMorning(), nil)

	doctors := newDoctorLookup(t)
	slots := services.NewSlotService(doctors, schedule, nil, nil)
	coordinator := services.NewBookingCoordinator(booking, testFacilityID, services.WithDoctorNamer(doctors))
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	service := services.NewBookingSessionService(slots, coordinator, doctors, bus, cfg, nil)
	t.Cleanup(service.Close)

	return &sessionFixture{service: service, booking: booking, schedule: schedule, bus: bus, order: &order}
}

func (f *sessionFixture) expectBooking(registerErr, bookErr error) {
	f.booking.On("RegisterPatient", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { *f.order = append(*f.order, "register") }).
		Return("patient_1", registerErr)
	f.booking.On("BookAppointment", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { *f.order = append(*f.order, "book") }).
		Return("appointment_1", bookErr)
}

func (f *sessionFixture) apply(t *testing.T, id string, actions ...wizard.Action) entities.BookingSessionState {
	t.Helper()
	var state entities.BookingSessionState
	for _, action := range actions {
		var err error
		state, err = f.service.ApplyAction(context.Background(), id, action)
		require.NoError(t, err, "action %s", action.Type)
	}
	return state
}

// fillWizard walks a new session to the personal details step with John Doe's details
func (f *sessionFixture) fillWizard(t *testing.T) string {
	t.Helper()
	id := f.service.CreateSession(context.Background()).SessionID
	f.apply(t, id,
		wizard.SelectDoctor("D"),
		wizard.SelectDate(monday),
		wizard.Advance(),
		wizard.SelectTime("09:30"),
		wizard.Advance(),
		wizard.SetName("John Doe"),
		wizard.SetPhone("9876543210"),
		wizard.SetEmail("john@x.com"),
	)
	return id
}

func collect(ch <-chan *entities.BookingEvent, n int) []entities.BookingEventType {
	var types []entities.BookingEventType
	timeout := time.After(2 * time.Second)
	for len(types) < n {
		select {
		case event := <-ch:
			types = append(types, event.EventType)
		case <-timeout:
			return types
		}
	}
	return types
}

func TestBookingSessionService_BooksMondayAppointment(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	f.expectBooking(nil, nil)
	ctx := context.Background()

	id := f.service.CreateSession(ctx).SessionID
	state := f.apply(t, id, wizard.SelectDoctor("D"), wizard.SelectDate(monday))
	assert.Equal(t, []entities.TimeSlot{
		{Time: entities.NewTimeOfDay(9, 0), Available: true},
		{Time: entities.NewTimeOfDay(9, 30), Available: true},
	}, state.Slots)

	state = f.apply(t, id, wizard.Advance(), wizard.SelectTime("09:30"))
	assert.True(t, state.CanAdvance)

	f.apply(t, id,
		wizard.Advance(),
		wizard.SetName("John Doe"),
		wizard.SetEmail("john@x.com"),
		wizard.SetPhone("9876543210"),
	)

	state, err := f.service.SubmitBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"register", "book"}, *f.order)
	assert.True(t, state.UI.IsSubmitted)
	assert.False(t, state.UI.IsSubmitting)
	assert.Empty(t, state.LastError)

	require.NotNil(t, state.Confirmation)
	assert.Equal(t, "D", state.Confirmation.DoctorID)
	assert.Equal(t, "dr.d", state.Confirmation.DoctorName)
	assert.Equal(t, monday, state.Confirmation.Date)
	assert.Equal(t, "09:30", state.Confirmation.Time)
	assert.Equal(t, "John Doe", state.Confirmation.PatientName)

	f.booking.AssertCalled(t, "BookAppointment", mock.Anything, entities.AppointmentRecord{
		FacilityID: testFacilityID,
		EmployeeID: "D",
		Date:       "2024-01-15",
		StartTime:  "09:30",
	})
	f.schedule.AssertCalled(t, "FetchWeeklySchedule", mock.Anything, "res-D", monday)
}

func TestBookingSessionService_SubmitFailure(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	f.expectBooking(errors.New("connection reset"), nil)
	id := f.fillWizard(t)

	state, err := f.service.SubmitBooking(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Failed to book appointment. Please try again.", state.LastError)
	assert.Equal(t, entities.WizardUIState{CurrentStep: 3}, state.UI)
	assert.Nil(t, state.Confirmation)
	assert.Equal(t, "John Doe", state.Draft.PatientName)
	assert.Equal(t, []string{"register"}, *f.order)
	f.booking.AssertNotCalled(t, "BookAppointment", mock.Anything, mock.Anything)
}

func TestBookingSessionService_SubmitTwice(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	f.expectBooking(nil, nil)
	id := f.fillWizard(t)

	_, err := f.service.SubmitBooking(context.Background(), id)
	require.NoError(t, err)

	_, err = f.service.SubmitBooking(context.Background(), id)
	assert.ErrorIs(t, err, services.ErrSubmissionInProgress)
	f.booking.AssertNumberOfCalls(t, "RegisterPatient", 1)
}

func TestBookingSessionService_DoubleClickDuringFailingSubmit(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	id := f.fillWizard(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.booking.On("RegisterPatient", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return("", errors.New("connection reset")).Once()

	type outcome struct {
		state entities.BookingSessionState
		err   error
	}
	first := make(chan outcome, 1)
	go func() {
		state, err := f.service.SubmitBooking(context.Background(), id)
		first <- outcome{state: state, err: err}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("registration was not attempted")
	}

	_, err := f.service.SubmitBooking(context.Background(), id)
	assert.ErrorIs(t, err, services.ErrSubmissionInProgress)

	close(release)
	result := <-first
	require.NoError(t, result.err)
	assert.Equal(t, "Failed to book appointment. Please try again.", result.state.LastError)
	assert.False(t, result.state.UI.IsSubmitting)

	f.booking.AssertNumberOfCalls(t, "RegisterPatient", 1)
	f.booking.AssertNotCalled(t, "BookAppointment", mock.Anything, mock.Anything)
}

func TestBookingSessionService_SubmitBeforeLastStep(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	id := f.service.CreateSession(context.Background()).SessionID

	_, err := f.service.SubmitBooking(context.Background(), id)
	assert.ErrorIs(t, err, services.ErrNotReadyToSubmit)
	f.booking.AssertNotCalled(t, "RegisterPatient", mock.Anything, mock.Anything)
}

func TestBookingSessionService_SubmitRejectsInvalidContact(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	id := f.fillWizard(t)
	f.apply(t, id, wizard.SetPhone("12345"))

	_, err := f.service.SubmitBooking(context.Background(), id)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	f.booking.AssertNotCalled(t, "RegisterPatient", mock.Anything, mock.Anything)

	state, err := f.service.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, state.UI.IsSubmitting)
}

func TestBookingSessionService_ActionChecks(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	ctx := context.Background()
	id := f.service.CreateSession(ctx).SessionID
	f.apply(t, id, wizard.SelectDoctor("D"), wizard.SelectDate(monday))

	tests := []struct {
		name   string
		action wizard.Action
	}{
		{name: "date outside the window", action: wizard.SelectDate(monday.AddDays(14))},
		{name: "sunday", action: wizard.SelectDate(monday.AddDays(6))},
		{name: "unparseable time", action: wizard.SelectTime("quarter past")},
		{name: "time without a slot", action: wizard.SelectTime("09:15")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.ApplyAction(ctx, id, tt.action)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}

	state, err := f.service.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, monday, *state.Draft.Date)
	assert.Empty(t, state.Draft.Time)
}

func TestBookingSessionService_AutoReset(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{ResetDwell: 20 * time.Millisecond})
	f.expectBooking(nil, nil)
	id := f.fillWizard(t)

	state, err := f.service.SubmitBooking(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, state.Confirmation)

	require.Eventually(t, func() bool {
		state, err := f.service.GetSession(context.Background(), id)
		return err == nil && state.UI.CurrentStep == 1 && !state.UI.IsSubmitted
	}, 2*time.Second, 5*time.Millisecond)

	state, err = f.service.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, state.Confirmation)
	assert.Equal(t, entities.BookingDraft{}, state.Draft)
	assert.Equal(t, mondayMorning(), state.Schedule)
}

func TestBookingSessionService_PublishesEvents(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	f.expectBooking(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := f.fillWizard(t)
	ch, err := f.bus.Subscribe(ctx, providers.GetBookingSessionChannel(id))
	require.NoError(t, err)

	_, err = f.service.SubmitBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []entities.BookingEventType{
		entities.BookingEventTypeSubmitting,
		entities.BookingEventTypeSubmitted,
	}, collect(ch, 2))

	f.apply(t, id, wizard.Reset())
	assert.Equal(t, []entities.BookingEventType{entities.BookingEventTypeReset}, collect(ch, 1))
}

func TestBookingSessionService_Lifecycle(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{SessionTTL: 10 * time.Millisecond})
	ctx := context.Background()

	first := f.service.CreateSession(ctx)
	second := f.service.CreateSession(ctx)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, entities.WizardUIState{CurrentStep: 1}, first.UI)
	assert.Equal(t, 2, f.service.Count())

	require.NoError(t, f.service.DeleteSession(ctx, first.SessionID))
	_, err := f.service.GetSession(ctx, first.SessionID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.True(t, apperrors.IsType(f.service.DeleteSession(ctx, first.SessionID), apperrors.ErrorTypeNotFound))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, f.service.EvictIdle(ctx))
	assert.Equal(t, 0, f.service.Count())
}
