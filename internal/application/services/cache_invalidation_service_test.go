package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/events"
	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
)

type MockScheduleInvalidator struct {
	mock.Mock
}

func (m *MockScheduleInvalidator) Invalidate(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) error {
	args := m.Called(ctx, doctorResourceID, referenceDate)
	return args.Error(0)
}

func TestCacheInvalidationService(t *testing.T) {
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	invalidator := new(MockScheduleInvalidator)
	invalidated := make(chan struct{}, 1)
	invalidator.On("Invalidate", mock.Anything, "res-D", monday).
		Run(func(mock.Arguments) { invalidated <- struct{}{} }).
		Return(nil).Once()

	service := services.NewCacheInvalidationService(newDoctorLookup(t), invalidator, bus)
	require.NoError(t, service.Start())
	t.Cleanup(service.Stop)

	ctx := context.Background()
	// Events without a confirmation are ignored
	require.NoError(t, bus.Publish(ctx, providers.EventChannelBookingsConfirmed,
		entities.NewBookingEvent(entities.BookingEventTypeSubmitted, entities.BookingSessionState{SessionID: "s0"})))
	require.NoError(t, bus.Publish(ctx, providers.EventChannelBookingsConfirmed,
		entities.NewBookingEvent(entities.BookingEventTypeSubmitted, entities.BookingSessionState{
			SessionID:    "s1",
			Confirmation: &entities.BookingConfirmation{DoctorID: "D", Date: monday, Time: "09:30"},
		})))

	select {
	case <-invalidated:
	case <-time.After(2 * time.Second):
		t.Fatal("schedule was not invalidated")
	}
	invalidator.AssertExpectations(t)
}

func TestCacheInvalidationService_FollowsConfirmedBookings(t *testing.T) {
	f := newSessionFixture(t, services.SessionConfig{})
	f.expectBooking(nil, nil)

	invalidator := new(MockScheduleInvalidator)
	invalidated := make(chan struct{}, 1)
	invalidator.On("Invalidate", mock.Anything, "res-D", monday).
		Run(func(mock.Arguments) { invalidated <- struct{}{} }).
		Return(nil)

	service := services.NewCacheInvalidationService(newDoctorLookup(t), invalidator, f.bus)
	require.NoError(t, service.Start())
	t.Cleanup(service.Stop)

	id := f.fillWizard(t)
	_, err := f.service.SubmitBooking(context.Background(), id)
	require.NoError(t, err)

	select {
	case <-invalidated:
	case <-time.After(2 * time.Second):
		t.Fatal("schedule was not invalidated after booking")
	}
}
