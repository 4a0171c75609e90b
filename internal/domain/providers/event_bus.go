package providers

import (
	"context"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to booking events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelBookingSessionPrefix is the prefix for per-session channels
	EventChannelBookingSessionPrefix = "booking:session:"

	// EventChannelBookingsConfirmed carries every confirmed booking across sessions
	EventChannelBookingsConfirmed = "booking:confirmed"
)

// GetBookingSessionChannel returns the channel name for a booking session
func GetBookingSessionChannel(sessionID string) string {
	return EventChannelBookingSessionPrefix + sessionID
}
