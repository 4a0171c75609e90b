package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
)

// MessageSender delivers a text message to a phone number
type MessageSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// NotificationService sends patients a WhatsApp confirmation for every
// confirmed booking
type NotificationService struct {
	sender      MessageSender
	eventBus    providers.EventBus
	countryCode string
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	done        chan struct{}
}

// NewNotificationService creates a notification service. countryCode is
// prefixed to ten digit mobile numbers.
func NewNotificationService(sender MessageSender, eventBus providers.EventBus, countryCode string) *NotificationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationService{
		sender:      sender,
		eventBus:    eventBus,
		countryCode: countryCode,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start begins listening for confirmed bookings
func (n *NotificationService) Start() error {
	eventChan, err := n.eventBus.Subscribe(n.ctx, providers.EventChannelBookingsConfirmed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to confirmed bookings: %w", err)
	}

	n.started = true
	go n.processEvents(eventChan)
	log.Info().Msg("Notification service started")
	return nil
}

// Stop stops the service and waits for in-flight sends
func (n *NotificationService) Stop() {
	n.cancel()
	if n.started {
		<-n.done
	}
}

func (n *NotificationService) processEvents(eventChan <-chan *entities.BookingEvent) {
	defer close(n.done)
	for {
		select {
		case <-n.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || event.State.Confirmation == nil {
				continue
			}
			if err := n.SendBookingConfirmation(n.ctx, event.State.Draft.PatientPhone, event.State.Confirmation); err != nil {
				log.Warn().Err(err).Str("session_id", event.SessionID).Msg("Failed to send booking confirmation")
			}
		}
	}
}

// SendBookingConfirmation sends the confirmation message for one booking
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, phone string, confirmation *entities.BookingConfirmation) error {
	to := n.recipient(phone)
	if to == "" {
		return fmt.Errorf("no usable phone number for %q", confirmation.PatientName)
	}

	messageID, err := n.sender.SendText(ctx, to, RenderBookingConfirmation(confirmation))
	if err != nil {
		return err
	}
	log.Info().
		Str("appointment_id", confirmation.AppointmentID).
		Str("message_id", messageID).
		Msg("Sent booking confirmation")
	return nil
}

// recipient turns a patient phone into an international number without "+"
func (n *NotificationService) recipient(phone string) string {
	mobile := mobileNumber(phone)
	if len(mobile) != 10 {
		return ""
	}
	return n.countryCode + mobile
}

// RenderBookingConfirmation formats the confirmation text sent to the patient
func RenderBookingConfirmation(c *entities.BookingConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, your appointment is confirmed.\n\n", c.PatientName)
	if c.DoctorName != "" {
		fmt.Fprintf(&b, "Doctor: %s\n", c.DoctorName)
	}
	fmt.Fprintf(&b, "Date: %s\n", c.Date.Time().Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "Time: %s\n", c.Time)
	if c.AppointmentID != "" {
		fmt.Fprintf(&b, "Reference: %s\n", c.AppointmentID)
	}
	b.WriteString("\nPlease arrive 10 minutes early.")
	return b.String()
}
