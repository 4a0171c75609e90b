package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
)

// ScheduleInvalidator drops a cached weekly schedule
type ScheduleInvalidator interface {
	Invalidate(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) error
}

// CacheInvalidationService evicts a doctor's cached schedule once a booking
// with them is confirmed, so the taken slot is refetched from the clinic
type CacheInvalidationService struct {
	doctors     DoctorLookup
	invalidator ScheduleInvalidator
	eventBus    providers.EventBus
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	done        chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(doctors DoctorLookup, invalidator ScheduleInvalidator, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		doctors:     doctors,
		invalidator: invalidator,
		eventBus:    eventBus,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start begins listening for confirmed bookings
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelBookingsConfirmed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to confirmed bookings: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.BookingEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || event.State.Confirmation == nil {
				continue
			}
			s.invalidate(event.State.Confirmation)
		}
	}
}

func (s *CacheInvalidationService) invalidate(confirmation *entities.BookingConfirmation) {
	logger := log.With().
		Str("doctor_id", confirmation.DoctorID).
		Str("date", confirmation.Date.String()).
		Logger()

	doctor, err := s.doctors.GetDoctor(s.ctx, confirmation.DoctorID)
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot invalidate schedule: doctor lookup failed")
		return
	}

	if err := s.invalidator.Invalidate(s.ctx, doctor.PrimaryKey, confirmation.Date); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate cached schedule")
		return
	}
	logger.Debug().Msg("Invalidated cached schedule after booking")
}
