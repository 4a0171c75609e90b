package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// DoctorCatalog lists doctors and the dates offered to patients
type DoctorCatalog interface {
	ListDoctors(ctx context.Context) ([]*entities.Doctor, error)
	OfferableDates() []OfferableDate
}

// CacheWarmingService pre-fetches doctor schedules so the first patient to
// pick a date does not wait on the clinic API
type CacheWarmingService struct {
	doctors DoctorCatalog
	slots   *SlotService
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(doctors DoctorCatalog, slots *SlotService) *CacheWarmingService {
	return &CacheWarmingService{doctors: doctors, slots: slots}
}

// WarmCache fetches every doctor's schedule for every offerable date and
// returns how many fetches were made
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	doctors, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		return 0, err
	}

	dates := s.doctors.OfferableDates()
	warmed := 0
	for _, doctor := range doctors {
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				return warmed, err
			}
			s.slots.FetchSchedule(ctx, doctor.EmployeeID, date.Date)
			warmed++
		}
	}
	return warmed, nil
}

// StartPeriodicWarming warms once, then again every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	warm := func() {
		start := time.Now()
		warmed, err := s.WarmCache(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Schedule cache warming failed")
			return
		}
		log.Debug().Int("schedules", warmed).Dur("took", time.Since(start)).Msg("Warmed schedule cache")
	}

	go func() {
		warm()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				warm()
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic schedule cache warming")
}
