package scheduling

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
	"github.com/zatekoja/appointmentbooking/backend/pkg/config"
)

// ErrProviderNotConfigured indicates neither the clinic API nor a fallback is available
var ErrProviderNotConfigured = errors.New("scheduling provider not configured")

// Providers bundles the clinic-facing ports used by the booking services
type Providers struct {
	Schedule  providers.ScheduleProvider
	Booking   providers.BookingService
	Directory providers.DoctorDirectory
	// ScheduleCache is the caching layer over Schedule, nil when uncached
	ScheduleCache *CachedScheduleProvider
}

// ProviderOptions configures NewProviders
type ProviderOptions struct {
	ClinicAPI         config.ClinicAPIConfig
	UseMock           bool
	AllowMockFallback bool
	Cache             providers.CacheProvider
	CacheTTLSeconds   int
	Metrics           *observability.Metrics
}

// NewProviders wires the clinic API, or the mock clinic when no API is configured.
// Schedules may fall back to the mock clinic; bookings never do.
func NewProviders(opts ProviderOptions) Providers {
	mock := NewMockAdapter(opts.ClinicAPI.FacilityID)

	var out Providers
	if opts.UseMock || opts.ClinicAPI.BaseURL == "" {
		log.Info().Msg("Using mock clinic provider")
		out = Providers{Schedule: mock, Booking: mock, Directory: mock}
	} else {
		client := clinicapi.NewClient(opts.ClinicAPI.BaseURL, opts.ClinicAPI.Token, opts.ClinicAPI.Timeout())
		primary := NewClinicAdapter(client, opts.Metrics)
		out = Providers{Schedule: primary, Booking: primary, Directory: primary}
		if opts.AllowMockFallback {
			out.Schedule = &FallbackProvider{primary: primary, fallback: mock, allowFallback: true}
		}
	}

	if opts.Cache != nil && opts.CacheTTLSeconds > 0 {
		out.ScheduleCache = NewCachedScheduleProvider(out.Schedule, opts.Cache, opts.CacheTTLSeconds, opts.Metrics)
		out.Schedule = out.ScheduleCache
	}
	return out
}

// FallbackProvider wraps a primary schedule provider with optional mock fallback
type FallbackProvider struct {
	primary       providers.ScheduleProvider
	fallback      providers.ScheduleProvider
	allowFallback bool
}

// NewFallbackProvider creates a schedule provider that tries fallback when primary fails
func NewFallbackProvider(primary, fallback providers.ScheduleProvider) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback, allowFallback: true}
}

func (p *FallbackProvider) FetchWeeklySchedule(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) (entities.WeeklySchedule, error) {
	if p.primary == nil {
		if p.fallback != nil {
			return p.fallback.FetchWeeklySchedule(ctx, doctorResourceID, referenceDate)
		}
		return nil, ErrProviderNotConfigured
	}

	schedule, err := p.primary.FetchWeeklySchedule(ctx, doctorResourceID, referenceDate)
	if err != nil && p.allowFallback && p.fallback != nil {
		log.Warn().Err(err).Str("resource_id", doctorResourceID).Msg("Clinic schedule unavailable, using fallback")
		return p.fallback.FetchWeeklySchedule(ctx, doctorResourceID, referenceDate)
	}
	return schedule, err
}
