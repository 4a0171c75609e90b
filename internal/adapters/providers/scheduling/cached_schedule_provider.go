package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
)

const scheduleCacheName = "weekly_schedule"

// CachedScheduleProvider memoizes weekly schedules per resource and reference date.
// Cache failures degrade to a direct fetch.
type CachedScheduleProvider struct {
	next       providers.ScheduleProvider
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewCachedScheduleProvider wraps next with a cache. metrics may be nil.
func NewCachedScheduleProvider(next providers.ScheduleProvider, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *CachedScheduleProvider {
	return &CachedScheduleProvider{
		next:       next,
		cache:      cache,
		ttlSeconds: ttlSeconds,
		metrics:    metrics,
	}
}

var _ providers.ScheduleProvider = (*CachedScheduleProvider)(nil)

func scheduleCacheKey(resourceID string, date entities.CalendarDate) string {
	return fmt.Sprintf("schedule:%s:%s", resourceID, date.String())
}

func (p *CachedScheduleProvider) FetchWeeklySchedule(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) (entities.WeeklySchedule, error) {
	key := scheduleCacheKey(doctorResourceID, referenceDate)

	cached, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		var schedule entities.WeeklySchedule
		if jsonErr := json.Unmarshal(cached, &schedule); jsonErr == nil {
			observability.RecordCacheHit(ctx, p.metrics, scheduleCacheName)
			return schedule, nil
		}
		log.Warn().Str("key", key).Msg("Discarding undecodable cached schedule")
	case !errors.Is(err, providers.ErrCacheMiss):
		log.Warn().Err(err).Str("key", key).Msg("Schedule cache read failed")
	}
	observability.RecordCacheMiss(ctx, p.metrics, scheduleCacheName)

	schedule, err := p.next.FetchWeeklySchedule(ctx, doctorResourceID, referenceDate)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(schedule); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttlSeconds); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Schedule cache write failed")
		}
	}
	return schedule, nil
}

// Invalidate drops the cached schedule of a resource for a reference date
func (p *CachedScheduleProvider) Invalidate(ctx context.Context, doctorResourceID string, referenceDate entities.CalendarDate) error {
	return p.cache.Delete(ctx, scheduleCacheKey(doctorResourceID, referenceDate))
}
