package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/cache"
	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/database"
	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/events"
	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/providers/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/handlers"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/middleware"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/routes"
	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/repositories"
	domainscheduling "github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/validation"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
	"github.com/zatekoja/appointmentbooking/backend/pkg/config"
	"github.com/zatekoja/appointmentbooking/backend/pkg/secrets"
)

func main() {
	// Secrets from Vault land in the environment before configuration is read
	if result, err := secrets.LoadIntoEnv(context.Background(), secrets.ConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets from Vault: %v\n", err)
		os.Exit(1)
	} else if len(result.Loaded) > 0 {
		log.Info().Strs("keys", result.Loaded).Msg("Loaded secrets from Vault")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Local doctor directory (optional)
	var doctorRepo repositories.DoctorRepository
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable; doctors will be listed from the clinic API")
		} else {
			defer pgClient.Close()
			adapter := database.NewDoctorAdapter(pgClient.DB())
			if err := adapter.EnsureSchema(ctx); err != nil {
				log.Fatal().Err(err).Msg("Failed to prepare doctors table")
			}
			doctorRepo = adapter
		}
	}

	// Redis backs the schedule cache, the response cache and the event bus.
	// Without it the API runs uncached with an in-process event bus.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache")
		eventBus = events.NewMemoryEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient, "booking:")
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
	}

	clinic := scheduling.NewProviders(scheduling.ProviderOptions{
		ClinicAPI:         cfg.ClinicAPI,
		UseMock:           cfg.Booking.UseMockProvider,
		AllowMockFallback: cfg.Booking.AllowMockFallback,
		Cache:             cacheProvider,
		CacheTTLSeconds:   cfg.Booking.ScheduleCacheTTLSeconds,
		Metrics:           metrics,
	})

	window, err := bookingWindow(cfg.Booking)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid booking window")
	}

	// Initialize services
	doctorService := services.NewDoctorService(
		doctorRepo,
		clinic.Directory,
		entities.DefaultDoctorProfiles,
		cfg.ClinicAPI.FacilityID,
		window,
		time.Now,
	)
	slotService := services.NewSlotService(
		doctorService,
		clinic.Schedule,
		domainscheduling.NewResolver(domainscheduling.WeekdayNaming(cfg.Booking.WeekdayNaming)),
		metrics,
	)
	coordinator := services.NewBookingCoordinator(
		clinic.Booking,
		cfg.ClinicAPI.FacilityID,
		services.WithDoctorNamer(doctorService),
		services.WithMetrics(metrics),
	)
	sessionService := services.NewBookingSessionService(
		slotService,
		coordinator,
		doctorService,
		eventBus,
		services.SessionConfig{
			ResetDwell: cfg.Booking.ResetDwell(),
			SessionTTL: cfg.Booking.SessionTTL(),
		},
		metrics,
	)
	sessionService.StartJanitor(ctx, time.Minute)

	// Keep the schedule cache warm so date selection rarely waits on the clinic
	if cacheProvider != nil && cfg.Booking.ScheduleCacheTTLSeconds > 0 {
		warmingService := services.NewCacheWarmingService(doctorService, slotService)
		warmingService.StartPeriodicWarming(ctx, time.Duration(cfg.Booking.ScheduleCacheTTLSeconds)*time.Second)
	}

	var cacheInvalidationService *services.CacheInvalidationService
	if clinic.ScheduleCache != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(doctorService, clinic.ScheduleCache, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			cacheInvalidationService = nil
		}
	}

	var notificationService *services.NotificationService
	if cfg.Notification.Enabled {
		sender, err := notifications.NewWhatsAppSender(cfg.Notification)
		if err != nil {
			log.Warn().Err(err).Msg("WhatsApp confirmations disabled")
		} else {
			notificationService = services.NewNotificationService(sender, eventBus, cfg.Notification.CountryCode)
			if err := notificationService.Start(); err != nil {
				log.Warn().Err(err).Msg("Failed to start notification service")
				notificationService = nil
			}
		}
	}

	// Initialize handlers
	doctorHandler := handlers.NewDoctorHandler(doctorService, slotService)
	validationHandler := handlers.NewValidationHandler(validation.NewValidator(time.Now))
	bookingHandler := handlers.NewBookingHandler(sessionService)
	sseHandler := handlers.NewSSEHandler(eventBus, sessionService)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, map[string]middleware.CacheConfig{
			"/api/doctors": {TTLSeconds: 300, Enabled: true},
		}, metrics)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	rateLimiter.StartSweeper(ctx, 5*time.Minute)

	router := routes.NewRouter(
		doctorHandler,
		validationHandler,
		bookingHandler,
		sseHandler,
		routes.Options{
			CacheMiddleware: cacheMiddleware,
			RateLimiter:     rateLimiter,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			Metrics:         metrics,
		},
	)

	// Create HTTP server. Streaming handlers clear their own write deadline.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	sessionService.Close()
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	if notificationService != nil {
		notificationService.Stop()
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
}

// bookingWindow builds the date window from the booking configuration
func bookingWindow(cfg config.BookingConfig) (domainscheduling.Window, error) {
	window := domainscheduling.Window{LookaheadDays: cfg.LookaheadDays}
	for _, name := range cfg.ExcludedWeekdays {
		day, err := domainscheduling.ParseWeekday(name)
		if err != nil {
			return domainscheduling.Window{}, err
		}
		window.ExcludedWeekdays = append(window.ExcludedWeekdays, day)
	}
	return window, nil
}
