package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/database"
	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/providers/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
	"github.com/zatekoja/appointmentbooking/backend/pkg/config"
)

func main() {
	var reset bool
	flag.BoolVar(&reset, "reset", false, "Truncate the doctors table before syncing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-sync", cfg.Environment, cfg.LogLevel)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo := database.NewDoctorAdapter(pgClient.DB())
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare doctors table")
	}

	if reset {
		log.Info().Msg("Truncating doctors table before syncing")
		if _, err := pgClient.DB().ExecContext(ctx, "TRUNCATE TABLE doctors"); err != nil {
			log.Fatal().Err(err).Msg("Failed to truncate doctors table")
		}
	}

	clinic := scheduling.NewProviders(scheduling.ProviderOptions{
		ClinicAPI: cfg.ClinicAPI,
		UseMock:   cfg.Booking.UseMockProvider,
	})

	svc := services.NewDoctorSyncService(clinic.Directory, repo, entities.DefaultDoctorProfiles, cfg.ClinicAPI.FacilityID)
	summary, err := svc.Sync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Doctor sync failed")
	}

	log.Info().
		Int("fetched", summary.Fetched).
		Int("upserted", summary.Upserted).
		Strs("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Doctor sync complete")

	if len(summary.Failed) > 0 {
		os.Exit(1)
	}
}
