package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/providers"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// SyncSummary reports the outcome of a directory sync
type SyncSummary struct {
	Fetched  int
	Upserted int
	Failed   []string
	Duration time.Duration
}

// DoctorSyncService copies the clinic's doctor directory into the local store
type DoctorSyncService struct {
	directory  providers.DoctorDirectory
	repo       repositories.DoctorRepository
	profiles   entities.DoctorProfileTable
	facilityID string
}

// NewDoctorSyncService creates a sync service
func NewDoctorSyncService(
	directory providers.DoctorDirectory,
	repo repositories.DoctorRepository,
	profiles entities.DoctorProfileTable,
	facilityID string,
) *DoctorSyncService {
	return &DoctorSyncService{
		directory:  directory,
		repo:       repo,
		profiles:   profiles,
		facilityID: facilityID,
	}
}

// Sync fetches every doctor of the facility and upserts them with their
// display profiles. A failing doctor is recorded and the sync carries on.
func (s *DoctorSyncService) Sync(ctx context.Context) (*SyncSummary, error) {
	start := time.Now()

	doctors, err := s.directory.ListDoctors(ctx, s.facilityID)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to fetch doctors from the clinic", err)
	}

	summary := &SyncSummary{Fetched: len(doctors)}
	for _, doctor := range doctors {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		if doctor.FacilityID == "" {
			doctor.FacilityID = s.facilityID
		}
		s.profiles.Apply(doctor)

		if err := s.repo.Upsert(ctx, doctor); err != nil {
			log.Warn().Err(err).Str("employee_id", doctor.EmployeeID).Msg("Failed to store doctor")
			summary.Failed = append(summary.Failed, doctor.EmployeeID)
			continue
		}
		summary.Upserted++
	}

	summary.Duration = time.Since(start)
	return summary, nil
}
