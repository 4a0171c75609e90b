package repositories

import (
	"context"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
)

// DoctorRepository defines the interface for the local doctor directory
type DoctorRepository interface {
	// List returns the active doctors of a facility ordered by display name
	List(ctx context.Context, facilityID string) ([]*entities.Doctor, error)

	// GetByEmployeeID retrieves a doctor by employee id
	GetByEmployeeID(ctx context.Context, employeeID string) (*entities.Doctor, error)

	// Upsert creates or refreshes a doctor keyed by primary key
	Upsert(ctx context.Context, doctor *entities.Doctor) error
}
