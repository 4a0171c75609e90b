package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

const doctorsTable = "doctors"

// doctorsSchema creates the directory table. Profile columns hold the
// display assets the clinic API does not provide.
const doctorsSchema = `
CREATE TABLE IF NOT EXISTS doctors (
	primary_key                 TEXT PRIMARY KEY,
	facility_id                 TEXT NOT NULL,
	employee_id                 TEXT NOT NULL UNIQUE,
	member_username             TEXT NOT NULL,
	medical_specialty_type_code TEXT NOT NULL DEFAULT '',
	contact_number              TEXT NOT NULL DEFAULT '',
	languages_known             TEXT NOT NULL DEFAULT '',
	current_city                TEXT NOT NULL DEFAULT '',
	status                      INTEGER NOT NULL DEFAULT 1,
	registration_council_code   TEXT NOT NULL DEFAULT '',
	registration_number         TEXT NOT NULL DEFAULT '',
	display_name                TEXT NOT NULL DEFAULT '',
	specialization              TEXT NOT NULL DEFAULT '',
	experience                  TEXT NOT NULL DEFAULT '',
	image                       TEXT NOT NULL DEFAULT '',
	created_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_doctors_facility ON doctors (facility_id);
`

var doctorColumns = []interface{}{
	"primary_key", "facility_id", "employee_id", "member_username",
	"medical_specialty_type_code", "contact_number", "languages_known",
	"current_city", "status", "registration_council_code", "registration_number",
	"display_name", "specialization", "experience", "image", "created_at",
}

// doctorRow is the flat table shape of a doctor
type doctorRow struct {
	PrimaryKey          string    `db:"primary_key"`
	FacilityID          string    `db:"facility_id"`
	EmployeeID          string    `db:"employee_id"`
	MemberUsername      string    `db:"member_username"`
	SpecialtyCode       string    `db:"medical_specialty_type_code"`
	ContactNumber       string    `db:"contact_number"`
	LanguagesKnown      string    `db:"languages_known"`
	CurrentCity         string    `db:"current_city"`
	Status              int       `db:"status"`
	RegistrationCouncil string    `db:"registration_council_code"`
	RegistrationNumber  string    `db:"registration_number"`
	DisplayName         string    `db:"display_name"`
	Specialization      string    `db:"specialization"`
	Experience          string    `db:"experience"`
	Image               string    `db:"image"`
	CreatedAt           time.Time `db:"created_at"`
}

func (r doctorRow) toEntity() *entities.Doctor {
	return &entities.Doctor{
		PrimaryKey:           r.PrimaryKey,
		FacilityID:           r.FacilityID,
		EmployeeID:           r.EmployeeID,
		MemberUsername:       r.MemberUsername,
		MedicalSpecialtyCode: r.SpecialtyCode,
		ContactNumber:        r.ContactNumber,
		LanguagesKnown:       r.LanguagesKnown,
		CurrentCity:          r.CurrentCity,
		Status:               r.Status,
		RegistrationCouncil:  r.RegistrationCouncil,
		RegistrationNumber:   r.RegistrationNumber,
		Profile: entities.DoctorProfile{
			DisplayName:    r.DisplayName,
			Specialization: r.Specialization,
			Experience:     r.Experience,
			Image:          r.Image,
		},
		CreatedAt: r.CreatedAt,
	}
}

// DoctorAdapter implements the DoctorRepository interface on PostgreSQL
type DoctorAdapter struct {
	db      *sqlx.DB
	builder *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter over an open connection
func NewDoctorAdapter(db *sql.DB) *DoctorAdapter {
	return &DoctorAdapter{
		db:      sqlx.NewDb(db, "postgres"),
		builder: goqu.New("postgres", db),
	}
}

var _ repositories.DoctorRepository = (*DoctorAdapter)(nil)

// EnsureSchema creates the doctors table when missing
func (a *DoctorAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, doctorsSchema); err != nil {
		return apperrors.NewInternalError("failed to create doctors table", err)
	}
	return nil
}

// List returns the active doctors of a facility
func (a *DoctorAdapter) List(ctx context.Context, facilityID string) ([]*entities.Doctor, error) {
	query, args, err := a.builder.Select(doctorColumns...).
		From(doctorsTable).
		Where(goqu.Ex{"facility_id": facilityID, "status": 1}).
		Order(goqu.I("display_name").Asc(), goqu.I("member_username").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var rows []doctorRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}

	doctors := make([]*entities.Doctor, 0, len(rows))
	for _, row := range rows {
		doctors = append(doctors, row.toEntity())
	}
	return doctors, nil
}

// GetByEmployeeID retrieves a doctor by employee id
func (a *DoctorAdapter) GetByEmployeeID(ctx context.Context, employeeID string) (*entities.Doctor, error) {
	query, args, err := a.builder.Select(doctorColumns...).
		From(doctorsTable).
		Where(goqu.Ex{"employee_id": employeeID}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row doctorRow
	err = a.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor with employee id %s not found", employeeID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}
	return row.toEntity(), nil
}

// Upsert inserts a doctor or refreshes every column of an existing one
func (a *DoctorAdapter) Upsert(ctx context.Context, doctor *entities.Doctor) error {
	createdAt := doctor.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	record := goqu.Record{
		"primary_key":                 doctor.PrimaryKey,
		"facility_id":                 doctor.FacilityID,
		"employee_id":                 doctor.EmployeeID,
		"member_username":             doctor.MemberUsername,
		"medical_specialty_type_code": doctor.MedicalSpecialtyCode,
		"contact_number":              doctor.ContactNumber,
		"languages_known":             doctor.LanguagesKnown,
		"current_city":                doctor.CurrentCity,
		"status":                      doctor.Status,
		"registration_council_code":   doctor.RegistrationCouncil,
		"registration_number":         doctor.RegistrationNumber,
		"display_name":                doctor.Profile.DisplayName,
		"specialization":              doctor.Profile.Specialization,
		"experience":                  doctor.Profile.Experience,
		"image":                       doctor.Profile.Image,
		"created_at":                  createdAt,
		"updated_at":                  time.Now(),
	}

	update := goqu.Record{}
	for column := range record {
		if column == "primary_key" || column == "created_at" {
			continue
		}
		update[column] = goqu.L("EXCLUDED." + column)
	}

	query, args, err := a.builder.Insert(doctorsTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("primary_key", update)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert doctor", err)
	}
	return nil
}
