package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) List(ctx context.Context, facilityID string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*entities.Doctor, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) Upsert(ctx context.Context, doctor *entities.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

type MockDoctorDirectory struct {
	mock.Mock
}

func (m *MockDoctorDirectory) ListDoctors(ctx context.Context, facilityID string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func clinicDoctors() []*entities.Doctor {
	return []*entities.Doctor{
		{PrimaryKey: "res-1", FacilityID: testFacilityID, EmployeeID: "E314864344", MemberUsername: "dr.anurag"},
		{PrimaryKey: "res-2", FacilityID: testFacilityID, EmployeeID: "E999", MemberUsername: "dr.unknown"},
	}
}

func TestDoctorService_ListDoctors(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers the local directory", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		directory := new(MockDoctorDirectory)
		repo.On("List", ctx, testFacilityID).Return(clinicDoctors(), nil).Once()

		service := services.NewDoctorService(repo, directory, entities.DefaultDoctorProfiles, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		doctors, err := service.ListDoctors(ctx)
		require.NoError(t, err)
		require.Len(t, doctors, 2)
		assert.Equal(t, "Dr. Anurag Aggarwal", doctors[0].DisplayName())
		assert.Equal(t, "dr.unknown", doctors[1].DisplayName())
		directory.AssertNotCalled(t, "ListDoctors", mock.Anything, mock.Anything)
	})

	t.Run("falls back to the clinic when the local directory is empty", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		directory := new(MockDoctorDirectory)
		repo.On("List", ctx, testFacilityID).Return([]*entities.Doctor{}, nil).Once()
		directory.On("ListDoctors", ctx, testFacilityID).Return(clinicDoctors(), nil).Once()

		service := services.NewDoctorService(repo, directory, entities.DefaultDoctorProfiles, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		doctors, err := service.ListDoctors(ctx)
		require.NoError(t, err)
		assert.Len(t, doctors, 2)
		directory.AssertExpectations(t)
	})

	t.Run("falls back to the clinic when the local directory fails", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		directory := new(MockDoctorDirectory)
		repo.On("List", ctx, testFacilityID).Return(nil, errors.New("connection refused")).Once()
		directory.On("ListDoctors", ctx, testFacilityID).Return(clinicDoctors(), nil).Once()

		service := services.NewDoctorService(repo, directory, nil, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		doctors, err := service.ListDoctors(ctx)
		require.NoError(t, err)
		assert.Len(t, doctors, 2)
	})

	t.Run("clinic failure is returned", func(t *testing.T) {
		directory := new(MockDoctorDirectory)
		directory.On("ListDoctors", ctx, testFacilityID).Return(nil, apperrors.NewExternalError("clinic unavailable", nil)).Once()

		service := services.NewDoctorService(nil, directory, nil, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		_, err := service.ListDoctors(ctx)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	})
}

func TestDoctorService_GetDoctor(t *testing.T) {
	ctx := context.Background()

	t.Run("listed doctors are served without another lookup", func(t *testing.T) {
		directory := new(MockDoctorDirectory)
		directory.On("ListDoctors", ctx, testFacilityID).Return(clinicDoctors(), nil).Once()

		service := services.NewDoctorService(nil, directory, entities.DefaultDoctorProfiles, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		doctor, err := service.GetDoctor(ctx, "E314864344")
		require.NoError(t, err)
		assert.Equal(t, "res-1", doctor.PrimaryKey)

		doctor, err = service.GetDoctor(ctx, " E999 ")
		require.NoError(t, err)
		assert.Equal(t, "res-2", doctor.PrimaryKey)
		directory.AssertNumberOfCalls(t, "ListDoctors", 1)
	})

	t.Run("local lookup applies profiles", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		repo.On("GetByEmployeeID", ctx, "E314864345").
			Return(&entities.Doctor{PrimaryKey: "res-3", EmployeeID: "E314864345"}, nil).Once()

		service := services.NewDoctorService(repo, new(MockDoctorDirectory), entities.DefaultDoctorProfiles, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		assert.Equal(t, "Dr. Kavya Reddy", service.DoctorName(ctx, "E314864345"))
	})

	t.Run("empty id is a validation error", func(t *testing.T) {
		service := services.NewDoctorService(nil, new(MockDoctorDirectory), nil, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		_, err := service.GetDoctor(ctx, "  ")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("unknown doctor is not found", func(t *testing.T) {
		repo := new(MockDoctorRepository)
		directory := new(MockDoctorDirectory)
		repo.On("GetByEmployeeID", ctx, "E000").Return(nil, apperrors.NewNotFoundError("doctor not found"))
		repo.On("List", ctx, testFacilityID).Return([]*entities.Doctor{}, nil)
		directory.On("ListDoctors", ctx, testFacilityID).Return(clinicDoctors(), nil)

		service := services.NewDoctorService(repo, directory, nil, testFacilityID, scheduling.DefaultWindow(), fixedClock)
		_, err := service.GetDoctor(ctx, "E000")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.Empty(t, service.DoctorName(ctx, "E000"))
	})
}

func TestDoctorService_OfferableDates(t *testing.T) {
	// Sunday 14 January 2024
	service := services.NewDoctorService(nil, new(MockDoctorDirectory), nil, testFacilityID, scheduling.DefaultWindow(), fixedClock)

	dates := service.OfferableDates()
	require.Len(t, dates, 6)
	assert.Equal(t, services.OfferableDate{Date: monday, Weekday: "Mon", Day: 15, Month: "Jan"}, dates[0])
	assert.Equal(t, entities.CalendarDate{Year: 2024, Month: time.January, Day: 20}, dates[5].Date)
	for _, d := range dates {
		assert.NotEqual(t, "Sun", d.Weekday)
	}

	assert.True(t, service.IsOfferable(monday))
	assert.False(t, service.IsOfferable(entities.CalendarDate{Year: 2024, Month: time.January, Day: 14}), "today")
	assert.False(t, service.IsOfferable(entities.CalendarDate{Year: 2024, Month: time.January, Day: 21}), "sunday")
	assert.False(t, service.IsOfferable(entities.CalendarDate{Year: 2024, Month: time.January, Day: 22}), "past the window")
}
