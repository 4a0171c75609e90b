package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKING_USE_MOCK_PROVIDER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Booking.LookaheadDays)
	assert.Equal(t, []string{"Sun"}, cfg.Booking.ExcludedWeekdays)
	assert.Equal(t, "short", cfg.Booking.WeekdayNaming)
	assert.Equal(t, 8*time.Second, cfg.Booking.ResetDwell())
	assert.Equal(t, 30*time.Minute, cfg.Booking.SessionTTL())
	assert.Equal(t, "b95ad81e452d44049712cadab7a769e1", cfg.ClinicAPI.FacilityID)
	assert.Equal(t, 10*time.Second, cfg.ClinicAPI.Timeout())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_BookingOverrides(t *testing.T) {
	t.Setenv("BOOKING_USE_MOCK_PROVIDER", "true")
	t.Setenv("BOOKING_LOOKAHEAD_DAYS", "14")
	t.Setenv("BOOKING_EXCLUDED_WEEKDAYS", "Sat, Sun")
	t.Setenv("BOOKING_RESET_DWELL_SECONDS", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Booking.LookaheadDays)
	assert.Equal(t, []string{"Sat", "Sun"}, cfg.Booking.ExcludedWeekdays)
	assert.Equal(t, 3*time.Second, cfg.Booking.ResetDwell())
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}

func TestLoad_EmptyExcludedWeekdays(t *testing.T) {
	t.Setenv("BOOKING_USE_MOCK_PROVIDER", "true")
	t.Setenv("BOOKING_EXCLUDED_WEEKDAYS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Booking.ExcludedWeekdays)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("token required for real provider", func(t *testing.T) {
		t.Setenv("BOOKING_USE_MOCK_PROVIDER", "false")
		t.Setenv("CLINIC_API_TOKEN", "")

		_, err := Load()
		assert.ErrorContains(t, err, "CLINIC_API_TOKEN")
	})

	t.Run("lookahead must be positive", func(t *testing.T) {
		t.Setenv("BOOKING_USE_MOCK_PROVIDER", "true")
		t.Setenv("BOOKING_LOOKAHEAD_DAYS", "0")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown weekday naming", func(t *testing.T) {
		t.Setenv("BOOKING_USE_MOCK_PROVIDER", "true")
		t.Setenv("BOOKING_WEEKDAY_NAMING", "iso")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "secret", Database: "booking", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=booking sslmode=disable", cfg.DatabaseDSN())
}
