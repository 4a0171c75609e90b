package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment  string
	LogLevel     string
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	OTEL         OTELConfig
	ClinicAPI    ClinicAPIConfig
	Booking      BookingConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// ClinicAPIConfig points at the clinic's scheduling and registration API
type ClinicAPIConfig struct {
	BaseURL        string
	Token          string
	FacilityID     string
	TimeoutSeconds int
}

// BookingConfig holds booking wizard policy
type BookingConfig struct {
	LookaheadDays           int
	ExcludedWeekdays        []string
	WeekdayNaming           string
	ResetDwellSeconds       int
	ScheduleCacheTTLSeconds int
	SessionTTLMinutes       int
	UseMockProvider         bool
	AllowMockFallback       bool
}

// RateLimitConfig bounds mutating requests per client
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// NotificationConfig enables WhatsApp booking confirmations
type NotificationConfig struct {
	Enabled               bool
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppBaseURL       string
	CountryCode           string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "appointment_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "appointment-booking"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		ClinicAPI: ClinicAPIConfig{
			BaseURL:        getEnv("CLINIC_API_BASE_URL", "https://api.example.com"),
			Token:          getEnv("CLINIC_API_TOKEN", ""),
			FacilityID:     getEnv("CLINIC_FACILITY_ID", "b95ad81e452d44049712cadab7a769e1"),
			TimeoutSeconds: getEnvAsInt("CLINIC_API_TIMEOUT_SECONDS", 10),
		},
		Booking: BookingConfig{
			LookaheadDays:           getEnvAsInt("BOOKING_LOOKAHEAD_DAYS", 7),
			ExcludedWeekdays:        getEnvAsList("BOOKING_EXCLUDED_WEEKDAYS", []string{"Sun"}),
			WeekdayNaming:           getEnv("BOOKING_WEEKDAY_NAMING", "short"),
			ResetDwellSeconds:       getEnvAsInt("BOOKING_RESET_DWELL_SECONDS", 8),
			ScheduleCacheTTLSeconds: getEnvAsInt("BOOKING_SCHEDULE_CACHE_TTL_SECONDS", 300),
			SessionTTLMinutes:       getEnvAsInt("BOOKING_SESSION_TTL_MINUTES", 30),
			UseMockProvider:         getEnvAsBool("BOOKING_USE_MOCK_PROVIDER", false),
			AllowMockFallback:       getEnvAsBool("BOOKING_ALLOW_MOCK_FALLBACK", false),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Notification: NotificationConfig{
			Enabled:               getEnvAsBool("WHATSAPP_ENABLED", false),
			WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			WhatsAppBaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
			CountryCode:           getEnv("WHATSAPP_COUNTRY_CODE", "91"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Booking.LookaheadDays < 1 {
		return fmt.Errorf("BOOKING_LOOKAHEAD_DAYS must be positive, got %d", c.Booking.LookaheadDays)
	}
	if c.Booking.WeekdayNaming != "short" && c.Booking.WeekdayNaming != "long" {
		return fmt.Errorf("BOOKING_WEEKDAY_NAMING must be short or long, got %q", c.Booking.WeekdayNaming)
	}
	if !c.Booking.UseMockProvider && c.ClinicAPI.Token == "" {
		return fmt.Errorf("CLINIC_API_TOKEN is required unless BOOKING_USE_MOCK_PROVIDER is set")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the per-request timeout for clinic API calls
func (c *ClinicAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ResetDwell is how long a submitted wizard shows its confirmation
func (c *BookingConfig) ResetDwell() time.Duration {
	return time.Duration(c.ResetDwellSeconds) * time.Second
}

// SessionTTL is how long an idle booking session is kept
func (c *BookingConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable. An explicitly empty
// value yields an empty list rather than the default.
func getEnvAsList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	items := []string{}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
