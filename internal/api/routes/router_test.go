package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/events"
	"github.com/zatekoja/appointmentbooking/backend/internal/adapters/providers/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/handlers"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/middleware"
	"github.com/zatekoja/appointmentbooking/backend/internal/api/routes"
	"github.com/zatekoja/appointmentbooking/backend/internal/application/services"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	domainscheduling "github.com/zatekoja/appointmentbooking/backend/internal/domain/scheduling"
	"github.com/zatekoja/appointmentbooking/backend/internal/domain/validation"
)

const facilityID = "b95ad81e452d44049712cadab7a769e1"

// Sunday 14 January 2024
func clock() time.Time { return time.Date(2024, time.January, 14, 10, 0, 0, 0, time.UTC) }

func newServer(t *testing.T, opts routes.Options) *httptest.Server {
	t.Helper()

	clinic := scheduling.NewMockAdapter(facilityID)
	doctors := services.NewDoctorService(nil, clinic, entities.DefaultDoctorProfiles, facilityID, domainscheduling.DefaultWindow(), clock)
	slots := services.NewSlotService(doctors, clinic, nil, nil)
	coordinator := services.NewBookingCoordinator(clinic, facilityID, services.WithDoctorNamer(doctors))
	bus := events.NewMemoryEventBus()
	sessions := services.NewBookingSessionService(slots, coordinator, doctors, bus, services.SessionConfig{}, nil)
	t.Cleanup(func() {
		sessions.Close()
		_ = bus.Close()
	})

	router := routes.NewRouter(
		handlers.NewDoctorHandler(doctors, slots),
		handlers.NewValidationHandler(validation.NewValidator(clock)),
		handlers.NewBookingHandler(sessions),
		handlers.NewSSEHandler(bus, sessions),
		opts,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, url, body string) (*http.Response, entities.BookingSessionState) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var state entities.BookingSessionState
	if resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	}
	return resp, state
}

func TestRouter_Health(t *testing.T) {
	server := newServer(t, routes.Options{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_DoctorDirectory(t *testing.T) {
	server := newServer(t, routes.Options{AllowedOrigins: []string{"*"}})

	resp, err := http.Get(server.URL + "/api/doctors")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=300, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("ETag"))

	var body struct {
		Doctors []entities.Doctor `json:"doctors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Doctors, 3)
	assert.Equal(t, "Dr. Anurag Aggarwal", body.Doctors[0].Profile.DisplayName)

	resp, err = http.Get(server.URL + "/api/doctors/E314864344/slots?date=2024-01-15")
	require.NoError(t, err)
	defer resp.Body.Close()

	var slots struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&slots))
	// Monday 10:00-13:00 and 15:00-19:00 in half hours
	assert.Equal(t, 14, slots.Count)
}

func TestRouter_BookingFlow(t *testing.T) {
	server := newServer(t, routes.Options{})

	resp, state := post(t, server.URL+"/api/booking/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	actions := server.URL + "/api/booking/sessions/" + state.SessionID + "/actions"

	for _, body := range []string{
		`{"type":"SelectDoctor","value":"E314864344"}`,
		`{"type":"SelectDate","value":"2024-01-15"}`,
		`{"type":"Advance"}`,
		`{"type":"SelectTime","value":"10:30"}`,
		`{"type":"Advance"}`,
		`{"type":"SetName","value":"John Doe"}`,
		`{"type":"SetPhone","value":"9876543210"}`,
		`{"type":"SetEmail","value":"john@x.com"}`,
	} {
		resp, state = post(t, actions, body)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
	}
	assert.Equal(t, 3, state.UI.CurrentStep)

	resp, state = post(t, server.URL+"/api/booking/sessions/"+state.SessionID+"/submit", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, state.UI.IsSubmitted)
	require.NotNil(t, state.Confirmation)
	assert.Equal(t, "Dr. Anurag Aggarwal", state.Confirmation.DoctorName)
	assert.Equal(t, "10:30", state.Confirmation.Time)
	assert.True(t, strings.HasPrefix(state.Confirmation.AppointmentID, "appointment_"))

	resp, _ = post(t, server.URL+"/api/booking/sessions/"+state.SessionID+"/submit", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_RateLimitsMutations(t *testing.T) {
	server := newServer(t, routes.Options{RateLimiter: middleware.NewRateLimiter(0.001, 2)})

	for i := 0; i < 2; i++ {
		resp, _ := post(t, server.URL+"/api/booking/sessions", "")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := post(t, server.URL+"/api/booking/sessions", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Reads are not limited
	health, err := http.Get(server.URL + "/api/doctors")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newServer(t, routes.Options{AllowedOrigins: []string{"https://clinic.example"}})

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/booking/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://clinic.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://clinic.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://elsewhere.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
