package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/appointmentbooking/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/appointmentbooking/backend/pkg/errors"
)

// Client is the clinic management system's REST API
type Client interface {
	SearchProviders(ctx context.Context, facilityID string) ([]entities.Doctor, error)
	GetResourceSchedule(ctx context.Context, resourceID string, date entities.CalendarDate) (entities.WeeklySchedule, error)
	RegisterPatient(ctx context.Context, record entities.PatientRecord) (*PatientResponse, error)
	BookAppointment(ctx context.Context, record entities.AppointmentRecord) (*AppointmentResponse, error)
}

// HTTPClient talks to the clinic API over HTTP with bearer authentication
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// PatientResponse is returned by POST /patients/
type PatientResponse struct {
	PatientID string `json:"patient_id"`
}

// AppointmentResponse is returned by POST /appointments/
type AppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusError is a non-2xx answer from the clinic API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("clinic api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("clinic api returned status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a clinic API client
func NewClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Client = (*HTTPClient)(nil)

// SearchProviders lists the doctors registered at a facility
func (c *HTTPClient) SearchProviders(ctx context.Context, facilityID string) ([]entities.Doctor, error) {
	if strings.TrimSpace(facilityID) == "" {
		return nil, apperrors.NewValidationError("facility id is required")
	}
	endpoint := fmt.Sprintf("%s/providers/search/?facility_id=%s", c.baseURL, url.QueryEscape(facilityID))

	var doctors []entities.Doctor
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// GetResourceSchedule fetches the weekly schedule for a scheduling resource
func (c *HTTPClient) GetResourceSchedule(ctx context.Context, resourceID string, date entities.CalendarDate) (entities.WeeklySchedule, error) {
	if strings.TrimSpace(resourceID) == "" {
		return nil, apperrors.NewValidationError("resource id is required")
	}
	endpoint := fmt.Sprintf("%s/resource-schedules/resources/%s/date/%s", c.baseURL, url.PathEscape(resourceID), date.String())

	var schedule entities.WeeklySchedule
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// RegisterPatient creates a patient record
func (c *HTTPClient) RegisterPatient(ctx context.Context, record entities.PatientRecord) (*PatientResponse, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patient: %w", err)
	}

	out := &PatientResponse{}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/patients/", bytes.NewReader(body), out); err != nil {
		return nil, err
	}
	if out.PatientID == "" {
		return nil, apperrors.NewExternalError("clinic api returned no patient id", nil)
	}
	return out, nil
}

// BookAppointment books an appointment slot
func (c *HTTPClient) BookAppointment(ctx context.Context, record entities.AppointmentRecord) (*AppointmentResponse, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode appointment: %w", err)
	}

	out := &AppointmentResponse{}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/appointments/", bytes.NewReader(body), out); err != nil {
		return nil, err
	}
	if out.AppointmentID == "" {
		return nil, apperrors.NewExternalError("clinic api returned no appointment id", nil)
	}
	return out, nil
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	c.addHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.NewExternalError("clinic api request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("failed to decode clinic api response", err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	var payload errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)
	cause := &StatusError{StatusCode: resp.StatusCode, Message: payload.Error}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &apperrors.AppError{Type: apperrors.ErrorTypeUnauthorized, Message: "clinic api rejected credentials", Err: cause}
	case http.StatusNotFound:
		return &apperrors.AppError{Type: apperrors.ErrorTypeNotFound, Message: cause.Error(), Err: cause}
	default:
		return apperrors.NewExternalError("clinic api call failed", cause)
	}
}
