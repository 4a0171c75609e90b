package entities

import (
	"time"
)

// Wizard step bounds
const (
	StepSelectDoctor    = 1
	StepSelectDateTime  = 2
	StepPersonalDetails = 3
)

// BookingDraft is the in-progress, not-yet-submitted booking form
type BookingDraft struct {
	DoctorID     string        `json:"doctor_id"`
	Date         *CalendarDate `json:"date,omitempty"`
	Time         string        `json:"time"`
	PatientName  string        `json:"patient_name"`
	PatientPhone string        `json:"patient_phone"`
	PatientEmail string        `json:"patient_email"`
}

// WizardUIState tracks the wizard step and submission lifecycle
type WizardUIState struct {
	CurrentStep  int  `json:"current_step"`
	IsSubmitting bool `json:"is_submitting"`
	IsSubmitted  bool `json:"is_submitted"`
}

// PatientRecord is the registration payload sent to the booking service
type PatientRecord struct {
	PersonID              string `json:"person_id"`
	PatientDOB            string `json:"patient_dob"`
	PatientName           string `json:"patient_name"`
	PatientGender         string `json:"patient_gender"`
	PatientAddressType    string `json:"patient_address_type"`
	Address               string `json:"address"`
	Location              string `json:"location"`
	City                  string `json:"city"`
	Pin                   string `json:"pin"`
	PatientLandline       string `json:"patient_landline"`
	PatientMobile         string `json:"patient_mobile"`
	PatientEmailURL       string `json:"patient_email_url"`
	ContactPersonName     string `json:"contact_person_name"`
	ContactType           string `json:"contact_type"`
	ContactRelationship   string `json:"contact_relationship"`
	ContactPersonLandline string `json:"contact_person_landline"`
	ContactPersonEmailURL string `json:"contact_person_email_url"`
	FacilityID            string `json:"facility_id"`
}

// AppointmentRecord is the booking payload sent to the booking service.
// Date is ISO "YYYY-MM-DD" and StartTime is 24-hour "HH:MM".
type AppointmentRecord struct {
	FacilityID string `json:"facility_id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

// BookingRecord is the immutable snapshot built once per submission attempt
type BookingRecord struct {
	Patient     PatientRecord
	Appointment AppointmentRecord
}

// BookingConfirmation carries what the confirmation screen displays. It is never persisted.
type BookingConfirmation struct {
	DoctorID      string       `json:"doctor_id"`
	DoctorName    string       `json:"doctor_name,omitempty"`
	Date          CalendarDate `json:"date"`
	Time          string       `json:"time"`
	PatientName   string       `json:"patient_name"`
	PatientID     string       `json:"patient_id,omitempty"`
	AppointmentID string       `json:"appointment_id,omitempty"`
	ConfirmedAt   time.Time    `json:"confirmed_at"`
}
