package entities

import (
	"time"
)

// Doctor represents a bookable practitioner at a facility.
// PrimaryKey is the scheduling resource id; EmployeeID identifies the doctor in bookings.
type Doctor struct {
	PrimaryKey           string        `json:"primary_key" db:"primary_key"`
	FacilityID           string        `json:"facility_id" db:"facility_id"`
	EmployeeID           string        `json:"employee_id" db:"employee_id"`
	MemberUsername       string        `json:"member_username" db:"member_username"`
	MedicalSpecialtyCode string        `json:"medical_specialty_type_code,omitempty" db:"medical_specialty_type_code"`
	ContactNumber        string        `json:"contact_number" db:"contact_number"`
	LanguagesKnown       string        `json:"languages_known" db:"languages_known"`
	CurrentCity          string        `json:"current_city" db:"current_city"`
	Status               int           `json:"status" db:"status"`
	RegistrationCouncil  string        `json:"registration_council_code,omitempty" db:"registration_council_code"`
	RegistrationNumber   string        `json:"registration_number,omitempty" db:"registration_number"`
	Profile              DoctorProfile `json:"profile"`
	CreatedAt            time.Time     `json:"creation_date" db:"created_at"`
}

// DoctorProfile holds display assets for a doctor
type DoctorProfile struct {
	DisplayName    string `json:"display_name"`
	Specialization string `json:"specialization"`
	Experience     string `json:"experience"`
	Image          string `json:"image"`
}

// DoctorProfileTable maps employee ids to display assets
type DoctorProfileTable map[string]DoctorProfile

// Apply fills the doctor's profile from the table, keeping fields already set
func (t DoctorProfileTable) Apply(doctor *Doctor) {
	profile, ok := t[doctor.EmployeeID]
	if !ok {
		return
	}
	if doctor.Profile.DisplayName == "" {
		doctor.Profile.DisplayName = profile.DisplayName
	}
	if doctor.Profile.Specialization == "" {
		doctor.Profile.Specialization = profile.Specialization
	}
	if doctor.Profile.Experience == "" {
		doctor.Profile.Experience = profile.Experience
	}
	if doctor.Profile.Image == "" {
		doctor.Profile.Image = profile.Image
	}
}

// DisplayName returns the profile name, falling back to the username
func (d *Doctor) DisplayName() string {
	if d.Profile.DisplayName != "" {
		return d.Profile.DisplayName
	}
	return d.MemberUsername
}

// DefaultDoctorProfiles holds the display assets of the clinic's doctors
var DefaultDoctorProfiles = DoctorProfileTable{
	"E314864344": {
		DisplayName:    "Dr. Anurag Aggarwal",
		Specialization: "Chief Dentist & Oral Surgeon",
		Experience:     "20+ Years",
		Image:          "/assets/dr-anurag-aggarwal.jpg",
	},
	"E314864345": {
		DisplayName:    "Dr. Kavya Reddy",
		Specialization: "Cosmetic Dentistry & Orthodontics",
		Experience:     "15+ Years",
		Image:          "/assets/dr-kavya-reddy.jpg",
	},
	"E314864346": {
		DisplayName:    "Dr. Vikram Singh",
		Specialization: "Periodontics & Preventive Care",
		Experience:     "18+ Years",
		Image:          "/assets/dr-vikram-singh.jpg",
	},
}
