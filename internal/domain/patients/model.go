package patients

import (
	"time"

	"github.com/google/uuid"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// Patient statuses. Clinical records are never physically deleted; a
// deactivated patient stays queryable for history.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

var bloodTypes = map[string]bool{
	"A_POSITIVE": true, "A_NEGATIVE": true,
	"B_POSITIVE": true, "B_NEGATIVE": true,
	"AB_POSITIVE": true, "AB_NEGATIVE": true,
	"O_POSITIVE": true, "O_NEGATIVE": true,
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
	Phone        string `json:"phone" validate:"required,min=10"`
}

type Insurance struct {
	Provider     string `json:"provider,omitempty"`
	PolicyNumber string `json:"policyNumber,omitempty"`
	GroupNumber  string `json:"groupNumber,omitempty"`
}

type BillingInfo struct {
	PaymentMethod      string  `json:"paymentMethod,omitempty"`
	OutstandingBalance float64 `json:"outstandingBalance"`
}

// ClinicalNote is a dated free-text annotation by a clinician. Note content
// is access-restricted per role; handlers never serialize it unfiltered.
type ClinicalNote struct {
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Patient maps to the patients table. JSON names double as the field names
// the view-filtering rules operate on, so renaming a tag is a policy change.
type Patient struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	PatientNumber      string           `db:"patient_number" json:"patientNumber"`
	FirstName          string           `db:"first_name" json:"firstName"`
	LastName           string           `db:"last_name" json:"lastName"`
	DateOfBirth        time.Time        `db:"date_of_birth" json:"dateOfBirth"`
	Gender             string           `db:"gender" json:"gender"`
	Phone              string           `db:"phone" json:"phone"`
	Email              *string          `db:"email" json:"email,omitempty"`
	Status             string           `db:"status" json:"status"`
	BloodType          *string          `db:"blood_type" json:"bloodType,omitempty"`
	Address            Address          `db:"address" json:"address"`
	EmergencyContact   EmergencyContact `db:"emergency_contact" json:"emergencyContact"`
	Allergies          []string         `db:"allergies" json:"allergies"`
	ChronicConditions  []string         `db:"chronic_conditions" json:"chronicConditions"`
	CurrentMedications []string         `db:"current_medications" json:"currentMedications"`
	InsuranceDetails   *Insurance       `db:"insurance_details" json:"insuranceDetails,omitempty"`
	BillingInfo        *BillingInfo     `db:"billing_info" json:"billingInfo,omitempty"`
	DoctorNotes        []ClinicalNote   `db:"doctor_notes" json:"doctorNotes,omitempty"`
	OwnerUserID        *uuid.UUID       `db:"owner_user_id" json:"ownerId,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updatedAt"`
}

// Record converts the patient to the generic shape view filtering runs on.
func (p *Patient) Record() (policy.Record, error) {
	return policy.RecordOf(p)
}

// -- Request DTOs --

type CreatePatientRequest struct {
	FirstName         string           `json:"firstName" validate:"required,min=1"`
	LastName          string           `json:"lastName" validate:"required,min=1"`
	DateOfBirth       string           `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender            string           `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	Phone             string           `json:"phone" validate:"required,min=10"`
	Email             *string          `json:"email" validate:"omitempty,email"`
	Address           Address          `json:"address" validate:"required"`
	EmergencyContact  EmergencyContact `json:"emergencyContact" validate:"required"`
	BloodType         *string          `json:"bloodType"`
	Allergies         []string         `json:"allergies"`
	ChronicConditions []string         `json:"chronicConditions"`
	InsuranceDetails  *Insurance       `json:"insuranceDetails"`
}

type UpdatePatientRequest struct {
	FirstName          *string           `json:"firstName" validate:"omitempty,min=1"`
	LastName           *string           `json:"lastName" validate:"omitempty,min=1"`
	Phone              *string           `json:"phone" validate:"omitempty,min=10"`
	Email              *string           `json:"email" validate:"omitempty,email"`
	Address            *Address          `json:"address"`
	EmergencyContact   *EmergencyContact `json:"emergencyContact"`
	BloodType          *string           `json:"bloodType"`
	Allergies          []string          `json:"allergies"`
	ChronicConditions  []string          `json:"chronicConditions"`
	CurrentMedications []string          `json:"currentMedications"`
	InsuranceDetails   *Insurance        `json:"insuranceDetails"`
}

// MedicalOnly reports whether the update touches nothing beyond the fields
// doctors may change on patients outside their administrative reach.
func (r *UpdatePatientRequest) MedicalOnly() bool {
	return r.FirstName == nil && r.LastName == nil && r.Phone == nil &&
		r.Email == nil && r.Address == nil && r.EmergencyContact == nil &&
		r.InsuranceDetails == nil
}

// ListPatientsFilter narrows the patient listing.
type ListPatientsFilter struct {
	Search    string
	BloodType string
	Status    string
}
