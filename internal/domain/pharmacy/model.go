package pharmacy

import (
	"time"

	"github.com/google/uuid"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

var medicationCategories = map[string]bool{
	"ANTIBIOTICS": true, "PAIN_KILLERS": true, "VITAMINS": true, "CARDIAC": true,
	"RESPIRATORY": true, "DIGESTIVE": true, "NEUROLOGICAL": true, "DIABETES": true,
	"HORMONES": true, "VACCINES": true, "ANTISEPTICS": true, "SUPPLEMENTS": true,
}

// Prescription statuses.
const (
	PrescriptionActive    = "ACTIVE"
	PrescriptionDispensed = "DISPENSED"
	PrescriptionCancelled = "CANCELLED"
	PrescriptionExpired   = "EXPIRED"
)

var prescriptionStatuses = map[string]bool{
	PrescriptionActive: true, PrescriptionDispensed: true,
	PrescriptionCancelled: true, PrescriptionExpired: true,
}

// Medication is a formulary entry with stock tracking.
type Medication struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	GenericName          string    `db:"generic_name" json:"genericName"`
	Manufacturer         string    `db:"manufacturer" json:"manufacturer"`
	Category             string    `db:"category" json:"category"`
	CurrentStock         int       `db:"current_stock" json:"currentStock"`
	MinStockLevel        int       `db:"min_stock_level" json:"minStockLevel"`
	MaxStockLevel        int       `db:"max_stock_level" json:"maxStockLevel"`
	UnitPrice            float64   `db:"unit_price" json:"unitPrice"`
	ExpiryDate           time.Time `db:"expiry_date" json:"expiryDate"`
	BatchNumber          string    `db:"batch_number" json:"batchNumber"`
	Dosage               string    `db:"dosage" json:"dosage"`
	Unit                 string    `db:"unit" json:"unit"`
	Description          *string   `db:"description" json:"description,omitempty"`
	SideEffects          []string  `db:"side_effects" json:"sideEffects"`
	Contraindications    []string  `db:"contraindications" json:"contraindications"`
	PrescriptionRequired bool      `db:"prescription_required" json:"prescriptionRequired"`
	Location             *string   `db:"location" json:"location,omitempty"`
	Supplier             *string   `db:"supplier" json:"supplier,omitempty"`
	IsActive             bool      `db:"is_active" json:"isActive"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

// LowStock reports whether the medication is at or below its reorder level.
func (m *Medication) LowStock() bool {
	return m.CurrentStock <= m.MinStockLevel
}

// PrescribedMedication is one line on a prescription.
type PrescribedMedication struct {
	MedicationID uuid.UUID `json:"medicationId"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration"`
	Instructions string    `json:"instructions"`
	Quantity     int       `json:"quantity"`
}

// Prescription ties a patient to a set of prescribed medications. JSON names
// double as the field names the view-filtering rules operate on.
type Prescription struct {
	ID                 uuid.UUID              `db:"id" json:"id"`
	PrescriptionNumber string                 `db:"prescription_number" json:"prescriptionNumber"`
	PatientID          uuid.UUID              `db:"patient_id" json:"patientId"`
	PatientName        string                 `db:"patient_name" json:"patientName"`
	DoctorID           uuid.UUID              `db:"doctor_id" json:"doctorId"`
	Medications        []PrescribedMedication `db:"medications" json:"medications"`
	Diagnosis          string                 `db:"diagnosis" json:"diagnosis"`
	ClinicalReasoning  *string                `db:"clinical_reasoning" json:"clinicalReasoning,omitempty"`
	DiagnosticNotes    *string                `db:"diagnostic_notes" json:"diagnosticNotes,omitempty"`
	TreatmentPlan      *string                `db:"treatment_plan" json:"treatmentPlan,omitempty"`
	InternalNotes      *string                `db:"internal_notes" json:"internalNotes,omitempty"`
	Status             string                 `db:"status" json:"status"`
	OwnerUserID        *uuid.UUID             `db:"owner_user_id" json:"ownerId,omitempty"`
	IssuedAt           time.Time              `db:"issued_at" json:"issuedAt"`
	ExpiresAt          time.Time              `db:"expires_at" json:"expiresAt"`
	DispensedAt        *time.Time             `db:"dispensed_at" json:"dispensedAt,omitempty"`
	DispensedBy        *string                `db:"dispensed_by" json:"dispensedBy,omitempty"`
	CreatedAt          time.Time              `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time              `db:"updated_at" json:"updatedAt"`
}

func (p *Prescription) Record() (policy.Record, error) {
	return policy.RecordOf(p)
}

type CreateMedicationRequest struct {
	Name                 string   `json:"name" validate:"required,min=1"`
	GenericName          string   `json:"genericName" validate:"required,min=1"`
	Manufacturer         string   `json:"manufacturer" validate:"required,min=1"`
	Category             string   `json:"category" validate:"required"`
	CurrentStock         int      `json:"currentStock" validate:"min=0"`
	MinStockLevel        int      `json:"minStockLevel" validate:"min=0"`
	MaxStockLevel        int      `json:"maxStockLevel" validate:"min=0"`
	UnitPrice            float64  `json:"unitPrice" validate:"required,gt=0"`
	ExpiryDate           string   `json:"expiryDate" validate:"required,datetime=2006-01-02"`
	BatchNumber          string   `json:"batchNumber" validate:"required,min=1"`
	Dosage               string   `json:"dosage" validate:"required,min=1"`
	Unit                 string   `json:"unit" validate:"required,min=1"`
	Description          *string  `json:"description"`
	SideEffects          []string `json:"sideEffects"`
	Contraindications    []string `json:"contraindications"`
	PrescriptionRequired *bool    `json:"prescriptionRequired"`
	Location             *string  `json:"location"`
	Supplier             *string  `json:"supplier"`
}

type UpdateMedicationRequest struct {
	Name              *string  `json:"name" validate:"omitempty,min=1"`
	Manufacturer      *string  `json:"manufacturer" validate:"omitempty,min=1"`
	Category          *string  `json:"category"`
	MinStockLevel     *int     `json:"minStockLevel" validate:"omitempty,min=0"`
	MaxStockLevel     *int     `json:"maxStockLevel" validate:"omitempty,min=0"`
	UnitPrice         *float64 `json:"unitPrice" validate:"omitempty,gt=0"`
	ExpiryDate        *string  `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	BatchNumber       *string  `json:"batchNumber" validate:"omitempty,min=1"`
	Description       *string  `json:"description"`
	SideEffects       []string `json:"sideEffects"`
	Contraindications []string `json:"contraindications"`
	Location          *string  `json:"location"`
	Supplier          *string  `json:"supplier"`
}

type AdjustStockRequest struct {
	// Delta is added to the current stock and may be negative.
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required,min=1"`
}

type PrescribedMedicationRequest struct {
	MedicationID uuid.UUID `json:"medicationId" validate:"required"`
	Dosage       string    `json:"dosage" validate:"required,min=1"`
	Frequency    string    `json:"frequency" validate:"required,min=1"`
	Duration     string    `json:"duration" validate:"required,min=1"`
	Instructions string    `json:"instructions"`
	Quantity     int       `json:"quantity" validate:"min=1"`
}

type CreatePrescriptionRequest struct {
	PatientID         uuid.UUID                     `json:"patientId" validate:"required"`
	Medications       []PrescribedMedicationRequest `json:"medications" validate:"required,min=1,dive"`
	Diagnosis         string                        `json:"diagnosis" validate:"required,min=1"`
	ClinicalReasoning *string                       `json:"clinicalReasoning"`
	DiagnosticNotes   *string                       `json:"diagnosticNotes"`
	TreatmentPlan     *string                       `json:"treatmentPlan"`
	InternalNotes     *string                       `json:"internalNotes"`
	ValidDays         int                           `json:"validDays" validate:"omitempty,min=1,max=365"`
}

type ListMedicationsFilter struct {
	Search   string
	Category string
	// ActiveOnly hides retired formulary entries.
	ActiveOnly bool
	LowStock   bool
}

type ListPrescriptionsFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
}

// InventoryReport is the stock summary for the pharmacy dashboard.
type InventoryReport struct {
	TotalMedications    int     `json:"totalMedications"`
	LowStockItems       int     `json:"lowStockItems"`
	ExpiringSoon        int     `json:"expiringSoon"`
	TotalInventoryValue float64 `json:"totalInventoryValue"`
}
