package facility

import (
	"time"

	"github.com/google/uuid"
)

// Bed types.
const (
	BedGeneral   = "GENERAL"
	BedICU       = "ICU"
	BedEmergency = "EMERGENCY"
	BedMaternity = "MATERNITY"
	BedPediatric = "PEDIATRIC"
	BedIsolation = "ISOLATION"
	BedSurgery   = "SURGERY"
)

var bedTypes = map[string]bool{
	BedGeneral: true, BedICU: true, BedEmergency: true, BedMaternity: true,
	BedPediatric: true, BedIsolation: true, BedSurgery: true,
}

// Bed statuses. A discharged bed goes to CLEANING before it can be made
// AVAILABLE again.
const (
	BedAvailable   = "AVAILABLE"
	BedOccupied    = "OCCUPIED"
	BedMaintenance = "MAINTENANCE"
	BedBlocked     = "BLOCKED"
	BedCleaning    = "CLEANING"
)

var bedStatuses = map[string]bool{
	BedAvailable: true, BedOccupied: true, BedMaintenance: true,
	BedBlocked: true, BedCleaning: true,
}

// Admission types.
const (
	AdmitEmergency   = "EMERGENCY"
	AdmitScheduled   = "SCHEDULED"
	AdmitTransfer    = "TRANSFER"
	AdmitObservation = "OBSERVATION"
)

var admissionTypes = map[string]bool{
	AdmitEmergency: true, AdmitScheduled: true, AdmitTransfer: true, AdmitObservation: true,
}

// Admission statuses.
const (
	AdmissionAdmitted    = "ADMITTED"
	AdmissionDischarged  = "DISCHARGED"
	AdmissionTransferred = "TRANSFERRED"
)

type Bed struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	BedNumber      string     `db:"bed_number" json:"bedNumber"`
	DepartmentID   uuid.UUID  `db:"department_id" json:"departmentId"`
	DepartmentName string     `db:"department_name" json:"departmentName"`
	BedType        string     `db:"bed_type" json:"bedType"`
	Status         string     `db:"status" json:"status"`
	Location       *string    `db:"location" json:"location,omitempty"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	OccupantName   *string    `db:"occupant_name" json:"occupantName,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type Admission struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patientId"`
	PatientName        string     `db:"patient_name" json:"patientName"`
	BedID              uuid.UUID  `db:"bed_id" json:"bedId"`
	BedNumber          string     `db:"bed_number" json:"bedNumber"`
	DepartmentName     string     `db:"department_name" json:"departmentName"`
	AdmissionType      string     `db:"admission_type" json:"admissionType"`
	Status             string     `db:"status" json:"status"`
	AdmittingDiagnosis string     `db:"admitting_diagnosis" json:"admittingDiagnosis"`
	DischargeDiagnosis *string    `db:"discharge_diagnosis" json:"dischargeDiagnosis,omitempty"`
	TreatmentSummary   *string    `db:"treatment_summary" json:"treatmentSummary,omitempty"`
	OwnerUserID        *uuid.UUID `db:"owner_user_id" json:"ownerId,omitempty"`
	AdmissionDate      time.Time  `db:"admission_date" json:"admissionDate"`
	DischargeDate      *time.Time `db:"discharge_date" json:"dischargeDate,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the patient is still in the bed.
func (a *Admission) Active() bool {
	return a.DischargeDate == nil
}

type CreateBedRequest struct {
	BedNumber    string    `json:"bedNumber" validate:"required,min=1"`
	DepartmentID uuid.UUID `json:"departmentId" validate:"required"`
	BedType      string    `json:"bedType" validate:"required"`
	Location     *string   `json:"location"`
}

type UpdateBedRequest struct {
	BedNumber    *string    `json:"bedNumber" validate:"omitempty,min=1"`
	DepartmentID *uuid.UUID `json:"departmentId"`
	BedType      *string    `json:"bedType"`
	Location     *string    `json:"location"`
}

type SetBedStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AdmitRequest struct {
	PatientID          uuid.UUID `json:"patientId" validate:"required"`
	BedID              uuid.UUID `json:"bedId" validate:"required"`
	AdmissionType      string    `json:"admissionType" validate:"required"`
	AdmittingDiagnosis string    `json:"admittingDiagnosis" validate:"required,min=1"`
}

type DischargeRequest struct {
	DischargeDiagnosis string  `json:"dischargeDiagnosis" validate:"required,min=1"`
	TreatmentSummary   *string `json:"treatmentSummary"`
}

type TransferRequest struct {
	NewBedID uuid.UUID `json:"newBedId" validate:"required"`
	Reason   string    `json:"reason"`
}

type ListBedsFilter struct {
	DepartmentID  *uuid.UUID
	BedType       string
	Status        string
	AvailableOnly bool
	Search        string
}

type ListAdmissionsFilter struct {
	PatientID  *uuid.UUID
	BedID      *uuid.UUID
	ActiveOnly bool
	Search     string
	From       *time.Time
	To         *time.Time
}

// FacilityStats is the occupancy snapshot for the facility dashboard.
type FacilityStats struct {
	TotalBeds        int            `json:"totalBeds"`
	AvailableBeds    int            `json:"availableBeds"`
	OccupiedBeds     int            `json:"occupiedBeds"`
	MaintenanceBeds  int            `json:"maintenanceBeds"`
	OccupancyRate    int            `json:"occupancyRate"`
	TotalAdmissions  int            `json:"totalAdmissions"`
	ActiveAdmissions int            `json:"activeAdmissions"`
	TodayAdmissions  int            `json:"todayAdmissions"`
	TodayDischarges  int            `json:"todayDischarges"`
	BedsByType       map[string]int `json:"bedsByType"`
}
