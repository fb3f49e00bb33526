package laboratory

import (
	"time"

	"github.com/google/uuid"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// Order urgencies.
const (
	UrgencyRoutine = "ROUTINE"
	UrgencyUrgent  = "URGENT"
	UrgencyStat    = "STAT"
)

var urgencies = map[string]bool{
	UrgencyRoutine: true, UrgencyUrgent: true, UrgencyStat: true,
}

// Order statuses. COMPLETED is reached automatically once every ordered
// test has a result.
const (
	OrderPending    = "PENDING"
	OrderInProgress = "IN_PROGRESS"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"
	OrderRejected   = "REJECTED"
)

var orderStatuses = map[string]bool{
	OrderPending: true, OrderInProgress: true, OrderCompleted: true,
	OrderCancelled: true, OrderRejected: true,
}

// Result flags.
const (
	ResultNormal   = "NORMAL"
	ResultAbnormal = "ABNORMAL"
	ResultCritical = "CRITICAL"
	ResultPending  = "PENDING"
)

var resultFlags = map[string]bool{
	ResultNormal: true, ResultAbnormal: true, ResultCritical: true, ResultPending: true,
}

type Order struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	OrderNumber  string     `db:"order_number" json:"orderNumber"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patientId"`
	PatientName  string     `db:"patient_name" json:"patientName"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctorId,omitempty"`
	TestTypes    []string   `db:"test_types" json:"testTypes"`
	Urgency      string     `db:"urgency" json:"urgency"`
	Status       string     `db:"status" json:"status"`
	Instructions *string    `db:"instructions" json:"instructions,omitempty"`
	ClinicalInfo *string    `db:"clinical_info" json:"clinicalInfo,omitempty"`
	OwnerUserID  *uuid.UUID `db:"owner_user_id" json:"ownerId,omitempty"`
	OrderDate    time.Time  `db:"order_date" json:"orderDate"`
	Results      []*Result  `db:"-" json:"results,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Result is one test outcome on an order. JSON names double as the field
// names the view-filtering rules operate on.
type Result struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"order_id" json:"orderId"`
	OrderNumber string    `db:"order_number" json:"orderNumber"`
	PatientName string    `db:"patient_name" json:"patientName"`
	TestName    string    `db:"test_name" json:"testName"`
	Value       string    `db:"value" json:"value"`
	Unit        *string   `db:"unit" json:"unit,omitempty"`
	RefRange    *string   `db:"reference_range" json:"referenceRange,omitempty"`
	Status      string    `db:"status" json:"status"`
	// Interpretation is the clinician-facing read of the value. Patients see
	// a stock placeholder until one is written.
	Interpretation           string     `db:"interpretation" json:"interpretation"`
	Notes                    *string    `db:"notes" json:"notes,omitempty"`
	DetailedAnalysis         *string    `db:"detailed_analysis" json:"detailedAnalysis,omitempty"`
	DifferentialDiagnosis    *string    `db:"differential_diagnosis" json:"differentialDiagnosis,omitempty"`
	ClinicalSignificance     *string    `db:"clinical_significance" json:"clinicalSignificance,omitempty"`
	TreatmentRecommendations *string    `db:"treatment_recommendations" json:"treatmentRecommendations,omitempty"`
	PerformedBy              *string    `db:"performed_by" json:"performedBy,omitempty"`
	VerifiedBy               *string    `db:"verified_by" json:"verifiedBy,omitempty"`
	OwnerUserID              *uuid.UUID `db:"owner_user_id" json:"ownerId,omitempty"`
	CompletedAt              time.Time  `db:"completed_at" json:"completedAt"`
	CreatedAt                time.Time  `db:"created_at" json:"createdAt"`
}

func (r *Result) Record() (policy.Record, error) {
	return policy.RecordOf(r)
}

type CreateOrderRequest struct {
	PatientID    uuid.UUID  `json:"patientId" validate:"required"`
	DoctorID     *uuid.UUID `json:"doctorId"`
	TestTypes    []string   `json:"testTypes" validate:"required,min=1,dive,min=1"`
	Urgency      string     `json:"urgency"`
	Instructions *string    `json:"instructions"`
	ClinicalInfo *string    `json:"clinicalInfo"`
}

type UpdateOrderRequest struct {
	TestTypes    []string `json:"testTypes" validate:"omitempty,min=1,dive,min=1"`
	Urgency      *string  `json:"urgency"`
	Instructions *string  `json:"instructions"`
	ClinicalInfo *string  `json:"clinicalInfo"`
}

type SetOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AddResultRequest struct {
	TestName                 string  `json:"testName" validate:"required,min=1"`
	Value                    string  `json:"value" validate:"required,min=1"`
	Unit                     *string `json:"unit"`
	RefRange                 *string `json:"referenceRange"`
	Status                   string  `json:"status"`
	Interpretation           string  `json:"interpretation"`
	Notes                    *string `json:"notes"`
	DetailedAnalysis         *string `json:"detailedAnalysis"`
	DifferentialDiagnosis    *string `json:"differentialDiagnosis"`
	ClinicalSignificance     *string `json:"clinicalSignificance"`
	TreatmentRecommendations *string `json:"treatmentRecommendations"`
	PerformedBy              *string `json:"performedBy"`
	VerifiedBy               *string `json:"verifiedBy"`
}

type UpdateResultRequest struct {
	Value                    *string `json:"value" validate:"omitempty,min=1"`
	Unit                     *string `json:"unit"`
	RefRange                 *string `json:"referenceRange"`
	Status                   *string `json:"status"`
	Interpretation           *string `json:"interpretation"`
	Notes                    *string `json:"notes"`
	DetailedAnalysis         *string `json:"detailedAnalysis"`
	DifferentialDiagnosis    *string `json:"differentialDiagnosis"`
	ClinicalSignificance     *string `json:"clinicalSignificance"`
	TreatmentRecommendations *string `json:"treatmentRecommendations"`
	PerformedBy              *string `json:"performedBy"`
	VerifiedBy               *string `json:"verifiedBy"`
}

type ListOrdersFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	Urgency   string
	Search    string
	From      *time.Time
	To        *time.Time
}

type ListResultsFilter struct {
	PatientID *uuid.UUID
	TestName  string
	Status    string
	From      *time.Time
	To        *time.Time
}

// LabStats is the workload snapshot for the lab dashboard.
type LabStats struct {
	TodayOrders      int `json:"todayOrders"`
	WeekOrders       int `json:"weekOrders"`
	PendingOrders    int `json:"pendingOrders"`
	UrgentOrders     int `json:"urgentOrders"`
	CompletedResults int `json:"completedResults"`
	CriticalResults  int `json:"criticalResults"`
}
