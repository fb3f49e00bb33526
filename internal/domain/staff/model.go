package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

var specializations = map[string]bool{
	"CARDIOLOGY": true, "NEUROLOGY": true, "ORTHOPEDICS": true, "PEDIATRICS": true,
	"DERMATOLOGY": true, "PSYCHIATRY": true, "RADIOLOGY": true, "SURGERY": true,
	"EMERGENCY_MEDICINE": true, "ONCOLOGY": true, "GYNECOLOGY": true, "UROLOGY": true,
	"OPHTHALMOLOGY": true, "ANESTHESIOLOGY": true, "PATHOLOGY": true, "GENERAL_MEDICINE": true,
}

var doctorStatuses = map[string]bool{
	"AVAILABLE": true, "BUSY": true, "IN_SURGERY": true, "ON_CALL": true,
	"OFF_DUTY": true, "ON_VACATION": true, "EMERGENCY": true,
}

// ScheduleSlot is one recurring working window.
type ScheduleSlot struct {
	DayOfWeek   string `json:"dayOfWeek" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	IsAvailable bool   `json:"isAvailable"`
}

// BankDetails are HR-only compensation routing data. View filtering strips
// them from every role's projection; they exist for payroll export only.
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
}

// Doctor maps to the doctors table. JSON names double as view-filter field
// names.
type Doctor struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	UserID            *uuid.UUID     `db:"user_id" json:"userId,omitempty"`
	FirstName         string         `db:"first_name" json:"firstName"`
	LastName          string         `db:"last_name" json:"lastName"`
	Specialization    string         `db:"specialization" json:"specialization"`
	SubSpecialty      *string        `db:"sub_specialty" json:"subSpecialty,omitempty"`
	LicenseNumber     string         `db:"license_number" json:"licenseNumber"`
	Qualifications    []string       `db:"qualifications" json:"qualifications"`
	YearsOfExperience int            `db:"years_of_experience" json:"yearsOfExperience"`
	Department        string         `db:"department" json:"department"`
	DepartmentID      *uuid.UUID     `db:"department_id" json:"departmentId,omitempty"`
	Phone             string         `db:"phone" json:"phone"`
	Email             string         `db:"email" json:"email"`
	ConsultationFee   float64        `db:"consultation_fee" json:"consultationFee"`
	Avatar            *string        `db:"avatar" json:"avatar,omitempty"`
	Schedule          []ScheduleSlot `db:"schedule" json:"schedule"`
	CurrentStatus     string         `db:"current_status" json:"currentStatus"`
	IsAvailable       bool           `db:"is_available" json:"isAvailable"`
	Salary            *float64       `db:"salary" json:"salary,omitempty"`
	BankDetails       *BankDetails   `db:"bank_details" json:"bankDetails,omitempty"`
	HireDate          time.Time      `db:"hire_date" json:"hireDate"`
	IsActive          bool           `db:"is_active" json:"isActive"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

func (d *Doctor) Record() (policy.Record, error) {
	return policy.RecordOf(d)
}

// Department is reference data for staffing and facility assignment.
type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// -- Request DTOs --

type CreateDoctorRequest struct {
	UserID            *uuid.UUID     `json:"userId"`
	FirstName         string         `json:"firstName" validate:"required,min=1"`
	LastName          string         `json:"lastName" validate:"required,min=1"`
	Specialization    string         `json:"specialization" validate:"required"`
	SubSpecialty      *string        `json:"subSpecialty"`
	LicenseNumber     string         `json:"licenseNumber" validate:"required,min=1"`
	Qualifications    []string       `json:"qualifications"`
	YearsOfExperience int            `json:"yearsOfExperience" validate:"min=0"`
	DepartmentID      *uuid.UUID     `json:"departmentId"`
	Phone             string         `json:"phone" validate:"required,min=10"`
	Email             string         `json:"email" validate:"required,email"`
	ConsultationFee   float64        `json:"consultationFee" validate:"min=0"`
	Schedule          []ScheduleSlot `json:"schedule" validate:"dive"`
	Salary            *float64       `json:"salary"`
	BankDetails       *BankDetails   `json:"bankDetails"`
	HireDate          string         `json:"hireDate" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateDoctorRequest struct {
	FirstName         *string        `json:"firstName" validate:"omitempty,min=1"`
	LastName          *string        `json:"lastName" validate:"omitempty,min=1"`
	Specialization    *string        `json:"specialization"`
	SubSpecialty      *string        `json:"subSpecialty"`
	Qualifications    []string       `json:"qualifications"`
	YearsOfExperience *int           `json:"yearsOfExperience" validate:"omitempty,min=0"`
	DepartmentID      *uuid.UUID     `json:"departmentId"`
	Phone             *string        `json:"phone" validate:"omitempty,min=10"`
	Email             *string        `json:"email" validate:"omitempty,email"`
	ConsultationFee   *float64       `json:"consultationFee" validate:"omitempty,min=0"`
	Schedule          []ScheduleSlot `json:"schedule" validate:"omitempty,dive"`
	Salary            *float64       `json:"salary"`
	BankDetails       *BankDetails   `json:"bankDetails"`
}

type SetStatusRequest struct {
	IsAvailable   *bool   `json:"isAvailable"`
	CurrentStatus *string `json:"currentStatus"`
}

type CreateDepartmentRequest struct {
	Name        string  `json:"name" validate:"required,min=1"`
	Description *string `json:"description"`
}

// ListDoctorsFilter narrows the doctor listing.
type ListDoctorsFilter struct {
	Specialization string
	DepartmentID   *uuid.UUID
	AvailableOnly  bool
	Search         string
}

// DepartmentCount is one row of the staffing overview.
type DepartmentCount struct {
	DepartmentID   uuid.UUID `json:"departmentId"`
	DepartmentName string    `json:"departmentName"`
	Count          int       `json:"count"`
}

// StaffStats is the department staffing overview.
type StaffStats struct {
	TotalStaff        int               `json:"totalStaff"`
	ActiveStaff       int               `json:"activeStaff"`
	DepartmentCount   int               `json:"departmentCount"`
	NewHiresThisMonth int               `json:"newHiresThisMonth"`
	StaffByDepartment []DepartmentCount `json:"staffByDepartment"`
}
