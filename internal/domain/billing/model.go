package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// Bill statuses. PAID and CANCELLED are terminal; OVERDUE is set when the
// due date passes with a balance outstanding.
const (
	StatusPending   = "PENDING"
	StatusSent      = "SENT"
	StatusPaid      = "PAID"
	StatusOverdue   = "OVERDUE"
	StatusCancelled = "CANCELLED"
	StatusPartial   = "PARTIAL"
)

var billStatuses = map[string]bool{
	StatusPending: true, StatusSent: true, StatusPaid: true,
	StatusOverdue: true, StatusCancelled: true, StatusPartial: true,
}

var itemTypes = map[string]bool{
	"CONSULTATION": true, "PROCEDURE": true, "MEDICATION": true, "LAB_TEST": true,
	"RADIOLOGY": true, "ROOM_CHARGE": true, "SURGERY": true, "OTHER": true,
}

var paymentMethods = map[string]bool{
	"CASH": true, "CREDIT_CARD": true, "DEBIT_CARD": true, "BANK_TRANSFER": true,
	"CHECK": true, "INSURANCE": true, "OTHER": true,
}

// BillItem is one line on a bill. Amount is quantity * unit price, computed
// at creation and never edited afterwards.
type BillItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BillID      uuid.UUID `db:"bill_id" json:"billId"`
	Description string    `db:"description" json:"description"`
	ItemType    string    `db:"item_type" json:"itemType"`
	ReferenceID *string   `db:"reference_id" json:"referenceId,omitempty"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unitPrice"`
	Amount      float64   `db:"amount" json:"amount"`
}

// Bill is a patient invoice. JSON names double as the field names the
// view-filtering rules operate on.
type Bill struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	BillNumber     string     `db:"bill_number" json:"billNumber"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patientId"`
	PatientName    string     `db:"patient_name" json:"patientName"`
	Subtotal       float64    `db:"subtotal" json:"subtotal"`
	Tax            float64    `db:"tax" json:"tax"`
	Discount       float64    `db:"discount" json:"discount"`
	TotalAmount    float64    `db:"total_amount" json:"totalAmount"`
	PaidAmount     float64    `db:"paid_amount" json:"paidAmount"`
	Status         string     `db:"status" json:"status"`
	DueDate        time.Time  `db:"due_date" json:"dueDate"`
	InsuranceClaim *string    `db:"insurance_claim" json:"insuranceClaim,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	OwnerUserID    *uuid.UUID `db:"owner_user_id" json:"ownerId,omitempty"`
	Items          []BillItem `db:"-" json:"items,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

func (b *Bill) Record() (policy.Record, error) {
	return policy.RecordOf(b)
}

// RemainingBalance is what is still owed on the bill.
func (b *Bill) RemainingBalance() float64 {
	return b.TotalAmount - b.PaidAmount
}

type Payment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	BillID          uuid.UUID `db:"bill_id" json:"billId"`
	Amount          float64   `db:"amount" json:"amount"`
	PaymentMethod   string    `db:"payment_method" json:"paymentMethod"`
	ReferenceNumber *string   `db:"reference_number" json:"referenceNumber,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

type BillItemRequest struct {
	Description string  `json:"description" validate:"required,min=1"`
	ItemType    string  `json:"itemType" validate:"required"`
	ReferenceID *string `json:"referenceId"`
	Quantity    int     `json:"quantity" validate:"min=1"`
	UnitPrice   float64 `json:"unitPrice" validate:"min=0"`
}

type CreateBillRequest struct {
	PatientID      uuid.UUID         `json:"patientId" validate:"required"`
	DueDate        time.Time         `json:"dueDate" validate:"required"`
	Items          []BillItemRequest `json:"items" validate:"required,min=1,dive"`
	Tax            float64           `json:"tax" validate:"min=0"`
	Discount       float64           `json:"discount" validate:"min=0"`
	InsuranceClaim *string           `json:"insuranceClaim"`
	Notes          *string           `json:"notes"`
}

type UpdateBillRequest struct {
	DueDate        *time.Time `json:"dueDate"`
	Tax            *float64   `json:"tax" validate:"omitempty,min=0"`
	Discount       *float64   `json:"discount" validate:"omitempty,min=0"`
	InsuranceClaim *string    `json:"insuranceClaim"`
	Notes          *string    `json:"notes"`
}

type SetBillStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RecordPaymentRequest struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod   string  `json:"paymentMethod" validate:"required"`
	ReferenceNumber *string `json:"referenceNumber"`
	Notes           *string `json:"notes"`
}

type ListBillsFilter struct {
	PatientID  *uuid.UUID
	Status     string
	UnpaidOnly bool
}

// BillingStats summarizes receivables across all non-cancelled bills.
type BillingStats struct {
	TotalBilled    float64        `json:"totalBilled"`
	TotalCollected float64        `json:"totalCollected"`
	Outstanding    float64        `json:"outstanding"`
	BillsByStatus  map[string]int `json:"billsByStatus"`
}
