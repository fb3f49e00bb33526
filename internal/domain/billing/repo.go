package billing

import (
	"context"

	"github.com/google/uuid"
)

// BillRepository persists bills, their line items, and payments.
//
// RecordPayment inserts the payment and applies the new paid amount and
// status to the bill in a single transaction; a partial write would leave
// the ledger inconsistent with the bill header.
type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	Update(ctx context.Context, b *Bill) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter ListBillsFilter, limit, offset int) ([]*Bill, int, error)
	ListForOwner(ctx context.Context, ownerUserID uuid.UUID, limit, offset int) ([]*Bill, int, error)
	CountThisYear(ctx context.Context) (int, error)

	RecordPayment(ctx context.Context, p *Payment, newPaidAmount float64, newStatus string) error
	ListPayments(ctx context.Context, billID uuid.UUID) ([]*Payment, error)

	Stats(ctx context.Context) (*BillingStats, error)
}
