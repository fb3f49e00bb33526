package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/metrics"
)

var (
	ErrBillNotFound         = errors.New("bill not found")
	ErrPatientUnknown       = errors.New("patient not found")
	ErrInvalidItemType      = errors.New("invalid bill item type")
	ErrInvalidBillStatus    = errors.New("invalid bill status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrBillPaid             = errors.New("bill is already fully paid")
	ErrBillCancelled        = errors.New("bill is cancelled")
	ErrOverpayment          = errors.New("payment exceeds remaining balance")
)

// PatientDirectory is the slice of the patient domain billing needs.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     BillRepository
	patients PatientDirectory
	now      func() time.Time
}

func NewService(repo BillRepository, patients PatientDirectory) *Service {
	return &Service{repo: repo, patients: patients, now: time.Now}
}

func (s *Service) CreateBill(ctx context.Context, req CreateBillRequest) (*Bill, error) {
	exists, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientUnknown
	}

	items := make([]BillItem, 0, len(req.Items))
	subtotal := 0.0
	for _, it := range req.Items {
		if !itemTypes[it.ItemType] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidItemType, it.ItemType)
		}
		amount := float64(it.Quantity) * it.UnitPrice
		subtotal += amount
		items = append(items, BillItem{
			Description: it.Description,
			ItemType:    it.ItemType,
			ReferenceID: it.ReferenceID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      amount,
		})
	}

	number, err := s.nextBillNumber(ctx)
	if err != nil {
		return nil, err
	}

	bill := &Bill{
		BillNumber:     number,
		PatientID:      req.PatientID,
		Subtotal:       subtotal,
		Tax:            req.Tax,
		Discount:       req.Discount,
		TotalAmount:    subtotal + req.Tax - req.Discount,
		PaidAmount:     0,
		Status:         StatusPending,
		DueDate:        req.DueDate,
		InsuranceClaim: req.InsuranceClaim,
		Notes:          req.Notes,
		Items:          items,
	}
	if err := s.repo.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	return bill, nil
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return bill, nil
}

// UpdateBill adjusts the non-line-item fields of a bill. Fully paid and
// cancelled bills are closed to edits.
func (s *Service) UpdateBill(ctx context.Context, id uuid.UUID, req UpdateBillRequest) (*Bill, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	switch bill.Status {
	case StatusPaid:
		return nil, ErrBillPaid
	case StatusCancelled:
		return nil, ErrBillCancelled
	}

	if req.Tax != nil {
		bill.Tax = *req.Tax
	}
	if req.Discount != nil {
		bill.Discount = *req.Discount
	}
	if req.DueDate != nil {
		bill.DueDate = *req.DueDate
	}
	if req.InsuranceClaim != nil {
		bill.InsuranceClaim = req.InsuranceClaim
	}
	if req.Notes != nil {
		bill.Notes = req.Notes
	}
	bill.TotalAmount = bill.Subtotal + bill.Tax - bill.Discount

	if err := s.repo.Update(ctx, bill); err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	return bill, nil
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Bill, error) {
	if !billStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBillStatus, status)
	}
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.Status == StatusCancelled && status != StatusCancelled {
		return nil, ErrBillCancelled
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set bill status: %w", err)
	}
	bill.Status = status
	return bill, nil
}

// CancelBill retires a bill. Financial records are never destroyed; the
// delete surface marks the bill CANCELLED.
func (s *Service) CancelBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.PaidAmount > 0 {
		// Money already changed hands; the bill stays on the books.
		return nil, ErrBillPaid
	}
	return s.SetStatus(ctx, id, StatusCancelled)
}

// RecordPayment applies a payment against a bill. The payment row and the
// updated paid amount land in one transaction. Payments on cancelled bills
// and payments above the remaining balance are rejected.
func (s *Service) RecordPayment(ctx context.Context, billID uuid.UUID, req RecordPaymentRequest) (*Payment, *Bill, error) {
	if !paymentMethods[req.PaymentMethod] {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	if bill.Status == StatusCancelled {
		return nil, nil, ErrBillCancelled
	}
	if bill.Status == StatusPaid {
		return nil, nil, ErrBillPaid
	}
	if req.Amount > bill.RemainingBalance() {
		return nil, nil, fmt.Errorf("%w: balance is %.2f", ErrOverpayment, bill.RemainingBalance())
	}

	newPaid := bill.PaidAmount + req.Amount
	newStatus := StatusPartial
	if newPaid >= bill.TotalAmount {
		newStatus = StatusPaid
	}

	payment := &Payment{
		BillID:          billID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	if err := s.repo.RecordPayment(ctx, payment, newPaid, newStatus); err != nil {
		return nil, nil, fmt.Errorf("record payment: %w", err)
	}
	metrics.PaymentsRecordedTotal.WithLabelValues(newStatus).Inc()

	bill.PaidAmount = newPaid
	bill.Status = newStatus
	return payment, bill, nil
}

func (s *Service) ListPayments(ctx context.Context, billID uuid.UUID) ([]*Payment, error) {
	if _, err := s.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, billID)
}

func (s *Service) ListBills(ctx context.Context, filter ListBillsFilter, limit, offset int) ([]*Bill, int, error) {
	if filter.Status != "" && !billStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidBillStatus, filter.Status)
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ListBillsForOwner(ctx context.Context, ownerUserID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.repo.ListForOwner(ctx, ownerUserID, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*BillingStats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) nextBillNumber(ctx context.Context) (string, error) {
	count, err := s.repo.CountThisYear(ctx)
	if err != nil {
		return "", fmt.Errorf("count bills: %w", err)
	}
	return fmt.Sprintf("BILL%d%06d", s.now().Year(), count+1), nil
}
