package laboratory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/metrics"
)

var (
	ErrOrderNotFound     = errors.New("lab order not found")
	ErrResultNotFound    = errors.New("lab result not found")
	ErrPatientUnknown    = errors.New("patient not found")
	ErrDoctorUnknown     = errors.New("doctor not found")
	ErrInvalidUrgency    = errors.New("invalid urgency")
	ErrInvalidStatus     = errors.New("invalid lab order status")
	ErrInvalidResultFlag = errors.New("invalid result status")
	ErrOrderCompleted    = errors.New("lab order is completed")
	ErrTestNotOrdered    = errors.New("test is not part of this order")
)

type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     LabRepository
	patients PatientDirectory
	doctors  DoctorDirectory
}

func NewService(repo LabRepository, patients PatientDirectory, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors}
}

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	urgency := req.Urgency
	if urgency == "" {
		urgency = UrgencyRoutine
	}
	if !urgencies[urgency] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUrgency, urgency)
	}

	exists, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientUnknown
	}
	if req.DoctorID != nil {
		exists, err := s.doctors.DoctorExists(ctx, *req.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("check doctor: %w", err)
		}
		if !exists {
			return nil, ErrDoctorUnknown
		}
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count lab orders: %w", err)
	}

	order := &Order{
		OrderNumber:  fmt.Sprintf("LAB%06d", count+1),
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		TestTypes:    req.TestTypes,
		Urgency:      urgency,
		Status:       OrderPending,
		Instructions: req.Instructions,
		ClinicalInfo: req.ClinicalInfo,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create lab order: %w", err)
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) UpdateOrder(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == OrderCompleted {
		return nil, ErrOrderCompleted
	}

	if req.TestTypes != nil {
		order.TestTypes = req.TestTypes
	}
	if req.Urgency != nil {
		if !urgencies[*req.Urgency] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidUrgency, *req.Urgency)
		}
		order.Urgency = *req.Urgency
	}
	if req.Instructions != nil {
		order.Instructions = req.Instructions
	}
	if req.ClinicalInfo != nil {
		order.ClinicalInfo = req.ClinicalInfo
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update lab order: %w", err)
	}
	return order, nil
}

func (s *Service) SetOrderStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error) {
	if !orderStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set lab order status: %w", err)
	}
	order.Status = status
	return order, nil
}

// CancelOrder retires an order, optionally noting the reason on the order
// instructions. Completed orders stay on the record.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID, reason string) (*Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == OrderCompleted {
		return nil, ErrOrderCompleted
	}
	if reason != "" {
		if err := s.repo.AppendInstructions(ctx, id, "Cancelled: "+reason); err != nil {
			return nil, err
		}
	}
	return s.SetOrderStatus(ctx, id, OrderCancelled)
}

// AddResult records one test outcome. A result for a test the order never
// asked for is rejected. Once every ordered test has a result the order
// moves to COMPLETED on its own.
func (s *Service) AddResult(ctx context.Context, orderID uuid.UUID, req AddResultRequest) (*Result, error) {
	flag := req.Status
	if flag == "" {
		flag = ResultNormal
	}
	if !resultFlags[flag] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResultFlag, flag)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(order.TestTypes, req.TestName) {
		return nil, fmt.Errorf("%w: %s", ErrTestNotOrdered, req.TestName)
	}

	result := &Result{
		OrderID:                  orderID,
		TestName:                 req.TestName,
		Value:                    req.Value,
		Unit:                     req.Unit,
		RefRange:                 req.RefRange,
		Status:                   flag,
		Interpretation:           req.Interpretation,
		Notes:                    req.Notes,
		DetailedAnalysis:         req.DetailedAnalysis,
		DifferentialDiagnosis:    req.DifferentialDiagnosis,
		ClinicalSignificance:     req.ClinicalSignificance,
		TreatmentRecommendations: req.TreatmentRecommendations,
		PerformedBy:              req.PerformedBy,
		VerifiedBy:               req.VerifiedBy,
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("create lab result: %w", err)
	}
	metrics.LabResultsRecordedTotal.WithLabelValues(flag).Inc()

	if err := s.completeIfDone(ctx, order); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) completeIfDone(ctx context.Context, order *Order) error {
	if order.Status == OrderCompleted {
		return nil
	}
	results, err := s.repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(results))
	for _, r := range results {
		done[r.TestName] = true
	}
	for _, test := range order.TestTypes {
		if !done[test] {
			return nil
		}
	}
	return s.repo.SetStatus(ctx, order.ID, OrderCompleted)
}

func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	result, err := s.repo.GetResultByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) UpdateResult(ctx context.Context, id uuid.UUID, req UpdateResultRequest) (*Result, error) {
	result, err := s.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Value != nil {
		result.Value = *req.Value
	}
	if req.Unit != nil {
		result.Unit = req.Unit
	}
	if req.RefRange != nil {
		result.RefRange = req.RefRange
	}
	if req.Status != nil {
		if !resultFlags[*req.Status] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidResultFlag, *req.Status)
		}
		result.Status = *req.Status
	}
	if req.Interpretation != nil {
		result.Interpretation = *req.Interpretation
	}
	if req.Notes != nil {
		result.Notes = req.Notes
	}
	if req.DetailedAnalysis != nil {
		result.DetailedAnalysis = req.DetailedAnalysis
	}
	if req.DifferentialDiagnosis != nil {
		result.DifferentialDiagnosis = req.DifferentialDiagnosis
	}
	if req.ClinicalSignificance != nil {
		result.ClinicalSignificance = req.ClinicalSignificance
	}
	if req.TreatmentRecommendations != nil {
		result.TreatmentRecommendations = req.TreatmentRecommendations
	}
	if req.PerformedBy != nil {
		result.PerformedBy = req.PerformedBy
	}
	if req.VerifiedBy != nil {
		result.VerifiedBy = req.VerifiedBy
	}
	if err := s.repo.UpdateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("update lab result: %w", err)
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, filter ListOrdersFilter, limit, offset int) ([]*Order, int, error) {
	if filter.Status != "" && !orderStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, filter.Status)
	}
	if filter.Urgency != "" && !urgencies[filter.Urgency] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidUrgency, filter.Urgency)
	}
	return s.repo.List(ctx, filter, limit, offset)
}

func (s *Service) ListResults(ctx context.Context, filter ListResultsFilter, limit, offset int) ([]*Result, int, error) {
	if filter.Status != "" && !resultFlags[filter.Status] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidResultFlag, filter.Status)
	}
	return s.repo.ListResults(ctx, filter, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*LabStats, error) {
	return s.repo.Stats(ctx)
}
