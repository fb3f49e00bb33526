package laboratory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

type mockRepo struct {
	orders  map[uuid.UUID]*Order
	results map[uuid.UUID]*Result
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		orders:  make(map[uuid.UUID]*Order),
		results: make(map[uuid.UUID]*Result),
	}
}

func (m *mockRepo) Create(_ context.Context, o *Order) error {
	o.ID = uuid.New()
	o.OrderDate = time.Now()
	o.CreatedAt = o.OrderDate
	o.UpdatedAt = o.OrderDate
	m.orders[o.ID] = o
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *o
	results, _ := m.ListByOrder(ctx, id)
	cp.Results = results
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, o *Order) error {
	if _, ok := m.orders[o.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *o
	cp.Results = nil
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = status
	return nil
}

func (m *mockRepo) AppendInstructions(_ context.Context, id uuid.UUID, note string) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	joined := note
	if o.Instructions != nil {
		joined = *o.Instructions + "\n" + note
	}
	o.Instructions = &joined
	return nil
}

func (m *mockRepo) List(_ context.Context, filter ListOrdersFilter, limit, offset int) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return len(m.orders), nil
}

func (m *mockRepo) CreateResult(_ context.Context, r *Result) error {
	r.ID = uuid.New()
	r.CompletedAt = time.Now()
	r.CreatedAt = r.CompletedAt
	m.results[r.ID] = r
	return nil
}

func (m *mockRepo) GetResultByID(_ context.Context, id uuid.UUID) (*Result, error) {
	r, ok := m.results[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) UpdateResult(_ context.Context, r *Result) error {
	if _, ok := m.results[r.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *r
	m.results[r.ID] = &cp
	return nil
}

func (m *mockRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*Result, error) {
	var out []*Result
	for _, r := range m.results {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) ListResults(_ context.Context, filter ListResultsFilter, limit, offset int) ([]*Result, int, error) {
	var out []*Result
	for _, r := range m.results {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockRepo) Stats(_ context.Context) (*LabStats, error) {
	return &LabStats{}, nil
}

type mockDirectory struct {
	patients map[uuid.UUID]bool
	doctors  map[uuid.UUID]bool
}

func (m *mockDirectory) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.patients[id], nil
}

func (m *mockDirectory) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.doctors[id], nil
}

func testService() (*Service, *mockRepo, uuid.UUID, uuid.UUID) {
	repo := newMockRepo()
	patientID := uuid.New()
	doctorID := uuid.New()
	dir := &mockDirectory{
		patients: map[uuid.UUID]bool{patientID: true},
		doctors:  map[uuid.UUID]bool{doctorID: true},
	}
	return NewService(repo, dir, dir), repo, patientID, doctorID
}

func TestCreateOrder_Defaults(t *testing.T) {
	svc, _, patientID, doctorID := testService()

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		DoctorID:  &doctorID,
		TestTypes: []string{"CBC", "Lipid Panel"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Urgency != UrgencyRoutine {
		t.Errorf("urgency = %q, want ROUTINE", order.Urgency)
	}
	if order.Status != OrderPending {
		t.Errorf("status = %q, want PENDING", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "LAB") {
		t.Errorf("order number %q lacks LAB prefix", order.OrderNumber)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, patientID, _ := testService()

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: uuid.New(),
		TestTypes: []string{"CBC"},
	})
	if !errors.Is(err, ErrPatientUnknown) {
		t.Errorf("unknown patient: got %v", err)
	}

	ghost := uuid.New()
	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		DoctorID:  &ghost,
		TestTypes: []string{"CBC"},
	})
	if !errors.Is(err, ErrDoctorUnknown) {
		t.Errorf("unknown doctor: got %v", err)
	}

	_, err = svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		TestTypes: []string{"CBC"},
		Urgency:   "YESTERDAY",
	})
	if !errors.Is(err, ErrInvalidUrgency) {
		t.Errorf("bad urgency: got %v", err)
	}
}

func TestAddResult_CompletesOrderWhenAllTestsDone(t *testing.T) {
	svc, repo, patientID, _ := testService()
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		TestTypes: []string{"CBC", "Glucose"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := svc.AddResult(context.Background(), order.ID, AddResultRequest{
		TestName: "CBC", Value: "5.1",
	}); err != nil {
		t.Fatalf("AddResult: %v", err)
	}
	if repo.orders[order.ID].Status == OrderCompleted {
		t.Error("order completed with one of two results")
	}

	if _, err := svc.AddResult(context.Background(), order.ID, AddResultRequest{
		TestName: "Glucose", Value: "98", Status: ResultAbnormal,
	}); err != nil {
		t.Fatalf("AddResult: %v", err)
	}
	if got := repo.orders[order.ID].Status; got != OrderCompleted {
		t.Errorf("order status = %q, want COMPLETED after all results", got)
	}
}

func TestAddResult_Rejections(t *testing.T) {
	svc, _, patientID, _ := testService()
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		TestTypes: []string{"CBC"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, err = svc.AddResult(context.Background(), order.ID, AddResultRequest{
		TestName: "MRI", Value: "n/a",
	})
	if !errors.Is(err, ErrTestNotOrdered) {
		t.Errorf("unordered test: got %v", err)
	}

	_, err = svc.AddResult(context.Background(), order.ID, AddResultRequest{
		TestName: "CBC", Value: "5.1", Status: "MAYBE",
	})
	if !errors.Is(err, ErrInvalidResultFlag) {
		t.Errorf("bad flag: got %v", err)
	}
}

func TestUpdateOrder_CompletedLocked(t *testing.T) {
	svc, _, patientID, _ := testService()
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		TestTypes: []string{"CBC"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := svc.AddResult(context.Background(), order.ID, AddResultRequest{
		TestName: "CBC", Value: "5.1",
	}); err != nil {
		t.Fatalf("AddResult: %v", err)
	}

	stat := UrgencyStat
	if _, err := svc.UpdateOrder(context.Background(), order.ID, UpdateOrderRequest{Urgency: &stat}); !errors.Is(err, ErrOrderCompleted) {
		t.Errorf("update completed order: got %v", err)
	}
	if _, err := svc.CancelOrder(context.Background(), order.ID, "dup"); !errors.Is(err, ErrOrderCompleted) {
		t.Errorf("cancel completed order: got %v", err)
	}
}

func TestCancelOrder_AppendsReason(t *testing.T) {
	svc, repo, patientID, _ := testService()
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		PatientID: patientID,
		TestTypes: []string{"CBC"},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := svc.CancelOrder(context.Background(), order.ID, "duplicate order"); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	got := repo.orders[order.ID]
	if got.Status != OrderCancelled {
		t.Errorf("status = %q, want CANCELLED", got.Status)
	}
	if got.Instructions == nil || !strings.Contains(*got.Instructions, "duplicate order") {
		t.Errorf("cancellation reason not on order: %v", got.Instructions)
	}
}

func TestResultRecord_Projections(t *testing.T) {
	owner := uuid.New()
	analysis := "microcytic pattern"
	significance := "consistent with iron deficiency"
	result := &Result{
		ID:                   uuid.New(),
		OrderID:              uuid.New(),
		OrderNumber:          "LAB000001",
		PatientName:          "Jane Roe",
		TestName:             "CBC",
		Value:                "4.2",
		Status:               ResultAbnormal,
		DetailedAnalysis:     &analysis,
		ClinicalSignificance: &significance,
		OwnerUserID:          &owner,
		CompletedAt:          time.Now(),
	}
	rec, err := result.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	own := policy.Project(policy.KindLabResult, policy.Identity{SubjectID: owner.String(), Role: policy.RolePatient}, rec)
	if own == nil {
		t.Fatal("owning patient view is nil")
	}
	if own["interpretation"] == "" || own["interpretation"] == nil {
		t.Error("patient view should carry the placeholder interpretation")
	}

	tech := policy.Project(policy.KindLabResult, policy.Identity{SubjectID: "t1", Role: policy.RoleLabTechnician}, rec)
	if tech == nil {
		t.Fatal("lab technician view is nil")
	}
	if _, ok := tech["clinicalSignificance"]; ok {
		t.Error("lab technician view exposes clinical significance")
	}
	if _, ok := tech["detailedAnalysis"]; !ok {
		t.Error("lab technician view should keep the analysis")
	}

	recep := policy.Project(policy.KindLabResult, policy.Identity{SubjectID: "r1", Role: policy.RoleReceptionist}, rec)
	if recep == nil {
		t.Fatal("receptionist view is nil")
	}
	if _, ok := recep["value"]; ok {
		t.Error("receptionist view exposes the measured value")
	}
	if recep["patientName"] != "Jane Roe" {
		t.Errorf("receptionist view missing patient name: %v", recep)
	}
}
