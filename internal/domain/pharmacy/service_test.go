package pharmacy

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
	meds map[uuid.UUID]*Medication
	rxs  map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		meds: make(map[uuid.UUID]*Medication),
		rxs:  make(map[uuid.UUID]*Prescription),
	}
}

func (m *mockRepo) CreateMedication(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = med.CreatedAt
	m.meds[med.ID] = med
	return nil
}

func (m *mockRepo) GetMedicationByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *med
	return &cp, nil
}

func (m *mockRepo) GetMedicationByBatch(_ context.Context, name, batch string) (*Medication, error) {
	for _, med := range m.meds {
		if strings.EqualFold(med.Name, name) && med.BatchNumber == batch {
			cp := *med
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) UpdateMedication(_ context.Context, med *Medication) error {
	if _, ok := m.meds[med.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *med
	m.meds[med.ID] = &cp
	return nil
}

func (m *mockRepo) DeactivateMedication(_ context.Context, id uuid.UUID) error {
	med, ok := m.meds[id]
	if !ok {
		return pgx.ErrNoRows
	}
	med.IsActive = false
	return nil
}

func (m *mockRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (int, error) {
	med, ok := m.meds[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if med.CurrentStock+delta < 0 {
		return 0, pgx.ErrNoRows
	}
	med.CurrentStock += delta
	return med.CurrentStock, nil
}

func (m *mockRepo) ListMedications(_ context.Context, filter ListMedicationsFilter, limit, offset int) ([]*Medication, int, error) {
	var out []*Medication
	for _, med := range m.meds {
		if filter.ActiveOnly && !med.IsActive {
			continue
		}
		if filter.LowStock && !med.LowStock() {
			continue
		}
		out = append(out, med)
	}
	return out, len(out), nil
}

func (m *mockRepo) CreatePrescription(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.rxs[p.ID] = p
	return nil
}

func (m *mockRepo) GetPrescriptionByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.rxs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) UpdatePrescription(_ context.Context, p *Prescription) error {
	if _, ok := m.rxs[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.rxs[p.ID] = &cp
	return nil
}

func (m *mockRepo) ListPrescriptions(_ context.Context, filter ListPrescriptionsFilter, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rxs {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) CountPrescriptionsThisYear(_ context.Context) (int, error) {
	return len(m.rxs), nil
}

func (m *mockRepo) Dispense(_ context.Context, id uuid.UUID, dispensedBy string, decrements map[uuid.UUID]int) error {
	rx, ok := m.rxs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	// Check every line before touching stock: all or nothing.
	for medID, qty := range decrements {
		med, ok := m.meds[medID]
		if !ok || med.CurrentStock < qty {
			return ErrInsufficientStock
		}
	}
	for medID, qty := range decrements {
		m.meds[medID].CurrentStock -= qty
	}
	now := time.Now()
	rx.Status = PrescriptionDispensed
	rx.DispensedAt = &now
	rx.DispensedBy = &dispensedBy
	return nil
}

func (m *mockRepo) InventoryReport(_ context.Context) (*InventoryReport, error) {
	rep := &InventoryReport{}
	for _, med := range m.meds {
		if !med.IsActive {
			continue
		}
		rep.TotalMedications++
		if med.LowStock() {
			rep.LowStockItems++
		}
		rep.TotalInventoryValue += float64(med.CurrentStock) * med.UnitPrice
	}
	return rep, nil
}

type mockPatients struct {
	known map[uuid.UUID]bool
}

func (m *mockPatients) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

func testService() (*Service, *mockRepo, uuid.UUID) {
	repo := newMockRepo()
	patientID := uuid.New()
	svc := NewService(repo, &mockPatients{known: map[uuid.UUID]bool{patientID: true}})
	return svc, repo, patientID
}

func amoxicillin() CreateMedicationRequest {
	return CreateMedicationRequest{
		Name:          "Amoxicillin",
		GenericName:   "amoxicillin",
		Manufacturer:  "Acme Pharma",
		Category:      "ANTIBIOTICS",
		CurrentStock:  100,
		MinStockLevel: 20,
		MaxStockLevel: 500,
		UnitPrice:     0.5,
		ExpiryDate:    "2027-06-30",
		BatchNumber:   "B-100",
		Dosage:        "500mg",
		Unit:          "capsule",
	}
}

func TestCreateMedication(t *testing.T) {
	svc, _, _ := testService()

	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	if !med.IsActive || !med.PrescriptionRequired {
		t.Errorf("defaults not applied: active=%v requiresRx=%v", med.IsActive, med.PrescriptionRequired)
	}

	if _, err := svc.CreateMedication(context.Background(), amoxicillin()); !errors.Is(err, ErrMedicationExists) {
		t.Errorf("duplicate batch: got %v", err)
	}

	bad := amoxicillin()
	bad.BatchNumber = "B-101"
	bad.Category = "CANDY"
	if _, err := svc.CreateMedication(context.Background(), bad); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("bad category: got %v", err)
	}
}

func TestAdjustStock_NeverNegative(t *testing.T) {
	svc, _, _ := testService()
	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}

	after, err := svc.AdjustStock(context.Background(), med.ID, AdjustStockRequest{Delta: -40, Reason: "damaged"})
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if after.CurrentStock != 60 {
		t.Errorf("stock = %d, want 60", after.CurrentStock)
	}

	if _, err := svc.AdjustStock(context.Background(), med.ID, AdjustStockRequest{Delta: -100, Reason: "oops"}); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("negative stock: got %v", err)
	}
}

func prescribe(t *testing.T, svc *Service, patientID, medID uuid.UUID, qty int) *Prescription {
	t.Helper()
	rx, err := svc.CreatePrescription(context.Background(), uuid.New(), CreatePrescriptionRequest{
		PatientID: patientID,
		Diagnosis: "bacterial infection",
		Medications: []PrescribedMedicationRequest{
			{MedicationID: medID, Dosage: "500mg", Frequency: "3x daily", Duration: "7 days", Quantity: qty},
		},
	})
	if err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
	return rx
}

func TestCreatePrescription(t *testing.T) {
	svc, _, patientID := testService()
	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}

	rx := prescribe(t, svc, patientID, med.ID, 21)
	if rx.Status != PrescriptionActive {
		t.Errorf("status = %q, want ACTIVE", rx.Status)
	}
	if !strings.HasPrefix(rx.PrescriptionNumber, "RX") {
		t.Errorf("prescription number %q lacks RX prefix", rx.PrescriptionNumber)
	}
	if rx.Medications[0].Name != "Amoxicillin" {
		t.Errorf("medication name not snapshotted: %+v", rx.Medications[0])
	}
	if !rx.ExpiresAt.After(rx.IssuedAt) {
		t.Error("expiry not set after issue date")
	}

	// Retired medications cannot be prescribed.
	if err := svc.RetireMedication(context.Background(), med.ID); err != nil {
		t.Fatalf("RetireMedication: %v", err)
	}
	_, err = svc.CreatePrescription(context.Background(), uuid.New(), CreatePrescriptionRequest{
		PatientID: patientID,
		Diagnosis: "bacterial infection",
		Medications: []PrescribedMedicationRequest{
			{MedicationID: med.ID, Dosage: "500mg", Frequency: "3x daily", Duration: "7 days", Quantity: 1},
		},
	})
	if !errors.Is(err, ErrNotPrescribable) {
		t.Errorf("prescribing retired medication: got %v", err)
	}
}

func TestDispense_DecrementsStock(t *testing.T) {
	svc, repo, patientID := testService()
	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	rx := prescribe(t, svc, patientID, med.ID, 21)

	dispensed, err := svc.Dispense(context.Background(), rx.ID, "pharmacist-1")
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if dispensed.Status != PrescriptionDispensed {
		t.Errorf("status = %q, want DISPENSED", dispensed.Status)
	}
	if got := repo.meds[med.ID].CurrentStock; got != 79 {
		t.Errorf("stock after dispense = %d, want 79", got)
	}

	// Already filled.
	if _, err := svc.Dispense(context.Background(), rx.ID, "pharmacist-1"); !errors.Is(err, ErrPrescriptionNotActive) {
		t.Errorf("double dispense: got %v", err)
	}
}

func TestDispense_InsufficientStockLeavesPrescriptionActive(t *testing.T) {
	svc, repo, patientID := testService()
	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	rx := prescribe(t, svc, patientID, med.ID, 500)

	if _, err := svc.Dispense(context.Background(), rx.ID, "pharmacist-1"); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("dispense beyond stock: got %v", err)
	}
	if repo.rxs[rx.ID].Status != PrescriptionActive {
		t.Error("failed dispense flipped prescription status")
	}
	if repo.meds[med.ID].CurrentStock != 100 {
		t.Error("failed dispense touched stock")
	}
}

func TestDispense_Expired(t *testing.T) {
	svc, repo, patientID := testService()
	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	rx := prescribe(t, svc, patientID, med.ID, 1)

	svc.now = func() time.Time { return time.Now().AddDate(0, 0, defaultValidDays+1) }
	if _, err := svc.Dispense(context.Background(), rx.ID, "pharmacist-1"); !errors.Is(err, ErrPrescriptionExpired) {
		t.Errorf("expired dispense: got %v", err)
	}
	if repo.rxs[rx.ID].Status != PrescriptionExpired {
		t.Error("expired prescription not marked EXPIRED")
	}
}

func TestPrescriptionRecord_Projections(t *testing.T) {
	svc, _, patientID := testService()
	med, err := svc.CreateMedication(context.Background(), amoxicillin())
	if err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}
	rx := prescribe(t, svc, patientID, med.ID, 21)
	owner := uuid.New()
	rx.OwnerUserID = &owner
	reasoning := "first-line agent given allergy history"
	rx.ClinicalReasoning = &reasoning

	rec, err := rx.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	nurse := policy.Project(policy.KindPrescription, policy.Identity{SubjectID: "n1", Role: policy.RoleNurse}, rec)
	if nurse == nil {
		t.Fatal("nurse view is nil")
	}
	if _, ok := nurse["clinicalReasoning"]; ok {
		t.Error("nurse view exposes clinical reasoning")
	}
	meds, ok := nurse["medications"].([]any)
	if !ok || len(meds) != 1 {
		t.Fatalf("nurse medications list malformed: %v", nurse["medications"])
	}
	line, _ := meds[0].(map[string]any)
	if _, ok := line["quantity"]; ok {
		t.Error("nurse medication line should be administration fields only")
	}
	if line["dosage"] == nil {
		t.Error("nurse medication line missing dosage")
	}

	stranger := policy.Project(policy.KindPrescription, policy.Identity{SubjectID: uuid.NewString(), Role: policy.RolePatient}, rec)
	if stranger != nil {
		t.Error("foreign patient can see the prescription")
	}
	own := policy.Project(policy.KindPrescription, policy.Identity{SubjectID: owner.String(), Role: policy.RolePatient}, rec)
	if own == nil {
		t.Fatal("owning patient view is nil")
	}
}
