package facility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	beds       map[uuid.UUID]*Bed
	admissions map[uuid.UUID]*Admission
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		beds:       make(map[uuid.UUID]*Bed),
		admissions: make(map[uuid.UUID]*Admission),
	}
}

func (m *mockRepo) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.beds[b.ID] = &cp
	return nil
}

func (m *mockRepo) GetBedByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) GetBedByNumber(ctx context.Context, bedNumber string) (*Bed, error) {
	for _, b := range m.beds {
		if b.BedNumber == bedNumber {
			cp := *b
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) UpdateBed(ctx context.Context, b *Bed) error {
	if _, ok := m.beds[b.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *b
	m.beds[b.ID] = &cp
	return nil
}

func (m *mockRepo) SetBedStatus(ctx context.Context, id uuid.UUID, status string) error {
	b, ok := m.beds[id]
	if !ok {
		return pgx.ErrNoRows
	}
	b.Status = status
	return nil
}

func (m *mockRepo) DeactivateBed(ctx context.Context, id uuid.UUID) error {
	b, ok := m.beds[id]
	if !ok {
		return pgx.ErrNoRows
	}
	b.IsActive = false
	b.Status = BedBlocked
	return nil
}

func (m *mockRepo) ListBeds(ctx context.Context, filter ListBedsFilter, limit, offset int) ([]*Bed, int, error) {
	var beds []*Bed
	for _, b := range m.beds {
		if !b.IsActive {
			continue
		}
		if filter.AvailableOnly && b.Status != BedAvailable {
			continue
		}
		cp := *b
		beds = append(beds, &cp)
	}
	return beds, len(beds), nil
}

func (m *mockRepo) BedHasActiveAdmission(ctx context.Context, bedID uuid.UUID) (bool, error) {
	for _, a := range m.admissions {
		if a.BedID == bedID && a.DischargeDate == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) PatientHasActiveAdmission(ctx context.Context, patientID uuid.UUID) (bool, error) {
	for _, a := range m.admissions {
		if a.PatientID == patientID && a.DischargeDate == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Admit(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	a.AdmissionDate = time.Now()
	a.CreatedAt = a.AdmissionDate
	a.UpdatedAt = a.AdmissionDate
	cp := *a
	m.admissions[a.ID] = &cp
	m.beds[a.BedID].Status = BedOccupied
	return nil
}

func (m *mockRepo) GetAdmissionByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListAdmissions(ctx context.Context, filter ListAdmissionsFilter, limit, offset int) ([]*Admission, int, error) {
	var admissions []*Admission
	for _, a := range m.admissions {
		if filter.ActiveOnly && a.DischargeDate != nil {
			continue
		}
		cp := *a
		admissions = append(admissions, &cp)
	}
	return admissions, len(admissions), nil
}

func (m *mockRepo) Discharge(ctx context.Context, admissionID, bedID uuid.UUID, at time.Time, diagnosis string, summary *string) error {
	a, ok := m.admissions[admissionID]
	if !ok || a.DischargeDate != nil {
		return pgx.ErrNoRows
	}
	a.DischargeDate = &at
	a.Status = AdmissionDischarged
	a.DischargeDiagnosis = &diagnosis
	if summary != nil {
		a.TreatmentSummary = summary
	}
	m.beds[bedID].Status = BedCleaning
	return nil
}

func (m *mockRepo) Transfer(ctx context.Context, admissionID, oldBedID, newBedID uuid.UUID, summary *string) error {
	a, ok := m.admissions[admissionID]
	if !ok || a.DischargeDate != nil {
		return pgx.ErrNoRows
	}
	a.BedID = newBedID
	a.Status = AdmissionTransferred
	if summary != nil {
		a.TreatmentSummary = summary
	}
	m.beds[oldBedID].Status = BedCleaning
	m.beds[newBedID].Status = BedOccupied
	return nil
}

func (m *mockRepo) Stats(ctx context.Context) (*FacilityStats, error) {
	return &FacilityStats{}, nil
}

type mockDirectory struct {
	patients    map[uuid.UUID]bool
	departments map[uuid.UUID]bool
}

func (m *mockDirectory) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.patients[id], nil
}

func (m *mockDirectory) DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.departments[id], nil
}

func newTestService() (*Service, *mockRepo, uuid.UUID, uuid.UUID) {
	repo := newMockRepo()
	patientID := uuid.New()
	deptID := uuid.New()
	dir := &mockDirectory{
		patients:    map[uuid.UUID]bool{patientID: true},
		departments: map[uuid.UUID]bool{deptID: true},
	}
	return NewService(repo, dir, dir), repo, patientID, deptID
}

func addBed(t *testing.T, svc *Service, deptID uuid.UUID, number string) *Bed {
	t.Helper()
	bed, err := svc.CreateBed(context.Background(), CreateBedRequest{
		BedNumber:    number,
		DepartmentID: deptID,
		BedType:      BedGeneral,
	})
	if err != nil {
		t.Fatalf("CreateBed: %v", err)
	}
	return bed
}

func TestCreateBed_Validation(t *testing.T) {
	svc, _, _, deptID := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateBed(ctx, CreateBedRequest{
		BedNumber: "A-101", DepartmentID: deptID, BedType: "WATERBED",
	}); !errors.Is(err, ErrInvalidBedType) {
		t.Fatalf("expected ErrInvalidBedType, got %v", err)
	}
	if _, err := svc.CreateBed(ctx, CreateBedRequest{
		BedNumber: "A-101", DepartmentID: uuid.New(), BedType: BedGeneral,
	}); !errors.Is(err, ErrDepartmentUnknown) {
		t.Fatalf("expected ErrDepartmentUnknown, got %v", err)
	}

	bed := addBed(t, svc, deptID, "A-101")
	if bed.Status != BedAvailable || !bed.IsActive {
		t.Fatalf("new bed should be active and AVAILABLE, got %s active=%v", bed.Status, bed.IsActive)
	}
	if _, err := svc.CreateBed(ctx, CreateBedRequest{
		BedNumber: "A-101", DepartmentID: deptID, BedType: BedICU,
	}); !errors.Is(err, ErrBedNumberTaken) {
		t.Fatalf("expected ErrBedNumberTaken, got %v", err)
	}
}

func TestAdmit_OccupiesBed(t *testing.T) {
	svc, repo, patientID, deptID := newTestService()
	ctx := context.Background()
	bed := addBed(t, svc, deptID, "ICU-1")

	admission, err := svc.Admit(ctx, AdmitRequest{
		PatientID:          patientID,
		BedID:              bed.ID,
		AdmissionType:      AdmitEmergency,
		AdmittingDiagnosis: "Acute appendicitis",
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if admission.Status != AdmissionAdmitted {
		t.Fatalf("expected ADMITTED, got %s", admission.Status)
	}
	if repo.beds[bed.ID].Status != BedOccupied {
		t.Fatalf("bed should be OCCUPIED, got %s", repo.beds[bed.ID].Status)
	}
}

func TestAdmit_Rejections(t *testing.T) {
	svc, _, patientID, deptID := newTestService()
	ctx := context.Background()
	bed := addBed(t, svc, deptID, "B-201")
	spare := addBed(t, svc, deptID, "B-202")

	if _, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: bed.ID,
		AdmissionType: "VACATION", AdmittingDiagnosis: "x",
	}); !errors.Is(err, ErrInvalidAdmissionType) {
		t.Fatalf("expected ErrInvalidAdmissionType, got %v", err)
	}
	if _, err := svc.Admit(ctx, AdmitRequest{
		PatientID: uuid.New(), BedID: bed.ID,
		AdmissionType: AdmitScheduled, AdmittingDiagnosis: "x",
	}); !errors.Is(err, ErrPatientUnknown) {
		t.Fatalf("expected ErrPatientUnknown, got %v", err)
	}

	if _, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: bed.ID,
		AdmissionType: AdmitScheduled, AdmittingDiagnosis: "Pneumonia",
	}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	// Same patient cannot hold two beds.
	if _, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: spare.ID,
		AdmissionType: AdmitScheduled, AdmittingDiagnosis: "Pneumonia",
	}); !errors.Is(err, ErrAlreadyAdmitted) {
		t.Fatalf("expected ErrAlreadyAdmitted, got %v", err)
	}
	// The occupied bed cannot take another patient.
	if _, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: bed.ID,
		AdmissionType: AdmitScheduled, AdmittingDiagnosis: "Pneumonia",
	}); !errors.Is(err, ErrBedUnavailable) && !errors.Is(err, ErrAlreadyAdmitted) {
		t.Fatalf("expected admission rejection, got %v", err)
	}
}

func TestDischarge_FreesBedForCleaning(t *testing.T) {
	svc, repo, patientID, deptID := newTestService()
	ctx := context.Background()
	bed := addBed(t, svc, deptID, "C-301")

	admission, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: bed.ID,
		AdmissionType: AdmitObservation, AdmittingDiagnosis: "Chest pain",
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	summary := "Observed 48h, troponin negative"
	discharged, err := svc.Discharge(ctx, admission.ID, DischargeRequest{
		DischargeDiagnosis: "Non-cardiac chest pain",
		TreatmentSummary:   &summary,
	})
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if discharged.Status != AdmissionDischarged || discharged.DischargeDate == nil {
		t.Fatalf("expected DISCHARGED with discharge date, got %s %v",
			discharged.Status, discharged.DischargeDate)
	}
	if repo.beds[bed.ID].Status != BedCleaning {
		t.Fatalf("bed should be CLEANING, got %s", repo.beds[bed.ID].Status)
	}

	if _, err := svc.Discharge(ctx, admission.ID, DischargeRequest{
		DischargeDiagnosis: "again",
	}); !errors.Is(err, ErrAlreadyDischarged) {
		t.Fatalf("expected ErrAlreadyDischarged, got %v", err)
	}
}

func TestTransfer_SwapsBeds(t *testing.T) {
	svc, repo, patientID, deptID := newTestService()
	ctx := context.Background()
	oldBed := addBed(t, svc, deptID, "D-401")
	newBed := addBed(t, svc, deptID, "D-402")

	admission, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: oldBed.ID,
		AdmissionType: AdmitScheduled, AdmittingDiagnosis: "Hip replacement",
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	if _, err := svc.Transfer(ctx, admission.ID, TransferRequest{NewBedID: oldBed.ID}); !errors.Is(err, ErrSameBed) {
		t.Fatalf("expected ErrSameBed, got %v", err)
	}

	moved, err := svc.Transfer(ctx, admission.ID, TransferRequest{
		NewBedID: newBed.ID,
		Reason:   "Closer to nursing station",
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if moved.Status != AdmissionTransferred || moved.BedID != newBed.ID {
		t.Fatalf("expected TRANSFERRED to %s, got %s in %s", newBed.ID, moved.Status, moved.BedID)
	}
	if moved.TreatmentSummary == nil || *moved.TreatmentSummary != "Transferred: Closer to nursing station" {
		t.Fatalf("transfer reason not recorded: %v", moved.TreatmentSummary)
	}
	if repo.beds[oldBed.ID].Status != BedCleaning {
		t.Fatalf("old bed should be CLEANING, got %s", repo.beds[oldBed.ID].Status)
	}
	if repo.beds[newBed.ID].Status != BedOccupied {
		t.Fatalf("new bed should be OCCUPIED, got %s", repo.beds[newBed.ID].Status)
	}

	// A cleaning bed is not a transfer target.
	if _, err := svc.Transfer(ctx, admission.ID, TransferRequest{NewBedID: oldBed.ID}); !errors.Is(err, ErrBedUnavailable) {
		t.Fatalf("expected ErrBedUnavailable, got %v", err)
	}
}

func TestSetBedStatus_OccupancyGuard(t *testing.T) {
	svc, _, patientID, deptID := newTestService()
	ctx := context.Background()
	bed := addBed(t, svc, deptID, "E-501")

	if _, err := svc.SetBedStatus(ctx, bed.ID, "BROKEN"); !errors.Is(err, ErrInvalidBedStatus) {
		t.Fatalf("expected ErrInvalidBedStatus, got %v", err)
	}

	if _, err := svc.Admit(ctx, AdmitRequest{
		PatientID: patientID, BedID: bed.ID,
		AdmissionType: AdmitEmergency, AdmittingDiagnosis: "Fracture",
	}); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if _, err := svc.SetBedStatus(ctx, bed.ID, BedAvailable); !errors.Is(err, ErrBedOccupied) {
		t.Fatalf("expected ErrBedOccupied, got %v", err)
	}
	if err := svc.DeactivateBed(ctx, bed.ID); !errors.Is(err, ErrBedOccupied) {
		t.Fatalf("expected ErrBedOccupied on deactivate, got %v", err)
	}
}

func TestDeactivateBed(t *testing.T) {
	svc, repo, _, deptID := newTestService()
	ctx := context.Background()
	bed := addBed(t, svc, deptID, "F-601")

	if err := svc.DeactivateBed(ctx, bed.ID); err != nil {
		t.Fatalf("DeactivateBed: %v", err)
	}
	if repo.beds[bed.ID].IsActive || repo.beds[bed.ID].Status != BedBlocked {
		t.Fatalf("bed should be inactive and BLOCKED, got active=%v %s",
			repo.beds[bed.ID].IsActive, repo.beds[bed.ID].Status)
	}
}
