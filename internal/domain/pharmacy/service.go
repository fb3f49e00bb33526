package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrMedicationNotFound     = errors.New("medication not found")
	ErrMedicationExists       = errors.New("medication batch already registered")
	ErrInvalidCategory        = errors.New("invalid medication category")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrPrescriptionNotFound   = errors.New("prescription not found")
	ErrPatientUnknown         = errors.New("patient not found")
	ErrPrescriptionNotActive  = errors.New("prescription is not active")
	ErrPrescriptionExpired    = errors.New("prescription has expired")
	ErrNotPrescribable        = errors.New("medication is not available for prescription")
	ErrInvalidPrescriptStatus = errors.New("invalid prescription status")
)

// defaultValidDays is how long a prescription stays fillable when the
// prescriber does not say otherwise.
const defaultValidDays = 30

type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo     PharmacyRepository
	patients PatientDirectory
	now      func() time.Time
}

func NewService(repo PharmacyRepository, patients PatientDirectory) *Service {
	return &Service{repo: repo, patients: patients, now: time.Now}
}

func (s *Service) CreateMedication(ctx context.Context, req CreateMedicationRequest) (*Medication, error) {
	if !medicationCategories[req.Category] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, req.Category)
	}
	if existing, err := s.repo.GetMedicationByBatch(ctx, req.Name, req.BatchNumber); err == nil && existing != nil {
		return nil, ErrMedicationExists
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check medication batch: %w", err)
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("parse expiry date: %w", err)
	}

	requiresRx := true
	if req.PrescriptionRequired != nil {
		requiresRx = *req.PrescriptionRequired
	}
	med := &Medication{
		Name:                 req.Name,
		GenericName:          req.GenericName,
		Manufacturer:         req.Manufacturer,
		Category:             req.Category,
		CurrentStock:         req.CurrentStock,
		MinStockLevel:        req.MinStockLevel,
		MaxStockLevel:        req.MaxStockLevel,
		UnitPrice:            req.UnitPrice,
		ExpiryDate:           expiry,
		BatchNumber:          req.BatchNumber,
		Dosage:               req.Dosage,
		Unit:                 req.Unit,
		Description:          req.Description,
		SideEffects:          req.SideEffects,
		Contraindications:    req.Contraindications,
		PrescriptionRequired: requiresRx,
		Location:             req.Location,
		Supplier:             req.Supplier,
		IsActive:             true,
	}
	if med.SideEffects == nil {
		med.SideEffects = []string{}
	}
	if med.Contraindications == nil {
		med.Contraindications = []string{}
	}
	if err := s.repo.CreateMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("create medication: %w", err)
	}
	return med, nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	med, err := s.repo.GetMedicationByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicationNotFound
		}
		return nil, err
	}
	return med, nil
}

func (s *Service) UpdateMedication(ctx context.Context, id uuid.UUID, req UpdateMedicationRequest) (*Medication, error) {
	med, err := s.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.Manufacturer != nil {
		med.Manufacturer = *req.Manufacturer
	}
	if req.Category != nil {
		if !medicationCategories[*req.Category] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, *req.Category)
		}
		med.Category = *req.Category
	}
	if req.MinStockLevel != nil {
		med.MinStockLevel = *req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		med.MaxStockLevel = *req.MaxStockLevel
	}
	if req.UnitPrice != nil {
		med.UnitPrice = *req.UnitPrice
	}
	if req.ExpiryDate != nil {
		expiry, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return nil, fmt.Errorf("parse expiry date: %w", err)
		}
		med.ExpiryDate = expiry
	}
	if req.BatchNumber != nil {
		med.BatchNumber = *req.BatchNumber
	}
	if req.Description != nil {
		med.Description = req.Description
	}
	if req.SideEffects != nil {
		med.SideEffects = req.SideEffects
	}
	if req.Contraindications != nil {
		med.Contraindications = req.Contraindications
	}
	if req.Location != nil {
		med.Location = req.Location
	}
	if req.Supplier != nil {
		med.Supplier = req.Supplier
	}
	if err := s.repo.UpdateMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("update medication: %w", err)
	}
	return med, nil
}

// RetireMedication removes a formulary entry from circulation without
// destroying its history.
func (s *Service) RetireMedication(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateMedication(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMedicationNotFound
		}
		return err
	}
	return nil
}

func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*Medication, error) {
	med, err := s.GetMedication(ctx, id)
	if err != nil {
		return nil, err
	}
	newStock, err := s.repo.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The guarded update matched no row: going below zero.
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	med.CurrentStock = newStock
	return med, nil
}

func (s *Service) ListMedications(ctx context.Context, filter ListMedicationsFilter, limit, offset int) ([]*Medication, int, error) {
	if filter.Category != "" && !medicationCategories[filter.Category] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidCategory, filter.Category)
	}
	return s.repo.ListMedications(ctx, filter, limit, offset)
}

// CreatePrescription issues a prescription. Every referenced medication must
// be an active formulary entry; the stored lines carry a snapshot of the
// medication name so the prescription stays readable if the formulary entry
// is later retired.
func (s *Service) CreatePrescription(ctx context.Context, doctorID uuid.UUID, req CreatePrescriptionRequest) (*Prescription, error) {
	exists, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientUnknown
	}

	lines := make([]PrescribedMedication, 0, len(req.Medications))
	for _, line := range req.Medications {
		med, err := s.GetMedication(ctx, line.MedicationID)
		if err != nil {
			return nil, err
		}
		if !med.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrNotPrescribable, med.Name)
		}
		lines = append(lines, PrescribedMedication{
			MedicationID: med.ID,
			Name:         med.Name,
			Dosage:       line.Dosage,
			Frequency:    line.Frequency,
			Duration:     line.Duration,
			Instructions: line.Instructions,
			Quantity:     line.Quantity,
		})
	}

	count, err := s.repo.CountPrescriptionsThisYear(ctx)
	if err != nil {
		return nil, fmt.Errorf("count prescriptions: %w", err)
	}
	validDays := req.ValidDays
	if validDays == 0 {
		validDays = defaultValidDays
	}

	now := s.now()
	rx := &Prescription{
		PrescriptionNumber: fmt.Sprintf("RX%d%06d", now.Year(), count+1),
		PatientID:          req.PatientID,
		DoctorID:           doctorID,
		Medications:        lines,
		Diagnosis:          req.Diagnosis,
		ClinicalReasoning:  req.ClinicalReasoning,
		DiagnosticNotes:    req.DiagnosticNotes,
		TreatmentPlan:      req.TreatmentPlan,
		InternalNotes:      req.InternalNotes,
		Status:             PrescriptionActive,
		IssuedAt:           now,
		ExpiresAt:          now.AddDate(0, 0, validDays),
	}
	if err := s.repo.CreatePrescription(ctx, rx); err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return rx, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	rx, err := s.repo.GetPrescriptionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, err
	}
	return rx, nil
}

// CancelPrescription voids an active prescription.
func (s *Service) CancelPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	rx, err := s.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if rx.Status != PrescriptionActive {
		return nil, ErrPrescriptionNotActive
	}
	rx.Status = PrescriptionCancelled
	if err := s.repo.UpdatePrescription(ctx, rx); err != nil {
		return nil, fmt.Errorf("cancel prescription: %w", err)
	}
	return rx, nil
}

// Dispense fills an active, unexpired prescription, decrementing stock for
// every line in one transaction.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID, dispensedBy string) (*Prescription, error) {
	rx, err := s.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	if rx.Status != PrescriptionActive {
		return nil, ErrPrescriptionNotActive
	}
	if s.now().After(rx.ExpiresAt) {
		// Mark it so later reads see a terminal state.
		rx.Status = PrescriptionExpired
		if err := s.repo.UpdatePrescription(ctx, rx); err != nil {
			return nil, err
		}
		return nil, ErrPrescriptionExpired
	}

	decrements := make(map[uuid.UUID]int, len(rx.Medications))
	for _, line := range rx.Medications {
		decrements[line.MedicationID] += line.Quantity
	}
	if err := s.repo.Dispense(ctx, id, dispensedBy, decrements); err != nil {
		return nil, err
	}
	return s.GetPrescription(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, filter ListPrescriptionsFilter, limit, offset int) ([]*Prescription, int, error) {
	if filter.Status != "" && !prescriptionStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidPrescriptStatus, filter.Status)
	}
	return s.repo.ListPrescriptions(ctx, filter, limit, offset)
}

func (s *Service) InventoryReport(ctx context.Context) (*InventoryReport, error) {
	return s.repo.InventoryReport(ctx)
}
