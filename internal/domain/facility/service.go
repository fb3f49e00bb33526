package facility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/metrics"
)

var (
	ErrBedNotFound          = errors.New("bed not found")
	ErrBedNumberTaken       = errors.New("bed number already in use")
	ErrBedUnavailable       = errors.New("bed is not available")
	ErrBedOccupied          = errors.New("bed has an active admission")
	ErrInvalidBedType       = errors.New("invalid bed type")
	ErrInvalidBedStatus     = errors.New("invalid bed status")
	ErrDepartmentUnknown    = errors.New("department not found")
	ErrPatientUnknown       = errors.New("patient not found")
	ErrAdmissionNotFound    = errors.New("admission not found")
	ErrInvalidAdmissionType = errors.New("invalid admission type")
	ErrAlreadyAdmitted      = errors.New("patient already has an active admission")
	ErrAlreadyDischarged    = errors.New("patient is already discharged")
	ErrSameBed              = errors.New("patient is already in this bed")
)

type PatientDirectory interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type DepartmentDirectory interface {
	DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo        FacilityRepository
	patients    PatientDirectory
	departments DepartmentDirectory

	now func() time.Time
}

func NewService(repo FacilityRepository, patients PatientDirectory, departments DepartmentDirectory) *Service {
	return &Service{repo: repo, patients: patients, departments: departments, now: time.Now}
}

func (s *Service) CreateBed(ctx context.Context, req CreateBedRequest) (*Bed, error) {
	if !bedTypes[req.BedType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBedType, req.BedType)
	}
	exists, err := s.departments.DepartmentExists(ctx, req.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("check department: %w", err)
	}
	if !exists {
		return nil, ErrDepartmentUnknown
	}
	if _, err := s.repo.GetBedByNumber(ctx, req.BedNumber); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBedNumberTaken, req.BedNumber)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	bed := &Bed{
		BedNumber:    req.BedNumber,
		DepartmentID: req.DepartmentID,
		BedType:      req.BedType,
		Status:       BedAvailable,
		Location:     req.Location,
		IsActive:     true,
	}
	if err := s.repo.CreateBed(ctx, bed); err != nil {
		return nil, fmt.Errorf("create bed: %w", err)
	}
	return bed, nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	bed, err := s.repo.GetBedByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}
	return bed, nil
}

func (s *Service) UpdateBed(ctx context.Context, id uuid.UUID, req UpdateBedRequest) (*Bed, error) {
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.BedNumber != nil && *req.BedNumber != bed.BedNumber {
		if _, err := s.repo.GetBedByNumber(ctx, *req.BedNumber); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrBedNumberTaken, *req.BedNumber)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		bed.BedNumber = *req.BedNumber
	}
	if req.DepartmentID != nil {
		exists, err := s.departments.DepartmentExists(ctx, *req.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("check department: %w", err)
		}
		if !exists {
			return nil, ErrDepartmentUnknown
		}
		bed.DepartmentID = *req.DepartmentID
	}
	if req.BedType != nil {
		if !bedTypes[*req.BedType] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidBedType, *req.BedType)
		}
		bed.BedType = *req.BedType
	}
	if req.Location != nil {
		bed.Location = req.Location
	}
	if err := s.repo.UpdateBed(ctx, bed); err != nil {
		return nil, fmt.Errorf("update bed: %w", err)
	}
	return bed, nil
}

// SetBedStatus moves a bed through its housekeeping cycle. A bed with a
// patient in it cannot be made AVAILABLE.
func (s *Service) SetBedStatus(ctx context.Context, id uuid.UUID, status string) (*Bed, error) {
	if !bedStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBedStatus, status)
	}
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == BedAvailable {
		occupied, err := s.repo.BedHasActiveAdmission(ctx, id)
		if err != nil {
			return nil, err
		}
		if occupied {
			return nil, ErrBedOccupied
		}
	}
	if err := s.repo.SetBedStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("set bed status: %w", err)
	}
	bed.Status = status
	return bed, nil
}

func (s *Service) DeactivateBed(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetBed(ctx, id); err != nil {
		return err
	}
	occupied, err := s.repo.BedHasActiveAdmission(ctx, id)
	if err != nil {
		return err
	}
	if occupied {
		return ErrBedOccupied
	}
	return s.repo.DeactivateBed(ctx, id)
}

func (s *Service) ListBeds(ctx context.Context, filter ListBedsFilter, limit, offset int) ([]*Bed, int, error) {
	if filter.BedType != "" && !bedTypes[filter.BedType] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidBedType, filter.BedType)
	}
	if filter.Status != "" && !bedStatuses[filter.Status] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidBedStatus, filter.Status)
	}
	return s.repo.ListBeds(ctx, filter, limit, offset)
}

// Admit places a patient in a bed. The patient must exist, the bed must be
// AVAILABLE, and a patient can hold at most one active admission.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if !admissionTypes[req.AdmissionType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAdmissionType, req.AdmissionType)
	}
	exists, err := s.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !exists {
		return nil, ErrPatientUnknown
	}
	bed, err := s.GetBed(ctx, req.BedID)
	if err != nil {
		return nil, err
	}
	if !bed.IsActive || bed.Status != BedAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrBedUnavailable, bed.BedNumber, bed.Status)
	}
	admitted, err := s.repo.PatientHasActiveAdmission(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if admitted {
		return nil, ErrAlreadyAdmitted
	}

	admission := &Admission{
		PatientID:          req.PatientID,
		BedID:              req.BedID,
		AdmissionType:      req.AdmissionType,
		Status:             AdmissionAdmitted,
		AdmittingDiagnosis: req.AdmittingDiagnosis,
	}
	if err := s.repo.Admit(ctx, admission); err != nil {
		return nil, fmt.Errorf("admit patient: %w", err)
	}
	metrics.AdmissionsTotal.WithLabelValues("admit").Inc()
	return admission, nil
}

func (s *Service) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	admission, err := s.repo.GetAdmissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdmissionNotFound
		}
		return nil, err
	}
	return admission, nil
}

func (s *Service) ListAdmissions(ctx context.Context, filter ListAdmissionsFilter, limit, offset int) ([]*Admission, int, error) {
	return s.repo.ListAdmissions(ctx, filter, limit, offset)
}

// Discharge closes an active admission and sends the bed to CLEANING.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, req DischargeRequest) (*Admission, error) {
	admission, err := s.GetAdmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admission.Active() {
		return nil, ErrAlreadyDischarged
	}
	at := s.now()
	if err := s.repo.Discharge(ctx, id, admission.BedID, at, req.DischargeDiagnosis, req.TreatmentSummary); err != nil {
		return nil, fmt.Errorf("discharge patient: %w", err)
	}
	metrics.AdmissionsTotal.WithLabelValues("discharge").Inc()
	return s.GetAdmission(ctx, id)
}

// Transfer moves an active admission to another available bed.
func (s *Service) Transfer(ctx context.Context, id uuid.UUID, req TransferRequest) (*Admission, error) {
	admission, err := s.GetAdmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admission.Active() {
		return nil, ErrAlreadyDischarged
	}
	if req.NewBedID == admission.BedID {
		return nil, ErrSameBed
	}
	newBed, err := s.GetBed(ctx, req.NewBedID)
	if err != nil {
		return nil, err
	}
	if !newBed.IsActive || newBed.Status != BedAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrBedUnavailable, newBed.BedNumber, newBed.Status)
	}

	var summary *string
	if req.Reason != "" {
		existing := ""
		if admission.TreatmentSummary != nil {
			existing = *admission.TreatmentSummary
		}
		noted := strings.TrimSpace(existing + "\nTransferred: " + req.Reason)
		summary = &noted
	}
	if err := s.repo.Transfer(ctx, id, admission.BedID, req.NewBedID, summary); err != nil {
		return nil, fmt.Errorf("transfer patient: %w", err)
	}
	metrics.AdmissionsTotal.WithLabelValues("transfer").Inc()
	return s.GetAdmission(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (*FacilityStats, error) {
	return s.repo.Stats(ctx)
}
