package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

var (
	ErrPatientExists      = errors.New("patient already exists")
	ErrPatientNotFound    = errors.New("patient not found")
	ErrInvalidBloodType   = errors.New("invalid blood type")
	ErrMedicalFieldsOnly  = errors.New("doctors can only update medical information")
	ErrPatientDeactivated = errors.New("patient record is deactivated")
)

type Service struct {
	repo   PatientRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo PatientRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) CreatePatient(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	if req.BloodType != nil && !bloodTypes[*req.BloodType] {
		return nil, ErrInvalidBloodType
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("invalid date of birth: %w", err)
	}

	if dup, err := s.repo.FindDuplicate(ctx, req.Email, req.FirstName, req.LastName, req.DateOfBirth); err == nil && dup != nil {
		return nil, ErrPatientExists
	}

	number, err := s.nextPatientNumber(ctx)
	if err != nil {
		return nil, err
	}

	if req.Address.Country == "" {
		req.Address.Country = "USA"
	}
	p := &Patient{
		PatientNumber:      number,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DateOfBirth:        dob,
		Gender:             req.Gender,
		Phone:              req.Phone,
		Email:              req.Email,
		Status:             StatusActive,
		BloodType:          req.BloodType,
		Address:            req.Address,
		EmergencyContact:   req.EmergencyContact,
		Allergies:          emptyIfNil(req.Allergies),
		ChronicConditions:  emptyIfNil(req.ChronicConditions),
		CurrentMedications: []string{},
		InsuranceDetails:   req.InsuranceDetails,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("patient_id", p.ID.String()).
		Str("patient_number", p.PatientNumber).
		Msg("patient registered")
	return p, nil
}

// nextPatientNumber derives PAT<year><seq>, zero-padded to six digits.
func (s *Service) nextPatientNumber(ctx context.Context) (string, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PAT%d%06d", s.now().Year(), count+1), nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdatePatient applies the partial update. Doctors may only touch the
// clinical fields; administrative identity fields need a front-desk or
// admin role.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req UpdatePatientRequest, callerRole policy.Role) (*Patient, error) {
	if callerRole == policy.RoleDoctor && !req.MedicalOnly() {
		return nil, ErrMedicalFieldsOnly
	}
	if req.BloodType != nil && !bloodTypes[*req.BloodType] {
		return nil, ErrInvalidBloodType
	}

	p, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		p.EmergencyContact = *req.EmergencyContact
	}
	if req.BloodType != nil {
		p.BloodType = req.BloodType
	}
	if req.Allergies != nil {
		p.Allergies = req.Allergies
	}
	if req.ChronicConditions != nil {
		p.ChronicConditions = req.ChronicConditions
	}
	if req.CurrentMedications != nil {
		p.CurrentMedications = req.CurrentMedications
	}
	if req.InsuranceDetails != nil {
		p.InsuranceDetails = req.InsuranceDetails
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, filter ListPatientsFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// DeactivatePatient retires the record without destroying clinical history.
func (s *Service) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Deactivate(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPatientNotFound
	}
	return err
}

// AddNote appends a clinical note to the record.
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, authorID, content string) (*Patient, error) {
	p, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusActive {
		return nil, ErrPatientDeactivated
	}
	p.DoctorNotes = append(p.DoctorNotes, ClinicalNote{
		AuthorID:   authorID,
		Content:    content,
		RecordedAt: s.now(),
	})
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
