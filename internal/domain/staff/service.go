package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrDepartmentExists    = errors.New("department already exists")
	ErrInvalidSpecialty    = errors.New("invalid specialization")
	ErrInvalidDoctorStatus = errors.New("invalid status")
	ErrUnknownDepartment   = errors.New("unknown department")
	ErrNoStatusFieldsGiven = errors.New("no status fields given")
)

type Service struct {
	doctors     DoctorRepository
	departments DepartmentRepository
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(doctors DoctorRepository, departments DepartmentRepository, logger zerolog.Logger) *Service {
	return &Service{doctors: doctors, departments: departments, logger: logger, now: time.Now}
}

func (s *Service) CreateDoctor(ctx context.Context, req CreateDoctorRequest) (*Doctor, error) {
	if !specializations[req.Specialization] {
		return nil, ErrInvalidSpecialty
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *req.DepartmentID); err != nil {
			return nil, ErrUnknownDepartment
		}
	}

	hireDate := s.now()
	if req.HireDate != "" {
		parsed, err := time.Parse("2006-01-02", req.HireDate)
		if err != nil {
			return nil, fmt.Errorf("invalid hire date: %w", err)
		}
		hireDate = parsed
	}

	d := &Doctor{
		UserID:            req.UserID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Specialization:    req.Specialization,
		SubSpecialty:      req.SubSpecialty,
		LicenseNumber:     req.LicenseNumber,
		Qualifications:    emptyIfNil(req.Qualifications),
		YearsOfExperience: req.YearsOfExperience,
		DepartmentID:      req.DepartmentID,
		Phone:             req.Phone,
		Email:             req.Email,
		ConsultationFee:   req.ConsultationFee,
		Schedule:          req.Schedule,
		CurrentStatus:     "AVAILABLE",
		IsAvailable:       true,
		Salary:            req.Salary,
		BankDetails:       req.BankDetails,
		HireDate:          hireDate,
		IsActive:          true,
	}
	if d.Schedule == nil {
		d.Schedule = []ScheduleSlot{}
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("doctor_id", d.ID.String()).
		Str("specialization", d.Specialization).
		Msg("doctor profile created")
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req UpdateDoctorRequest) (*Doctor, error) {
	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Specialization != nil {
		if !specializations[*req.Specialization] {
			return nil, ErrInvalidSpecialty
		}
		d.Specialization = *req.Specialization
	}
	if req.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *req.DepartmentID); err != nil {
			return nil, ErrUnknownDepartment
		}
		d.DepartmentID = req.DepartmentID
	}
	if req.FirstName != nil {
		d.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		d.LastName = *req.LastName
	}
	if req.SubSpecialty != nil {
		d.SubSpecialty = req.SubSpecialty
	}
	if req.Qualifications != nil {
		d.Qualifications = req.Qualifications
	}
	if req.YearsOfExperience != nil {
		d.YearsOfExperience = *req.YearsOfExperience
	}
	if req.Phone != nil {
		d.Phone = *req.Phone
	}
	if req.Email != nil {
		d.Email = *req.Email
	}
	if req.ConsultationFee != nil {
		d.ConsultationFee = *req.ConsultationFee
	}
	if req.Schedule != nil {
		d.Schedule = req.Schedule
	}
	if req.Salary != nil {
		d.Salary = req.Salary
	}
	if req.BankDetails != nil {
		d.BankDetails = req.BankDetails
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// SetStatus flips availability or the working-state flag, or both.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, req SetStatusRequest) (*Doctor, error) {
	if req.IsAvailable == nil && req.CurrentStatus == nil {
		return nil, ErrNoStatusFieldsGiven
	}
	if req.CurrentStatus != nil && !doctorStatuses[*req.CurrentStatus] {
		return nil, ErrInvalidDoctorStatus
	}

	d, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsAvailable != nil {
		d.IsAvailable = *req.IsAvailable
	}
	if req.CurrentStatus != nil {
		d.CurrentStatus = *req.CurrentStatus
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, filter ListDoctorsFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, filter, limit, offset)
}

func (s *Service) DeactivateDoctor(ctx context.Context, id uuid.UUID) error {
	err := s.doctors.Deactivate(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDoctorNotFound
	}
	return err
}

// Stats reports staffing totals; new hires are counted from the start of the
// current month.
func (s *Service) Stats(ctx context.Context) (*StaffStats, error) {
	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats, err := s.doctors.Stats(ctx, startOfMonth)
	if err != nil {
		return nil, err
	}
	if stats.StaffByDepartment == nil {
		stats.StaffByDepartment = []DepartmentCount{}
	}
	return stats, nil
}

// -- Departments --

func (s *Service) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*Department, error) {
	if existing, err := s.departments.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, ErrDepartmentExists
	}
	d := &Department{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, req CreateDepartmentRequest) (*Department, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	d.Name = req.Name
	d.Description = req.Description
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.departments.List(ctx)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
