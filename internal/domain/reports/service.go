package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidRange = errors.New("report range start is after its end")

type Service struct {
	repo ReportRepository
}

func NewService(repo ReportRepository) *Service {
	return &Service{repo: repo}
}

func (rng Range) valid() bool {
	return rng.From == nil || rng.To == nil || !rng.From.After(*rng.To)
}

// rate renders part/whole as a whole percentage, zero when the denominator
// is empty.
func rate(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return part * 100 / whole
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardReport, error) {
	d, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	d.Facility.OccupancyRate = rate(d.Facility.OccupiedBeds, d.Facility.TotalBeds)
	return d, nil
}

func (s *Service) Patients(ctx context.Context, rng Range) (*PatientReport, error) {
	if !rng.valid() {
		return nil, ErrInvalidRange
	}
	return s.repo.Patients(ctx, rng)
}

func (s *Service) Appointments(ctx context.Context, rng Range, doctorID, patientID *uuid.UUID) (*AppointmentReport, error) {
	if !rng.valid() {
		return nil, ErrInvalidRange
	}
	report, err := s.repo.Appointments(ctx, rng, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	report.CompletionRate = rate(report.ByStatus["COMPLETED"], report.Total)
	return report, nil
}

func (s *Service) Revenue(ctx context.Context, rng Range) (*RevenueReport, error) {
	if !rng.valid() {
		return nil, ErrInvalidRange
	}
	report, err := s.repo.Revenue(ctx, rng)
	if err != nil {
		return nil, err
	}
	report.Outstanding = report.TotalBilled - report.TotalPaid
	if report.TotalBilled > 0 {
		report.CollectionRate = int(report.TotalPaid / report.TotalBilled * 100)
	}
	return report, nil
}

func (s *Service) Laboratory(ctx context.Context, rng Range, patientID *uuid.UUID) (*LaboratoryReport, error) {
	if !rng.valid() {
		return nil, ErrInvalidRange
	}
	report, err := s.repo.Laboratory(ctx, rng, patientID)
	if err != nil {
		return nil, err
	}
	if report.TotalOrders > 0 {
		report.ResultsPerOrder = report.TotalResults / report.TotalOrders
	}
	return report, nil
}

func (s *Service) Occupancy(ctx context.Context, departmentID *uuid.UUID) (*OccupancyReport, error) {
	report, err := s.repo.Occupancy(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	report.OccupancyRate = rate(report.OccupiedBeds, report.TotalBeds)
	for i := range report.Departments {
		d := &report.Departments[i]
		d.OccupancyRate = rate(d.OccupiedBeds, d.TotalBeds)
	}
	return report, nil
}

func (s *Service) Doctors(ctx context.Context, rng Range, departmentID *uuid.UUID) (*DoctorReport, error) {
	if !rng.valid() {
		return nil, ErrInvalidRange
	}
	report, err := s.repo.Doctors(ctx, rng, departmentID)
	if err != nil {
		return nil, err
	}
	for i := range report.Doctors {
		d := &report.Doctors[i]
		d.CompletionRate = rate(d.Completed, d.Appointments)
	}
	return report, nil
}
