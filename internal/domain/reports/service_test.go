package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	dashboard    DashboardReport
	appointments AppointmentReport
	revenue      RevenueReport
	occupancy    OccupancyReport
	doctors      DoctorReport
}

func (m *mockRepo) Dashboard(ctx context.Context) (*DashboardReport, error) {
	cp := m.dashboard
	return &cp, nil
}

func (m *mockRepo) Patients(ctx context.Context, rng Range) (*PatientReport, error) {
	return &PatientReport{}, nil
}

func (m *mockRepo) Appointments(ctx context.Context, rng Range, doctorID, patientID *uuid.UUID) (*AppointmentReport, error) {
	cp := m.appointments
	return &cp, nil
}

func (m *mockRepo) Revenue(ctx context.Context, rng Range) (*RevenueReport, error) {
	cp := m.revenue
	return &cp, nil
}

func (m *mockRepo) Laboratory(ctx context.Context, rng Range, patientID *uuid.UUID) (*LaboratoryReport, error) {
	return &LaboratoryReport{}, nil
}

func (m *mockRepo) Occupancy(ctx context.Context, departmentID *uuid.UUID) (*OccupancyReport, error) {
	cp := m.occupancy
	return &cp, nil
}

func (m *mockRepo) Doctors(ctx context.Context, rng Range, departmentID *uuid.UUID) (*DoctorReport, error) {
	cp := m.doctors
	return &cp, nil
}

func TestRangeValidation(t *testing.T) {
	svc := NewService(&mockRepo{})
	ctx := context.Background()

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, -1, 0)
	if _, err := svc.Patients(ctx, Range{From: &from, To: &to}); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := svc.Patients(ctx, Range{From: &from}); err != nil {
		t.Fatalf("open-ended range should pass, got %v", err)
	}
}

func TestDashboard_OccupancyRate(t *testing.T) {
	repo := &mockRepo{}
	repo.dashboard.Facility.TotalBeds = 40
	repo.dashboard.Facility.OccupiedBeds = 30
	svc := NewService(repo)

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Facility.OccupancyRate != 75 {
		t.Fatalf("expected 75%% occupancy, got %d", d.Facility.OccupancyRate)
	}
}

func TestAppointments_CompletionRate(t *testing.T) {
	repo := &mockRepo{appointments: AppointmentReport{
		Total:    8,
		ByStatus: map[string]int{"COMPLETED": 6, "CANCELLED": 2},
	}}
	svc := NewService(repo)

	report, err := svc.Appointments(context.Background(), Range{}, nil, nil)
	if err != nil {
		t.Fatalf("Appointments: %v", err)
	}
	if report.CompletionRate != 75 {
		t.Fatalf("expected 75%% completion, got %d", report.CompletionRate)
	}
}

func TestRevenue_Derived(t *testing.T) {
	repo := &mockRepo{revenue: RevenueReport{
		TotalRevenue: 900,
		TotalBilled:  1000,
		TotalPaid:    900,
	}}
	svc := NewService(repo)

	report, err := svc.Revenue(context.Background(), Range{})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if report.Outstanding != 100 {
		t.Fatalf("expected 100 outstanding, got %v", report.Outstanding)
	}
	if report.CollectionRate != 90 {
		t.Fatalf("expected 90%% collection, got %d", report.CollectionRate)
	}
}

func TestOccupancy_PerDepartmentRates(t *testing.T) {
	repo := &mockRepo{occupancy: OccupancyReport{
		TotalBeds:    10,
		OccupiedBeds: 5,
		Departments: []DepartmentOccupancy{
			{Department: "ICU", TotalBeds: 4, OccupiedBeds: 4},
			{Department: "Maternity", TotalBeds: 6, OccupiedBeds: 1},
		},
	}}
	svc := NewService(repo)

	report, err := svc.Occupancy(context.Background(), nil)
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	if report.OccupancyRate != 50 {
		t.Fatalf("expected 50%% overall, got %d", report.OccupancyRate)
	}
	if report.Departments[0].OccupancyRate != 100 || report.Departments[1].OccupancyRate != 16 {
		t.Fatalf("unexpected department rates: %+v", report.Departments)
	}
}

func TestDoctors_CompletionRates(t *testing.T) {
	repo := &mockRepo{doctors: DoctorReport{
		Doctors: []DoctorPerformance{
			{Name: "Maya Singh", Appointments: 10, Completed: 9, Cancelled: 1},
			{Name: "Omar Farouk", Appointments: 0},
		},
		TotalDoctors:      2,
		TotalAppointments: 10,
	}}
	svc := NewService(repo)

	report, err := svc.Doctors(context.Background(), Range{}, nil)
	if err != nil {
		t.Fatalf("Doctors: %v", err)
	}
	if report.Doctors[0].CompletionRate != 90 {
		t.Fatalf("expected 90%%, got %d", report.Doctors[0].CompletionRate)
	}
	if report.Doctors[1].CompletionRate != 0 {
		t.Fatalf("empty caseload should rate 0, got %d", report.Doctors[1].CompletionRate)
	}
}
