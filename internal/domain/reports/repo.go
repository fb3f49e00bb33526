package reports

import (
	"context"

	"github.com/google/uuid"
)

// ReportRepository aggregates across the clinical tables. Rate fields are
// left zero; the service derives them from the raw counts.
type ReportRepository interface {
	Dashboard(ctx context.Context) (*DashboardReport, error)
	Patients(ctx context.Context, rng Range) (*PatientReport, error)
	Appointments(ctx context.Context, rng Range, doctorID, patientID *uuid.UUID) (*AppointmentReport, error)
	Revenue(ctx context.Context, rng Range) (*RevenueReport, error)
	Laboratory(ctx context.Context, rng Range, patientID *uuid.UUID) (*LaboratoryReport, error)
	Occupancy(ctx context.Context, departmentID *uuid.UUID) (*OccupancyReport, error)
	Doctors(ctx context.Context, rng Range, departmentID *uuid.UUID) (*DoctorReport, error)
}
