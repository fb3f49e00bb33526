package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository is the persistence collaborator for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, filter ListAppointmentsFilter, limit, offset int) ([]*Appointment, int, error)
	// FindConflicts returns calendar-occupying appointments of the doctor
	// overlapping [start, end), excluding the given appointment id (pass
	// uuid.Nil on create).
	FindConflicts(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]*Appointment, error)
	// ListForDoctorDay returns the doctor's calendar-occupying appointments
	// for the calendar day containing t.
	ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Appointment, error)
}
