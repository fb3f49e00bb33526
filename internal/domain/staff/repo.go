package staff

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DoctorRepository is the persistence collaborator for doctor profiles.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListDoctorsFilter, limit, offset int) ([]*Doctor, int, error)
	Stats(ctx context.Context, since time.Time) (*StaffStats, error)
}

// DepartmentRepository is the persistence collaborator for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	GetByName(ctx context.Context, name string) (*Department, error)
	Update(ctx context.Context, d *Department) error
	List(ctx context.Context) ([]*Department, error)
}
