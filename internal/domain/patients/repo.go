package patients

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository is the persistence collaborator for patient records.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// Deactivate flips the record to INACTIVE. There is no physical delete.
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListPatientsFilter, limit, offset int) ([]*Patient, int, error)
	// FindDuplicate looks for an existing record with the same email or the
	// same name and birth date.
	FindDuplicate(ctx context.Context, email *string, firstName, lastName string, dateOfBirth string) (*Patient, error)
	Count(ctx context.Context) (int, error)
}
