package facility

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FacilityRepository covers beds and admissions together because every
// admission lifecycle write pairs an admission row with a bed status flip.
type FacilityRepository interface {
	CreateBed(ctx context.Context, b *Bed) error
	GetBedByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	GetBedByNumber(ctx context.Context, bedNumber string) (*Bed, error)
	UpdateBed(ctx context.Context, b *Bed) error
	SetBedStatus(ctx context.Context, id uuid.UUID, status string) error
	// DeactivateBed retires the bed from the pool and blocks it.
	DeactivateBed(ctx context.Context, id uuid.UUID) error
	ListBeds(ctx context.Context, filter ListBedsFilter, limit, offset int) ([]*Bed, int, error)

	BedHasActiveAdmission(ctx context.Context, bedID uuid.UUID) (bool, error)
	PatientHasActiveAdmission(ctx context.Context, patientID uuid.UUID) (bool, error)

	// Admit inserts the admission and marks the bed OCCUPIED in one
	// transaction.
	Admit(ctx context.Context, a *Admission) error
	GetAdmissionByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	ListAdmissions(ctx context.Context, filter ListAdmissionsFilter, limit, offset int) ([]*Admission, int, error)
	// Discharge closes the admission and sends the bed to CLEANING in one
	// transaction.
	Discharge(ctx context.Context, admissionID, bedID uuid.UUID, at time.Time, diagnosis string, summary *string) error
	// Transfer moves the admission to the new bed. The old bed goes to
	// CLEANING and the new one to OCCUPIED, all in one transaction.
	Transfer(ctx context.Context, admissionID, oldBedID, newBedID uuid.UUID, summary *string) error

	Stats(ctx context.Context) (*FacilityStats, error)
}
