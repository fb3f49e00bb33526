package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

// PharmacyRepository persists the formulary and prescriptions.
//
// Dispense applies the stock decrements and the prescription status flip in
// a single transaction so the inventory can never drift from the dispense
// record.
type PharmacyRepository interface {
	CreateMedication(ctx context.Context, m *Medication) error
	GetMedicationByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	GetMedicationByBatch(ctx context.Context, name, batchNumber string) (*Medication, error)
	UpdateMedication(ctx context.Context, m *Medication) error
	DeactivateMedication(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
	ListMedications(ctx context.Context, filter ListMedicationsFilter, limit, offset int) ([]*Medication, int, error)

	CreatePrescription(ctx context.Context, p *Prescription) error
	GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	UpdatePrescription(ctx context.Context, p *Prescription) error
	ListPrescriptions(ctx context.Context, filter ListPrescriptionsFilter, limit, offset int) ([]*Prescription, int, error)
	CountPrescriptionsThisYear(ctx context.Context) (int, error)
	Dispense(ctx context.Context, prescriptionID uuid.UUID, dispensedBy string, decrements map[uuid.UUID]int) error

	InventoryReport(ctx context.Context) (*InventoryReport, error)
}
