package pharmacy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/db"
)

const medicationCols = `id, name, generic_name, manufacturer, category, current_stock,
	min_stock_level, max_stock_level, unit_price, expiry_date, batch_number, dosage,
	unit, description, side_effects, contraindications, prescription_required,
	location, supplier, is_active, created_at, updated_at`

const prescriptionCols = `pr.id, pr.prescription_number, pr.patient_id,
	COALESCE(p.first_name || ' ' || p.last_name, '') AS patient_name,
	pr.doctor_id, pr.medications, pr.diagnosis, pr.clinical_reasoning,
	pr.diagnostic_notes, pr.treatment_plan, pr.internal_notes, pr.status,
	p.owner_user_id, pr.issued_at, pr.expires_at, pr.dispensed_at, pr.dispensed_by,
	pr.created_at, pr.updated_at`

const prescriptionFrom = ` FROM prescriptions pr LEFT JOIN patients p ON p.id = pr.patient_id`

type pgPharmacyRepository struct {
	pool *pgxpool.Pool
}

func NewPGPharmacyRepository(pool *pgxpool.Pool) PharmacyRepository {
	return &pgPharmacyRepository{pool: pool}
}

func (r *pgPharmacyRepository) scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(
		&m.ID, &m.Name, &m.GenericName, &m.Manufacturer, &m.Category, &m.CurrentStock,
		&m.MinStockLevel, &m.MaxStockLevel, &m.UnitPrice, &m.ExpiryDate, &m.BatchNumber,
		&m.Dosage, &m.Unit, &m.Description, &m.SideEffects, &m.Contraindications,
		&m.PrescriptionRequired, &m.Location, &m.Supplier, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgPharmacyRepository) scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.PrescriptionNumber, &p.PatientID, &p.PatientName, &p.DoctorID,
		&p.Medications, &p.Diagnosis, &p.ClinicalReasoning, &p.DiagnosticNotes,
		&p.TreatmentPlan, &p.InternalNotes, &p.Status, &p.OwnerUserID,
		&p.IssuedAt, &p.ExpiresAt, &p.DispensedAt, &p.DispensedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPharmacyRepository) CreateMedication(ctx context.Context, m *Medication) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO medications (name, generic_name, manufacturer, category,
			current_stock, min_stock_level, max_stock_level, unit_price, expiry_date,
			batch_number, dosage, unit, description, side_effects, contraindications,
			prescription_required, location, supplier, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`,
		m.Name, m.GenericName, m.Manufacturer, m.Category,
		m.CurrentStock, m.MinStockLevel, m.MaxStockLevel, m.UnitPrice, m.ExpiryDate,
		m.BatchNumber, m.Dosage, m.Unit, m.Description, m.SideEffects,
		m.Contraindications, m.PrescriptionRequired, m.Location, m.Supplier, m.IsActive,
	)
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

func (r *pgPharmacyRepository) GetMedicationByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medications WHERE id = $1`, id)
	return r.scanMedication(row)
}

func (r *pgPharmacyRepository) GetMedicationByBatch(ctx context.Context, name, batchNumber string) (*Medication, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medications WHERE lower(name) = lower($1) AND batch_number = $2`,
		name, batchNumber)
	return r.scanMedication(row)
}

func (r *pgPharmacyRepository) UpdateMedication(ctx context.Context, m *Medication) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medications
		SET name = $2, manufacturer = $3, category = $4, min_stock_level = $5,
			max_stock_level = $6, unit_price = $7, expiry_date = $8, batch_number = $9,
			description = $10, side_effects = $11, contraindications = $12,
			location = $13, supplier = $14, updated_at = now()
		WHERE id = $1`,
		m.ID, m.Name, m.Manufacturer, m.Category, m.MinStockLevel,
		m.MaxStockLevel, m.UnitPrice, m.ExpiryDate, m.BatchNumber,
		m.Description, m.SideEffects, m.Contraindications, m.Location, m.Supplier,
	)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgPharmacyRepository) DeactivateMedication(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE medications SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AdjustStock applies the delta and returns the new level. The guard in the
// WHERE clause keeps stock from going negative under concurrent writes.
func (r *pgPharmacyRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var newStock int
	err := r.pool.QueryRow(ctx, `
		UPDATE medications
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= 0
		RETURNING current_stock`, id, delta).Scan(&newStock)
	if err != nil {
		return 0, err
	}
	return newStock, nil
}

func (r *pgPharmacyRepository) ListMedications(ctx context.Context, filter ListMedicationsFilter, limit, offset int) ([]*Medication, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.ActiveOnly {
		where += ` AND is_active = true`
	}
	if filter.Category != "" {
		where += ` AND category = ` + arg(filter.Category)
	}
	if filter.LowStock {
		where += ` AND current_stock <= min_stock_level`
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where += ` AND (name ILIKE ` + p + ` OR generic_name ILIKE ` + p + ` OR manufacturer ILIKE ` + p + `)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM medications`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medications: %w", err)
	}

	query := `SELECT ` + medicationCols + ` FROM medications` + where +
		` ORDER BY name LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query medications: %w", err)
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		m, err := r.scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		meds = append(meds, m)
	}
	return meds, total, rows.Err()
}

func (r *pgPharmacyRepository) CreatePrescription(ctx context.Context, p *Prescription) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (prescription_number, patient_id, doctor_id,
			medications, diagnosis, clinical_reasoning, diagnostic_notes,
			treatment_plan, internal_notes, status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		p.PrescriptionNumber, p.PatientID, p.DoctorID, p.Medications, p.Diagnosis,
		p.ClinicalReasoning, p.DiagnosticNotes, p.TreatmentPlan, p.InternalNotes,
		p.Status, p.IssuedAt, p.ExpiresAt,
	)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert prescription: %w", err)
	}
	created, err := r.GetPrescriptionByID(ctx, id)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *pgPharmacyRepository) GetPrescriptionByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+prescriptionCols+prescriptionFrom+` WHERE pr.id = $1`, id)
	return r.scanPrescription(row)
}

func (r *pgPharmacyRepository) UpdatePrescription(ctx context.Context, p *Prescription) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions
		SET medications = $2, diagnosis = $3, clinical_reasoning = $4,
			diagnostic_notes = $5, treatment_plan = $6, internal_notes = $7,
			status = $8, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Medications, p.Diagnosis, p.ClinicalReasoning,
		p.DiagnosticNotes, p.TreatmentPlan, p.InternalNotes, p.Status,
	)
	if err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgPharmacyRepository) ListPrescriptions(ctx context.Context, filter ListPrescriptionsFilter, limit, offset int) ([]*Prescription, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.PatientID != nil {
		where += ` AND pr.patient_id = ` + arg(*filter.PatientID)
	}
	if filter.DoctorID != nil {
		where += ` AND pr.doctor_id = ` + arg(*filter.DoctorID)
	}
	if filter.Status != "" {
		where += ` AND pr.status = ` + arg(filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+prescriptionFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prescriptions: %w", err)
	}

	query := `SELECT ` + prescriptionCols + prescriptionFrom + where +
		` ORDER BY pr.issued_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query prescriptions: %w", err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := r.scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *pgPharmacyRepository) CountPrescriptionsThisYear(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM prescriptions WHERE date_trunc('year', issued_at) = date_trunc('year', now())`,
	).Scan(&count)
	return count, err
}

func (r *pgPharmacyRepository) Dispense(ctx context.Context, prescriptionID uuid.UUID, dispensedBy string, decrements map[uuid.UUID]int) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		for medID, qty := range decrements {
			tag, err := tx.Exec(ctx, `
				UPDATE medications
				SET current_stock = current_stock - $2, updated_at = now()
				WHERE id = $1 AND current_stock >= $2`, medID, qty)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("medication %s: %w", medID, ErrInsufficientStock)
			}
		}
		tag, err := tx.Exec(ctx, `
			UPDATE prescriptions
			SET status = $2, dispensed_at = now(), dispensed_by = $3, updated_at = now()
			WHERE id = $1`, prescriptionID, PrescriptionDispensed, dispensedBy)
		if err != nil {
			return fmt.Errorf("mark prescription dispensed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *pgPharmacyRepository) InventoryReport(ctx context.Context) (*InventoryReport, error) {
	var rep InventoryReport
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE current_stock <= min_stock_level),
			count(*) FILTER (WHERE expiry_date <= now() + interval '30 days'),
			COALESCE(sum(current_stock * unit_price), 0)
		FROM medications WHERE is_active = true`,
	).Scan(&rep.TotalMedications, &rep.LowStockItems, &rep.ExpiringSoon, &rep.TotalInventoryValue)
	if err != nil {
		return nil, fmt.Errorf("query inventory report: %w", err)
	}
	return &rep, nil
}
