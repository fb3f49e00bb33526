package facility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/db"
)

const bedCols = `b.id, b.bed_number, b.department_id, COALESCE(d.name, '') AS department_name,
	b.bed_type, b.status, b.location, b.is_active,
	(SELECT p.first_name || ' ' || p.last_name
		FROM admissions a JOIN patients p ON p.id = a.patient_id
		WHERE a.bed_id = b.id AND a.discharge_date IS NULL
		LIMIT 1) AS occupant_name,
	b.created_at, b.updated_at`

const bedFrom = ` FROM beds b LEFT JOIN departments d ON d.id = b.department_id`

const admissionCols = `a.id, a.patient_id,
	COALESCE(p.first_name || ' ' || p.last_name, '') AS patient_name,
	a.bed_id, COALESCE(b.bed_number, '') AS bed_number,
	COALESCE(d.name, '') AS department_name,
	a.admission_type, a.status, a.admitting_diagnosis, a.discharge_diagnosis,
	a.treatment_summary, p.owner_user_id, a.admission_date, a.discharge_date,
	a.created_at, a.updated_at`

const admissionFrom = ` FROM admissions a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN beds b ON b.id = a.bed_id
	LEFT JOIN departments d ON d.id = b.department_id`

type PGFacilityRepository struct {
	pool *pgxpool.Pool
}

func NewPGFacilityRepository(pool *pgxpool.Pool) *PGFacilityRepository {
	return &PGFacilityRepository{pool: pool}
}

func (r *PGFacilityRepository) scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(
		&b.ID, &b.BedNumber, &b.DepartmentID, &b.DepartmentName, &b.BedType,
		&b.Status, &b.Location, &b.IsActive, &b.OccupantName,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGFacilityRepository) scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &a.BedID, &a.BedNumber,
		&a.DepartmentName, &a.AdmissionType, &a.Status, &a.AdmittingDiagnosis,
		&a.DischargeDiagnosis, &a.TreatmentSummary, &a.OwnerUserID,
		&a.AdmissionDate, &a.DischargeDate, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGFacilityRepository) CreateBed(ctx context.Context, b *Bed) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO beds (bed_number, department_id, bed_type, status, location, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		b.BedNumber, b.DepartmentID, b.BedType, b.Status, b.Location, b.IsActive,
	)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert bed: %w", err)
	}
	created, err := r.GetBedByID(ctx, id)
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

func (r *PGFacilityRepository) GetBedByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bedCols+bedFrom+` WHERE b.id = $1`, id)
	return r.scanBed(row)
}

func (r *PGFacilityRepository) GetBedByNumber(ctx context.Context, bedNumber string) (*Bed, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bedCols+bedFrom+` WHERE b.bed_number = $1`, bedNumber)
	return r.scanBed(row)
}

func (r *PGFacilityRepository) UpdateBed(ctx context.Context, b *Bed) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE beds
		SET bed_number = $2, department_id = $3, bed_type = $4, location = $5,
			updated_at = now()
		WHERE id = $1`,
		b.ID, b.BedNumber, b.DepartmentID, b.BedType, b.Location,
	)
	if err != nil {
		return fmt.Errorf("update bed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGFacilityRepository) SetBedStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE beds SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update bed status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGFacilityRepository) DeactivateBed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE beds SET is_active = false, status = 'BLOCKED', updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate bed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGFacilityRepository) ListBeds(ctx context.Context, filter ListBedsFilter, limit, offset int) ([]*Bed, int, error) {
	where := ` WHERE b.is_active`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.DepartmentID != nil {
		where += ` AND b.department_id = ` + arg(*filter.DepartmentID)
	}
	if filter.BedType != "" {
		where += ` AND b.bed_type = ` + arg(filter.BedType)
	}
	if filter.AvailableOnly {
		where += ` AND b.status = 'AVAILABLE'`
	} else if filter.Status != "" {
		where += ` AND b.status = ` + arg(filter.Status)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where += ` AND (b.bed_number ILIKE ` + p +
			` OR b.location ILIKE ` + p +
			` OR d.name ILIKE ` + p + `)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+bedFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count beds: %w", err)
	}

	query := `SELECT ` + bedCols + bedFrom + where +
		` ORDER BY b.bed_number LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query beds: %w", err)
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := r.scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		beds = append(beds, b)
	}
	return beds, total, rows.Err()
}

func (r *PGFacilityRepository) BedHasActiveAdmission(ctx context.Context, bedID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM admissions WHERE bed_id = $1 AND discharge_date IS NULL
		)`, bedID).Scan(&exists)
	return exists, err
}

func (r *PGFacilityRepository) PatientHasActiveAdmission(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM admissions WHERE patient_id = $1 AND discharge_date IS NULL
		)`, patientID).Scan(&exists)
	return exists, err
}

func (r *PGFacilityRepository) Admit(ctx context.Context, a *Admission) error {
	var id uuid.UUID
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO admissions (patient_id, bed_id, admission_type, status,
				admitting_diagnosis, admission_date)
			VALUES ($1, $2, $3, $4, $5, now())
			RETURNING id`,
			a.PatientID, a.BedID, a.AdmissionType, a.Status, a.AdmittingDiagnosis,
		)
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("insert admission: %w", err)
		}
		_, err := tx.Exec(ctx,
			`UPDATE beds SET status = 'OCCUPIED', updated_at = now() WHERE id = $1`, a.BedID)
		if err != nil {
			return fmt.Errorf("occupy bed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	created, err := r.GetAdmissionByID(ctx, id)
	if err != nil {
		return err
	}
	*a = *created
	return nil
}

func (r *PGFacilityRepository) GetAdmissionByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+admissionCols+admissionFrom+` WHERE a.id = $1`, id)
	return r.scanAdmission(row)
}

func (r *PGFacilityRepository) ListAdmissions(ctx context.Context, filter ListAdmissionsFilter, limit, offset int) ([]*Admission, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.PatientID != nil {
		where += ` AND a.patient_id = ` + arg(*filter.PatientID)
	}
	if filter.BedID != nil {
		where += ` AND a.bed_id = ` + arg(*filter.BedID)
	}
	if filter.ActiveOnly {
		where += ` AND a.discharge_date IS NULL`
	}
	if filter.From != nil {
		where += ` AND a.admission_date >= ` + arg(*filter.From)
	}
	if filter.To != nil {
		where += ` AND a.admission_date <= ` + arg(*filter.To)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where += ` AND (a.admitting_diagnosis ILIKE ` + p +
			` OR p.first_name ILIKE ` + p +
			` OR p.last_name ILIKE ` + p +
			` OR p.patient_number ILIKE ` + p + `)`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+admissionFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count admissions: %w", err)
	}

	query := `SELECT ` + admissionCols + admissionFrom + where +
		` ORDER BY a.admission_date DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query admissions: %w", err)
	}
	defer rows.Close()

	var admissions []*Admission
	for rows.Next() {
		a, err := r.scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		admissions = append(admissions, a)
	}
	return admissions, total, rows.Err()
}

func (r *PGFacilityRepository) Discharge(ctx context.Context, admissionID, bedID uuid.UUID, at time.Time, diagnosis string, summary *string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE admissions
			SET discharge_date = $2, status = 'DISCHARGED', discharge_diagnosis = $3,
				treatment_summary = COALESCE($4, treatment_summary), updated_at = now()
			WHERE id = $1 AND discharge_date IS NULL`,
			admissionID, at, diagnosis, summary,
		)
		if err != nil {
			return fmt.Errorf("discharge admission: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, err = tx.Exec(ctx,
			`UPDATE beds SET status = 'CLEANING', updated_at = now() WHERE id = $1`, bedID)
		if err != nil {
			return fmt.Errorf("release bed: %w", err)
		}
		return nil
	})
}

func (r *PGFacilityRepository) Transfer(ctx context.Context, admissionID, oldBedID, newBedID uuid.UUID, summary *string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE admissions
			SET bed_id = $2, status = 'TRANSFERRED',
				treatment_summary = COALESCE($3, treatment_summary), updated_at = now()
			WHERE id = $1 AND discharge_date IS NULL`,
			admissionID, newBedID, summary,
		)
		if err != nil {
			return fmt.Errorf("transfer admission: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, err = tx.Exec(ctx,
			`UPDATE beds SET status = 'CLEANING', updated_at = now() WHERE id = $1`, oldBedID)
		if err != nil {
			return fmt.Errorf("release old bed: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE beds SET status = 'OCCUPIED', updated_at = now() WHERE id = $1`, newBedID)
		if err != nil {
			return fmt.Errorf("occupy new bed: %w", err)
		}
		return nil
	})
}

func (r *PGFacilityRepository) Stats(ctx context.Context) (*FacilityStats, error) {
	var s FacilityStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM beds WHERE is_active),
			(SELECT count(*) FROM beds WHERE is_active AND status = 'AVAILABLE'),
			(SELECT count(*) FROM beds WHERE is_active AND status = 'OCCUPIED'),
			(SELECT count(*) FROM beds WHERE is_active AND status = 'MAINTENANCE'),
			(SELECT count(*) FROM admissions),
			(SELECT count(*) FROM admissions WHERE discharge_date IS NULL),
			(SELECT count(*) FROM admissions WHERE admission_date >= date_trunc('day', now())),
			(SELECT count(*) FROM admissions WHERE discharge_date >= date_trunc('day', now()))`,
	).Scan(&s.TotalBeds, &s.AvailableBeds, &s.OccupiedBeds, &s.MaintenanceBeds,
		&s.TotalAdmissions, &s.ActiveAdmissions, &s.TodayAdmissions, &s.TodayDischarges)
	if err != nil {
		return nil, fmt.Errorf("query facility stats: %w", err)
	}
	if s.TotalBeds > 0 {
		s.OccupancyRate = s.OccupiedBeds * 100 / s.TotalBeds
	}

	s.BedsByType = make(map[string]int)
	rows, err := r.pool.Query(ctx,
		`SELECT bed_type, count(*) FROM beds WHERE is_active GROUP BY bed_type`)
	if err != nil {
		return nil, fmt.Errorf("query beds by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bedType string
		var count int
		if err := rows.Scan(&bedType, &count); err != nil {
			return nil, err
		}
		s.BedsByType[bedType] = count
	}
	return &s, rows.Err()
}
