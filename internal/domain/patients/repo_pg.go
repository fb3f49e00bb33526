package patients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, patient_number, first_name, last_name, date_of_birth, gender, phone, email,
	status, blood_type, address, emergency_contact, allergies, chronic_conditions,
	current_medications, insurance_details, billing_info, doctor_notes, owner_user_id,
	created_at, updated_at`

func (r *patientRepoPG) scanRow(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientNumber, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Email,
		&p.Status, &p.BloodType, &p.Address, &p.EmergencyContact, &p.Allergies, &p.ChronicConditions,
		&p.CurrentMedications, &p.InsuranceDetails, &p.BillingInfo, &p.DoctorNotes, &p.OwnerUserID,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	created, err := r.scanRow(r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, patient_number, first_name, last_name, date_of_birth, gender, phone, email,
			status, blood_type, address, emergency_contact, allergies, chronic_conditions,
			current_medications, insurance_details, billing_info, doctor_notes, owner_user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING `+patientCols,
		p.ID, p.PatientNumber, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email,
		p.Status, p.BloodType, p.Address, p.EmergencyContact, p.Allergies, p.ChronicConditions,
		p.CurrentMedications, p.InsuranceDetails, p.BillingInfo, p.DoctorNotes, p.OwnerUserID))
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanRow(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patients SET first_name=$2, last_name=$3, phone=$4, email=$5, blood_type=$6,
			address=$7, emergency_contact=$8, allergies=$9, chronic_conditions=$10,
			current_medications=$11, insurance_details=$12, billing_info=$13, doctor_notes=$14,
			status=$15, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Email, p.BloodType,
		p.Address, p.EmergencyContact, p.Allergies, p.ChronicConditions,
		p.CurrentMedications, p.InsuranceDetails, p.BillingInfo, p.DoctorNotes,
		p.Status)
	return err
}

func (r *patientRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE patients SET status = 'INACTIVE', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, filter ListPatientsFilter, limit, offset int) ([]*Patient, int, error) {
	where := []string{"1=1"}
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR phone LIKE $%d)", n, n, n, n))
	}
	if filter.BloodType != "" {
		args = append(args, filter.BloodType)
		where = append(where, fmt.Sprintf("blood_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM patients WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientCols, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *patientRepoPG) FindDuplicate(ctx context.Context, email *string, firstName, lastName string, dateOfBirth string) (*Patient, error) {
	return r.scanRow(r.pool.QueryRow(ctx, `
		SELECT `+patientCols+` FROM patients
		WHERE (email IS NOT NULL AND email = $1)
		   OR (first_name = $2 AND last_name = $3 AND date_of_birth = $4::date)
		LIMIT 1`,
		email, firstName, lastName, dateOfBirth))
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n)
	return n, err
}
