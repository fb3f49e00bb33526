package staff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `d.id, d.user_id, d.first_name, d.last_name, d.specialization, d.sub_specialty,
	d.license_number, d.qualifications, d.years_of_experience,
	COALESCE(dept.name, ''), d.department_id, d.phone, d.email, d.consultation_fee, d.avatar,
	d.schedule, d.current_status, d.is_available, d.salary, d.bank_details,
	d.hire_date, d.is_active, d.created_at, d.updated_at`

const doctorFrom = ` FROM doctors d LEFT JOIN departments dept ON dept.id = d.department_id `

func (r *doctorRepoPG) scanRow(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Specialization, &d.SubSpecialty,
		&d.LicenseNumber, &d.Qualifications, &d.YearsOfExperience,
		&d.Department, &d.DepartmentID, &d.Phone, &d.Email, &d.ConsultationFee, &d.Avatar,
		&d.Schedule, &d.CurrentStatus, &d.IsAvailable, &d.Salary, &d.BankDetails,
		&d.HireDate, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, user_id, first_name, last_name, specialization, sub_specialty,
			license_number, qualifications, years_of_experience, department_id, phone, email,
			consultation_fee, avatar, schedule, current_status, is_available, salary, bank_details,
			hire_date, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		d.ID, d.UserID, d.FirstName, d.LastName, d.Specialization, d.SubSpecialty,
		d.LicenseNumber, d.Qualifications, d.YearsOfExperience, d.DepartmentID, d.Phone, d.Email,
		d.ConsultationFee, d.Avatar, d.Schedule, d.CurrentStatus, d.IsAvailable, d.Salary, d.BankDetails,
		d.HireDate, d.IsActive)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.scanRow(r.pool.QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+`WHERE d.id = $1`, id))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctors SET first_name=$2, last_name=$3, specialization=$4, sub_specialty=$5,
			qualifications=$6, years_of_experience=$7, department_id=$8, phone=$9, email=$10,
			consultation_fee=$11, avatar=$12, schedule=$13, current_status=$14, is_available=$15,
			salary=$16, bank_details=$17, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.FirstName, d.LastName, d.Specialization, d.SubSpecialty,
		d.Qualifications, d.YearsOfExperience, d.DepartmentID, d.Phone, d.Email,
		d.ConsultationFee, d.Avatar, d.Schedule, d.CurrentStatus, d.IsAvailable,
		d.Salary, d.BankDetails)
	return err
}

func (r *doctorRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE doctors SET is_active = false, is_available = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, filter ListDoctorsFilter, limit, offset int) ([]*Doctor, int, error) {
	where := []string{"d.is_active = true"}
	args := []any{}

	if filter.Specialization != "" {
		args = append(args, filter.Specialization)
		where = append(where, fmt.Sprintf("d.specialization = $%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		where = append(where, fmt.Sprintf("d.department_id = $%d", len(args)))
	}
	if filter.AvailableOnly {
		where = append(where, "d.is_available = true")
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(d.first_name ILIKE $%d OR d.last_name ILIKE $%d)", n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors d WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s%sWHERE %s ORDER BY d.last_name, d.first_name LIMIT $%d OFFSET $%d`,
		doctorCols, doctorFrom, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *doctorRepoPG) Stats(ctx context.Context, since time.Time) (*StaffStats, error) {
	var s StaffStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM doctors),
			(SELECT COUNT(*) FROM doctors WHERE is_active),
			(SELECT COUNT(*) FROM departments WHERE is_active),
			(SELECT COUNT(*) FROM doctors WHERE hire_date >= $1)`,
		since).Scan(&s.TotalStaff, &s.ActiveStaff, &s.DepartmentCount, &s.NewHiresThisMonth)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT d.department_id, COALESCE(dept.name, 'Unknown'), COUNT(*)
		FROM doctors d
		LEFT JOIN departments dept ON dept.id = d.department_id
		WHERE d.is_active AND d.department_id IS NOT NULL
		GROUP BY d.department_id, dept.name
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var dc DepartmentCount
		if err := rows.Scan(&dc.DepartmentID, &dc.DepartmentName, &dc.Count); err != nil {
			return nil, err
		}
		s.StaffByDepartment = append(s.StaffByDepartment, dc)
	}
	return &s, rows.Err()
}

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

const departmentCols = `id, name, description, is_active, created_at`

func (r *departmentRepoPG) scanRow(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt)
	return &d, err
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO departments (id, name, description, is_active) VALUES ($1,$2,$3,$4)`,
		d.ID, d.Name, d.Description, d.IsActive)
	return err
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return r.scanRow(r.pool.QueryRow(ctx, `SELECT `+departmentCols+` FROM departments WHERE id = $1`, id))
}

func (r *departmentRepoPG) GetByName(ctx context.Context, name string) (*Department, error) {
	return r.scanRow(r.pool.QueryRow(ctx,
		`SELECT `+departmentCols+` FROM departments WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE departments SET name=$2, description=$3, is_active=$4 WHERE id=$1`,
		d.ID, d.Name, d.Description, d.IsActive)
	return err
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+departmentCols+` FROM departments WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Department
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
