package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGReportRepository struct {
	pool *pgxpool.Pool
}

func NewPGReportRepository(pool *pgxpool.Pool) *PGReportRepository {
	return &PGReportRepository{pool: pool}
}

// rangeClause renders an optional period filter on the given column,
// appending bind values to args.
func rangeClause(column string, rng Range, args *[]any) string {
	clause := ""
	if rng.From != nil {
		*args = append(*args, *rng.From)
		clause += fmt.Sprintf(" AND %s >= $%d", column, len(*args))
	}
	if rng.To != nil {
		*args = append(*args, *rng.To)
		clause += fmt.Sprintf(" AND %s <= $%d", column, len(*args))
	}
	return clause
}

func (r *PGReportRepository) Dashboard(ctx context.Context) (*DashboardReport, error) {
	var d DashboardReport
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM patients WHERE status = 'ACTIVE'),
			(SELECT count(*) FROM patients WHERE created_at >= date_trunc('day', now())),
			(SELECT count(*) FROM patients WHERE created_at >= now() - interval '7 days'),
			(SELECT count(*) FROM appointments),
			(SELECT count(*) FROM appointments
				WHERE appointment_date >= date_trunc('day', now())
				AND appointment_date < date_trunc('day', now()) + interval '1 day'),
			(SELECT count(*) FROM appointments
				WHERE status IN ('SCHEDULED', 'CONFIRMED') AND appointment_date >= now()),
			(SELECT count(*) FROM doctors WHERE is_active),
			(SELECT count(*) FROM doctors WHERE is_active AND is_available),
			(SELECT count(*) FROM beds WHERE is_active),
			(SELECT count(*) FROM beds WHERE is_active AND status = 'OCCUPIED'),
			(SELECT count(*) FROM beds WHERE is_active AND status = 'AVAILABLE'),
			(SELECT COALESCE(sum(amount), 0) FROM payments
				WHERE created_at >= date_trunc('day', now())),
			(SELECT COALESCE(sum(amount), 0) FROM payments
				WHERE created_at >= date_trunc('month', now())),
			(SELECT count(*) FROM bills WHERE status IN ('PENDING', 'SENT')),
			(SELECT count(*) FROM lab_orders WHERE status IN ('PENDING', 'IN_PROGRESS')),
			(SELECT count(*) FROM lab_results WHERE completed_at >= date_trunc('day', now()))`,
	).Scan(
		&d.Patients.Total, &d.Patients.NewToday, &d.Patients.NewThisWeek,
		&d.Appointments.Total, &d.Appointments.Today, &d.Appointments.Pending,
		&d.Doctors.Total, &d.Doctors.Available,
		&d.Facility.TotalBeds, &d.Facility.OccupiedBeds, &d.Facility.AvailableBeds,
		&d.Finance.TodayRevenue, &d.Finance.MonthRevenue, &d.Finance.PendingBills,
		&d.Laboratory.PendingOrders, &d.Laboratory.TodayResults,
	)
	if err != nil {
		return nil, fmt.Errorf("query dashboard: %w", err)
	}
	return &d, nil
}

func (r *PGReportRepository) Patients(ctx context.Context, rng Range) (*PatientReport, error) {
	args := []any{}
	where := ` WHERE 1=1` + rangeClause("created_at", rng, &args)

	report := &PatientReport{
		ByGender:    make(map[string]int),
		ByBloodType: make(map[string]int),
	}
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
			COALESCE(round(avg(date_part('year', age(date_of_birth)))), 0)
		FROM patients`+where, args...,
	).Scan(&report.Total, &report.AverageAge)
	if err != nil {
		return nil, fmt.Errorf("query patient totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT gender, COALESCE(blood_type, ''), count(*)
		FROM patients`+where+` GROUP BY gender, blood_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("query patient breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gender, bloodType string
		var count int
		if err := rows.Scan(&gender, &bloodType, &count); err != nil {
			return nil, err
		}
		report.ByGender[gender] += count
		if bloodType != "" {
			report.ByBloodType[bloodType] += count
		}
	}
	return report, rows.Err()
}

func (r *PGReportRepository) Appointments(ctx context.Context, rng Range, doctorID, patientID *uuid.UUID) (*AppointmentReport, error) {
	args := []any{}
	where := ` WHERE 1=1` + rangeClause("appointment_date", rng, &args)
	if doctorID != nil {
		args = append(args, *doctorID)
		where += fmt.Sprintf(" AND doctor_id = $%d", len(args))
	}
	if patientID != nil {
		args = append(args, *patientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}

	report := &AppointmentReport{
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
	}
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), COALESCE(round(avg(duration_minutes)), 0)
		FROM appointments`+where, args...,
	).Scan(&report.Total, &report.AverageDuration)
	if err != nil {
		return nil, fmt.Errorf("query appointment totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, type, count(*)
		FROM appointments`+where+` GROUP BY status, type`, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointment breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status, typ string
		var count int
		if err := rows.Scan(&status, &typ, &count); err != nil {
			return nil, err
		}
		report.ByStatus[status] += count
		report.ByType[typ] += count
	}
	return report, rows.Err()
}

func (r *PGReportRepository) Revenue(ctx context.Context, rng Range) (*RevenueReport, error) {
	report := &RevenueReport{
		ByPaymentMethod: make(map[string]float64),
		ByItemType:      make(map[string]float64),
	}

	payArgs := []any{}
	payWhere := ` WHERE 1=1` + rangeClause("created_at", rng, &payArgs)
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(amount), 0) FROM payments`+payWhere, payArgs...,
	).Scan(&report.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("query revenue: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT payment_method, sum(amount)
		FROM payments`+payWhere+` GROUP BY payment_method`, payArgs...)
	if err != nil {
		return nil, fmt.Errorf("query payment methods: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var method string
		var amount float64
		if err := rows.Scan(&method, &amount); err != nil {
			return nil, err
		}
		report.ByPaymentMethod[method] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	billArgs := []any{}
	billWhere := ` WHERE status <> 'CANCELLED'` + rangeClause("created_at", rng, &billArgs)
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(sum(total_amount), 0), COALESCE(sum(paid_amount), 0)
		FROM bills`+billWhere, billArgs...,
	).Scan(&report.TotalBilled, &report.TotalPaid)
	if err != nil {
		return nil, fmt.Errorf("query billed totals: %w", err)
	}

	itemArgs := []any{}
	itemWhere := ` WHERE b.status <> 'CANCELLED'` + rangeClause("b.created_at", rng, &itemArgs)
	itemRows, err := r.pool.Query(ctx, `
		SELECT i.item_type, sum(i.amount)
		FROM bill_items i
		JOIN bills b ON b.id = i.bill_id`+itemWhere+`
		GROUP BY i.item_type`, itemArgs...)
	if err != nil {
		return nil, fmt.Errorf("query revenue by item type: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var itemType string
		var amount float64
		if err := itemRows.Scan(&itemType, &amount); err != nil {
			return nil, err
		}
		report.ByItemType[itemType] = amount
	}
	return report, itemRows.Err()
}

func (r *PGReportRepository) Laboratory(ctx context.Context, rng Range, patientID *uuid.UUID) (*LaboratoryReport, error) {
	args := []any{}
	where := ` WHERE 1=1` + rangeClause("order_date", rng, &args)
	if patientID != nil {
		args = append(args, *patientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}

	report := &LaboratoryReport{
		ByStatus:  make(map[string]int),
		ByUrgency: make(map[string]int),
		ByTest:    make(map[string]int),
	}
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
			(SELECT count(*) FROM lab_results res
				WHERE res.order_id IN (SELECT id FROM lab_orders`+where+`))
		FROM lab_orders`+where, args...,
	).Scan(&report.TotalOrders, &report.TotalResults)
	if err != nil {
		return nil, fmt.Errorf("query lab totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, urgency, count(*)
		FROM lab_orders`+where+` GROUP BY status, urgency`, args...)
	if err != nil {
		return nil, fmt.Errorf("query lab breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status, urgency string
		var count int
		if err := rows.Scan(&status, &urgency, &count); err != nil {
			return nil, err
		}
		report.ByStatus[status] += count
		report.ByUrgency[urgency] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	testRows, err := r.pool.Query(ctx, `
		SELECT t.test, count(*)
		FROM lab_orders, unnest(test_types) AS t(test)`+where+`
		GROUP BY t.test`, args...)
	if err != nil {
		return nil, fmt.Errorf("query test breakdown: %w", err)
	}
	defer testRows.Close()
	for testRows.Next() {
		var test string
		var count int
		if err := testRows.Scan(&test, &count); err != nil {
			return nil, err
		}
		report.ByTest[test] = count
	}
	return report, testRows.Err()
}

func (r *PGReportRepository) Occupancy(ctx context.Context, departmentID *uuid.UUID) (*OccupancyReport, error) {
	args := []any{}
	where := ` WHERE b.is_active`
	if departmentID != nil {
		args = append(args, *departmentID)
		where += fmt.Sprintf(" AND b.department_id = $%d", len(args))
	}

	report := &OccupancyReport{
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
	}
	rows, err := r.pool.Query(ctx, `
		SELECT b.status, b.bed_type, count(*)
		FROM beds b`+where+` GROUP BY b.status, b.bed_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("query bed breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status, bedType string
		var count int
		if err := rows.Scan(&status, &bedType, &count); err != nil {
			return nil, err
		}
		report.ByStatus[status] += count
		report.ByType[bedType] += count
		report.TotalBeds += count
		if status == "OCCUPIED" {
			report.OccupiedBeds += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	report.AvailableBeds = report.ByStatus["AVAILABLE"]

	deptRows, err := r.pool.Query(ctx, `
		SELECT COALESCE(d.name, ''),
			count(*),
			count(*) FILTER (WHERE b.status = 'OCCUPIED'),
			count(*) FILTER (WHERE b.status = 'AVAILABLE')
		FROM beds b
		LEFT JOIN departments d ON d.id = b.department_id`+where+`
		GROUP BY d.name
		ORDER BY d.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("query department occupancy: %w", err)
	}
	defer deptRows.Close()
	for deptRows.Next() {
		var dept DepartmentOccupancy
		if err := deptRows.Scan(&dept.Department, &dept.TotalBeds, &dept.OccupiedBeds, &dept.AvailableBeds); err != nil {
			return nil, err
		}
		report.Departments = append(report.Departments, dept)
	}
	return report, deptRows.Err()
}

func (r *PGReportRepository) Doctors(ctx context.Context, rng Range, departmentID *uuid.UUID) (*DoctorReport, error) {
	args := []any{}
	where := ` WHERE d.is_active` + rangeClause("a.appointment_date", rng, &args)
	if departmentID != nil {
		args = append(args, *departmentID)
		where += fmt.Sprintf(" AND d.department_id = $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.first_name || ' ' || d.last_name, d.specialization,
			COALESCE(dept.name, ''),
			count(a.id),
			count(a.id) FILTER (WHERE a.status = 'COMPLETED'),
			count(a.id) FILTER (WHERE a.status = 'CANCELLED')
		FROM doctors d
		LEFT JOIN departments dept ON dept.id = d.department_id
		LEFT JOIN appointments a ON a.doctor_id = d.id`+where+`
		GROUP BY d.id, d.first_name, d.last_name, d.specialization, dept.name
		ORDER BY count(a.id) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query doctor performance: %w", err)
	}
	defer rows.Close()

	report := &DoctorReport{}
	for rows.Next() {
		var p DoctorPerformance
		if err := rows.Scan(&p.DoctorID, &p.Name, &p.Specialization, &p.Department,
			&p.Appointments, &p.Completed, &p.Cancelled); err != nil {
			return nil, err
		}
		report.Doctors = append(report.Doctors, p)
		report.TotalAppointments += p.Appointments
	}
	report.TotalDoctors = len(report.Doctors)
	return report, rows.Err()
}
