package laboratory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderCols = `o.id, o.order_number, o.patient_id,
	COALESCE(p.first_name || ' ' || p.last_name, '') AS patient_name,
	o.doctor_id, o.test_types, o.urgency, o.status, o.instructions,
	o.clinical_info, p.owner_user_id, o.order_date, o.created_at, o.updated_at`

const orderFrom = ` FROM lab_orders o LEFT JOIN patients p ON p.id = o.patient_id`

const resultCols = `r.id, r.order_id, o.order_number,
	COALESCE(p.first_name || ' ' || p.last_name, '') AS patient_name,
	r.test_name, r.value, r.unit, r.reference_range, r.status, r.interpretation,
	r.notes, r.detailed_analysis, r.differential_diagnosis, r.clinical_significance,
	r.treatment_recommendations, r.performed_by, r.verified_by, p.owner_user_id,
	r.completed_at, r.created_at`

const resultFrom = ` FROM lab_results r
	JOIN lab_orders o ON o.id = r.order_id
	LEFT JOIN patients p ON p.id = o.patient_id`

// PGLabRepository backs all three laboratory repository interfaces with one
// pool.
type PGLabRepository struct {
	pool *pgxpool.Pool
}

func NewPGLabRepository(pool *pgxpool.Pool) *PGLabRepository {
	return &PGLabRepository{pool: pool}
}

func (r *PGLabRepository) scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.PatientID, &o.PatientName, &o.DoctorID,
		&o.TestTypes, &o.Urgency, &o.Status, &o.Instructions, &o.ClinicalInfo,
		&o.OwnerUserID, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGLabRepository) scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(
		&res.ID, &res.OrderID, &res.OrderNumber, &res.PatientName,
		&res.TestName, &res.Value, &res.Unit, &res.RefRange, &res.Status,
		&res.Interpretation, &res.Notes, &res.DetailedAnalysis,
		&res.DifferentialDiagnosis, &res.ClinicalSignificance,
		&res.TreatmentRecommendations, &res.PerformedBy, &res.VerifiedBy,
		&res.OwnerUserID, &res.CompletedAt, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *PGLabRepository) Create(ctx context.Context, o *Order) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lab_orders (order_number, patient_id, doctor_id, test_types,
			urgency, status, instructions, clinical_info, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id`,
		o.OrderNumber, o.PatientID, o.DoctorID, o.TestTypes,
		o.Urgency, o.Status, o.Instructions, o.ClinicalInfo,
	)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert lab order: %w", err)
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*o = *created
	return nil
}

func (r *PGLabRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderCols+orderFrom+` WHERE o.id = $1`, id)
	o, err := r.scanOrder(row)
	if err != nil {
		return nil, err
	}
	results, err := r.ListByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Results = results
	return o, nil
}

func (r *PGLabRepository) Update(ctx context.Context, o *Order) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_orders
		SET test_types = $2, urgency = $3, instructions = $4, clinical_info = $5,
			updated_at = now()
		WHERE id = $1`,
		o.ID, o.TestTypes, o.Urgency, o.Instructions, o.ClinicalInfo,
	)
	if err != nil {
		return fmt.Errorf("update lab order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGLabRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lab_orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update lab order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGLabRepository) AppendInstructions(ctx context.Context, id uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_orders
		SET instructions = trim(coalesce(instructions, '') || E'\n' || $2),
			updated_at = now()
		WHERE id = $1`, id, note)
	if err != nil {
		return fmt.Errorf("append lab order instructions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGLabRepository) List(ctx context.Context, filter ListOrdersFilter, limit, offset int) ([]*Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.PatientID != nil {
		where += ` AND o.patient_id = ` + arg(*filter.PatientID)
	}
	if filter.DoctorID != nil {
		where += ` AND o.doctor_id = ` + arg(*filter.DoctorID)
	}
	if filter.Status != "" {
		where += ` AND o.status = ` + arg(filter.Status)
	}
	if filter.Urgency != "" {
		where += ` AND o.urgency = ` + arg(filter.Urgency)
	}
	if filter.From != nil {
		where += ` AND o.order_date >= ` + arg(*filter.From)
	}
	if filter.To != nil {
		where += ` AND o.order_date <= ` + arg(*filter.To)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where += ` AND (o.order_number ILIKE ` + p +
			` OR p.first_name ILIKE ` + p +
			` OR p.last_name ILIKE ` + p +
			` OR p.patient_number ILIKE ` + p +
			` OR ` + arg(filter.Search) + ` = ANY(o.test_types))`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+orderFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lab orders: %w", err)
	}

	query := `SELECT ` + orderCols + orderFrom + where +
		` ORDER BY o.order_date DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query lab orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *PGLabRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM lab_orders`).Scan(&count)
	return count, err
}

func (r *PGLabRepository) CreateResult(ctx context.Context, res *Result) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lab_results (order_id, test_name, value, unit, reference_range,
			status, interpretation, notes, detailed_analysis, differential_diagnosis,
			clinical_significance, treatment_recommendations, performed_by, verified_by,
			completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		RETURNING id`,
		res.OrderID, res.TestName, res.Value, res.Unit, res.RefRange,
		res.Status, res.Interpretation, res.Notes, res.DetailedAnalysis,
		res.DifferentialDiagnosis, res.ClinicalSignificance,
		res.TreatmentRecommendations, res.PerformedBy, res.VerifiedBy,
	)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert lab result: %w", err)
	}
	created, err := r.GetResultByID(ctx, id)
	if err != nil {
		return err
	}
	*res = *created
	return nil
}

func (r *PGLabRepository) GetResultByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+resultCols+resultFrom+` WHERE r.id = $1`, id)
	return r.scanResult(row)
}

func (r *PGLabRepository) UpdateResult(ctx context.Context, res *Result) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_results
		SET value = $2, unit = $3, reference_range = $4, status = $5,
			interpretation = $6, notes = $7, detailed_analysis = $8,
			differential_diagnosis = $9, clinical_significance = $10,
			treatment_recommendations = $11, performed_by = $12, verified_by = $13,
			completed_at = now()
		WHERE id = $1`,
		res.ID, res.Value, res.Unit, res.RefRange, res.Status,
		res.Interpretation, res.Notes, res.DetailedAnalysis,
		res.DifferentialDiagnosis, res.ClinicalSignificance,
		res.TreatmentRecommendations, res.PerformedBy, res.VerifiedBy,
	)
	if err != nil {
		return fmt.Errorf("update lab result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGLabRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultCols+resultFrom+` WHERE r.order_id = $1 ORDER BY r.created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order results: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *PGLabRepository) ListResults(ctx context.Context, filter ListResultsFilter, limit, offset int) ([]*Result, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.PatientID != nil {
		where += ` AND o.patient_id = ` + arg(*filter.PatientID)
	}
	if filter.TestName != "" {
		where += ` AND r.test_name ILIKE ` + arg("%"+filter.TestName+"%")
	}
	if filter.Status != "" {
		where += ` AND r.status = ` + arg(filter.Status)
	}
	if filter.From != nil {
		where += ` AND r.completed_at >= ` + arg(*filter.From)
	}
	if filter.To != nil {
		where += ` AND r.completed_at <= ` + arg(*filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+resultFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lab results: %w", err)
	}

	query := `SELECT ` + resultCols + resultFrom + where +
		` ORDER BY r.completed_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query lab results: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		res, err := r.scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

func (r *PGLabRepository) Stats(ctx context.Context) (*LabStats, error) {
	var s LabStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM lab_orders WHERE order_date >= date_trunc('day', now())),
			(SELECT count(*) FROM lab_orders WHERE order_date >= now() - interval '7 days'),
			(SELECT count(*) FROM lab_orders WHERE status IN ('PENDING', 'IN_PROGRESS')),
			(SELECT count(*) FROM lab_orders
				WHERE urgency IN ('URGENT', 'STAT') AND status IN ('PENDING', 'IN_PROGRESS')),
			(SELECT count(*) FROM lab_results WHERE completed_at >= date_trunc('day', now())),
			(SELECT count(*) FROM lab_results
				WHERE status = 'CRITICAL' AND completed_at >= now() - interval '7 days')`,
	).Scan(&s.TodayOrders, &s.WeekOrders, &s.PendingOrders, &s.UrgentOrders,
		&s.CompletedResults, &s.CriticalResults)
	if err != nil {
		return nil, fmt.Errorf("query lab stats: %w", err)
	}
	return &s, nil
}
