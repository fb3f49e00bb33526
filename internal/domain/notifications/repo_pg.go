package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationCols = `id, user_id, title, message, type, priority, data,
	is_read, read_at, created_at`

type PGNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPGNotificationRepository(pool *pgxpool.Pool) *PGNotificationRepository {
	return &PGNotificationRepository{pool: pool}
}

func (r *PGNotificationRepository) scanRow(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&n.Data, &n.IsRead, &n.ReadAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *Notification) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, type, priority, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at`,
		n.UserID, n.Title, n.Message, n.Type, n.Priority, n.Data,
	)
	if err := row.Scan(&n.ID, &n.IsRead, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PGNotificationRepository) CreateMany(ctx context.Context, ns []*Notification) (int, error) {
	batch := &pgx.Batch{}
	for _, n := range ns {
		batch.Queue(`
			INSERT INTO notifications (user_id, title, message, type, priority, data)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			n.UserID, n.Title, n.Message, n.Type, n.Priority, n.Data,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range ns {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("batch insert notifications: %w", err)
		}
	}
	return len(ns), nil
}

func (r *PGNotificationRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE id = $1 AND user_id = $2`,
		id, userID)
	return r.scanRow(row)
}

func (r *PGNotificationRepository) List(ctx context.Context, userID uuid.UUID, filter ListFilter, limit, offset int) ([]*Notification, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}
	n := 1
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filter.UnreadOnly {
		where += ` AND NOT is_read`
	}
	if filter.Type != "" {
		where += ` AND type = ` + arg(filter.Type)
	}
	if filter.Priority != "" {
		where += ` AND priority = ` + arg(filter.Priority)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `SELECT ` + notificationCols + ` FROM notifications` + where +
		` ORDER BY created_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var list []*Notification
	for rows.Next() {
		item, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, item)
	}
	return list, total, rows.Err()
}

func (r *PGNotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count)
	return count, err
}

func (r *PGNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) (*Notification, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = true, read_at = $3
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationCols,
		id, userID, at)
	return r.scanRow(row)
}

func (r *PGNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true, read_at = $2
		WHERE user_id = $1 AND NOT is_read`,
		userID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PGNotificationRepository) Delete(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $1`
	args := []any{id}
	if userID != nil {
		query += ` AND user_id = $2`
		args = append(args, *userID)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PGNotificationRepository) UsersExist(ctx context.Context, ids []uuid.UUID) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(DISTINCT id) FROM users WHERE id = ANY($1)`, ids).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == len(uniqueIDs(ids)), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (r *PGNotificationRepository) AppointmentReminderCandidates(ctx context.Context, from, to time.Time) ([]AppointmentReminderCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.owner_user_id, a.id, a.appointment_date,
			COALESCE(d.first_name || ' ' || d.last_name, ''),
			COALESCE(dept.name, '')
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id AND p.owner_user_id IS NOT NULL
		LEFT JOIN doctors d ON d.id = a.doctor_id
		LEFT JOIN departments dept ON dept.id = d.department_id
		WHERE a.appointment_date >= $1 AND a.appointment_date < $2
			AND a.status IN ('SCHEDULED', 'CONFIRMED')`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query reminder candidates: %w", err)
	}
	defer rows.Close()

	var out []AppointmentReminderCandidate
	for rows.Next() {
		var c AppointmentReminderCandidate
		if err := rows.Scan(&c.UserID, &c.AppointmentID, &c.StartsAt, &c.DoctorName, &c.Department); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGNotificationRepository) DueBillCandidates(ctx context.Context, by time.Time) ([]DueBillCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.owner_user_id, b.id, b.bill_number,
			b.total_amount - b.paid_amount, b.due_date
		FROM bills b
		JOIN patients p ON p.id = b.patient_id AND p.owner_user_id IS NOT NULL
		WHERE b.due_date <= $1 AND b.status IN ('PENDING', 'SENT', 'PARTIAL')`,
		by)
	if err != nil {
		return nil, fmt.Errorf("query due bills: %w", err)
	}
	defer rows.Close()

	var out []DueBillCandidate
	for rows.Next() {
		var c DueBillCandidate
		if err := rows.Scan(&c.UserID, &c.BillID, &c.BillNumber, &c.Remaining, &c.DueDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGNotificationRepository) LabOrderSummary(ctx context.Context, orderID uuid.UUID) (*LabOrderSummary, error) {
	var s LabOrderSummary
	err := r.pool.QueryRow(ctx, `
		SELECT p.owner_user_id, o.id, o.order_number,
			(SELECT count(*) FROM lab_results r
				WHERE r.order_id = o.id AND r.status = 'CRITICAL'),
			(SELECT count(*) FROM lab_results r WHERE r.order_id = o.id)
		FROM lab_orders o
		LEFT JOIN patients p ON p.id = o.patient_id
		WHERE o.id = $1`,
		orderID).Scan(&s.UserID, &s.OrderID, &s.OrderNumber, &s.CriticalCount, &s.TotalResults)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGNotificationRepository) Stats(ctx context.Context) (*NotificationStats, error) {
	var s NotificationStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE created_at >= date_trunc('day', now())),
			count(*) FILTER (WHERE created_at >= now() - interval '7 days'),
			count(*) FILTER (WHERE NOT is_read)
		FROM notifications`,
	).Scan(&s.Total, &s.Today, &s.Week, &s.Unread)
	if err != nil {
		return nil, fmt.Errorf("query notification stats: %w", err)
	}

	s.ByType = make(map[string]int)
	s.ByPriority = make(map[string]int)
	rows, err := r.pool.Query(ctx,
		`SELECT type, priority, count(*) FROM notifications GROUP BY type, priority`)
	if err != nil {
		return nil, fmt.Errorf("query notification breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ, priority string
		var count int
		if err := rows.Scan(&typ, &priority, &count); err != nil {
			return nil, err
		}
		s.ByType[typ] += count
		s.ByPriority[priority] += count
	}
	return &s, rows.Err()
}
