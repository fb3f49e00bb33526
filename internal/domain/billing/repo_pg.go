package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/db"
)

const billCols = `b.id, b.bill_number, b.patient_id,
	COALESCE(p.first_name || ' ' || p.last_name, '') AS patient_name,
	b.subtotal, b.tax, b.discount, b.total_amount, b.paid_amount, b.status,
	b.due_date, b.insurance_claim, b.notes, p.owner_user_id, b.created_at, b.updated_at`

const billFrom = ` FROM bills b LEFT JOIN patients p ON p.id = b.patient_id`

const paymentCols = `id, bill_id, amount, payment_method, reference_number, notes, created_at`

type pgBillRepository struct {
	pool *pgxpool.Pool
}

func NewPGBillRepository(pool *pgxpool.Pool) BillRepository {
	return &pgBillRepository{pool: pool}
}

func (r *pgBillRepository) scanRow(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.BillNumber, &b.PatientID, &b.PatientName,
		&b.Subtotal, &b.Tax, &b.Discount, &b.TotalAmount, &b.PaidAmount, &b.Status,
		&b.DueDate, &b.InsuranceClaim, &b.Notes, &b.OwnerUserID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgBillRepository) Create(ctx context.Context, b *Bill) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO bills (bill_number, patient_id, subtotal, tax, discount,
				total_amount, paid_amount, status, due_date, insurance_claim, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at, updated_at`,
			b.BillNumber, b.PatientID, b.Subtotal, b.Tax, b.Discount,
			b.TotalAmount, b.PaidAmount, b.Status, b.DueDate, b.InsuranceClaim, b.Notes,
		)
		if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		for i := range b.Items {
			item := &b.Items[i]
			item.BillID = b.ID
			row := tx.QueryRow(ctx, `
				INSERT INTO bill_items (bill_id, description, item_type, reference_id, quantity, unit_price, amount)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`,
				item.BillID, item.Description, item.ItemType, item.ReferenceID,
				item.Quantity, item.UnitPrice, item.Amount,
			)
			if err := row.Scan(&item.ID); err != nil {
				return fmt.Errorf("insert bill item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	// Pick up the joined patient columns.
	created, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

func (r *pgBillRepository) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+billCols+billFrom+` WHERE b.id = $1`, id)
	b, err := r.scanRow(row)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, description, item_type, reference_id, quantity, unit_price, amount
		FROM bill_items WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query bill items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.Description, &item.ItemType,
			&item.ReferenceID, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
	}
	return b, rows.Err()
}

func (r *pgBillRepository) Update(ctx context.Context, b *Bill) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bills
		SET tax = $2, discount = $3, total_amount = $4, due_date = $5,
			insurance_claim = $6, notes = $7, updated_at = now()
		WHERE id = $1`,
		b.ID, b.Tax, b.Discount, b.TotalAmount, b.DueDate, b.InsuranceClaim, b.Notes,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgBillRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bills SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgBillRepository) List(ctx context.Context, filter ListBillsFilter, limit, offset int) ([]*Bill, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if filter.PatientID != nil {
		n++
		where += fmt.Sprintf(" AND b.patient_id = $%d", n)
		args = append(args, *filter.PatientID)
	}
	if filter.Status != "" {
		n++
		where += fmt.Sprintf(" AND b.status = $%d", n)
		args = append(args, filter.Status)
	}
	if filter.UnpaidOnly {
		where += ` AND b.status IN ('PENDING', 'SENT', 'PARTIAL', 'OVERDUE')`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+billFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	query := `SELECT ` + billCols + billFrom + where +
		fmt.Sprintf(" ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

func (r *pgBillRepository) ListForOwner(ctx context.Context, ownerUserID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*)`+billFrom+` WHERE p.owner_user_id = $1`, ownerUserID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count owner bills: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+billCols+billFrom+`
		WHERE p.owner_user_id = $1 ORDER BY b.created_at DESC LIMIT $2 OFFSET $3`,
		ownerUserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query owner bills: %w", err)
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

func (r *pgBillRepository) CountThisYear(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM bills WHERE date_trunc('year', created_at) = date_trunc('year', now())`,
	).Scan(&count)
	return count, err
}

func (r *pgBillRepository) RecordPayment(ctx context.Context, p *Payment, newPaidAmount float64, newStatus string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO payments (bill_id, amount, payment_method, reference_number, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			p.BillID, p.Amount, p.PaymentMethod, p.ReferenceNumber, p.Notes,
		)
		if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE bills SET paid_amount = $2, status = $3, updated_at = now() WHERE id = $1`,
			p.BillID, newPaidAmount, newStatus)
		if err != nil {
			return fmt.Errorf("apply payment to bill: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *pgBillRepository) ListPayments(ctx context.Context, billID uuid.UUID) ([]*Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE bill_id = $1 ORDER BY created_at DESC`, billID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.PaymentMethod,
			&p.ReferenceNumber, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *pgBillRepository) Stats(ctx context.Context) (*BillingStats, error) {
	stats := &BillingStats{BillsByStatus: map[string]int{}}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(sum(total_amount), 0), COALESCE(sum(paid_amount), 0)
		FROM bills WHERE status <> 'CANCELLED'`,
	).Scan(&stats.TotalBilled, &stats.TotalCollected)
	if err != nil {
		return nil, fmt.Errorf("query billing totals: %w", err)
	}
	stats.Outstanding = stats.TotalBilled - stats.TotalCollected

	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM bills GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query bill status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.BillsByStatus[status] = count
	}
	return stats, rows.Err()
}
