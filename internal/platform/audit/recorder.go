// Package audit persists access audit entries to PostgreSQL. The recorder
// plugs into the middleware audit hook; writes are best-effort and never
// fail the request they describe.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/middleware"
)

// Recorder writes audit entries to the audit_log table.
type Recorder struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewRecorder creates a Recorder backed by the given connection pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool, timeout: 5 * time.Second}
}

// RecordAccess inserts one audit entry. The write uses its own short-lived
// context so a request that has already timed out still gets audited.
func (r *Recorder) RecordAccess(entry middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	const query = `
		INSERT INTO audit_log (
			user_id, user_role, resource_type, patient_id, action,
			ip_address, user_agent, path, method, request_id, status_code, recorded_at
		) VALUES (
			NULLIF($1, ''), NULLIF($2, ''), $3, NULLIF($4, ''), $5,
			NULLIF($6, ''), NULLIF($7, ''), $8, $9, NULLIF($10, ''), $11, $12
		)`

	_, err := r.pool.Exec(ctx, query,
		entry.UserID, entry.UserRole, entry.ResourceType, entry.PatientID, entry.Action,
		entry.IPAddress, entry.UserAgent, entry.Path, entry.Method, entry.RequestID,
		entry.StatusCode, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Query returns recent audit entries for a patient, newest first. Served to
// SUPER_ADMIN via the admin audit route.
func (r *Recorder) Query(ctx context.Context, patientID string, limit int) ([]middleware.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const query = `
		SELECT COALESCE(user_id::text, ''), COALESCE(user_role, ''), resource_type,
		       COALESCE(patient_id::text, ''), action, COALESCE(ip_address, ''),
		       COALESCE(user_agent, ''), path, method, COALESCE(request_id, ''),
		       status_code, recorded_at
		FROM audit_log
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []middleware.AuditEntry
	for rows.Next() {
		var e middleware.AuditEntry
		if err := rows.Scan(
			&e.UserID, &e.UserRole, &e.ResourceType, &e.PatientID, &e.Action,
			&e.IPAddress, &e.UserAgent, &e.Path, &e.Method, &e.RequestID,
			&e.StatusCode, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
