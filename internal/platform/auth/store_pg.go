package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements SubjectStore, SessionStore, and SessionBookkeeper on
// PostgreSQL. Sessions live in user_sessions; subjects are read from the
// users/roles tables owned by the users module.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) FindSubjectByID(ctx context.Context, id string) (*Subject, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT u.id, u.email, r.name, u.is_active
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, id)

	sub := &Subject{}
	if err := row.Scan(&sub.ID, &sub.Email, &sub.Role, &sub.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *PGStore) CreateSession(ctx context.Context, sess *Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, issued_at, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		sess.ID, sess.SubjectID, sess.IssuedAt, sess.ExpiresAt, sess.IP, sess.UserAgent)
	return err
}

func (s *PGStore) FindSession(ctx context.Context, id string) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, issued_at, expires_at, revoked_at, last_used,
		       COALESCE(ip, ''), COALESCE(user_agent, '')
		FROM user_sessions WHERE id = $1`, id)

	sess := &Session{}
	if err := row.Scan(&sess.ID, &sess.SubjectID, &sess.IssuedAt, &sess.ExpiresAt,
		&sess.RevokedAt, &sess.LastUsed, &sess.IP, &sess.UserAgent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return sess, nil
}

func (s *PGStore) RevokeSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

func (s *PGStore) RevokeAllForSubject(ctx context.Context, subjectID, keepID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE user_sessions SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL AND id <> $2`, subjectID, keepID)
	return err
}

func (s *PGStore) MarkSessionUsed(ctx context.Context, sessionID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE user_sessions SET last_used = $2 WHERE id = $1`, sessionID, at)
	return err
}

var (
	_ SubjectStore      = (*PGStore)(nil)
	_ SessionStore      = (*PGStore)(nil)
	_ SessionBookkeeper = (*PGStore)(nil)
)
