package auth

import (
	"context"
	"time"
)

// Subject is the persistent-store view of a user account as the resolver
// needs it: identity, current role, and active flag. The role is re-read on
// every resolution so role changes and deactivations take effect without
// waiting for token expiry.
type Subject struct {
	ID       string
	Email    string
	Role     string
	IsActive bool
}

// Session is a server-tracked credential grant. Revocation is independent of
// token expiry and terminal: a revoked session is never reactivated, a new
// login creates a new session instance.
type Session struct {
	ID        string
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	LastUsed  *time.Time
	IP        string
	UserAgent string
}

// Active reports whether the session can still back a credential at the
// given instant.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SubjectStore is the persistence collaborator for user lookups.
type SubjectStore interface {
	FindSubjectByID(ctx context.Context, id string) (*Subject, error)
}

// SessionStore is the persistence collaborator for session lifecycle. All
// lookups return ErrSessionInvalid-compatible "not found" via a nil session
// and error from the underlying store.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	FindSession(ctx context.Context, id string) (*Session, error)
	RevokeSession(ctx context.Context, id string) error
	// RevokeAllForSubject revokes every active session of a subject except
	// the one named by keepID (pass "" to revoke all). Used on password
	// change.
	RevokeAllForSubject(ctx context.Context, subjectID, keepID string) error
}

// SessionBookkeeper records best-effort, non-authoritative side effects of a
// successful resolution. It is invoked after the authorization decision so
// the decision logic itself stays pure; failures are logged, never surfaced.
type SessionBookkeeper interface {
	MarkSessionUsed(ctx context.Context, sessionID string, at time.Time) error
}
