package auth

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

const bearerPrefix = "Bearer "

// ExtractBearer pulls the raw credential out of an Authorization header
// value. Absence and malformed scheme are distinguished so they can be
// rejected before any cryptographic work.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrCredentialMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrCredentialMalformed
	}
	return strings.TrimSpace(parts[1]), nil
}

// Resolver converts an opaque bearer credential into a trusted Identity. It
// holds no per-request state; every resolution is a pure function of the
// credential plus read-only store lookups, with session bookkeeping isolated
// behind SessionBookkeeper.
type Resolver struct {
	tokens     *TokenManager
	subjects   SubjectStore
	sessions   SessionStore
	bookkeeper SessionBookkeeper
	logger     zerolog.Logger
	now        func() time.Time
}

func NewResolver(tokens *TokenManager, subjects SubjectStore, sessions SessionStore, bookkeeper SessionBookkeeper, logger zerolog.Logger) *Resolver {
	return &Resolver{
		tokens:     tokens,
		subjects:   subjects,
		sessions:   sessions,
		bookkeeper: bookkeeper,
		logger:     logger,
		now:        time.Now,
	}
}

// Resolve validates a raw access credential and produces the request's
// Identity. Failure order: malformed credential, signature/expiry, session
// state, subject state, role validity. A valid token whose session is
// revoked or whose subject was deactivated is rejected.
func (r *Resolver) Resolve(ctx context.Context, credential string) (policy.Identity, error) {
	claims, err := r.tokens.VerifyAccess(credential)
	if err != nil {
		return policy.Identity{}, err
	}

	sess, err := r.sessions.FindSession(ctx, claims.ID)
	if err != nil || sess == nil {
		return policy.Identity{}, ErrSessionInvalid
	}
	now := r.now().UTC()
	if sess.SubjectID != claims.Subject || !sess.Active(now) {
		return policy.Identity{}, ErrSessionInvalid
	}

	subject, err := r.subjects.FindSubjectByID(ctx, claims.Subject)
	if err != nil || subject == nil {
		return policy.Identity{}, ErrSubjectNotFound
	}
	if !subject.IsActive {
		return policy.Identity{}, ErrSubjectInactive
	}

	// Role comes from the store, not the token; an out-of-set value is a
	// configuration defect and fails closed.
	role, err := policy.ParseRole(subject.Role)
	if err != nil {
		return policy.Identity{}, err
	}

	if r.bookkeeper != nil {
		if err := r.bookkeeper.MarkSessionUsed(ctx, sess.ID, now); err != nil {
			r.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("session bookkeeping failed")
		}
	}

	return policy.Identity{SubjectID: subject.ID, Role: role, SessionID: sess.ID}, nil
}

// Refresh re-validates a refresh credential and issues a fresh token pair.
// The subject's role is re-read from the store, so role changes take effect
// on the next refresh. The backing session is rotated: the old session is
// revoked and the new pair is bound to a new session instance.
func (r *Resolver) Refresh(ctx context.Context, refreshCredential string) (TokenPair, policy.Identity, error) {
	claims, err := r.tokens.VerifyRefresh(refreshCredential)
	if err != nil {
		return TokenPair{}, policy.Identity{}, err
	}

	sess, err := r.sessions.FindSession(ctx, claims.ID)
	if err != nil || sess == nil {
		return TokenPair{}, policy.Identity{}, ErrSessionInvalid
	}
	now := r.now().UTC()
	if sess.SubjectID != claims.Subject || !sess.Active(now) {
		return TokenPair{}, policy.Identity{}, ErrSessionInvalid
	}

	subject, err := r.subjects.FindSubjectByID(ctx, claims.Subject)
	if err != nil || subject == nil {
		return TokenPair{}, policy.Identity{}, ErrSubjectNotFound
	}
	if !subject.IsActive {
		return TokenPair{}, policy.Identity{}, ErrSubjectInactive
	}
	role, err := policy.ParseRole(subject.Role)
	if err != nil {
		return TokenPair{}, policy.Identity{}, err
	}

	newSess := &Session{
		ID:        NewSessionID(),
		SubjectID: subject.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.tokens.RefreshTTL()),
		IP:        sess.IP,
		UserAgent: sess.UserAgent,
	}
	if err := r.sessions.CreateSession(ctx, newSess); err != nil {
		return TokenPair{}, policy.Identity{}, err
	}
	if err := r.sessions.RevokeSession(ctx, sess.ID); err != nil {
		r.logger.Warn().Err(err).Str("session_id", sess.ID).Msg("revoke rotated session failed")
	}

	pair, err := r.tokens.IssuePair(subject.ID, role, newSess.ID)
	if err != nil {
		return TokenPair{}, policy.Identity{}, err
	}
	return pair, policy.Identity{SubjectID: subject.ID, Role: role, SessionID: newSess.ID}, nil
}

// Login issues a token pair and backing session for an already-verified
// subject. Password verification belongs to the users service; this binds
// the credential family to a new session instance.
func (r *Resolver) Login(ctx context.Context, subject *Subject, ip, userAgent string) (TokenPair, policy.Identity, error) {
	if !subject.IsActive {
		return TokenPair{}, policy.Identity{}, ErrSubjectInactive
	}
	role, err := policy.ParseRole(subject.Role)
	if err != nil {
		return TokenPair{}, policy.Identity{}, err
	}

	now := r.now().UTC()
	sess := &Session{
		ID:        NewSessionID(),
		SubjectID: subject.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(r.tokens.RefreshTTL()),
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := r.sessions.CreateSession(ctx, sess); err != nil {
		return TokenPair{}, policy.Identity{}, err
	}

	pair, err := r.tokens.IssuePair(subject.ID, role, sess.ID)
	if err != nil {
		return TokenPair{}, policy.Identity{}, err
	}
	return pair, policy.Identity{SubjectID: subject.ID, Role: role, SessionID: sess.ID}, nil
}

// Logout revokes the identity's session. Terminal: the session can never be
// reactivated.
func (r *Resolver) Logout(ctx context.Context, id policy.Identity) error {
	return r.sessions.RevokeSession(ctx, id.SessionID)
}

// RevokeOtherSessions revokes every session of the subject except the
// current one. Called on password change.
func (r *Resolver) RevokeOtherSessions(ctx context.Context, id policy.Identity) error {
	return r.sessions.RevokeAllForSubject(ctx, id.SubjectID, id.SessionID)
}
