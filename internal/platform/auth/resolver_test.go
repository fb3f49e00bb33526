package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// -- Mock stores --

type mockStore struct {
	subjects  map[string]*Subject
	sessions  map[string]*Session
	usedMarks []string
}

func newMockStore() *mockStore {
	return &mockStore{
		subjects: make(map[string]*Subject),
		sessions: make(map[string]*Session),
	}
}

func (m *mockStore) FindSubjectByID(_ context.Context, id string) (*Subject, error) {
	sub, ok := m.subjects[id]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	return sub, nil
}

func (m *mockStore) CreateSession(_ context.Context, s *Session) error {
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *mockStore) FindSession(_ context.Context, id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionInvalid
	}
	return s, nil
}

func (m *mockStore) RevokeSession(_ context.Context, id string) error {
	if s, ok := m.sessions[id]; ok && s.RevokedAt == nil {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

func (m *mockStore) RevokeAllForSubject(_ context.Context, subjectID, keepID string) error {
	now := time.Now().UTC()
	for _, s := range m.sessions {
		if s.SubjectID == subjectID && s.ID != keepID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockStore) MarkSessionUsed(_ context.Context, sessionID string, _ time.Time) error {
	m.usedMarks = append(m.usedMarks, sessionID)
	return nil
}

func testResolver(store *mockStore) *Resolver {
	return NewResolver(testTokenManager(), store, store, store, zerolog.Nop())
}

func login(t *testing.T, r *Resolver, store *mockStore, subjectID string) TokenPair {
	t.Helper()
	pair, _, err := r.Login(context.Background(), store.subjects[subjectID], "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return pair
}

func TestResolve_Success(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Email: "doc@hospital.example", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	id, err := r.Resolve(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.SubjectID != "u1" || id.Role != policy.RoleDoctor {
		t.Errorf("identity = %+v", id)
	}
	if len(store.usedMarks) != 1 || store.usedMarks[0] != pair.SessionID {
		t.Errorf("session bookkeeping not recorded: %v", store.usedMarks)
	}
}

func TestResolve_RevokedSessionRejectedBeforeTokenExpiry(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	if err := r.Logout(context.Background(), policy.Identity{SubjectID: "u1", SessionID: pair.SessionID}); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// The token itself has not expired; revocation alone must reject it.
	if _, err := r.Resolve(context.Background(), pair.AccessToken); err != ErrSessionInvalid {
		t.Errorf("resolve after revocation: %v, want ErrSessionInvalid", err)
	}
}

func TestResolve_RevocationIsTerminal(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	_ = r.Logout(context.Background(), policy.Identity{SubjectID: "u1", SessionID: pair.SessionID})

	// A further logout or bookkeeping call must not reactivate it.
	_ = r.Logout(context.Background(), policy.Identity{SubjectID: "u1", SessionID: pair.SessionID})
	if _, err := r.Resolve(context.Background(), pair.AccessToken); err != ErrSessionInvalid {
		t.Errorf("revoked session resolved: %v", err)
	}
}

func TestResolve_InactiveSubject(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	store.subjects["u1"].IsActive = false
	if _, err := r.Resolve(context.Background(), pair.AccessToken); err != ErrSubjectInactive {
		t.Errorf("resolve with inactive subject: %v, want ErrSubjectInactive", err)
	}
}

func TestResolve_DeletedSubject(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	delete(store.subjects, "u1")
	if _, err := r.Resolve(context.Background(), pair.AccessToken); err != ErrSubjectNotFound {
		t.Errorf("resolve with deleted subject: %v, want ErrSubjectNotFound", err)
	}
}

func TestResolve_UnrecognizedStoredRoleFailsClosed(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	// Simulate reference-data corruption after issuance.
	store.subjects["u1"].Role = "doctor"
	_, err := r.Resolve(context.Background(), pair.AccessToken)
	if err == nil {
		t.Fatal("corrupted role resolved successfully")
	}
	if _, ok := err.(*policy.ErrUnrecognizedRole); !ok {
		t.Errorf("error = %T(%v), want *policy.ErrUnrecognizedRole", err, err)
	}
}

func TestRefresh_ReflectsCurrentRole(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	// Role changes between issuance and refresh; the new access credential
	// must carry the updated role, not the one embedded in the old token.
	store.subjects["u1"].Role = "DOCTOR"

	newPair, id, err := r.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if id.Role != policy.RoleDoctor {
		t.Errorf("refreshed identity role = %s, want DOCTOR", id.Role)
	}
	claims, err := testTokenManager().VerifyAccess(newPair.AccessToken)
	if err != nil {
		t.Fatalf("verify refreshed access token: %v", err)
	}
	if claims.Role != "DOCTOR" {
		t.Errorf("refreshed token role = %q, want DOCTOR", claims.Role)
	}
}

func TestRefresh_RotatesSession(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	newPair, _, err := r.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if newPair.SessionID == pair.SessionID {
		t.Error("refresh did not rotate the session")
	}

	// Old credentials are dead after rotation.
	if _, err := r.Resolve(context.Background(), pair.AccessToken); err != ErrSessionInvalid {
		t.Errorf("old access token after rotation: %v, want ErrSessionInvalid", err)
	}
	if _, _, err := r.Refresh(context.Background(), pair.RefreshToken); err != ErrSessionInvalid {
		t.Errorf("old refresh token after rotation: %v, want ErrSessionInvalid", err)
	}
	// New access token works.
	if _, err := r.Resolve(context.Background(), newPair.AccessToken); err != nil {
		t.Errorf("new access token rejected: %v", err)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	if _, _, err := r.Refresh(context.Background(), pair.AccessToken); err != ErrCredentialInvalid {
		t.Errorf("refresh with access token: %v, want ErrCredentialInvalid", err)
	}
}

func TestRevokeOtherSessions(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)

	first := login(t, r, store, "u1")
	second := login(t, r, store, "u1")

	// Password change from the second session revokes the first.
	id := policy.Identity{SubjectID: "u1", Role: policy.RoleNurse, SessionID: second.SessionID}
	if err := r.RevokeOtherSessions(context.Background(), id); err != nil {
		t.Fatalf("revoke others: %v", err)
	}

	if _, err := r.Resolve(context.Background(), first.AccessToken); err != ErrSessionInvalid {
		t.Errorf("first session survived password change: %v", err)
	}
	if _, err := r.Resolve(context.Background(), second.AccessToken); err != nil {
		t.Errorf("current session revoked by password change: %v", err)
	}
}

func TestResolve_ExpiredSessionRejected(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "NURSE", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	// Age the session past its expiry without touching the token.
	store.sessions[pair.SessionID].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	if _, err := r.Resolve(context.Background(), pair.AccessToken); err != ErrSessionInvalid {
		t.Errorf("expired session resolved: %v", err)
	}
}
