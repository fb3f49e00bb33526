package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

func authedRequest(t *testing.T, token string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		id, err := MustIdentity(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"subject": id.SubjectID})
	}, mw...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	store := newMockStore()
	r := testResolver(store)

	rec := authedRequest(t, "", Authenticate(r))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	store := newMockStore()
	r := testResolver(store)

	for _, header := range []string{"Basic abc123", "Bearer", "Bearer  "} {
		rec := authedRequest(t, header, Authenticate(r))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthenticate_ValidTokenAttachesIdentity(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	rec := authedRequest(t, "Bearer "+pair.AccessToken, Authenticate(r))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAuthenticate_RevokedSessionRejected(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")
	_ = r.Logout(context.Background(), policy.Identity{SubjectID: "u1", SessionID: pair.SessionID})

	rec := authedRequest(t, "Bearer "+pair.AccessToken, Authenticate(r))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticate_MisconfiguredRoleIsServerError(t *testing.T) {
	store := newMockStore()
	store.subjects["u1"] = &Subject{ID: "u1", Role: "DOCTOR", IsActive: true}
	r := testResolver(store)
	pair := login(t, r, store, "u1")

	store.subjects["u1"].Role = "SURGEON"
	rec := authedRequest(t, "Bearer "+pair.AccessToken, Authenticate(r))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	store := newMockStore()
	store.subjects["doc"] = &Subject{ID: "doc", Role: "DOCTOR", IsActive: true}
	store.subjects["acct"] = &Subject{ID: "acct", Role: "ACCOUNTANT", IsActive: true}
	r := testResolver(store)

	docPair := login(t, r, store, "doc")
	acctPair := login(t, r, store, "acct")

	mw := []echo.MiddlewareFunc{
		Authenticate(r),
		RequirePermission(policy.ActionCreate, policy.KindPrescription),
	}

	if rec := authedRequest(t, "Bearer "+docPair.AccessToken, mw...); rec.Code != http.StatusOK {
		t.Errorf("doctor creating prescription: status = %d, want 200", rec.Code)
	}
	if rec := authedRequest(t, "Bearer "+acctPair.AccessToken, mw...); rec.Code != http.StatusForbidden {
		t.Errorf("accountant creating prescription: status = %d, want 403", rec.Code)
	}
}

func TestRequirePermission_WithoutAuthenticate(t *testing.T) {
	rec := authedRequest(t, "", RequirePermission(policy.ActionRead, policy.KindPatient))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
