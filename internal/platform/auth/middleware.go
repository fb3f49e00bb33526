package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/metrics"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// Authenticate returns middleware that resolves the bearer credential and
// attaches the Identity to the request context. Every resolution failure
// maps to 401; the caller never learns which resolution step failed beyond
// a generic message, except the distinction between "no credential" and
// "rejected credential".
func Authenticate(resolver *Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential, err := ExtractBearer(c.Request().Header.Get("Authorization"))
			if err != nil {
				return authError(err)
			}

			identity, err := resolver.Resolve(c.Request().Context(), credential)
			if err != nil {
				metrics.AuthResolutionsTotal.WithLabelValues(resolutionResult(err)).Inc()
				return authError(err)
			}
			metrics.AuthResolutionsTotal.WithLabelValues("ok").Inc()

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

// authError maps the resolution taxonomy to HTTP responses. An out-of-set
// role is a server-side defect, not a client error, and is surfaced as 500
// rather than being folded into the deny path.
func authError(err error) *echo.HTTPError {
	var unrec *policy.ErrUnrecognizedRole
	switch {
	case errors.Is(err, ErrCredentialMissing):
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	case errors.Is(err, ErrCredentialMalformed):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	case errors.As(err, &unrec):
		return echo.NewHTTPError(http.StatusInternalServerError, "account role misconfigured")
	default:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
}

// MustIdentity returns the identity attached by Authenticate. Routes reached
// without one respond 401 instead of proceeding unauthenticated.
func MustIdentity(c echo.Context) (policy.Identity, error) {
	id, ok := IdentityFromContext(c.Request().Context())
	if !ok {
		return policy.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

// RequirePermission returns middleware enforcing the static policy matrix
// for collection-level route guards. Instance ownership is checked inside
// handlers where the owner is known.
func RequirePermission(action policy.Action, kind policy.ResourceKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := MustIdentity(c)
			if err != nil {
				return err
			}
			if d := policy.Authorize(id, action, kind, ""); !d.Allowed {
				metrics.AuthzDecisionsTotal.WithLabelValues(string(kind), string(action), "deny").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			metrics.AuthzDecisionsTotal.WithLabelValues(string(kind), string(action), "allow").Inc()
			return next(c)
		}
	}
}

// Forbidden is the single caller-visible authorization failure. Policy
// denial and ownership mismatch deliberately collapse into it so callers
// cannot tell which applied.
func Forbidden() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusForbidden, "forbidden")
}

// resolutionResult maps a resolution error to its metric label.
func resolutionResult(err error) string {
	var unrec *policy.ErrUnrecognizedRole
	switch {
	case errors.Is(err, ErrSessionInvalid):
		return "session_revoked"
	case errors.Is(err, ErrSubjectInactive):
		return "subject_inactive"
	case errors.Is(err, ErrSubjectNotFound):
		return "subject_not_found"
	case errors.As(err, &unrec):
		return "role_misconfigured"
	default:
		return "invalid_token"
	}
}
