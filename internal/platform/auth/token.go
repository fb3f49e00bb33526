package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

// Token uses distinguish access credentials from refresh credentials so one
// can never be replayed as the other.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims carried by both access and refresh tokens. Role is a snapshot at
// issuance time; the resolver re-reads it from the store on every request.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	TokenUse string `json:"token_use"`
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
	SessionID     string    `json:"-"`
}

// TokenManagerConfig configures signing secrets and lifetimes.
type TokenManagerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenManager issues and verifies HS256 access and refresh tokens with
// distinct secrets. The session id doubles as the refresh token's jti so a
// revoked session invalidates the whole credential family at once.
type TokenManager struct {
	cfg TokenManagerConfig
}

func NewTokenManager(cfg TokenManagerConfig) *TokenManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{cfg: cfg}
}

// AccessTTL returns the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssuePair mints a new access/refresh token pair bound to the given subject,
// role, and session. The role is the subject's role at issuance time.
func (m *TokenManager) IssuePair(subjectID string, role policy.Role, sessionID string) (TokenPair, error) {
	now := time.Now().UTC()
	accessExp := now.Add(m.cfg.AccessTTL)
	refreshExp := now.Add(m.cfg.RefreshTTL)

	access, err := m.sign(m.cfg.AccessSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        sessionID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
		Role:     string(role),
		TokenUse: TokenUseAccess,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.sign(m.cfg.RefreshSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        sessionID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
		Role:     string(role),
		TokenUse: TokenUseRefresh,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
		SessionID:     sessionID,
	}, nil
}

func (m *TokenManager) sign(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess validates an access token string and returns its claims.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, m.cfg.AccessSecret, TokenUseAccess)
}

// VerifyRefresh validates a refresh token string and returns its claims.
func (m *TokenManager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, m.cfg.RefreshSecret, TokenUseRefresh)
}

func (m *TokenManager) verify(token string, secret []byte, use string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithIssuedAt())
	if err != nil || !parsed.Valid {
		return nil, ErrCredentialInvalid
	}
	if claims.TokenUse != use {
		return nil, ErrCredentialInvalid
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrCredentialInvalid
	}
	return claims, nil
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
