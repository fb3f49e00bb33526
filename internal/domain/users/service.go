package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/auth"
	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthResult is the response shape of register, login, and refresh.
type AuthResult struct {
	User         Profile        `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Pair         auth.TokenPair `json:"-"`
}

// Service owns account lifecycle and the credential endpoints. Session and
// token mechanics are delegated to the auth resolver; this service only
// decides whether the caller's password and account state allow them.
type Service struct {
	repo       UserRepository
	resolver   *auth.Resolver
	bcryptCost int
}

func NewService(repo UserRepository, resolver *auth.Resolver, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, resolver: resolver, bcryptCost: bcryptCost}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest, ip, userAgent string) (*AuthResult, error) {
	role, err := policy.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("invalid role specified: %q", req.Role)
	}

	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	first := req.DisplayName
	last := ""
	if i := strings.IndexByte(req.DisplayName, ' '); i > 0 {
		first = req.DisplayName[:i]
		last = strings.TrimSpace(req.DisplayName[i+1:])
	}

	u := &User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		DisplayName:  req.DisplayName,
		Role:         string(role),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return s.startSession(ctx, u, ip, userAgent)
}

func (s *Service) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*AuthResult, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil || u == nil {
		// Hash comparison is skipped but the response is identical; the
		// caller cannot distinguish an unknown email from a bad password.
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, auth.ErrSubjectInactive
	}

	return s.startSession(ctx, u, ip, userAgent)
}

func (s *Service) startSession(ctx context.Context, u *User, ip, userAgent string) (*AuthResult, error) {
	pair, _, err := s.resolver.Login(ctx, &auth.Subject{
		ID:       u.ID.String(),
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}, ip, userAgent)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         u.Profile(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Pair:         pair,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	pair, id, err := s.resolver.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.profileByID(ctx, id.SubjectID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         *u,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Pair:         pair,
	}, nil
}

func (s *Service) Logout(ctx context.Context, id policy.Identity) error {
	return s.resolver.Logout(ctx, id)
}

func (s *Service) ProfileFor(ctx context.Context, id policy.Identity) (*Profile, error) {
	return s.profileByID(ctx, id.SubjectID)
}

func (s *Service) profileByID(ctx context.Context, subjectID string) (*Profile, error) {
	uid, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every other session of the subject. The current session survives.
func (s *Service) ChangePassword(ctx context.Context, id policy.Identity, req ChangePasswordRequest) error {
	uid, err := uuid.Parse(id.SubjectID)
	if err != nil {
		return ErrUserNotFound
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPassword(ctx, uid, string(hash)); err != nil {
		return err
	}

	return s.resolver.RevokeOtherSessions(ctx, id)
}

// -- Administration (SUPER_ADMIN only, enforced at the route) --

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	role, err := policy.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("invalid role specified: %q", req.Role)
	}
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	display := req.DisplayName
	if display == "" {
		display = strings.TrimSpace(req.FirstName + " " + req.LastName)
	}

	u := &User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DisplayName:  display,
		Role:         string(role),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		role, err := policy.ParseRole(*req.Role)
		if err != nil {
			return nil, fmt.Errorf("invalid role specified: %q", *req.Role)
		}
		u.Role = string(role)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeactivateUser soft-disables the account. Existing sessions die on the
// next resolution because the resolver re-reads the active flag.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, id)
}
