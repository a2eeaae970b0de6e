// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"certhub-service/internal/domain/auth"
	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/pkg/jwt"
	"certhub-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, u *auth.User) error
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	FindByID(ctx context.Context, orgID, id int64) (*auth.User, error)
	MarkEmailVerified(ctx context.Context, orgID, id int64) error
	TouchLastLogin(ctx context.Context, orgID, id int64) error
}

type OrgStore interface {
	Create(ctx context.Context, o *organization.Organization) error
	FindByID(ctx context.Context, id int64) (*organization.Organization, error)
	FindByEmail(ctx context.Context, email string) (*organization.Organization, error)
}

// Mailer sends the verification email. Best effort; a delivery failure never
// fails registration.
type Mailer interface {
	SendVerificationEmail(to, name, link string) error
}

type AuthService struct {
	users         UserStore
	orgs          OrgStore
	jwt           *jwt.Manager
	sessions      *session.Manager
	limiter       *session.RateLimiter
	mailer        Mailer
	publicBaseURL string
	logger        *zap.Logger
}

func NewAuthService(
	users UserStore,
	orgs OrgStore,
	jwtManager *jwt.Manager,
	sessions *session.Manager,
	limiter *session.RateLimiter,
	mailer Mailer,
	publicBaseURL string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		orgs:          orgs,
		jwt:           jwtManager,
		sessions:      sessions,
		limiter:       limiter,
		mailer:        mailer,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// Register creates an organization on the FREE tier together with its first
// admin user, then sends the verification email. New organizations start
// PENDING and need super-admin approval before they can issue.
func (s *AuthService) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.UserProfile, error) {
	if _, err := s.orgs.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("organization email already registered: %w", xerrors.ErrConflict)
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	org := &organization.Organization{
		Name:             req.OrganizationName,
		Email:            req.Email,
		SubscriptionPlan: string(plan.Free),
		AccountStatus:    organization.StatusPending,
	}
	if req.Domain != "" {
		org.Domain = sql.NullString{String: req.Domain, Valid: true}
	}
	if req.Website != "" {
		org.Website = sql.NullString{String: req.Website, Valid: true}
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	user := &auth.User{
		OrgID:        org.ID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         auth.RoleOrgAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendVerificationEmail(user)

	s.logger.Info("organization registered",
		zap.Int64("org_id", org.ID),
		zap.String("email", req.Email),
	)
	return auth.ToProfile(user), nil
}

func (s *AuthService) sendVerificationEmail(user *auth.User) {
	token, _, err := s.jwt.Generator.GenerateEmailVerificationToken(user.ID, user.OrgID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate verification token", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}

	link := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", s.publicBaseURL, token)
	go func() {
		if err := s.mailer.SendVerificationEmail(user.Email, user.FullName, link); err != nil {
			s.logger.Warn("failed to send verification email", zap.String("email", user.Email), zap.Error(err))
		}
	}()
}

// EnsureSuperAdminExists bootstraps the platform operator account on startup.
// The super admin lives under a system organization that never issues
// certificates itself.
func (s *AuthService) EnsureSuperAdminExists(ctx context.Context, email, password, fullName string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	org, err := s.orgs.FindByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		org = &organization.Organization{
			Name:             "CertHub Platform",
			Email:            email,
			SubscriptionPlan: string(plan.Enterprise),
			AccountStatus:    organization.StatusActive,
		}
		if err := s.orgs.Create(ctx, org); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, &auth.User{
		OrgID:         org.ID,
		Email:         email,
		PasswordHash:  string(hash),
		FullName:      fullName,
		Role:          auth.RoleSuperAdmin,
		EmailVerified: true,
	}); err != nil {
		return err
	}

	s.logger.Info("super admin created", zap.String("email", email))
	return nil
}

// VerifyEmail consumes a verification token and flips the user's flag.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwt.Verifier.VerifyEmailVerificationToken(token)
	if err != nil {
		return fmt.Errorf("invalid verification token: %w", xerrors.ErrUnauthorized)
	}
	return s.users.MarkEmailVerified(ctx, claims.OrgID, claims.UserID)
}

// Login authenticates a user and opens a session. BLOCKED organizations
// cannot log in at all; PENDING organizations can, so they can see their
// profile while awaiting approval, but every issuing path re-checks status.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest, ip, userAgent string) (*auth.LoginResponse, error) {
	allowed, retryAfter, err := s.limiter.CheckLoginAttempt(ctx, ip, req.Email)
	if err != nil {
		s.logger.Error("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, fmt.Errorf("too many login attempts, retry in %ds: %w", int(retryAfter.Seconds()), xerrors.ErrRateLimited)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", xerrors.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", xerrors.ErrUnauthorized)
	}

	org, err := s.orgs.FindByID(ctx, user.OrgID)
	if err != nil {
		return nil, err
	}
	if org.AccountStatus == organization.StatusBlocked {
		return nil, xerrors.ErrAccountBlocked
	}

	token, jti, err := s.jwt.Generator.GenerateAccessToken(user.ID, user.OrgID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		UserID:         user.ID,
		OrgID:          user.OrgID,
		Email:          user.Email,
		Role:           string(user.Role),
		Device:         req.Device,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(24 * time.Hour),
	}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.limiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}
	if err := s.users.TouchLastLogin(ctx, user.OrgID, user.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return &auth.LoginResponse{
		AccessToken: token,
		User:        auth.ToProfile(user),
	}, nil
}

// Logout invalidates the session behind one token.
func (s *AuthService) Logout(ctx context.Context, userID int64, jti string) error {
	return s.sessions.InvalidateSession(ctx, userID, jti)
}

// ValidateToken verifies the signature and the session. A structurally valid
// token whose session was invalidated (logout, block) is rejected.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwt.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	if _, err := s.sessions.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		return nil, xerrors.ErrSessionExpired
	}

	return claims, nil
}
