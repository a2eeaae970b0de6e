// internal/service/organization/organization_service.go
package organization

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/pkg/session"

	"go.uber.org/zap"
)

type OrganizationStore interface {
	FindByID(ctx context.Context, id int64) (*organization.Organization, error)
	UpdateProfile(ctx context.Context, o *organization.Organization) error
	UpdateAccountStatus(ctx context.Context, id int64, status organization.AccountStatus) error
	UpdateSubscription(ctx context.Context, id, planID int64, planName plan.Name, monthlyLimit int) error
	RefreshIssuedThisMonth(ctx context.Context, id int64, count int, resetDate time.Time) error
	Delete(ctx context.Context, id int64) error
	ListPending(ctx context.Context) ([]*organization.Organization, error)
}

type PlanFinder interface {
	FindByName(ctx context.Context, name plan.Name) (*plan.Plan, error)
}

type UserIDLister interface {
	ListIDsByOrg(ctx context.Context, orgID int64) ([]int64, error)
}

type MonthlyCounter interface {
	CountIssuedInRange(ctx context.Context, orgID int64, from, to time.Time) (int64, error)
}

type OrganizationService struct {
	orgs     OrganizationStore
	plans    PlanFinder
	users    UserIDLister
	counter  MonthlyCounter
	sessions *session.Manager
	logger   *zap.Logger
}

func NewOrganizationService(
	orgs OrganizationStore,
	plans PlanFinder,
	users UserIDLister,
	counter MonthlyCounter,
	sessions *session.Manager,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgs:     orgs,
		plans:    plans,
		users:    users,
		counter:  counter,
		sessions: sessions,
		logger:   logger,
	}
}

// Profile returns the caller's organization.
func (s *OrganizationService) Profile(ctx context.Context, orgID int64) (*organization.ProfileResponse, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return organization.ToProfileResponse(org), nil
}

// UpdateProfile applies a partial profile update. Empty fields are left
// unchanged; certificate prefixes replace the stored list when present.
func (s *OrganizationService) UpdateProfile(ctx context.Context, orgID int64, req *organization.UpdateProfileRequest) (*organization.ProfileResponse, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.Domain != "" {
		org.Domain = sql.NullString{String: req.Domain, Valid: true}
	}
	if req.Website != "" {
		org.Website = sql.NullString{String: req.Website, Valid: true}
	}
	if req.Logo != "" {
		org.Logo = sql.NullString{String: req.Logo, Valid: true}
	}
	if req.CertificatePrefixes != nil {
		org.CertificatePrefixes = req.CertificatePrefixes
	}

	if err := s.orgs.UpdateProfile(ctx, org); err != nil {
		return nil, err
	}
	return organization.ToProfileResponse(org), nil
}

// ListPending returns organizations awaiting approval. Super-admin only.
func (s *OrganizationService) ListPending(ctx context.Context) ([]*organization.ProfileResponse, error) {
	orgs, err := s.orgs.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*organization.ProfileResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, organization.ToProfileResponse(org))
	}
	return out, nil
}

// Approve moves a PENDING organization to ACTIVE.
func (s *OrganizationService) Approve(ctx context.Context, orgID int64) error {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org.AccountStatus != organization.StatusPending {
		return fmt.Errorf("organization is %s: %w", org.AccountStatus, xerrors.ErrConflict)
	}

	if err := s.orgs.UpdateAccountStatus(ctx, orgID, organization.StatusActive); err != nil {
		return err
	}
	s.logger.Info("organization approved", zap.Int64("org_id", orgID))
	return nil
}

// Block marks an organization BLOCKED and tears down every live session of
// its users. Issued certificates keep verifying.
func (s *OrganizationService) Block(ctx context.Context, orgID int64) error {
	if err := s.orgs.UpdateAccountStatus(ctx, orgID, organization.StatusBlocked); err != nil {
		return err
	}

	ids, err := s.users.ListIDsByOrg(ctx, orgID)
	if err != nil {
		s.logger.Error("failed to list users for session teardown", zap.Int64("org_id", orgID), zap.Error(err))
		return nil
	}
	for _, id := range ids {
		if err := s.sessions.InvalidateAllUserSessions(ctx, id); err != nil {
			s.logger.Error("failed to invalidate sessions", zap.Int64("user_id", id), zap.Error(err))
		}
	}

	s.logger.Info("organization blocked", zap.Int64("org_id", orgID), zap.Int("sessions_torn_down_for", len(ids)))
	return nil
}

// Unblock restores a BLOCKED organization to ACTIVE.
func (s *OrganizationService) Unblock(ctx context.Context, orgID int64) error {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org.AccountStatus != organization.StatusBlocked {
		return fmt.Errorf("organization is %s: %w", org.AccountStatus, xerrors.ErrConflict)
	}
	return s.orgs.UpdateAccountStatus(ctx, orgID, organization.StatusActive)
}

// Delete removes the organization and all dependent rows (users, templates,
// certificates) via the schema's cascades, after killing its sessions.
func (s *OrganizationService) Delete(ctx context.Context, orgID int64) error {
	ids, err := s.users.ListIDsByOrg(ctx, orgID)
	if err == nil {
		for _, id := range ids {
			if err := s.sessions.InvalidateAllUserSessions(ctx, id); err != nil {
				s.logger.Error("failed to invalidate sessions", zap.Int64("user_id", id), zap.Error(err))
			}
		}
	}

	if err := s.orgs.Delete(ctx, orgID); err != nil {
		return err
	}
	s.logger.Info("organization deleted", zap.Int64("org_id", orgID))
	return nil
}

// SetPlan switches an organization to another tier. Super-admin only; the
// advisory monthly limit column is refreshed from the plan row.
func (s *OrganizationService) SetPlan(ctx context.Context, orgID int64, name plan.Name) error {
	p, err := s.plans.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.orgs.UpdateSubscription(ctx, orgID, p.ID, p.Name, p.MaxCertificatesPerMonth); err != nil {
		return err
	}
	s.logger.Info("organization plan changed",
		zap.Int64("org_id", orgID),
		zap.String("plan", string(p.Name)),
	)
	return nil
}

// RefreshIssuedThisMonth reconciles the advisory issued-this-month counter
// against a live count of the current calendar month.
func (s *OrganizationService) RefreshIssuedThisMonth(ctx context.Context, orgID int64) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := s.counter.CountIssuedInRange(ctx, orgID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return err
	}
	return s.orgs.RefreshIssuedThisMonth(ctx, orgID, int(count), from)
}
