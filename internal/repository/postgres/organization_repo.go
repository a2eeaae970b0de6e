// internal/repository/postgres/organization_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrganizationRepository struct {
	db *pgxpool.Pool
}

func NewOrganizationRepository(db *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const orgColumns = `
	o.id, o.name, o.email, o.domain, o.subscription_plan, o.plan_id,
	o.subscription_status, o.payment_status, o.account_status,
	o.monthly_certificate_limit, o.certificates_issued_this_month, o.last_reset_date,
	o.logo, o.certificate_prefixes, o.website, o.created_at, o.updated_at`

func scanOrganization(row pgx.Row, withPlan bool) (*organization.Organization, error) {
	var o organization.Organization
	dest := []interface{}{
		&o.ID, &o.Name, &o.Email, &o.Domain, &o.SubscriptionPlan, &o.PlanID,
		&o.SubscriptionStatus, &o.PaymentStatus, &o.AccountStatus,
		&o.MonthlyCertificateLimit, &o.CertificatesIssuedThisMonth, &o.LastResetDate,
		&o.Logo, &o.CertificatePrefixes, &o.Website, &o.CreatedAt, &o.UpdatedAt,
	}

	var (
		planID          *int64
		planName        *plan.Name
		planPrice       *float64
		planMaxCerts    *int
		planMaxMembers  *int
		planMaxTpls     *int
		planPermissions []byte
	)
	if withPlan {
		dest = append(dest, &planID, &planName, &planPrice, &planMaxCerts, &planMaxMembers, &planMaxTpls, &planPermissions)
	}

	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	if withPlan && planID != nil {
		p := &plan.Plan{
			ID:                      *planID,
			Name:                    *planName,
			MonthlyPrice:            *planPrice,
			MaxCertificatesPerMonth: *planMaxCerts,
			MaxTeamMembers:          *planMaxMembers,
			MaxTemplates:            *planMaxTpls,
		}
		if len(planPermissions) > 0 {
			var perms plan.Permissions
			if err := json.Unmarshal(planPermissions, &perms); err != nil {
				return nil, fmt.Errorf("failed to unmarshal plan permissions: %w", err)
			}
			p.Permissions = &perms
		}
		o.Plan = p
	}

	return &o, nil
}

// Create inserts a new organization (registration).
func (r *OrganizationRepository) Create(ctx context.Context, o *organization.Organization) error {
	query := `
		INSERT INTO organizations (
			name, email, domain, subscription_plan, plan_id,
			subscription_status, payment_status, account_status,
			monthly_certificate_limit, certificates_issued_this_month, last_reset_date,
			logo, certificate_prefixes, website
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		o.Name, o.Email, o.Domain, o.SubscriptionPlan, o.PlanID,
		o.SubscriptionStatus, o.PaymentStatus, o.AccountStatus,
		o.MonthlyCertificateLimit, o.CertificatesIssuedThisMonth, o.LastResetDate,
		o.Logo, o.CertificatePrefixes, o.Website,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// FindByID retrieves an organization with its plan joined.
func (r *OrganizationRepository) FindByID(ctx context.Context, id int64) (*organization.Organization, error) {
	query := `
		SELECT ` + orgColumns + `,
		       p.id, p.name, p.monthly_price, p.max_certificates_per_month,
		       p.max_team_members, p.max_templates, p.permissions
		FROM organizations o
		LEFT JOIN plans p ON p.id = o.plan_id
		WHERE o.id = $1
	`
	return scanOrganization(r.db.QueryRow(ctx, query, id), true)
}

// FindByEmail retrieves an organization by its unique contact email.
func (r *OrganizationRepository) FindByEmail(ctx context.Context, email string) (*organization.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations o WHERE o.email = $1`
	return scanOrganization(r.db.QueryRow(ctx, query, email), false)
}

// UpdateProfile persists profile and branding fields.
func (r *OrganizationRepository) UpdateProfile(ctx context.Context, o *organization.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, domain = $3, website = $4, logo = $5,
		    certificate_prefixes = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		o.ID, o.Name, o.Domain, o.Website, o.Logo, o.CertificatePrefixes,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update organization profile: %w", err)
	}
	return nil
}

// UpdateAccountStatus transitions the account gate (approve, block).
func (r *OrganizationRepository) UpdateAccountStatus(ctx context.Context, id int64, status organization.AccountStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE organizations SET account_status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdateSubscription changes the plan reference and the legacy plan string
// together, plus the denormalized monthly limit cache.
func (r *OrganizationRepository) UpdateSubscription(ctx context.Context, id, planID int64, planName plan.Name, monthlyLimit int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE organizations
		SET plan_id = $2, subscription_plan = $3, monthly_certificate_limit = $4, updated_at = NOW()
		WHERE id = $1
	`, id, planID, planName, monthlyLimit)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// RefreshIssuedThisMonth reconciles the advisory counter from the live
// certificate count. The quota check never reads this column.
func (r *OrganizationRepository) RefreshIssuedThisMonth(ctx context.Context, id int64, count int, resetDate time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE organizations
		SET certificates_issued_this_month = $2, last_reset_date = $3, updated_at = NOW()
		WHERE id = $1
	`, id, count, resetDate)
	if err != nil {
		return fmt.Errorf("failed to refresh issued counter: %w", err)
	}
	return nil
}

// Delete hard-deletes an organization. Owned users, certificates, templates
// and audit events go with it via ON DELETE CASCADE.
func (r *OrganizationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ListPending returns organizations awaiting approval. Super admin only.
func (r *OrganizationRepository) ListPending(ctx context.Context) ([]*organization.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations o WHERE o.account_status = $1 ORDER BY o.created_at ASC`

	rows, err := r.db.Query(ctx, query, organization.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*organization.Organization
	for rows.Next() {
		o, err := scanOrganization(rows, false)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}
