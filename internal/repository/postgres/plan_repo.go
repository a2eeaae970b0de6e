// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlanRepository struct {
	db *pgxpool.Pool
}

func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, name, monthly_price, max_certificates_per_month, max_team_members, max_templates, permissions, created_at, updated_at`

func (r *PlanRepository) scanPlan(row pgx.Row) (*plan.Plan, error) {
	var p plan.Plan
	var permissionsJSON []byte

	err := row.Scan(
		&p.ID, &p.Name, &p.MonthlyPrice, &p.MaxCertificatesPerMonth,
		&p.MaxTeamMembers, &p.MaxTemplates, &permissionsJSON,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	if len(permissionsJSON) > 0 {
		var perms plan.Permissions
		if err := json.Unmarshal(permissionsJSON, &perms); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan permissions: %w", err)
		}
		p.Permissions = &perms
	}

	return &p, nil
}

// Create inserts a plan row. Used only by seeding.
func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (name, monthly_price, max_certificates_per_month, max_team_members, max_templates, permissions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	var permissionsJSON []byte
	var err error
	if p.Permissions != nil {
		permissionsJSON, err = json.Marshal(p.Permissions)
		if err != nil {
			return fmt.Errorf("failed to marshal plan permissions: %w", err)
		}
	}

	err = r.db.QueryRow(ctx, query,
		p.Name, p.MonthlyPrice, p.MaxCertificatesPerMonth,
		p.MaxTeamMembers, p.MaxTemplates, permissionsJSON,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// FindByID retrieves a plan by primary key.
func (r *PlanRepository) FindByID(ctx context.Context, id int64) (*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return r.scanPlan(r.db.QueryRow(ctx, query, id))
}

// FindByName retrieves a plan by its unique tier name.
func (r *PlanRepository) FindByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`
	return r.scanPlan(r.db.QueryRow(ctx, query, name))
}

// List returns all plans ordered by price.
func (r *PlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY monthly_price ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

// Count returns the number of plan rows. Used to decide whether to seed.
func (r *PlanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM plans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plans: %w", err)
	}
	return count, nil
}

// Update applies an admin update to a tier.
func (r *PlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	query := `
		UPDATE plans
		SET monthly_price = $2,
		    max_certificates_per_month = $3,
		    max_team_members = $4,
		    max_templates = $5,
		    permissions = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	var permissionsJSON []byte
	var err error
	if p.Permissions != nil {
		permissionsJSON, err = json.Marshal(p.Permissions)
		if err != nil {
			return fmt.Errorf("failed to marshal plan permissions: %w", err)
		}
	}

	err = r.db.QueryRow(ctx, query,
		p.ID, p.MonthlyPrice, p.MaxCertificatesPerMonth,
		p.MaxTeamMembers, p.MaxTemplates, permissionsJSON,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	return nil
}
