// internal/repository/postgres/template_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"certhub-service/internal/domain/template"
	xerrors "certhub-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TemplateRepository persists certificate templates. All methods are
// tenant-scoped; a lookup with the wrong orgID yields ErrNotFound, which
// deliberately does not distinguish absence from cross-tenant denial.
type TemplateRepository struct {
	db *pgxpool.Pool
}

func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `
	id, org_id, template_name, canvas_json, is_default, width, height, unit,
	orientation, background_color, background_image, created_at, updated_at`

func scanTemplate(row pgx.Row) (*template.CertificateTemplate, error) {
	var t template.CertificateTemplate
	err := row.Scan(
		&t.ID, &t.OrgID, &t.TemplateName, &t.CanvasSealed, &t.IsDefault,
		&t.Width, &t.Height, &t.Unit, &t.Orientation,
		&t.BackgroundColor, &t.BackgroundImage, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	return &t, nil
}

// Create inserts a template for the organization.
func (r *TemplateRepository) Create(ctx context.Context, t *template.CertificateTemplate) error {
	query := `
		INSERT INTO certificate_templates (
			org_id, template_name, canvas_json, is_default, width, height, unit,
			orientation, background_color, background_image
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.OrgID, t.TemplateName, t.CanvasSealed, t.IsDefault, t.Width, t.Height,
		t.Unit, t.Orientation, t.BackgroundColor, t.BackgroundImage,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// FindByID retrieves a template scoped to its organization.
func (r *TemplateRepository) FindByID(ctx context.Context, orgID, id int64) (*template.CertificateTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM certificate_templates WHERE id = $1 AND org_id = $2`
	return scanTemplate(r.db.QueryRow(ctx, query, id, orgID))
}

// FindDefault returns the organization's default template, or ErrNotFound.
func (r *TemplateRepository) FindDefault(ctx context.Context, orgID int64) (*template.CertificateTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM certificate_templates WHERE org_id = $1 AND is_default = TRUE`
	return scanTemplate(r.db.QueryRow(ctx, query, orgID))
}

// ListByOrg returns all of an organization's templates. Callers build
// summaries; the sealed canvas is never decrypted on this path.
func (r *TemplateRepository) ListByOrg(ctx context.Context, orgID int64) ([]*template.CertificateTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM certificate_templates WHERE org_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*template.CertificateTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// CountByOrg returns the organization's template count for the plan limit.
func (r *TemplateRepository) CountByOrg(ctx context.Context, orgID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM certificate_templates WHERE org_id = $1`, orgID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return count, nil
}

// Update persists all mutable fields of a template.
func (r *TemplateRepository) Update(ctx context.Context, t *template.CertificateTemplate) error {
	query := `
		UPDATE certificate_templates
		SET template_name = $3, canvas_json = $4, width = $5, height = $6, unit = $7,
		    orientation = $8, background_color = $9, background_image = $10, updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.ID, t.OrgID, t.TemplateName, t.CanvasSealed, t.Width, t.Height,
		t.Unit, t.Orientation, t.BackgroundColor, t.BackgroundImage,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

// SetDefault clears the organization's previous default and marks the given
// template inside one transaction, so at most one default survives.
func (r *TemplateRepository) SetDefault(ctx context.Context, orgID, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin set-default: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE certificate_templates SET is_default = FALSE, updated_at = NOW() WHERE org_id = $1 AND is_default = TRUE`,
		orgID,
	); err != nil {
		return fmt.Errorf("failed to clear previous default: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE certificate_templates SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND org_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("failed to set default template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return tx.Commit(ctx)
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM certificate_templates WHERE id = $1 AND org_id = $2`, id, orgID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
