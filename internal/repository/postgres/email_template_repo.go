// internal/repository/postgres/email_template_repo.go
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

type EmailTemplateRepository struct {
	db *pgxpool.Pool
}

func NewEmailTemplateRepository(db *pgxpool.Pool) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

const emailTemplateColumns = `id, org_id, template_name, subject, body_html, is_default, created_at, updated_at`

func scanEmailTemplate(row pgx.Row) (*template.EmailTemplate, error) {
	var t template.EmailTemplate
	err := row.Scan(
		&t.ID, &t.OrgID, &t.TemplateName, &t.Subject, &t.BodySealed,
		&t.IsDefault, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan email template: %w", err)
	}
	return &t, nil
}

func (r *EmailTemplateRepository) Create(ctx context.Context, t *template.EmailTemplate) error {
	query := `
		INSERT INTO email_templates (org_id, template_name, subject, body_html, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.OrgID, t.TemplateName, t.Subject, t.BodySealed, t.IsDefault,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create email template: %w", err)
	}
	return nil
}

func (r *EmailTemplateRepository) FindByID(ctx context.Context, orgID, id int64) (*template.EmailTemplate, error) {
	query := `SELECT ` + emailTemplateColumns + ` FROM email_templates WHERE id = $1 AND org_id = $2`
	return scanEmailTemplate(r.db.QueryRow(ctx, query, id, orgID))
}

func (r *EmailTemplateRepository) FindDefault(ctx context.Context, orgID int64) (*template.EmailTemplate, error) {
	query := `SELECT ` + emailTemplateColumns + ` FROM email_templates WHERE org_id = $1 AND is_default = TRUE`
	return scanEmailTemplate(r.db.QueryRow(ctx, query, orgID))
}

func (r *EmailTemplateRepository) ListByOrg(ctx context.Context, orgID int64) ([]*template.EmailTemplate, error) {
	query := `SELECT ` + emailTemplateColumns + ` FROM email_templates WHERE org_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	defer rows.Close()

	var templates []*template.EmailTemplate
	for rows.Next() {
		t, err := scanEmailTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *EmailTemplateRepository) Update(ctx context.Context, t *template.EmailTemplate) error {
	query := `
		UPDATE email_templates
		SET template_name = $3, subject = $4, body_html = $5, updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.ID, t.OrgID, t.TemplateName, t.Subject, t.BodySealed,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update email template: %w", err)
	}
	return nil
}

// SetDefault mirrors the certificate-template toggle: unset-then-set in one
// transaction.
func (r *EmailTemplateRepository) SetDefault(ctx context.Context, orgID, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin set-default: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE email_templates SET is_default = FALSE, updated_at = NOW() WHERE org_id = $1 AND is_default = TRUE`,
		orgID,
	); err != nil {
		return fmt.Errorf("failed to clear previous default: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE email_templates SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND org_id = $2`,
		id, orgID,
	)
	if err != nil {
		return fmt.Errorf("failed to set default email template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return tx.Commit(ctx)
}

func (r *EmailTemplateRepository) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM email_templates WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete email template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
