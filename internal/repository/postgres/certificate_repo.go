// internal/repository/postgres/certificate_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"certhub-service/internal/domain/certificate"
	xerrors "certhub-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CertificateRepository persists issued certificates. Every tenant-facing
// method takes the owning orgID as a mandatory parameter and includes it in
// the WHERE clause; the only unscoped lookup is FindByCertificateID, which
// serves the public verification path and resolves exclusively by the
// globally-unique external identifier.
type CertificateRepository struct {
	db *pgxpool.Pool
}

func NewCertificateRepository(db *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certColumns = `
	id, org_id, certificate_id, issued_by, recipient_name, recipient_email,
	course_name, batch_name, issue_date, expiry_date, status, certificate_type,
	render_data, revoked_at, revocation_reason, created_at, updated_at`

func scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var c certificate.Certificate
	var renderJSON []byte

	err := row.Scan(
		&c.ID, &c.OrgID, &c.CertificateID, &c.IssuedBy, &c.RecipientName, &c.RecipientEmail,
		&c.CourseName, &c.BatchName, &c.IssueDate, &c.ExpiryDate, &c.Status, &c.CertificateType,
		&renderJSON, &c.RevokedAt, &c.RevocationReason, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}

	if len(renderJSON) > 0 {
		var rd certificate.RenderData
		if err := json.Unmarshal(renderJSON, &rd); err != nil {
			return nil, fmt.Errorf("failed to unmarshal render data: %w", err)
		}
		c.RenderData = &rd
	}

	return &c, nil
}

// Create inserts one certificate. The unique index on certificate_id is the
// final backstop against external-id collisions.
func (r *CertificateRepository) Create(ctx context.Context, c *certificate.Certificate) error {
	query := `
		INSERT INTO certificates (
			org_id, certificate_id, issued_by, recipient_name, recipient_email,
			course_name, batch_name, issue_date, expiry_date, status, certificate_type, render_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	renderJSON, err := json.Marshal(c.RenderData)
	if err != nil {
		return fmt.Errorf("failed to marshal render data: %w", err)
	}

	err = r.db.QueryRow(ctx, query,
		c.OrgID, c.CertificateID, c.IssuedBy, c.RecipientName, c.RecipientEmail,
		c.CourseName, c.BatchName, c.IssueDate, c.ExpiryDate, c.Status, c.CertificateType, renderJSON,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	return nil
}

// CreateBatch inserts all certificates inside one transaction. The whole
// batch commits or none of it does.
func (r *CertificateRepository) CreateBatch(ctx context.Context, certs []*certificate.Certificate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO certificates (
			org_id, certificate_id, issued_by, recipient_name, recipient_email,
			course_name, batch_name, issue_date, expiry_date, status, certificate_type, render_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	for _, c := range certs {
		renderJSON, err := json.Marshal(c.RenderData)
		if err != nil {
			return fmt.Errorf("failed to marshal render data: %w", err)
		}
		err = tx.QueryRow(ctx, query,
			c.OrgID, c.CertificateID, c.IssuedBy, c.RecipientName, c.RecipientEmail,
			c.CourseName, c.BatchName, c.IssueDate, c.ExpiryDate, c.Status, c.CertificateType, renderJSON,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return xerrors.ErrConflict
			}
			return fmt.Errorf("failed to insert certificate in batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// FindByID retrieves a certificate scoped to its organization.
func (r *CertificateRepository) FindByID(ctx context.Context, orgID, id int64) (*certificate.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE id = $1 AND org_id = $2`
	return scanCertificate(r.db.QueryRow(ctx, query, id, orgID))
}

// FindByCertificateID resolves by the external identifier only. Serves the
// unauthenticated verification read; never exposed for internal-key lookup.
func (r *CertificateRepository) FindByCertificateID(ctx context.Context, certificateID string) (*certificate.Certificate, error) {
	query := `SELECT ` + certColumns + ` FROM certificates WHERE certificate_id = $1`
	return scanCertificate(r.db.QueryRow(ctx, query, certificateID))
}

// CountIssuedInRange counts certificates issued by an organization within
// [from, to). This is the authoritative quota input; the denormalized
// organization counter is advisory only.
func (r *CertificateRepository) CountIssuedInRange(ctx context.Context, orgID int64, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM certificates WHERE org_id = $1 AND issue_date >= $2 AND issue_date < $3`,
		orgID, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issued certificates: %w", err)
	}
	return count, nil
}

// List returns an organization's certificates with filters and pagination.
func (r *CertificateRepository) List(ctx context.Context, orgID int64, filters *certificate.ListFilters) ([]*certificate.Certificate, int64, error) {
	where := []string{"org_id = $1"}
	args := []interface{}{orgID}

	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.BatchName != "" {
		args = append(args, filters.BatchName)
		where = append(where, fmt.Sprintf("batch_name = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where = append(where, fmt.Sprintf("(recipient_name ILIKE $%d OR course_name ILIKE $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM certificates WHERE ` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count certificates: %w", err)
	}

	offset := (filters.Page - 1) * filters.PageSize
	args = append(args, filters.PageSize, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM certificates WHERE %s ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		certColumns, whereClause, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*certificate.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, 0, err
		}
		certs = append(certs, c)
	}

	return certs, total, rows.Err()
}

// Revoke transitions ACTIVE -> REVOKED. Revocation is terminal.
func (r *CertificateRepository) Revoke(ctx context.Context, orgID, id int64, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE certificates
		SET status = $3, revoked_at = NOW(), revocation_reason = $4, updated_at = NOW()
		WHERE id = $1 AND org_id = $2 AND status = $5
	`, id, orgID, certificate.StatusRevoked, reason, certificate.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to revoke certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ExpireDue transitions every overdue ACTIVE certificate to EXPIRED and
// returns how many rows changed. Run by the periodic sweep, not per-tenant.
func (r *CertificateRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE certificates
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expiry_date IS NOT NULL AND expiry_date < $3
	`, certificate.StatusExpired, certificate.StatusActive, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire certificates: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes a certificate. Administrative action only.
func (r *CertificateRepository) Delete(ctx context.Context, orgID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM certificates WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
