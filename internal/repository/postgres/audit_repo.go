// internal/repository/postgres/audit_repo.go
package postgres

import (
	"context"
	"fmt"

	"certhub-service/internal/domain/audit"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository is the append-only audit sink. There is no update or delete.
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e *audit.Event) error {
	query := `
		INSERT INTO audit_events (org_id, actor_id, action, entity_kind, entity_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		e.OrgID, e.ActorID, e.Action, e.EntityKind, e.EntityRef,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// ListByOrg returns an organization's recent audit trail, newest first.
func (r *AuditRepository) ListByOrg(ctx context.Context, orgID int64, limit int) ([]*audit.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, org_id, actor_id, action, entity_kind, entity_ref, created_at
		FROM audit_events
		WHERE org_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.OrgID, &e.ActorID, &e.Action, &e.EntityKind, &e.EntityRef, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
