// internal/domain/audit/entity.go
package audit

import "time"

type Action string

const (
	ActionCertificateIssued  Action = "certificate.issued"
	ActionCertificateBulk    Action = "certificate.bulk_issued"
	ActionCertificateRevoked Action = "certificate.revoked"
	ActionTemplateCreated    Action = "template.created"
	ActionTemplateUpdated    Action = "template.updated"
	ActionTemplateDeleted    Action = "template.deleted"
	ActionTemplateDefaultSet Action = "template.default_set"
)

// Event is one append-only audit record. Events are emitted best-effort; a
// failed append is logged and never blocks the operation that produced it.
type Event struct {
	ID         int64     `json:"id" db:"id"`
	OrgID      int64     `json:"org_id" db:"org_id"`
	ActorID    int64     `json:"actor_id" db:"actor_id"`
	Action     Action    `json:"action" db:"action"`
	EntityKind string    `json:"entity_kind" db:"entity_kind"`
	EntityRef  string    `json:"entity_ref" db:"entity_ref"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
