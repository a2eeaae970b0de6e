// internal/service/audit/audit_service.go
package audit

import (
	"context"
	"time"

	"certhub-service/internal/domain/audit"

	"go.uber.org/zap"
)

type EventStore interface {
	Append(ctx context.Context, e *audit.Event) error
	ListByOrg(ctx context.Context, orgID int64, limit int) ([]*audit.Event, error)
}

// Recorder is the best-effort audit sink. Record returns immediately; the
// append runs on its own goroutine with a fresh context so it survives the
// request ending, and failures are logged, never surfaced.
type Recorder struct {
	events EventStore
	logger *zap.Logger
}

func NewRecorder(events EventStore, logger *zap.Logger) *Recorder {
	return &Recorder{events: events, logger: logger}
}

func (r *Recorder) Record(orgID, actorID int64, action audit.Action, entityKind, entityRef string) {
	e := &audit.Event{
		OrgID:      orgID,
		ActorID:    actorID,
		Action:     action,
		EntityKind: entityKind,
		EntityRef:  entityRef,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.events.Append(ctx, e); err != nil {
			r.logger.Error("failed to append audit event",
				zap.Int64("org_id", orgID),
				zap.String("action", string(action)),
				zap.Error(err),
			)
		}
	}()
}

// ListByOrg exposes the trail to the audit-log endpoint.
func (r *Recorder) ListByOrg(ctx context.Context, orgID int64, limit int) ([]*audit.Event, error) {
	return r.events.ListByOrg(ctx, orgID, limit)
}
