// internal/service/quota/quota.go
package quota

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CertificateCounter is the live count over persisted certificates. The
// denormalized per-organization counter is never consulted here.
type CertificateCounter interface {
	CountIssuedInRange(ctx context.Context, orgID int64, from, to time.Time) (int64, error)
}

type Status struct {
	Allowed bool
	Current int
	Limit   int
}

// Service decides whether an organization may issue another certificate this
// calendar month.
//
// This is a check-then-act soft limit: the count is read fresh on every call
// and nothing is reserved, so N concurrent issuances can overshoot the limit
// by up to N-1. Acceptable for billing enforcement; not a security boundary.
type Service struct {
	counter CertificateCounter
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(counter CertificateCounter, logger *zap.Logger) *Service {
	return &Service{counter: counter, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckAndReserve compares the organization's issuance count for the current
// calendar month against limit. A limit <= 0 means unlimited.
func (s *Service) CheckAndReserve(ctx context.Context, orgID int64, limit int) (*Status, error) {
	from, to := monthWindow(s.now())

	count, err := s.counter.CountIssuedInRange(ctx, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count monthly issuance: %w", err)
	}

	status := &Status{
		Allowed: limit <= 0 || count < int64(limit),
		Current: int(count),
		Limit:   limit,
	}

	if !status.Allowed {
		s.logger.Info("monthly certificate quota reached",
			zap.Int64("org_id", orgID),
			zap.Int("limit", limit),
			zap.Int("current", status.Current),
		)
	}

	return status, nil
}

// monthWindow returns [first of month, first of next month) in UTC.
func monthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
