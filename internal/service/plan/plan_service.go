// internal/service/plan/plan_service.go
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix = "plan:"
	cacheTTL       = 10 * time.Minute
)

type PlanStore interface {
	Create(ctx context.Context, p *plan.Plan) error
	FindByID(ctx context.Context, id int64) (*plan.Plan, error)
	FindByName(ctx context.Context, name plan.Name) (*plan.Plan, error)
	List(ctx context.Context) ([]*plan.Plan, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, p *plan.Plan) error
}

// PlanService is the registry for the three subscription tiers. Reads go
// through a redis cache keyed by tier name; admin updates invalidate it.
type PlanService struct {
	plans  PlanStore
	redis  *redis.Client
	logger *zap.Logger
}

func NewPlanService(plans PlanStore, redisClient *redis.Client, logger *zap.Logger) *PlanService {
	return &PlanService{plans: plans, redis: redisClient, logger: logger}
}

// SeedIfEmpty writes the default tier definitions when the plans table has no
// rows. Safe to run on every startup.
func (s *PlanService) SeedIfEmpty(ctx context.Context) error {
	count, err := s.plans.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range []plan.Name{plan.Free, plan.Pro, plan.Enterprise} {
		if err := s.plans.Create(ctx, plan.Defaults(name)); err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", name, err)
		}
	}

	s.logger.Info("seeded default subscription plans")
	return nil
}

// GetByName returns one tier, served from cache when possible. Cache misses
// and redis failures fall through to the database.
func (s *PlanService) GetByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	key := cacheKeyPrefix + string(name)

	if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
		var p plan.Plan
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p, nil
		}
		s.redis.Del(ctx, key)
	}

	p, err := s.plans.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := s.redis.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			s.logger.Warn("failed to cache plan", zap.String("plan", string(name)), zap.Error(err))
		}
	}
	return p, nil
}

// FindByName satisfies the entitlement service's PlanFinder.
func (s *PlanService) FindByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	return s.GetByName(ctx, name)
}

// List returns all tiers, uncached. The pricing page hits this rarely enough
// that three rows straight from postgres is fine.
func (s *PlanService) List(ctx context.Context) (*plan.PlanListResponse, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}
	return &plan.PlanListResponse{Plans: plans}, nil
}

// Update applies a partial admin update to one tier and drops its cache
// entry. Tier names themselves are fixed.
func (s *PlanService) Update(ctx context.Context, name plan.Name, req *plan.UpdatePlanRequest) (*plan.Plan, error) {
	p, err := s.plans.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if req.MonthlyPrice != nil {
		if *req.MonthlyPrice < 0 {
			return nil, fmt.Errorf("monthly price cannot be negative: %w", xerrors.ErrInvalidInput)
		}
		p.MonthlyPrice = *req.MonthlyPrice
	}
	if req.MaxCertificatesPerMonth != nil {
		p.MaxCertificatesPerMonth = *req.MaxCertificatesPerMonth
	}
	if req.MaxTeamMembers != nil {
		p.MaxTeamMembers = *req.MaxTeamMembers
	}
	if req.MaxTemplates != nil {
		p.MaxTemplates = *req.MaxTemplates
	}
	if req.Permissions != nil {
		p.Permissions = req.Permissions
	}

	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}

	if err := s.redis.Del(ctx, cacheKeyPrefix+string(name)).Err(); err != nil {
		s.logger.Warn("failed to invalidate plan cache", zap.String("plan", string(name)), zap.Error(err))
	}

	return p, nil
}
