// internal/service/entitlement/entitlement_test.go
package entitlement

import (
	"context"
	"testing"

	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPlanFinder struct {
	plans map[plan.Name]*plan.Plan
}

func (s *stubPlanFinder) FindByName(_ context.Context, name plan.Name) (*plan.Plan, error) {
	if p, ok := s.plans[name]; ok {
		return p, nil
	}
	return nil, xerrors.ErrNotFound
}

func newService(plans ...*plan.Plan) *Service {
	finder := &stubPlanFinder{plans: map[plan.Name]*plan.Plan{}}
	for _, p := range plans {
		finder.plans[p.Name] = p
	}
	return NewService(finder, zap.NewNop())
}

func TestEffectiveCapabilitiesFreeMatrix(t *testing.T) {
	svc := newService(plan.Defaults(plan.Free))

	org := &organization.Organization{ID: 1, SubscriptionPlan: "FREE"}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.Equal(t, "FREE", caps.PlanName)
	assert.True(t, caps.IsFree())
	assert.Equal(t, 10, caps.MaxCertificatesPerMonth)
	assert.False(t, caps.CustomTemplates)
	assert.False(t, caps.BulkIssuance)
	assert.True(t, caps.EditorTools.TextEditing)
	assert.False(t, caps.EditorTools.QRCode)
}

func TestEffectiveCapabilitiesUsesJoinedPlan(t *testing.T) {
	svc := newService()

	org := &organization.Organization{
		ID:               2,
		SubscriptionPlan: "PRO",
		Plan:             plan.Defaults(plan.Pro),
	}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.Equal(t, "PRO", caps.PlanName)
	assert.Equal(t, 500, caps.MaxCertificatesPerMonth)
	assert.True(t, caps.CustomTemplates)
	assert.True(t, caps.BulkIssuance)
	assert.True(t, caps.EditorTools.QRCode)
}

func TestLegacyStringResolvesPlanRow(t *testing.T) {
	svc := newService(plan.Defaults(plan.Pro))

	org := &organization.Organization{ID: 3, SubscriptionPlan: "PRO_PLAN"}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.Equal(t, "PRO", caps.PlanName)
	assert.Equal(t, 500, caps.MaxCertificatesPerMonth)
	assert.True(t, caps.CustomTemplates)
}

func TestLegacyProFallbackWithoutPlanRow(t *testing.T) {
	// No plan rows at all: the legacy string alone must still grant paid
	// access with the generous fallback limit.
	svc := newService()

	org := &organization.Organization{ID: 4, SubscriptionPlan: "ENTERPRISE_PLAN"}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.Equal(t, "ENTERPRISE", caps.PlanName)
	assert.Equal(t, 100000, caps.MaxCertificatesPerMonth)
	assert.True(t, caps.CustomTemplates)
	assert.True(t, caps.BulkIssuance)
	assert.True(t, caps.EmailTemplates)
	assert.True(t, caps.EditorTools.Shapes)
}

func TestUnknownPlanStringFallsBackConservative(t *testing.T) {
	svc := newService()

	org := &organization.Organization{ID: 5, SubscriptionPlan: "LEGACY_TRIAL"}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.Equal(t, "FREE", caps.PlanName)
	assert.Equal(t, 10, caps.MaxCertificatesPerMonth)
	assert.False(t, caps.CustomTemplates)
	assert.True(t, caps.EditorTools.TextEditing)
}

func TestLegacyOverlayWidensOnly(t *testing.T) {
	// A PRO-string tenant joined to a FREE plan row keeps paid features: the
	// overlay may widen the matrix but never narrow it.
	svc := newService()

	org := &organization.Organization{
		ID:               6,
		SubscriptionPlan: "PRO",
		Plan:             plan.Defaults(plan.Free),
	}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.True(t, caps.CustomTemplates)
	assert.True(t, caps.BulkIssuance)
	assert.True(t, caps.EditorTools.QRCode)
}

func TestOverlayDoesNotNarrowEnterpriseMatrix(t *testing.T) {
	svc := newService()

	org := &organization.Organization{
		ID:               7,
		SubscriptionPlan: "PRO",
		Plan:             plan.Defaults(plan.Enterprise),
	}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	// Matrix-only grants survive the overlay untouched.
	assert.True(t, caps.APIAccess)
	assert.True(t, caps.AuditLogs)
	assert.True(t, caps.WhiteLabeling)
	assert.Equal(t, "ENTERPRISE", caps.PlanName)
}

func TestMissingMatrixKeepsTextEditing(t *testing.T) {
	svc := newService()

	org := &organization.Organization{
		ID:               8,
		SubscriptionPlan: "FREE",
		Plan:             &plan.Plan{Name: plan.Free, MaxCertificatesPerMonth: 10},
	}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	require.NotNil(t, caps)
	assert.True(t, caps.EditorTools.TextEditing)
	assert.False(t, caps.EditorTools.Shapes)
}

func TestMatrixCanDisableTextEditing(t *testing.T) {
	p := plan.Defaults(plan.Free)
	p.Permissions.EditorTools.TextEditing = false

	svc := newService()
	org := &organization.Organization{ID: 9, SubscriptionPlan: "FREE", Plan: p}
	caps := svc.EffectiveCapabilities(context.Background(), org)

	assert.False(t, caps.EditorTools.TextEditing)
}
