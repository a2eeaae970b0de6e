// internal/service/entitlement/entitlement.go
package entitlement

import (
	"context"
	"strings"

	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"

	"go.uber.org/zap"
)

// Hardcoded limit fallbacks for organizations whose plan row carries no
// permission matrix. Legacy string-matched PRO/ENTERPRISE tenants get the
// generous value; everyone else gets the restrictive one.
const (
	fallbackLimitDefault = 10
	fallbackLimitPro     = 100000
)

// legacyProPlans are the subscription_plan string literals that predate the
// plan_id migration and imply a paid tier.
var legacyProPlans = map[string]bool{
	"PRO":             true,
	"ENTERPRISE":      true,
	"PRO_PLAN":        true,
	"ENTERPRISE_PLAN": true,
}

// Capabilities is the effective feature set of an organization after merging
// the plan's capability matrix with the legacy plan-string overlay.
type Capabilities struct {
	PlanName                string
	MaxCertificatesPerMonth int
	MaxTeamMembers          int
	MaxTemplates            int

	CustomTemplates   bool
	BulkIssuance      bool
	EmailTemplates    bool
	Analytics         bool
	APIAccess         bool
	CustomBackgrounds bool
	Teams             bool
	AuditLogs         bool
	WhiteLabeling     bool

	EditorTools plan.EditorTools
}

// IsFree reports whether the effective tier is FREE.
func (c *Capabilities) IsFree() bool {
	return c.PlanName == string(plan.Free)
}

// PlanFinder resolves plan rows for organizations that carry only the legacy
// subscription-plan string.
type PlanFinder interface {
	FindByName(ctx context.Context, name plan.Name) (*plan.Plan, error)
}

// Service computes effective capabilities. It is a pure read/compute
// component; it performs no writes and produces no user-facing text.
type Service struct {
	plans  PlanFinder
	logger *zap.Logger
}

func NewService(plans PlanFinder, logger *zap.Logger) *Service {
	return &Service{plans: plans, logger: logger}
}

// EffectiveCapabilities resolves the capability set for an organization.
//
// Resolution order: the plan capability matrix is the base; the legacy
// subscription_plan string overlays it and may only widen, never narrow, so
// tenants not yet migrated to plan_id keep the access they had. When no
// matrix can be found at all the result falls back to conservative defaults,
// except for legacy paid strings which keep the generous fallback limit.
func (s *Service) EffectiveCapabilities(ctx context.Context, org *organization.Organization) *Capabilities {
	legacyName := normalizeLegacyName(org.SubscriptionPlan)
	legacyPro := legacyProPlans[strings.ToUpper(strings.TrimSpace(org.SubscriptionPlan))]

	p := org.Plan
	if p == nil && legacyName.Valid() {
		found, err := s.plans.FindByName(ctx, legacyName)
		if err != nil {
			s.logger.Warn("plan lookup by legacy string failed, using fallback capabilities",
				zap.Int64("org_id", org.ID),
				zap.String("subscription_plan", org.SubscriptionPlan),
				zap.Error(err),
			)
		} else {
			p = found
		}
	}

	if p != nil && legacyName.Valid() && p.Name != legacyName {
		s.logger.Warn("subscription_plan string diverges from plan_id tier",
			zap.Int64("org_id", org.ID),
			zap.String("subscription_plan", org.SubscriptionPlan),
			zap.String("plan_name", string(p.Name)),
		)
	}

	// Text editing starts enabled: a text element is only rejected when a
	// plan matrix explicitly disables it.
	caps := &Capabilities{
		PlanName:    string(plan.Free),
		EditorTools: plan.EditorTools{TextEditing: true},
	}

	if p != nil {
		caps.PlanName = string(p.Name)
		caps.MaxTeamMembers = p.MaxTeamMembers
		caps.MaxTemplates = p.MaxTemplates
		if p.Permissions != nil {
			applyMatrix(caps, p.Permissions)
		} else {
			s.logger.Warn("plan has no permission matrix, using limit fallback",
				zap.Int64("org_id", org.ID),
				zap.String("plan_name", string(p.Name)),
			)
		}
		caps.MaxCertificatesPerMonth = p.MaxCertificatesPerMonth
	}

	if caps.MaxCertificatesPerMonth <= 0 {
		if legacyPro {
			caps.MaxCertificatesPerMonth = fallbackLimitPro
		} else {
			caps.MaxCertificatesPerMonth = fallbackLimitDefault
		}
	}

	// The legacy overlay widens only.
	if legacyPro {
		if caps.PlanName == string(plan.Free) {
			caps.PlanName = string(legacyName)
		}
		caps.CustomTemplates = true
		caps.BulkIssuance = true
		caps.EmailTemplates = true
		caps.CustomBackgrounds = true
		caps.EditorTools = allEditorTools()
	}

	return caps
}

func applyMatrix(caps *Capabilities, m *plan.Permissions) {
	caps.CustomTemplates = m.CustomTemplates
	caps.BulkIssuance = m.BulkIssuance
	caps.EmailTemplates = m.EmailTemplates
	caps.Analytics = m.Analytics
	caps.APIAccess = m.APIAccess
	caps.CustomBackgrounds = m.CustomBackgrounds
	caps.Teams = m.Teams
	caps.AuditLogs = m.AuditLogs
	caps.WhiteLabeling = m.WhiteLabeling
	caps.EditorTools = m.EditorTools
}

func allEditorTools() plan.EditorTools {
	return plan.EditorTools{
		TextEditing:        true,
		FontStyle:          true,
		FontSize:           true,
		FontColor:          true,
		Shapes:             true,
		BackgroundImage:    true,
		BackgroundColor:    true,
		LogoUpload:         true,
		SignatureUpload:    true,
		SizeControl:        true,
		OrientationControl: true,
		QRCode:             true,
	}
}

// normalizeLegacyName maps legacy plan strings onto tier names.
func normalizeLegacyName(s string) plan.Name {
	upper := strings.ToUpper(strings.TrimSpace(s))
	upper = strings.TrimSuffix(upper, "_PLAN")
	return plan.Name(upper)
}
