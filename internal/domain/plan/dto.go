// internal/domain/plan/dto.go
package plan

// UpdatePlanRequest is the admin payload for changing a tier's limits or
// capability matrix. Zero-value numeric fields are ignored so partial updates
// are possible; Permissions replaces the whole matrix when present.
type UpdatePlanRequest struct {
	MonthlyPrice            *float64     `json:"monthly_price,omitempty"`
	MaxCertificatesPerMonth *int         `json:"max_certificates_per_month,omitempty"`
	MaxTeamMembers          *int         `json:"max_team_members,omitempty"`
	MaxTemplates            *int         `json:"max_templates,omitempty"`
	Permissions             *Permissions `json:"permissions,omitempty"`
}

// PlanListResponse wraps the three tiers for the public pricing endpoint.
type PlanListResponse struct {
	Plans []*Plan `json:"plans"`
}
