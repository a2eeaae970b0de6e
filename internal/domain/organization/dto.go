// internal/domain/organization/dto.go
package organization

type UpdateProfileRequest struct {
	Name                string   `json:"name"`
	Domain              string   `json:"domain"`
	Website             string   `json:"website"`
	Logo                string   `json:"logo"`
	CertificatePrefixes []string `json:"certificate_prefixes"`
}

type ProfileResponse struct {
	ID                          int64    `json:"id"`
	Name                        string   `json:"name"`
	Email                       string   `json:"email"`
	Domain                      string   `json:"domain,omitempty"`
	Website                     string   `json:"website,omitempty"`
	Logo                        string   `json:"logo,omitempty"`
	SubscriptionPlan            string   `json:"subscription_plan"`
	SubscriptionStatus          string   `json:"subscription_status"`
	AccountStatus               string   `json:"account_status"`
	MonthlyCertificateLimit     int      `json:"monthly_certificate_limit"`
	CertificatesIssuedThisMonth int      `json:"certificates_issued_this_month"`
	CertificatePrefixes         []string `json:"certificate_prefixes"`
}

// ToProfileResponse maps the entity to its API shape.
func ToProfileResponse(o *Organization) *ProfileResponse {
	resp := &ProfileResponse{
		ID:                          o.ID,
		Name:                        o.Name,
		Email:                       o.Email,
		SubscriptionPlan:            o.SubscriptionPlan,
		SubscriptionStatus:          string(o.SubscriptionStatus),
		AccountStatus:               string(o.AccountStatus),
		MonthlyCertificateLimit:     o.MonthlyCertificateLimit,
		CertificatesIssuedThisMonth: o.CertificatesIssuedThisMonth,
		CertificatePrefixes:         o.CertificatePrefixes,
	}
	if o.Domain.Valid {
		resp.Domain = o.Domain.String
	}
	if o.Website.Valid {
		resp.Website = o.Website.String
	}
	if o.Logo.Valid {
		resp.Logo = o.Logo.String
	}
	return resp
}
