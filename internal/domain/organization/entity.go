// internal/domain/organization/entity.go
package organization

import (
	"database/sql"
	"time"

	"certhub-service/internal/domain/plan"

	"github.com/lib/pq"
)

type AccountStatus string

const (
	StatusPending AccountStatus = "PENDING"
	StatusActive  AccountStatus = "ACTIVE"
	StatusBlocked AccountStatus = "BLOCKED"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
)

type Organization struct {
	ID     int64          `json:"id" db:"id"`
	Name   string         `json:"name" db:"name"`
	Email  string         `json:"email" db:"email"`
	Domain sql.NullString `json:"domain,omitempty" db:"domain"`

	// SubscriptionPlan is the legacy string mirror of the plan name. PlanID is
	// the owning reference. Both survive until the migration to plan_id
	// completes; only the entitlement service may read the string.
	SubscriptionPlan   string             `json:"subscription_plan" db:"subscription_plan"`
	PlanID             sql.NullInt64      `json:"plan_id,omitempty" db:"plan_id"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	PaymentStatus      string             `json:"payment_status" db:"payment_status"`
	AccountStatus      AccountStatus      `json:"account_status" db:"account_status"`

	// MonthlyCertificateLimit and CertificatesIssuedThisMonth are advisory
	// caches; the quota service always counts live from certificates.
	MonthlyCertificateLimit     int       `json:"monthly_certificate_limit" db:"monthly_certificate_limit"`
	CertificatesIssuedThisMonth int       `json:"certificates_issued_this_month" db:"certificates_issued_this_month"`
	LastResetDate               time.Time `json:"last_reset_date" db:"last_reset_date"`

	Logo                sql.NullString `json:"logo,omitempty" db:"logo"`
	CertificatePrefixes pq.StringArray `json:"certificate_prefixes" db:"certificate_prefixes"`
	Website             sql.NullString `json:"website,omitempty" db:"website"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Plan is populated by repositories that join the plans table. Nil when
	// plan_id is unset or the row was read without the join.
	Plan *plan.Plan `json:"plan,omitempty" db:"-"`
}

// IsActive reports whether the organization may issue certificates or mutate
// templates.
func (o *Organization) IsActive() bool {
	return o.AccountStatus == StatusActive
}

// LogoURL returns the branding asset reference or "".
func (o *Organization) LogoURL() string {
	if o.Logo.Valid {
		return o.Logo.String
	}
	return ""
}
