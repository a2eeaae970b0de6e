// internal/domain/template/entity.go
package template

import (
	"database/sql"
	"time"

	"certhub-service/internal/pkg/sealed"
)

// Canonical A4 dimension pairs in millimetres. Any other canvas size requires
// the size-control editor capability.
const (
	A4LongMM  = 297.0
	A4ShortMM = 210.0

	DefaultBackgroundColor = "#ffffff"

	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
)

// CertificateTemplate is a tenant-owned canvas definition. The element list is
// stored encrypted in CanvasSealed; it is only ever exposed after an explicit
// decrypt step and never in bulk list responses.
type CertificateTemplate struct {
	ID           int64  `json:"id" db:"id"`
	OrgID        int64  `json:"org_id" db:"org_id"`
	TemplateName string `json:"template_name" db:"template_name"`

	CanvasSealed sealed.Sealed `json:"-" db:"canvas_json"`

	IsDefault   bool    `json:"is_default" db:"is_default"`
	Width       float64 `json:"width" db:"width"`
	Height      float64 `json:"height" db:"height"`
	Unit        string  `json:"unit" db:"unit"`
	Orientation string  `json:"orientation" db:"orientation"`

	BackgroundColor string         `json:"background_color" db:"background_color"`
	BackgroundImage sql.NullString `json:"background_image,omitempty" db:"background_image"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsCanonicalA4 reports whether the canvas matches one of the two allowed A4
// dimension pairs.
func (t *CertificateTemplate) IsCanonicalA4() bool {
	return IsCanonicalA4(t.Width, t.Height)
}

func IsCanonicalA4(width, height float64) bool {
	return (width == A4LongMM && height == A4ShortMM) ||
		(width == A4ShortMM && height == A4LongMM)
}

// EmailTemplate is the tenant-owned notification HTML template, encrypted at
// rest like the certificate canvas and gated by the email-templates capability.
type EmailTemplate struct {
	ID           int64  `json:"id" db:"id"`
	OrgID        int64  `json:"org_id" db:"org_id"`
	TemplateName string `json:"template_name" db:"template_name"`
	Subject      string `json:"subject" db:"subject"`

	BodySealed sealed.Sealed `json:"-" db:"body_html"`

	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
