// internal/domain/plan/entity.go
package plan

import (
	"time"
)

type Name string

const (
	Free       Name = "FREE"
	Pro        Name = "PRO"
	Enterprise Name = "ENTERPRISE"
)

// Names is the closed set of tiers, in ascending order.
var Names = []Name{Free, Pro, Enterprise}

func (n Name) Valid() bool {
	switch n {
	case Free, Pro, Enterprise:
		return true
	}
	return false
}

// EditorTools are the per-tool flags of the template editor.
type EditorTools struct {
	TextEditing        bool `json:"text_editing"`
	FontStyle          bool `json:"font_style"`
	FontSize           bool `json:"font_size"`
	FontColor          bool `json:"font_color"`
	Shapes             bool `json:"shapes"`
	BackgroundImage    bool `json:"background_image"`
	BackgroundColor    bool `json:"background_color"`
	LogoUpload         bool `json:"logo_upload"`
	SignatureUpload    bool `json:"signature_upload"`
	SizeControl        bool `json:"size_control"`
	OrientationControl bool `json:"orientation_control"`
	QRCode             bool `json:"qr_code"`
}

// Permissions is the capability matrix of a plan. Stored as a JSONB column.
type Permissions struct {
	CustomTemplates   bool        `json:"custom_templates"`
	BulkIssuance      bool        `json:"bulk_issuance"`
	EmailTemplates    bool        `json:"email_templates"`
	Analytics         bool        `json:"analytics"`
	APIAccess         bool        `json:"api_access"`
	CustomBackgrounds bool        `json:"custom_backgrounds"`
	Teams             bool        `json:"teams"`
	AuditLogs         bool        `json:"audit_logs"`
	WhiteLabeling     bool        `json:"white_labeling"`
	EditorTools       EditorTools `json:"editor_tools"`
}

type Plan struct {
	ID                      int64        `json:"id" db:"id"`
	Name                    Name         `json:"name" db:"name"`
	MonthlyPrice            float64      `json:"monthly_price" db:"monthly_price"`
	MaxCertificatesPerMonth int          `json:"max_certificates_per_month" db:"max_certificates_per_month"`
	MaxTeamMembers          int          `json:"max_team_members" db:"max_team_members"`
	MaxTemplates            int          `json:"max_templates" db:"max_templates"`
	Permissions             *Permissions `json:"permissions,omitempty" db:"permissions"`
	CreatedAt               time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at" db:"updated_at"`
}

// Defaults returns the seeded definition for a tier. The registry writes these
// once when the plans table is empty.
func Defaults(name Name) *Plan {
	switch name {
	case Pro:
		return &Plan{
			Name:                    Pro,
			MonthlyPrice:            29,
			MaxCertificatesPerMonth: 500,
			MaxTeamMembers:          10,
			MaxTemplates:            25,
			Permissions: &Permissions{
				CustomTemplates:   true,
				BulkIssuance:      true,
				EmailTemplates:    true,
				Analytics:         true,
				CustomBackgrounds: true,
				Teams:             true,
				EditorTools: EditorTools{
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
				},
			},
		}
	case Enterprise:
		p := Defaults(Pro)
		p.Name = Enterprise
		p.MonthlyPrice = 99
		p.MaxCertificatesPerMonth = 100000
		p.MaxTeamMembers = 100
		p.MaxTemplates = 200
		p.Permissions.APIAccess = true
		p.Permissions.AuditLogs = true
		p.Permissions.WhiteLabeling = true
		return p
	default:
		return &Plan{
			Name:                    Free,
			MonthlyPrice:            0,
			MaxCertificatesPerMonth: 10,
			MaxTeamMembers:          1,
			MaxTemplates:            2,
			Permissions: &Permissions{
				EditorTools: EditorTools{
					TextEditing: true,
				},
			},
		}
	}
}
