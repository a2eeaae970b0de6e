// internal/domain/certificate/entity.go
package certificate

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
	StatusExpired Status = "EXPIRED"
)

type Type string

const (
	TypeCompletion    Type = "Completion"
	TypeParticipation Type = "Participation"
	TypeAchievement   Type = "Achievement"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCompletion, TypeParticipation, TypeAchievement:
		return true
	}
	return false
}

// RenderData is the fully resolved, placeholder-free layout snapshot persisted
// on an issued certificate. It is captured at issuance time and never
// recomputed, so later template edits cannot alter issued certificates.
type RenderData struct {
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	Unit            string   `json:"unit"`
	Orientation     string   `json:"orientation"`
	BackgroundColor string   `json:"background_color"`
	BackgroundImage string   `json:"background_image,omitempty"`
	Elements        Elements `json:"elements"`
}

// Clone deep-copies the render data.
func (r *RenderData) Clone() *RenderData {
	if r == nil {
		return nil
	}
	c := *r
	c.Elements = r.Elements.Clone()
	return &c
}

type Certificate struct {
	ID    int64 `json:"id" db:"id"`
	OrgID int64 `json:"org_id" db:"org_id"`

	// CertificateID is the globally unique externally-facing identifier used by
	// the public verification path. Independent of the storage key.
	CertificateID string `json:"certificate_id" db:"certificate_id"`

	IssuedBy       int64          `json:"issued_by" db:"issued_by"`
	RecipientName  string         `json:"recipient_name" db:"recipient_name"`
	RecipientEmail string         `json:"recipient_email" db:"recipient_email"`
	CourseName     string         `json:"course_name" db:"course_name"`
	BatchName      sql.NullString `json:"batch_name,omitempty" db:"batch_name"`

	IssueDate  time.Time    `json:"issue_date" db:"issue_date"`
	ExpiryDate sql.NullTime `json:"expiry_date,omitempty" db:"expiry_date"`

	Status          Status      `json:"status" db:"status"`
	CertificateType Type        `json:"certificate_type" db:"certificate_type"`
	RenderData      *RenderData `json:"render_data,omitempty" db:"render_data"`

	RevokedAt        sql.NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
	RevocationReason sql.NullString `json:"revocation_reason,omitempty" db:"revocation_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanTransitionTo enforces the forward-only status lifecycle.
func (c *Certificate) CanTransitionTo(next Status) bool {
	if c.Status != StatusActive {
		return false
	}
	return next == StatusRevoked || next == StatusExpired
}
