// internal/domain/template/dto.go
package template

import (
	"time"

	"certhub-service/internal/domain/certificate"
)

// SaveTemplateRequest covers both create and update so the capability
// validation gate is applied identically to each.
type SaveTemplateRequest struct {
	TemplateName    string               `json:"template_name" binding:"required"`
	Elements        certificate.Elements `json:"elements"`
	Width           float64              `json:"width"`
	Height          float64              `json:"height"`
	Unit            string               `json:"unit"`
	Orientation     string               `json:"orientation"`
	BackgroundColor string               `json:"background_color"`
	BackgroundImage string               `json:"background_image"`
	IsDefault       bool                 `json:"is_default"`
}

// TemplateResponse is the single-template shape, element tree included. List
// responses use TemplateSummary instead; canvas content is never bulk-exposed.
type TemplateResponse struct {
	ID              int64                `json:"id"`
	TemplateName    string               `json:"template_name"`
	Elements        certificate.Elements `json:"elements"`
	Width           float64              `json:"width"`
	Height          float64              `json:"height"`
	Unit            string               `json:"unit"`
	Orientation     string               `json:"orientation"`
	BackgroundColor string               `json:"background_color"`
	BackgroundImage string               `json:"background_image,omitempty"`
	IsDefault       bool                 `json:"is_default"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type TemplateSummary struct {
	ID           int64     `json:"id"`
	TemplateName string    `json:"template_name"`
	IsDefault    bool      `json:"is_default"`
	Orientation  string    `json:"orientation"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListResponse struct {
	Templates []*TemplateSummary `json:"templates"`
}

// ToSummary maps an entity to its list shape without touching the sealed canvas.
func ToSummary(t *CertificateTemplate) *TemplateSummary {
	return &TemplateSummary{
		ID:           t.ID,
		TemplateName: t.TemplateName,
		IsDefault:    t.IsDefault,
		Orientation:  t.Orientation,
		UpdatedAt:    t.UpdatedAt,
	}
}

type SaveEmailTemplateRequest struct {
	TemplateName string `json:"template_name" binding:"required"`
	Subject      string `json:"subject" binding:"required"`
	BodyHTML     string `json:"body_html" binding:"required"`
	IsDefault    bool   `json:"is_default"`
}

type EmailTemplateResponse struct {
	ID           int64     `json:"id"`
	TemplateName string    `json:"template_name"`
	Subject      string    `json:"subject"`
	BodyHTML     string    `json:"body_html,omitempty"`
	IsDefault    bool      `json:"is_default"`
	UpdatedAt    time.Time `json:"updated_at"`
}
