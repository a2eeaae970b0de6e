// internal/domain/certificate/dto.go
package certificate

import "time"

// IssueRequest is the payload for issuing one certificate. The organization is
// always taken from the authenticated context, never from the body.
type IssueRequest struct {
	RecipientName   string     `json:"recipient_name" binding:"required"`
	RecipientEmail  string     `json:"recipient_email" binding:"required,email"`
	CourseName      string     `json:"course_name" binding:"required"`
	CertificateType string     `json:"certificate_type"`
	BatchName       string     `json:"batch_name"`
	TemplateID      int64      `json:"template_id"`
	ExpiryDate      *time.Time `json:"expiry_date"`
}

type BulkIssueRequest struct {
	Entries []IssueRequest `json:"entries" binding:"required,dive"`
}

type BulkIssueResponse struct {
	Issued       int                    `json:"issued"`
	Certificates []*CertificateResponse `json:"certificates"`
}

type CertificateResponse struct {
	ID              int64       `json:"id"`
	CertificateID   string      `json:"certificate_id"`
	RecipientName   string      `json:"recipient_name"`
	RecipientEmail  string      `json:"recipient_email"`
	CourseName      string      `json:"course_name"`
	BatchName       string      `json:"batch_name,omitempty"`
	CertificateType string      `json:"certificate_type"`
	Status          string      `json:"status"`
	IssueDate       time.Time   `json:"issue_date"`
	ExpiryDate      *time.Time  `json:"expiry_date,omitempty"`
	RenderData      *RenderData `json:"render_data,omitempty"`
}

// PublicResponse is the unauthenticated verification shape. It excludes the
// issuer's internal user id and any tenant storage keys.
type PublicResponse struct {
	CertificateID    string      `json:"certificate_id"`
	RecipientName    string      `json:"recipient_name"`
	CourseName       string      `json:"course_name"`
	CertificateType  string      `json:"certificate_type"`
	OrganizationName string      `json:"organization_name"`
	Status           string      `json:"status"`
	IssueDate        time.Time   `json:"issue_date"`
	ExpiryDate       *time.Time  `json:"expiry_date,omitempty"`
	RenderData       *RenderData `json:"render_data,omitempty"`
}

type RevokeRequest struct {
	Reason string `json:"reason"`
}

type ListFilters struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	BatchName string `form:"batch_name"`
	Search    string `form:"search"`
}

type ListResponse struct {
	Certificates []*CertificateResponse `json:"certificates"`
	Total        int64                  `json:"total"`
	Page         int                    `json:"page"`
	PageSize     int                    `json:"page_size"`
}

// ToResponse maps the entity to its API shape.
func ToResponse(c *Certificate) *CertificateResponse {
	resp := &CertificateResponse{
		ID:              c.ID,
		CertificateID:   c.CertificateID,
		RecipientName:   c.RecipientName,
		RecipientEmail:  c.RecipientEmail,
		CourseName:      c.CourseName,
		CertificateType: string(c.CertificateType),
		Status:          string(c.Status),
		IssueDate:       c.IssueDate,
		RenderData:      c.RenderData,
	}
	if c.BatchName.Valid {
		resp.BatchName = c.BatchName.String
	}
	if c.ExpiryDate.Valid {
		t := c.ExpiryDate.Time
		resp.ExpiryDate = &t
	}
	return resp
}
