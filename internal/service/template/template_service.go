// internal/service/template/template_service.go
package template

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"certhub-service/internal/domain/audit"
	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/template"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/pkg/sealed"
	"certhub-service/internal/service/entitlement"

	"go.uber.org/zap"
)

type TemplateStore interface {
	Create(ctx context.Context, t *template.CertificateTemplate) error
	FindByID(ctx context.Context, orgID, id int64) (*template.CertificateTemplate, error)
	FindDefault(ctx context.Context, orgID int64) (*template.CertificateTemplate, error)
	ListByOrg(ctx context.Context, orgID int64) ([]*template.CertificateTemplate, error)
	CountByOrg(ctx context.Context, orgID int64) (int64, error)
	Update(ctx context.Context, t *template.CertificateTemplate) error
	SetDefault(ctx context.Context, orgID, id int64) error
	Delete(ctx context.Context, orgID, id int64) error
}

type EmailTemplateStore interface {
	Create(ctx context.Context, t *template.EmailTemplate) error
	FindByID(ctx context.Context, orgID, id int64) (*template.EmailTemplate, error)
	ListByOrg(ctx context.Context, orgID int64) ([]*template.EmailTemplate, error)
	Update(ctx context.Context, t *template.EmailTemplate) error
	SetDefault(ctx context.Context, orgID, id int64) error
	Delete(ctx context.Context, orgID, id int64) error
}

type OrgFinder interface {
	FindByID(ctx context.Context, id int64) (*organization.Organization, error)
}

// AuditRecorder is the best-effort audit sink.
type AuditRecorder interface {
	Record(orgID, actorID int64, action audit.Action, entityKind, entityRef string)
}

type TemplateService struct {
	templates  TemplateStore
	emails     EmailTemplateStore
	orgs       OrgFinder
	ent        *entitlement.Service
	cipher     *sealed.Cipher
	recorder   AuditRecorder
	logger     *zap.Logger
}

func NewTemplateService(
	templates TemplateStore,
	emails EmailTemplateStore,
	orgs OrgFinder,
	ent *entitlement.Service,
	cipher *sealed.Cipher,
	recorder AuditRecorder,
	logger *zap.Logger,
) *TemplateService {
	return &TemplateService{
		templates: templates,
		emails:    emails,
		orgs:      orgs,
		ent:       ent,
		cipher:    cipher,
		recorder:  recorder,
		logger:    logger,
	}
}

// Resolve selects and decodes the layout used for an issuance. A custom
// template is used only when one was requested and the organization's plan
// grants custom templates; everything else falls back to the builtin layout,
// with a watermark appended on the FREE tier.
//
// The lookup is strictly scoped to the organization. A template id that
// exists under another tenant resolves to ErrNotFound, indistinguishable
// from a missing id.
func (s *TemplateService) Resolve(
	ctx context.Context,
	org *organization.Organization,
	requestedID int64,
	certType certificate.Type,
	caps *entitlement.Capabilities,
) (*certificate.RenderData, error) {
	if requestedID == 0 || !caps.CustomTemplates || caps.IsFree() {
		tree := BuiltinTree(certType)
		if caps.IsFree() {
			tree.Elements = append(tree.Elements, watermarkElement())
		}
		return tree, nil
	}

	t, err := s.templates.FindByID(ctx, org.ID, requestedID)
	if err != nil {
		return nil, err
	}

	return s.decodeTree(t), nil
}

// decodeTree opens a template's sealed canvas. Decryption or parse failures
// degrade to an empty element list: one corrupt template must not take the
// tenant's read paths down with it.
func (s *TemplateService) decodeTree(t *template.CertificateTemplate) *certificate.RenderData {
	tree := &certificate.RenderData{
		Width:           t.Width,
		Height:          t.Height,
		Unit:            t.Unit,
		Orientation:     t.Orientation,
		BackgroundColor: t.BackgroundColor,
		Elements:        certificate.Elements{},
	}
	if t.BackgroundImage.Valid {
		tree.BackgroundImage = t.BackgroundImage.String
	}

	opened, err := s.cipher.Open(t.CanvasSealed)
	if err != nil {
		s.logger.Error("failed to decrypt template canvas, degrading to empty tree",
			zap.Int64("org_id", t.OrgID),
			zap.Int64("template_id", t.ID),
			zap.Error(err),
		)
		return tree
	}

	var elements certificate.Elements
	if err := json.Unmarshal([]byte(opened), &elements); err != nil {
		s.logger.Error("failed to parse template canvas, degrading to empty tree",
			zap.Int64("org_id", t.OrgID),
			zap.Int64("template_id", t.ID),
			zap.Error(err),
		)
		return tree
	}

	tree.Elements = elements
	return tree
}

// capabilitiesFor loads the organization and requires an ACTIVE account for
// mutating operations.
func (s *TemplateService) capabilitiesFor(ctx context.Context, orgID int64, mutating bool) (*organization.Organization, *entitlement.Capabilities, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	if mutating && !org.IsActive() {
		return nil, nil, xerrors.ErrAccountBlocked
	}
	return org, s.ent.EffectiveCapabilities(ctx, org), nil
}

// Create stores a new template after applying the capability gate.
func (s *TemplateService) Create(ctx context.Context, orgID, actorID int64, req *template.SaveTemplateRequest) (*template.TemplateResponse, error) {
	org, caps, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return nil, err
	}

	if !caps.CustomTemplates {
		return nil, xerrors.FeatureDenied("custom_templates", caps.PlanName)
	}

	if caps.MaxTemplates > 0 {
		count, err := s.templates.CountByOrg(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		if count >= int64(caps.MaxTemplates) {
			return nil, fmt.Errorf("template limit of %d reached on the %s plan: %w",
				caps.MaxTemplates, caps.PlanName, xerrors.ErrForbidden)
		}
	}

	if err := validateAgainstCapabilities(req, caps); err != nil {
		return nil, err
	}

	t, err := s.buildEntity(org.ID, req)
	if err != nil {
		return nil, err
	}

	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}

	if req.IsDefault {
		if err := s.templates.SetDefault(ctx, org.ID, t.ID); err != nil {
			return nil, err
		}
		t.IsDefault = true
	}

	s.recorder.Record(org.ID, actorID, audit.ActionTemplateCreated, "certificate_template", fmt.Sprintf("%d", t.ID))

	return s.toResponse(t, req.Elements), nil
}

// Update rewrites an existing template. The capability gate is identical to
// Create; a violating update leaves the stored template untouched.
func (s *TemplateService) Update(ctx context.Context, orgID, actorID, id int64, req *template.SaveTemplateRequest) (*template.TemplateResponse, error) {
	org, caps, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return nil, err
	}

	if !caps.CustomTemplates {
		return nil, xerrors.FeatureDenied("custom_templates", caps.PlanName)
	}

	existing, err := s.templates.FindByID(ctx, org.ID, id)
	if err != nil {
		return nil, err
	}

	if err := validateAgainstCapabilities(req, caps); err != nil {
		return nil, err
	}

	updated, err := s.buildEntity(org.ID, req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.IsDefault = existing.IsDefault

	if err := s.templates.Update(ctx, updated); err != nil {
		return nil, err
	}

	if req.IsDefault && !existing.IsDefault {
		if err := s.templates.SetDefault(ctx, org.ID, updated.ID); err != nil {
			return nil, err
		}
		updated.IsDefault = true
	}

	s.recorder.Record(org.ID, actorID, audit.ActionTemplateUpdated, "certificate_template", fmt.Sprintf("%d", updated.ID))

	return s.toResponse(updated, req.Elements), nil
}

// Get returns one template with its decrypted element tree.
func (s *TemplateService) Get(ctx context.Context, orgID, id int64) (*template.TemplateResponse, error) {
	t, err := s.templates.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	tree := s.decodeTree(t)
	return s.toResponse(t, tree.Elements), nil
}

// List returns template summaries without canvas content. FREE-tier
// organizations with no templates get the two builtin starters provisioned
// on first call.
func (s *TemplateService) List(ctx context.Context, orgID int64) (*template.ListResponse, error) {
	org, caps, err := s.capabilitiesFor(ctx, orgID, false)
	if err != nil {
		return nil, err
	}

	templates, err := s.templates.ListByOrg(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	if len(templates) == 0 && caps.IsFree() {
		if err := s.provisionStarters(ctx, org.ID); err != nil {
			return nil, err
		}
		templates, err = s.templates.ListByOrg(ctx, org.ID)
		if err != nil {
			return nil, err
		}
	}

	resp := &template.ListResponse{Templates: make([]*template.TemplateSummary, 0, len(templates))}
	for _, t := range templates {
		resp.Templates = append(resp.Templates, template.ToSummary(t))
	}
	return resp, nil
}

// SetDefault marks one template as the organization's default.
func (s *TemplateService) SetDefault(ctx context.Context, orgID, actorID, id int64) error {
	_, _, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return err
	}
	if err := s.templates.SetDefault(ctx, orgID, id); err != nil {
		return err
	}
	s.recorder.Record(orgID, actorID, audit.ActionTemplateDefaultSet, "certificate_template", fmt.Sprintf("%d", id))
	return nil
}

// Delete removes a template.
func (s *TemplateService) Delete(ctx context.Context, orgID, actorID, id int64) error {
	_, _, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.recorder.Record(orgID, actorID, audit.ActionTemplateDeleted, "certificate_template", fmt.Sprintf("%d", id))
	return nil
}

func (s *TemplateService) provisionStarters(ctx context.Context, orgID int64) error {
	for _, starter := range builtinStarterTemplates() {
		canvas, err := json.Marshal(starter.Tree.Elements)
		if err != nil {
			return fmt.Errorf("failed to marshal starter canvas: %w", err)
		}
		box, err := s.cipher.Seal(sealed.Opened(canvas))
		if err != nil {
			return fmt.Errorf("failed to seal starter canvas: %w", err)
		}

		t := &template.CertificateTemplate{
			OrgID:           orgID,
			TemplateName:    starter.Name,
			CanvasSealed:    box,
			Width:           starter.Tree.Width,
			Height:          starter.Tree.Height,
			Unit:            starter.Tree.Unit,
			Orientation:     starter.Tree.Orientation,
			BackgroundColor: starter.Tree.BackgroundColor,
		}
		if err := s.templates.Create(ctx, t); err != nil {
			return err
		}
	}

	s.logger.Info("provisioned builtin starter templates", zap.Int64("org_id", orgID))
	return nil
}

func (s *TemplateService) buildEntity(orgID int64, req *template.SaveTemplateRequest) (*template.CertificateTemplate, error) {
	canvas, err := json.Marshal(req.Elements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canvas: %w", err)
	}
	box, err := s.cipher.Seal(sealed.Opened(canvas))
	if err != nil {
		return nil, fmt.Errorf("failed to seal canvas: %w", err)
	}

	t := &template.CertificateTemplate{
		OrgID:           orgID,
		TemplateName:    req.TemplateName,
		CanvasSealed:    box,
		Width:           req.Width,
		Height:          req.Height,
		Unit:            req.Unit,
		Orientation:     req.Orientation,
		BackgroundColor: req.BackgroundColor,
	}
	if t.Width == 0 && t.Height == 0 {
		t.Width = template.A4LongMM
		t.Height = template.A4ShortMM
	}
	if t.Unit == "" {
		t.Unit = "mm"
	}
	if t.Orientation == "" {
		if t.Width >= t.Height {
			t.Orientation = template.OrientationLandscape
		} else {
			t.Orientation = template.OrientationPortrait
		}
	}
	if t.BackgroundColor == "" {
		t.BackgroundColor = template.DefaultBackgroundColor
	}
	if req.BackgroundImage != "" {
		t.BackgroundImage = sql.NullString{String: req.BackgroundImage, Valid: true}
	}
	return t, nil
}

func (s *TemplateService) toResponse(t *template.CertificateTemplate, elements certificate.Elements) *template.TemplateResponse {
	resp := &template.TemplateResponse{
		ID:              t.ID,
		TemplateName:    t.TemplateName,
		Elements:        elements,
		Width:           t.Width,
		Height:          t.Height,
		Unit:            t.Unit,
		Orientation:     t.Orientation,
		BackgroundColor: t.BackgroundColor,
		IsDefault:       t.IsDefault,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.BackgroundImage.Valid {
		resp.BackgroundImage = t.BackgroundImage.String
	}
	return resp
}

// --- Email templates ---

// CreateEmail stores a notification template, gated by the email-templates
// capability and encrypted like the certificate canvas.
func (s *TemplateService) CreateEmail(ctx context.Context, orgID, actorID int64, req *template.SaveEmailTemplateRequest) (*template.EmailTemplateResponse, error) {
	_, caps, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return nil, err
	}
	if !caps.EmailTemplates {
		return nil, xerrors.FeatureDenied("email_templates", caps.PlanName)
	}

	box, err := s.cipher.Seal(sealed.Opened(req.BodyHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to seal email body: %w", err)
	}

	t := &template.EmailTemplate{
		OrgID:        orgID,
		TemplateName: req.TemplateName,
		Subject:      req.Subject,
		BodySealed:   box,
	}
	if err := s.emails.Create(ctx, t); err != nil {
		return nil, err
	}

	if req.IsDefault {
		if err := s.emails.SetDefault(ctx, orgID, t.ID); err != nil {
			return nil, err
		}
		t.IsDefault = true
	}

	s.recorder.Record(orgID, actorID, audit.ActionTemplateCreated, "email_template", fmt.Sprintf("%d", t.ID))

	return s.toEmailResponse(t, req.BodyHTML), nil
}

// UpdateEmail rewrites an email template under the same gate as CreateEmail.
func (s *TemplateService) UpdateEmail(ctx context.Context, orgID, actorID, id int64, req *template.SaveEmailTemplateRequest) (*template.EmailTemplateResponse, error) {
	_, caps, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return nil, err
	}
	if !caps.EmailTemplates {
		return nil, xerrors.FeatureDenied("email_templates", caps.PlanName)
	}

	t, err := s.emails.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	box, err := s.cipher.Seal(sealed.Opened(req.BodyHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to seal email body: %w", err)
	}

	t.TemplateName = req.TemplateName
	t.Subject = req.Subject
	t.BodySealed = box

	if err := s.emails.Update(ctx, t); err != nil {
		return nil, err
	}

	if req.IsDefault && !t.IsDefault {
		if err := s.emails.SetDefault(ctx, orgID, t.ID); err != nil {
			return nil, err
		}
		t.IsDefault = true
	}

	s.recorder.Record(orgID, actorID, audit.ActionTemplateUpdated, "email_template", fmt.Sprintf("%d", t.ID))

	return s.toEmailResponse(t, req.BodyHTML), nil
}

// GetEmail decrypts a single email template. A decryption failure degrades to
// an empty body rather than failing the read.
func (s *TemplateService) GetEmail(ctx context.Context, orgID, id int64) (*template.EmailTemplateResponse, error) {
	t, err := s.emails.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	body := ""
	opened, err := s.cipher.Open(t.BodySealed)
	if err != nil {
		s.logger.Error("failed to decrypt email template body",
			zap.Int64("org_id", orgID),
			zap.Int64("template_id", id),
			zap.Error(err),
		)
	} else {
		body = string(opened)
	}

	return s.toEmailResponse(t, body), nil
}

// ListEmail returns summaries; bodies stay sealed.
func (s *TemplateService) ListEmail(ctx context.Context, orgID int64) ([]*template.EmailTemplateResponse, error) {
	templates, err := s.emails.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := make([]*template.EmailTemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, s.toEmailResponse(t, ""))
	}
	return out, nil
}

// DeleteEmail removes an email template.
func (s *TemplateService) DeleteEmail(ctx context.Context, orgID, actorID, id int64) error {
	_, _, err := s.capabilitiesFor(ctx, orgID, true)
	if err != nil {
		return err
	}
	if err := s.emails.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.recorder.Record(orgID, actorID, audit.ActionTemplateDeleted, "email_template", fmt.Sprintf("%d", id))
	return nil
}

func (s *TemplateService) toEmailResponse(t *template.EmailTemplate, body string) *template.EmailTemplateResponse {
	return &template.EmailTemplateResponse{
		ID:           t.ID,
		TemplateName: t.TemplateName,
		Subject:      t.Subject,
		BodyHTML:     body,
		IsDefault:    t.IsDefault,
		UpdatedAt:    t.UpdatedAt,
	}
}
