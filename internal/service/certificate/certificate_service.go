// internal/service/certificate/certificate_service.go
package certificate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"certhub-service/internal/domain/audit"
	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/organization"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/service/entitlement"
	"certhub-service/internal/service/quota"
	"certhub-service/internal/service/render"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const fallbackIDPrefix = "CERT"

type CertificateStore interface {
	Create(ctx context.Context, c *certificate.Certificate) error
	CreateBatch(ctx context.Context, certs []*certificate.Certificate) error
	FindByID(ctx context.Context, orgID, id int64) (*certificate.Certificate, error)
	FindByCertificateID(ctx context.Context, certificateID string) (*certificate.Certificate, error)
	List(ctx context.Context, orgID int64, filters *certificate.ListFilters) ([]*certificate.Certificate, int64, error)
	Revoke(ctx context.Context, orgID, id int64, reason string) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, orgID, id int64) error
}

type OrgFinder interface {
	FindByID(ctx context.Context, id int64) (*organization.Organization, error)
}

// TemplateResolver picks and decodes the layout used for an issuance.
type TemplateResolver interface {
	Resolve(ctx context.Context, org *organization.Organization, requestedID int64, certType certificate.Type, caps *entitlement.Capabilities) (*certificate.RenderData, error)
}

// Notifier delivers the issued-certificate email. Failures are the caller's
// to log; delivery never blocks or fails an issuance.
type Notifier interface {
	SendCertificateIssued(to, recipientName, courseName, certificateID, orgName string) error
}

type AuditRecorder interface {
	Record(orgID, actorID int64, action audit.Action, entityKind, entityRef string)
}

type CertificateService struct {
	certs    CertificateStore
	orgs     OrgFinder
	ent      *entitlement.Service
	quota    *quota.Service
	resolver TemplateResolver
	notifier Notifier
	recorder AuditRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewCertificateService(
	certs CertificateStore,
	orgs OrgFinder,
	ent *entitlement.Service,
	quotaSvc *quota.Service,
	resolver TemplateResolver,
	notifier Notifier,
	recorder AuditRecorder,
	logger *zap.Logger,
) *CertificateService {
	return &CertificateService{
		certs:    certs,
		orgs:     orgs,
		ent:      ent,
		quota:    quotaSvc,
		resolver: resolver,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *CertificateService) WithClock(now func() time.Time) *CertificateService {
	s.now = now
	return s
}

// Issue runs the full issuance pipeline for one certificate: entitlement
// gate, quota check, template resolution, placeholder substitution and
// persistence, followed by best-effort audit and email delivery.
func (s *CertificateService) Issue(ctx context.Context, orgID, actorID int64, req *certificate.IssueRequest) (*certificate.CertificateResponse, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive() {
		return nil, xerrors.ErrAccountBlocked
	}

	caps := s.ent.EffectiveCapabilities(ctx, org)

	certType, err := s.validateRequest(req, caps)
	if err != nil {
		return nil, err
	}

	status, err := s.quota.CheckAndReserve(ctx, org.ID, caps.MaxCertificatesPerMonth)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		return nil, xerrors.QuotaExceeded(status.Limit, status.Current, caps.PlanName)
	}

	cert, err := s.buildCertificate(ctx, org, caps, actorID, req, certType)
	if err != nil {
		return nil, err
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, err
	}

	s.recorder.Record(org.ID, actorID, audit.ActionCertificateIssued, "certificate", cert.CertificateID)
	s.notifyIssued(org, cert)

	return certificate.ToResponse(cert), nil
}

// IssueBulk issues a batch atomically. Every entry is validated before any
// row is written; one bad entry rejects the whole batch. The quota check
// covers the full batch size up front.
func (s *CertificateService) IssueBulk(ctx context.Context, orgID, actorID int64, req *certificate.BulkIssueRequest) (*certificate.BulkIssueResponse, error) {
	if len(req.Entries) == 0 {
		return nil, fmt.Errorf("bulk request has no entries: %w", xerrors.ErrInvalidInput)
	}

	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive() {
		return nil, xerrors.ErrAccountBlocked
	}

	caps := s.ent.EffectiveCapabilities(ctx, org)
	if !caps.BulkIssuance {
		return nil, xerrors.FeatureDenied("bulk_issuance", caps.PlanName)
	}

	types := make([]certificate.Type, len(req.Entries))
	for i := range req.Entries {
		certType, err := s.validateRequest(&req.Entries[i], caps)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		types[i] = certType
	}

	status, err := s.quota.CheckAndReserve(ctx, org.ID, caps.MaxCertificatesPerMonth)
	if err != nil {
		return nil, err
	}
	if status.Limit > 0 && status.Current+len(req.Entries) > status.Limit {
		return nil, xerrors.QuotaExceeded(status.Limit, status.Current, caps.PlanName)
	}

	certs := make([]*certificate.Certificate, 0, len(req.Entries))
	for i := range req.Entries {
		cert, err := s.buildCertificate(ctx, org, caps, actorID, &req.Entries[i], types[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		certs = append(certs, cert)
	}

	if err := s.certs.CreateBatch(ctx, certs); err != nil {
		return nil, err
	}

	s.recorder.Record(org.ID, actorID, audit.ActionCertificateBulk, "certificate_batch", fmt.Sprintf("%d certificates", len(certs)))

	resp := &certificate.BulkIssueResponse{
		Issued:       len(certs),
		Certificates: make([]*certificate.CertificateResponse, 0, len(certs)),
	}
	for _, cert := range certs {
		s.notifyIssued(org, cert)
		resp.Certificates = append(resp.Certificates, certificate.ToResponse(cert))
	}
	return resp, nil
}

// validateRequest applies the per-entry rules shared by single and bulk
// issuance. The batch-name gate is independent of the bulk endpoint: a FREE
// organization cannot group certificates into batches even one at a time.
func (s *CertificateService) validateRequest(req *certificate.IssueRequest, caps *entitlement.Capabilities) (certificate.Type, error) {
	switch {
	case req.RecipientName == "":
		return "", fmt.Errorf("recipient_name is required: %w", xerrors.ErrInvalidInput)
	case req.RecipientEmail == "":
		return "", fmt.Errorf("recipient_email is required: %w", xerrors.ErrInvalidInput)
	case req.CourseName == "":
		return "", fmt.Errorf("course_name is required: %w", xerrors.ErrInvalidInput)
	}

	if req.BatchName != "" && !caps.BulkIssuance {
		return "", xerrors.FeatureDenied("bulk_issuance", caps.PlanName)
	}

	if req.CertificateType == "" {
		if caps.IsFree() {
			return "", fmt.Errorf("certificate_type is required: %w", xerrors.ErrInvalidInput)
		}
		return certificate.TypeCompletion, nil
	}

	certType := certificate.Type(req.CertificateType)
	if !certType.Valid() {
		return "", fmt.Errorf("unknown certificate_type %q: %w", req.CertificateType, xerrors.ErrInvalidInput)
	}
	return certType, nil
}

func (s *CertificateService) buildCertificate(
	ctx context.Context,
	org *organization.Organization,
	caps *entitlement.Capabilities,
	actorID int64,
	req *certificate.IssueRequest,
	certType certificate.Type,
) (*certificate.Certificate, error) {
	tree, err := s.resolver.Resolve(ctx, org, req.TemplateID, certType, caps)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	externalID := s.newCertificateID(org)

	rendered := render.Materialize(tree, org, render.Fields{
		RecipientName:    req.RecipientName,
		CourseName:       req.CourseName,
		OrganizationName: org.Name,
		CertificateID:    externalID,
		CertificateType:  string(certType),
		IssueDate:        now,
	})

	cert := &certificate.Certificate{
		OrgID:           org.ID,
		CertificateID:   externalID,
		IssuedBy:        actorID,
		RecipientName:   req.RecipientName,
		RecipientEmail:  req.RecipientEmail,
		CourseName:      req.CourseName,
		IssueDate:       now,
		Status:          certificate.StatusActive,
		CertificateType: certType,
		RenderData:      rendered,
	}
	if req.BatchName != "" {
		cert.BatchName = sql.NullString{String: req.BatchName, Valid: true}
	}
	if req.ExpiryDate != nil {
		cert.ExpiryDate = sql.NullTime{Time: req.ExpiryDate.UTC(), Valid: true}
	}
	return cert, nil
}

// newCertificateID mints the public verification identifier: the
// organization's first configured prefix (or CERT) plus a ULID.
func (s *CertificateService) newCertificateID(org *organization.Organization) string {
	prefix := fallbackIDPrefix
	if len(org.CertificatePrefixes) > 0 && org.CertificatePrefixes[0] != "" {
		prefix = org.CertificatePrefixes[0]
	}
	return fmt.Sprintf("%s-%s", prefix, ulid.Make().String())
}

func (s *CertificateService) notifyIssued(org *organization.Organization, cert *certificate.Certificate) {
	go func() {
		if err := s.notifier.SendCertificateIssued(
			cert.RecipientEmail,
			cert.RecipientName,
			cert.CourseName,
			cert.CertificateID,
			org.Name,
		); err != nil {
			s.logger.Warn("failed to send certificate email",
				zap.String("certificate_id", cert.CertificateID),
				zap.Error(err),
			)
		}
	}()
}

// Get returns one certificate within the caller's organization.
func (s *CertificateService) Get(ctx context.Context, orgID, id int64) (*certificate.CertificateResponse, error) {
	cert, err := s.certs.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return certificate.ToResponse(cert), nil
}

// List returns a filtered page of the organization's certificates.
func (s *CertificateService) List(ctx context.Context, orgID int64, filters *certificate.ListFilters) (*certificate.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	certs, total, err := s.certs.List(ctx, orgID, filters)
	if err != nil {
		return nil, err
	}

	resp := &certificate.ListResponse{
		Certificates: make([]*certificate.CertificateResponse, 0, len(certs)),
		Total:        total,
		Page:         filters.Page,
		PageSize:     filters.PageSize,
	}
	for _, cert := range certs {
		resp.Certificates = append(resp.Certificates, certificate.ToResponse(cert))
	}
	return resp, nil
}

// Revoke marks an ACTIVE certificate revoked. Revocation is terminal.
func (s *CertificateService) Revoke(ctx context.Context, orgID, actorID, id int64, reason string) error {
	cert, err := s.certs.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !cert.CanTransitionTo(certificate.StatusRevoked) {
		return fmt.Errorf("certificate is %s: %w", cert.Status, xerrors.ErrConflict)
	}

	if err := s.certs.Revoke(ctx, orgID, id, reason); err != nil {
		return err
	}

	s.recorder.Record(orgID, actorID, audit.ActionCertificateRevoked, "certificate", cert.CertificateID)
	return nil
}

// Delete removes a certificate row entirely. Admin-only cleanup path; the
// public identifier stops verifying once the row is gone.
func (s *CertificateService) Delete(ctx context.Context, orgID, id int64) error {
	return s.certs.Delete(ctx, orgID, id)
}

// Verify is the unauthenticated lookup by public certificate identifier. An
// ACTIVE certificate whose expiry date has passed is reported as EXPIRED even
// if the sweep has not persisted the transition yet.
func (s *CertificateService) Verify(ctx context.Context, certificateID string) (*certificate.PublicResponse, error) {
	cert, err := s.certs.FindByCertificateID(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	org, err := s.orgs.FindByID(ctx, cert.OrgID)
	if err != nil {
		return nil, err
	}

	status := cert.Status
	if status == certificate.StatusActive && cert.ExpiryDate.Valid && cert.ExpiryDate.Time.Before(s.now()) {
		status = certificate.StatusExpired
	}

	resp := &certificate.PublicResponse{
		CertificateID:    cert.CertificateID,
		RecipientName:    cert.RecipientName,
		CourseName:       cert.CourseName,
		CertificateType:  string(cert.CertificateType),
		OrganizationName: org.Name,
		Status:           string(status),
		IssueDate:        cert.IssueDate,
		RenderData:       cert.RenderData,
	}
	if cert.ExpiryDate.Valid {
		t := cert.ExpiryDate.Time
		resp.ExpiryDate = &t
	}
	return resp, nil
}

// ExpireDue transitions every ACTIVE certificate past its expiry date to
// EXPIRED. Invoked from the periodic sweep.
func (s *CertificateService) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.certs.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired certificates past their expiry date", zap.Int64("count", n))
	}
	return n, nil
}
