// internal/service/certificate/certificate_service_test.go
package certificate

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"certhub-service/internal/domain/audit"
	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/service/entitlement"
	"certhub-service/internal/service/quota"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCertStore struct {
	mu          sync.Mutex
	nextID      int64
	issuedCount int64
	created     []*certificate.Certificate
	batches     int
}

func (f *fakeCertStore) Create(_ context.Context, c *certificate.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	f.created = append(f.created, c)
	f.issuedCount++
	return nil
}

func (f *fakeCertStore) CreateBatch(_ context.Context, certs []*certificate.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	for _, c := range certs {
		f.nextID++
		c.ID = f.nextID
		f.created = append(f.created, c)
		f.issuedCount++
	}
	return nil
}

func (f *fakeCertStore) FindByID(_ context.Context, orgID, id int64) (*certificate.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.created {
		if c.OrgID == orgID && c.ID == id {
			return c, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeCertStore) FindByCertificateID(_ context.Context, certificateID string) (*certificate.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.created {
		if c.CertificateID == certificateID {
			return c, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeCertStore) CountIssuedInRange(_ context.Context, orgID int64, _, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issuedCount, nil
}

func (f *fakeCertStore) List(_ context.Context, orgID int64, _ *certificate.ListFilters) ([]*certificate.Certificate, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*certificate.Certificate
	for _, c := range f.created {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCertStore) Revoke(_ context.Context, orgID, id int64, reason string) error {
	c, err := f.FindByID(context.Background(), orgID, id)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c.Status = certificate.StatusRevoked
	return nil
}

func (f *fakeCertStore) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.created {
		if c.Status == certificate.StatusActive && c.ExpiryDate.Valid && c.ExpiryDate.Time.Before(now) {
			c.Status = certificate.StatusExpired
			n++
		}
	}
	return n, nil
}

func (f *fakeCertStore) Delete(_ context.Context, orgID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.created {
		if c.OrgID == orgID && c.ID == id {
			f.created = append(f.created[:i], f.created[i+1:]...)
			return nil
		}
	}
	return xerrors.ErrNotFound
}

type fakeOrgFinder struct {
	orgs map[int64]*organization.Organization
}

func (f *fakeOrgFinder) FindByID(_ context.Context, id int64) (*organization.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return org, nil
}

type fixedPlanFinder struct{}

func (fixedPlanFinder) FindByName(_ context.Context, name plan.Name) (*plan.Plan, error) {
	return plan.Defaults(name), nil
}

// builtinResolver mirrors the template service's fallback behavior closely
// enough for pipeline tests: builtin layout, watermark on FREE.
type builtinResolver struct{}

func (builtinResolver) Resolve(_ context.Context, _ *organization.Organization, _ int64, certType certificate.Type, caps *entitlement.Capabilities) (*certificate.RenderData, error) {
	tree := &certificate.RenderData{
		Width:       297,
		Height:      210,
		Unit:        "mm",
		Orientation: "landscape",
		Elements: certificate.Elements{
			&certificate.TextElement{Content: "CERTIFICATE OF " + strings.ToUpper(string(certType))},
			&certificate.TextElement{Content: "{{recipient_name}}"},
			&certificate.TextElement{Content: "{{course_name}} — {{organization_name}}"},
			&certificate.TextElement{Content: "{{issue_date}} · {{certificate_id}}"},
		},
	}
	if caps.IsFree() {
		tree.Elements = append(tree.Elements, &certificate.TextElement{Content: "Issued with CertHub Free"})
	}
	return tree, nil
}

type nopNotifier struct{}

func (nopNotifier) SendCertificateIssued(_, _, _, _, _ string) error { return nil }

type fakeRecorder struct {
	mu      sync.Mutex
	actions []audit.Action
}

func (f *fakeRecorder) Record(_, _ int64, action audit.Action, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func orgOnTier(tier plan.Name) *organization.Organization {
	return &organization.Organization{
		ID:               1,
		Name:             "Acme University",
		SubscriptionPlan: string(tier),
		AccountStatus:    organization.StatusActive,
		Plan:             plan.Defaults(tier),
	}
}

type fixture struct {
	svc      *CertificateService
	store    *fakeCertStore
	recorder *fakeRecorder
}

func newFixture(org *organization.Organization) *fixture {
	store := &fakeCertStore{}
	recorder := &fakeRecorder{}
	ent := entitlement.NewService(fixedPlanFinder{}, zap.NewNop())
	quotaSvc := quota.NewService(store, zap.NewNop())
	orgs := &fakeOrgFinder{orgs: map[int64]*organization.Organization{org.ID: org}}

	svc := NewCertificateService(store, orgs, ent, quotaSvc, builtinResolver{}, nopNotifier{}, recorder, zap.NewNop())
	return &fixture{svc: svc, store: store, recorder: recorder}
}

func issueReq() *certificate.IssueRequest {
	return &certificate.IssueRequest{
		RecipientName:   "Ada Mwangi",
		RecipientEmail:  "ada@example.com",
		CourseName:      "Distributed Systems",
		CertificateType: string(certificate.TypeAchievement),
	}
}

func TestIssueFreeUsesBuiltinWithWatermark(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Free))

	resp, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	require.NotNil(t, resp.RenderData)
	var contents []string
	for _, el := range resp.RenderData.Elements {
		if text, ok := el.(*certificate.TextElement); ok {
			contents = append(contents, text.Content)
		}
	}
	assert.Contains(t, contents, "CERTIFICATE OF ACHIEVEMENT")
	assert.Contains(t, contents, "Issued with CertHub Free")
	assert.Contains(t, contents, "Ada Mwangi")

	for _, c := range contents {
		assert.NotContains(t, c, "{{recipient_name}}")
		assert.NotContains(t, c, "{{course_name}}")
	}
}

func TestIssueGeneratesPrefixedCertificateID(t *testing.T) {
	org := orgOnTier(plan.Pro)
	org.CertificatePrefixes = []string{"ACME", "ALT"}
	fx := newFixture(org)

	resp, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.CertificateID, "ACME-"))
	assert.Greater(t, len(resp.CertificateID), len("ACME-"))
}

func TestIssueFallsBackToDefaultPrefix(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Free))

	resp, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.CertificateID, "CERT-"))
}

func TestIssueQuotaExceeded(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Free))
	fx.store.issuedCount = 10

	_, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	var quotaErr *xerrors.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 10, quotaErr.Limit)
	assert.Equal(t, "FREE", quotaErr.Plan)
	assert.Contains(t, err.Error(), "10")
	assert.Contains(t, err.Error(), "FREE")
}

func TestIssueFreeBatchNameForbidden(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Free))

	req := issueReq()
	req.BatchName = "June Cohort"

	_, err := fx.svc.Issue(context.Background(), 1, 7, req)
	require.Error(t, err)

	var denied *xerrors.FeatureDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "bulk_issuance", denied.Feature)
	assert.Empty(t, fx.store.created)
}

func TestIssueFreeRequiresCertificateType(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Free))

	req := issueReq()
	req.CertificateType = ""

	_, err := fx.svc.Issue(context.Background(), 1, 7, req)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestIssuePaidDefaultsCertificateType(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	req := issueReq()
	req.CertificateType = ""

	resp, err := fx.svc.Issue(context.Background(), 1, 7, req)
	require.NoError(t, err)
	assert.Equal(t, string(certificate.TypeCompletion), resp.CertificateType)
}

func TestIssueUnknownCertificateType(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	req := issueReq()
	req.CertificateType = "Diploma"

	_, err := fx.svc.Issue(context.Background(), 1, 7, req)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestIssueBlockedOrg(t *testing.T) {
	org := orgOnTier(plan.Pro)
	org.AccountStatus = organization.StatusBlocked
	fx := newFixture(org)

	_, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	assert.ErrorIs(t, err, xerrors.ErrAccountBlocked)
}

func TestIssueBulkFreeForbidden(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Free))

	_, err := fx.svc.IssueBulk(context.Background(), 1, 7, &certificate.BulkIssueRequest{
		Entries: []certificate.IssueRequest{*issueReq()},
	})
	require.Error(t, err)

	var denied *xerrors.FeatureDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "bulk_issuance", denied.Feature)
}

func TestIssueBulkFailFastValidation(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	bad := *issueReq()
	bad.CertificateType = "Diploma"

	_, err := fx.svc.IssueBulk(context.Background(), 1, 7, &certificate.BulkIssueRequest{
		Entries: []certificate.IssueRequest{*issueReq(), bad, *issueReq()},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "entry 1")
	assert.Empty(t, fx.store.created, "no rows may be written when any entry is invalid")
	assert.Zero(t, fx.store.batches)
}

func TestIssueBulkRejectsEntryMissingMandatoryField(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	noEmail := *issueReq()
	noEmail.RecipientEmail = ""

	_, err := fx.svc.IssueBulk(context.Background(), 1, 7, &certificate.BulkIssueRequest{
		Entries: []certificate.IssueRequest{*issueReq(), noEmail, *issueReq()},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.ErrorContains(t, err, "entry 1")
	assert.ErrorContains(t, err, "recipient_email")
	assert.Empty(t, fx.store.created, "no rows may be written when any entry is invalid")
	assert.Zero(t, fx.store.batches)
}

func TestIssueRequiresMandatoryFields(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	for _, tc := range []struct {
		field  string
		mutate func(r *certificate.IssueRequest)
	}{
		{"recipient_name", func(r *certificate.IssueRequest) { r.RecipientName = "" }},
		{"recipient_email", func(r *certificate.IssueRequest) { r.RecipientEmail = "" }},
		{"course_name", func(r *certificate.IssueRequest) { r.CourseName = "" }},
	} {
		req := issueReq()
		tc.mutate(req)

		_, err := fx.svc.Issue(context.Background(), 1, 7, req)
		require.Error(t, err, tc.field)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		assert.ErrorContains(t, err, tc.field)
	}
	assert.Empty(t, fx.store.created)
}

func TestIssueBulkQuotaCoversWholeBatch(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))
	fx.store.issuedCount = 499 // PRO limit is 500

	_, err := fx.svc.IssueBulk(context.Background(), 1, 7, &certificate.BulkIssueRequest{
		Entries: []certificate.IssueRequest{*issueReq(), *issueReq()},
	})
	require.Error(t, err)

	var quotaErr *xerrors.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 500, quotaErr.Limit)
}

func TestIssueBulkHappyPath(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	resp, err := fx.svc.IssueBulk(context.Background(), 1, 7, &certificate.BulkIssueRequest{
		Entries: []certificate.IssueRequest{*issueReq(), *issueReq()},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Issued)
	assert.Len(t, resp.Certificates, 2)
	assert.Equal(t, 1, fx.store.batches, "the batch goes through a single atomic write")
	assert.NotEqual(t, resp.Certificates[0].CertificateID, resp.Certificates[1].CertificateID)
}

func TestRevokeIsTerminal(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	resp, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	require.NoError(t, fx.svc.Revoke(context.Background(), 1, 7, resp.ID, "fraud"))

	err = fx.svc.Revoke(context.Background(), 1, 7, resp.ID, "again")
	assert.ErrorIs(t, err, xerrors.ErrConflict)
}

func TestGetIsScopedToOwningOrg(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	issued, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	_, err = fx.svc.Get(context.Background(), 2, issued.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	got, err := fx.svc.Get(context.Background(), 1, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.CertificateID, got.CertificateID)
}

func TestVerifyPublicLookup(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	issued, err := fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	public, err := fx.svc.Verify(context.Background(), issued.CertificateID)
	require.NoError(t, err)

	assert.Equal(t, issued.CertificateID, public.CertificateID)
	assert.Equal(t, "Acme University", public.OrganizationName)
	assert.Equal(t, string(certificate.StatusActive), public.Status)
}

func TestVerifyUnknownIDIsNotFound(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	_, err := fx.svc.Verify(context.Background(), "CERT-DOESNOTEXIST")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestVerifyReportsLapsedExpiryAsExpired(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	expiry := time.Now().Add(time.Hour)
	req := issueReq()
	req.ExpiryDate = &expiry

	issued, err := fx.svc.Issue(context.Background(), 1, 7, req)
	require.NoError(t, err)

	fx.svc.WithClock(func() time.Time { return time.Now().Add(48 * time.Hour) })

	public, err := fx.svc.Verify(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, string(certificate.StatusExpired), public.Status)
}

func TestExpireDueSweep(t *testing.T) {
	fx := newFixture(orgOnTier(plan.Pro))

	expiry := time.Now().Add(time.Hour)
	req := issueReq()
	req.ExpiryDate = &expiry

	_, err := fx.svc.Issue(context.Background(), 1, 7, req)
	require.NoError(t, err)
	_, err = fx.svc.Issue(context.Background(), 1, 7, issueReq())
	require.NoError(t, err)

	fx.svc.WithClock(func() time.Time { return time.Now().Add(48 * time.Hour) })

	n, err := fx.svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
