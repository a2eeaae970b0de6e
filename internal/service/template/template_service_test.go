// internal/service/template/template_service_test.go
package template

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"certhub-service/internal/domain/audit"
	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/organization"
	"certhub-service/internal/domain/plan"
	"certhub-service/internal/domain/template"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/pkg/sealed"
	"certhub-service/internal/service/entitlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTemplateStore struct {
	nextID    int64
	templates map[string]*template.CertificateTemplate
	defaults  map[int64]int64
}

func newFakeTemplateStore() *fakeTemplateStore {
	return &fakeTemplateStore{
		templates: map[string]*template.CertificateTemplate{},
		defaults:  map[int64]int64{},
	}
}

func key(orgID, id int64) string { return fmt.Sprintf("%d/%d", orgID, id) }

func (f *fakeTemplateStore) Create(_ context.Context, t *template.CertificateTemplate) error {
	f.nextID++
	t.ID = f.nextID
	f.templates[key(t.OrgID, t.ID)] = t
	return nil
}

func (f *fakeTemplateStore) FindByID(_ context.Context, orgID, id int64) (*template.CertificateTemplate, error) {
	t, ok := f.templates[key(orgID, id)]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return t, nil
}

func (f *fakeTemplateStore) FindDefault(_ context.Context, orgID int64) (*template.CertificateTemplate, error) {
	id, ok := f.defaults[orgID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return f.FindByID(context.Background(), orgID, id)
}

func (f *fakeTemplateStore) ListByOrg(_ context.Context, orgID int64) ([]*template.CertificateTemplate, error) {
	var out []*template.CertificateTemplate
	for _, t := range f.templates {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTemplateStore) CountByOrg(_ context.Context, orgID int64) (int64, error) {
	list, _ := f.ListByOrg(context.Background(), orgID)
	return int64(len(list)), nil
}

func (f *fakeTemplateStore) Update(_ context.Context, t *template.CertificateTemplate) error {
	if _, ok := f.templates[key(t.OrgID, t.ID)]; !ok {
		return xerrors.ErrNotFound
	}
	f.templates[key(t.OrgID, t.ID)] = t
	return nil
}

func (f *fakeTemplateStore) SetDefault(_ context.Context, orgID, id int64) error {
	if _, ok := f.templates[key(orgID, id)]; !ok {
		return xerrors.ErrNotFound
	}
	for _, t := range f.templates {
		if t.OrgID == orgID {
			t.IsDefault = t.ID == id
		}
	}
	f.defaults[orgID] = id
	return nil
}

func (f *fakeTemplateStore) Delete(_ context.Context, orgID, id int64) error {
	if _, ok := f.templates[key(orgID, id)]; !ok {
		return xerrors.ErrNotFound
	}
	delete(f.templates, key(orgID, id))
	return nil
}

type fakeEmailStore struct{}

func (f *fakeEmailStore) Create(_ context.Context, t *template.EmailTemplate) error { return nil }
func (f *fakeEmailStore) FindByID(_ context.Context, orgID, id int64) (*template.EmailTemplate, error) {
	return nil, xerrors.ErrNotFound
}
func (f *fakeEmailStore) ListByOrg(_ context.Context, orgID int64) ([]*template.EmailTemplate, error) {
	return nil, nil
}
func (f *fakeEmailStore) Update(_ context.Context, t *template.EmailTemplate) error { return nil }
func (f *fakeEmailStore) SetDefault(_ context.Context, orgID, id int64) error       { return nil }
func (f *fakeEmailStore) Delete(_ context.Context, orgID, id int64) error           { return nil }

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

type recordedEvent struct {
	action audit.Action
	kind   string
}

type fakeRecorder struct{ events []recordedEvent }

func (f *fakeRecorder) Record(_, _ int64, action audit.Action, entityKind, _ string) {
	f.events = append(f.events, recordedEvent{action: action, kind: entityKind})
}

func orgOnTier(tier plan.Name) *organization.Organization {
	return &organization.Organization{
		ID:               1,
		Name:             "Acme",
		SubscriptionPlan: string(tier),
		AccountStatus:    organization.StatusActive,
		Plan:             plan.Defaults(tier),
	}
}

func testCipher(t *testing.T) *sealed.Cipher {
	t.Helper()
	c, err := sealed.NewCipher([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	return c
}

type fixture struct {
	svc      *TemplateService
	store    *fakeTemplateStore
	orgs     *fakeOrgFinder
	recorder *fakeRecorder
	cipher   *sealed.Cipher
}

func newFixture(t *testing.T, org *organization.Organization) *fixture {
	t.Helper()
	store := newFakeTemplateStore()
	orgs := &fakeOrgFinder{orgs: map[int64]*organization.Organization{org.ID: org}}
	recorder := &fakeRecorder{}
	cipher := testCipher(t)
	ent := entitlement.NewService(&fixedPlanFinder{p: org.Plan}, zap.NewNop())

	svc := NewTemplateService(store, &fakeEmailStore{}, orgs, ent, cipher, recorder, zap.NewNop())
	return &fixture{svc: svc, store: store, orgs: orgs, recorder: recorder, cipher: cipher}
}

func (fx *fixture) capsOf(org *organization.Organization) *entitlement.Capabilities {
	return fx.svc.ent.EffectiveCapabilities(context.Background(), org)
}

func (fx *fixture) seal(t *testing.T, elements certificate.Elements) sealed.Sealed {
	t.Helper()
	raw, err := json.Marshal(elements)
	require.NoError(t, err)
	box, err := fx.cipher.Seal(sealed.Opened(raw))
	require.NoError(t, err)
	return box
}

func TestResolveFreeFallsBackToBuiltinWithWatermark(t *testing.T) {
	org := orgOnTier(plan.Free)
	fx := newFixture(t, org)

	tree, err := fx.svc.Resolve(context.Background(), org, 0, certificate.TypeAchievement, fx.capsOf(org))
	require.NoError(t, err)

	var contents []string
	for _, el := range tree.Elements {
		if text, ok := el.(*certificate.TextElement); ok {
			contents = append(contents, text.Content)
		}
	}
	assert.Contains(t, contents, "CERTIFICATE OF ACHIEVEMENT")
	assert.Contains(t, contents, "Issued with CertHub Free")
}

func TestResolveFreeIgnoresRequestedTemplate(t *testing.T) {
	org := orgOnTier(plan.Free)
	fx := newFixture(t, org)

	stored := &template.CertificateTemplate{
		OrgID:        org.ID,
		TemplateName: "smuggled",
		CanvasSealed: fx.seal(t, certificate.Elements{&certificate.TextElement{Content: "custom"}}),
	}
	require.NoError(t, fx.store.Create(context.Background(), stored))

	tree, err := fx.svc.Resolve(context.Background(), org, stored.ID, certificate.TypeCompletion, fx.capsOf(org))
	require.NoError(t, err)

	for _, el := range tree.Elements {
		if text, ok := el.(*certificate.TextElement); ok {
			assert.NotEqual(t, "custom", text.Content)
		}
	}
}

func TestResolveDecryptsCustomTemplate(t *testing.T) {
	org := orgOnTier(plan.Pro)
	fx := newFixture(t, org)

	stored := &template.CertificateTemplate{
		OrgID:           org.ID,
		TemplateName:    "branded",
		Width:           297,
		Height:          210,
		Unit:            "mm",
		Orientation:     template.OrientationLandscape,
		BackgroundColor: "#fafafa",
		CanvasSealed:    fx.seal(t, certificate.Elements{&certificate.TextElement{Content: "{{recipient_name}}"}}),
	}
	require.NoError(t, fx.store.Create(context.Background(), stored))

	tree, err := fx.svc.Resolve(context.Background(), org, stored.ID, certificate.TypeCompletion, fx.capsOf(org))
	require.NoError(t, err)

	require.Len(t, tree.Elements, 1)
	assert.Equal(t, "#fafafa", tree.BackgroundColor)
	text, ok := tree.Elements[0].(*certificate.TextElement)
	require.True(t, ok)
	assert.Equal(t, "{{recipient_name}}", text.Content)
}

func TestResolveCrossTenantIsNotFound(t *testing.T) {
	org := orgOnTier(plan.Pro)
	fx := newFixture(t, org)

	other := &template.CertificateTemplate{
		OrgID:        99,
		TemplateName: "someone else's",
		CanvasSealed: fx.seal(t, certificate.Elements{}),
	}
	require.NoError(t, fx.store.Create(context.Background(), other))

	_, err := fx.svc.Resolve(context.Background(), org, other.ID, certificate.TypeCompletion, fx.capsOf(org))
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestResolveCorruptCanvasDegradesToEmpty(t *testing.T) {
	org := orgOnTier(plan.Pro)
	fx := newFixture(t, org)

	stored := &template.CertificateTemplate{
		OrgID:        org.ID,
		TemplateName: "corrupt",
		Width:        297,
		Height:       210,
		CanvasSealed: sealed.Sealed("not-a-real-ciphertext"),
	}
	require.NoError(t, fx.store.Create(context.Background(), stored))

	tree, err := fx.svc.Resolve(context.Background(), org, stored.ID, certificate.TypeCompletion, fx.capsOf(org))
	require.NoError(t, err, "one corrupt template must not fail the resolve")
	assert.Empty(t, tree.Elements)
	assert.Equal(t, 297.0, tree.Width)
}

func TestCreateDeniedWithoutCustomTemplates(t *testing.T) {
	org := orgOnTier(plan.Free)
	fx := newFixture(t, org)

	_, err := fx.svc.Create(context.Background(), org.ID, 7, &template.SaveTemplateRequest{
		TemplateName: "t",
		Elements:     certificate.Elements{&certificate.TextElement{Content: "x"}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	var denied *xerrors.FeatureDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "custom_templates", denied.Feature)
}

func TestCreateEnforcesTemplateLimit(t *testing.T) {
	org := orgOnTier(plan.Pro)
	org.Plan.MaxTemplates = 1
	fx := newFixture(t, org)

	req := &template.SaveTemplateRequest{
		TemplateName: "first",
		Elements:     certificate.Elements{&certificate.TextElement{Content: "x"}},
	}
	_, err := fx.svc.Create(context.Background(), org.ID, 7, req)
	require.NoError(t, err)

	req.TemplateName = "second"
	_, err = fx.svc.Create(context.Background(), org.ID, 7, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)
	assert.ErrorContains(t, err, "limit of 1")
}

func TestCreateRecordsAuditEvent(t *testing.T) {
	org := orgOnTier(plan.Pro)
	fx := newFixture(t, org)

	_, err := fx.svc.Create(context.Background(), org.ID, 7, &template.SaveTemplateRequest{
		TemplateName: "t",
		Elements:     certificate.Elements{&certificate.TextElement{Content: "x"}},
	})
	require.NoError(t, err)

	require.Len(t, fx.recorder.events, 1)
	assert.Equal(t, audit.ActionTemplateCreated, fx.recorder.events[0].action)
}

func TestUpdateAppliesSameGateAsCreate(t *testing.T) {
	// No legacy plan string: the capability set comes purely from the matrix,
	// which here has the QR tool switched off.
	org := orgOnTier(plan.Pro)
	org.SubscriptionPlan = ""
	org.Plan.Permissions.EditorTools.QRCode = false
	fx := newFixture(t, org)

	created, err := fx.svc.Create(context.Background(), org.ID, 7, &template.SaveTemplateRequest{
		TemplateName: "t",
		Elements:     certificate.Elements{&certificate.TextElement{Content: "x"}},
	})
	require.NoError(t, err)

	_, err = fx.svc.Update(context.Background(), org.ID, 7, created.ID, &template.SaveTemplateRequest{
		TemplateName: "t",
		Elements:     certificate.Elements{&certificate.QRCodeElement{Value: "v"}},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "qr_code")

	// The stored template is untouched by the rejected update.
	got, err := fx.svc.Get(context.Background(), org.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Elements, 1)
	assert.Equal(t, certificate.KindText, got.Elements[0].Kind())
}

func TestMutationsRequireActiveAccount(t *testing.T) {
	org := orgOnTier(plan.Pro)
	org.AccountStatus = organization.StatusBlocked
	fx := newFixture(t, org)

	_, err := fx.svc.Create(context.Background(), org.ID, 7, &template.SaveTemplateRequest{
		TemplateName: "t",
	})
	assert.ErrorIs(t, err, xerrors.ErrAccountBlocked)
}

func TestListProvisionsStartersForFree(t *testing.T) {
	org := orgOnTier(plan.Free)
	fx := newFixture(t, org)

	resp, err := fx.svc.List(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Len(t, resp.Templates, 2)

	names := []string{resp.Templates[0].TemplateName, resp.Templates[1].TemplateName}
	assert.ElementsMatch(t, []string{"Classic Completion", "Classic Participation"}, names)

	// Second list must not provision again.
	resp, err = fx.svc.List(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Len(t, resp.Templates, 2)
}

func TestSetDefaultLeavesSingleDefault(t *testing.T) {
	org := orgOnTier(plan.Pro)
	fx := newFixture(t, org)

	req := &template.SaveTemplateRequest{
		TemplateName: "a",
		Elements:     certificate.Elements{&certificate.TextElement{Content: "x"}},
	}
	first, err := fx.svc.Create(context.Background(), org.ID, 7, req)
	require.NoError(t, err)
	req.TemplateName = "b"
	second, err := fx.svc.Create(context.Background(), org.ID, 7, req)
	require.NoError(t, err)

	require.NoError(t, fx.svc.SetDefault(context.Background(), org.ID, 7, first.ID))
	require.NoError(t, fx.svc.SetDefault(context.Background(), org.ID, 7, second.ID))

	defaults := 0
	for _, tmpl := range fx.store.templates {
		if tmpl.IsDefault {
			defaults++
			assert.Equal(t, second.ID, tmpl.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}
