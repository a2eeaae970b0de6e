// internal/service/template/validate_test.go
package template

import (
	"context"
	"errors"
	"testing"

	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/plan"
	"certhub-service/internal/domain/template"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/service/entitlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedPlanFinder struct{ p *plan.Plan }

func (f *fixedPlanFinder) FindByName(_ context.Context, _ plan.Name) (*plan.Plan, error) {
	if f.p == nil {
		return nil, xerrors.ErrNotFound
	}
	return f.p, nil
}

func capsFor(t *testing.T, tier plan.Name) *entitlement.Capabilities {
	t.Helper()
	svc := entitlement.NewService(&fixedPlanFinder{p: plan.Defaults(tier)}, zap.NewNop())
	return svc.EffectiveCapabilities(context.Background(), orgOnTier(tier))
}

func TestValidateFreeRejectsQRCode(t *testing.T) {
	req := &template.SaveTemplateRequest{
		TemplateName: "t",
		Elements: certificate.Elements{
			&certificate.QRCodeElement{Value: "{{certificate_id}}"},
		},
	}

	err := validateAgainstCapabilities(req, capsFor(t, plan.Free))
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)

	var denied *xerrors.FeatureDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "qr_code", denied.Feature)
	assert.Equal(t, "FREE", denied.Plan)
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	req := &template.SaveTemplateRequest{
		TemplateName:    "t",
		BackgroundColor: "#ffcc00",
		BackgroundImage: "https://cdn.example.com/bg.png",
		Width:           100,
		Height:          80,
		Elements: certificate.Elements{
			&certificate.QRCodeElement{Value: "v"},
			&certificate.ShapeElement{Shape: "rect"},
		},
	}

	err := validateAgainstCapabilities(req, capsFor(t, plan.Free))
	require.Error(t, err)

	for _, feature := range []string{"qr_code", "shapes", "background_image", "background_color", "size_control"} {
		assert.ErrorContains(t, err, feature)
	}
}

func TestValidateFreeAllowsTextOnDefaultCanvas(t *testing.T) {
	req := &template.SaveTemplateRequest{
		TemplateName:    "t",
		BackgroundColor: template.DefaultBackgroundColor,
		Elements: certificate.Elements{
			&certificate.TextElement{Content: "{{recipient_name}}"},
		},
	}

	assert.NoError(t, validateAgainstCapabilities(req, capsFor(t, plan.Free)))
}

func TestValidateTextRejectedOnlyWhenExplicitlyDisabled(t *testing.T) {
	org := orgOnTier(plan.Free)
	org.Plan.Permissions.EditorTools.TextEditing = false
	svc := entitlement.NewService(&fixedPlanFinder{}, zap.NewNop())
	caps := svc.EffectiveCapabilities(context.Background(), org)

	req := &template.SaveTemplateRequest{
		TemplateName: "t",
		Elements:     certificate.Elements{&certificate.TextElement{Content: "x"}},
	}

	err := validateAgainstCapabilities(req, caps)
	require.Error(t, err)
	assert.ErrorContains(t, err, "text_editing")
}

func TestValidateProAcceptsFullCanvas(t *testing.T) {
	req := &template.SaveTemplateRequest{
		TemplateName:    "t",
		BackgroundColor: "#123456",
		Width:           210,
		Height:          297,
		Orientation:     template.OrientationPortrait,
		Elements: certificate.Elements{
			&certificate.TextElement{Content: "x"},
			&certificate.ShapeElement{Shape: "line"},
			&certificate.QRCodeElement{Value: "v"},
		},
	}

	assert.NoError(t, validateAgainstCapabilities(req, capsFor(t, plan.Pro)))
}

func TestDeviatesFromA4(t *testing.T) {
	cases := []struct {
		name string
		req  template.SaveTemplateRequest
		want bool
	}{
		{"unset geometry", template.SaveTemplateRequest{}, false},
		{"canonical landscape", template.SaveTemplateRequest{Width: 297, Height: 210, Orientation: template.OrientationLandscape}, false},
		{"canonical portrait", template.SaveTemplateRequest{Width: 210, Height: 297, Orientation: template.OrientationPortrait}, false},
		{"custom size", template.SaveTemplateRequest{Width: 100, Height: 80}, true},
		{"bad orientation word", template.SaveTemplateRequest{Orientation: "diagonal"}, true},
		{"orientation contradicts dims", template.SaveTemplateRequest{Width: 297, Height: 210, Orientation: template.OrientationPortrait}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deviatesFromA4(&tc.req))
		})
	}
}

func TestFeatureDeniedUnwrapsToForbidden(t *testing.T) {
	err := xerrors.FeatureDenied("shapes", "FREE")
	assert.True(t, errors.Is(err, xerrors.ErrForbidden))
}
