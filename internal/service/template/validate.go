// internal/service/template/validate.go
package template

import (
	"errors"

	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/template"
	xerrors "certhub-service/internal/pkg/errors"
	"certhub-service/internal/service/entitlement"
)

// validateAgainstCapabilities applies the per-element capability gate. It is
// shared by template create and update so the checks stay symmetric. Every
// violated gate contributes its own feature-named error; offending elements
// are never silently dropped.
func validateAgainstCapabilities(req *template.SaveTemplateRequest, caps *entitlement.Capabilities) error {
	var violations []error

	deny := func(feature string) {
		violations = append(violations, xerrors.FeatureDenied(feature, caps.PlanName))
	}

	var hasQR, hasText, hasShape bool
	for _, el := range req.Elements {
		switch el.Kind() {
		case certificate.KindQRCode:
			hasQR = true
		case certificate.KindText:
			hasText = true
		case certificate.KindShape:
			hasShape = true
		}
	}

	if hasQR && !caps.EditorTools.QRCode {
		deny("qr_code")
	}
	if hasText && !caps.EditorTools.TextEditing {
		deny("text_editing")
	}
	if hasShape && !caps.EditorTools.Shapes {
		deny("shapes")
	}
	if req.BackgroundImage != "" && !caps.EditorTools.BackgroundImage {
		deny("background_image")
	}
	if req.BackgroundColor != "" && req.BackgroundColor != template.DefaultBackgroundColor && !caps.EditorTools.BackgroundColor {
		deny("background_color")
	}
	if deviatesFromA4(req) && !caps.EditorTools.SizeControl {
		deny("size_control")
	}

	return errors.Join(violations...)
}

// deviatesFromA4 reports whether the request sets an explicit geometry other
// than the two canonical A4 dimension pairs.
func deviatesFromA4(req *template.SaveTemplateRequest) bool {
	if req.Width == 0 && req.Height == 0 && req.Orientation == "" {
		return false
	}
	if req.Width != 0 || req.Height != 0 {
		if !template.IsCanonicalA4(req.Width, req.Height) {
			return true
		}
	}
	switch req.Orientation {
	case "", template.OrientationLandscape, template.OrientationPortrait:
	default:
		return true
	}
	// Orientation must agree with the explicit dimensions it rides with.
	if req.Width != 0 && req.Height != 0 && req.Orientation != "" {
		landscape := req.Width > req.Height
		if landscape && req.Orientation != template.OrientationLandscape {
			return true
		}
		if !landscape && req.Orientation != template.OrientationPortrait {
			return true
		}
	}
	return false
}
