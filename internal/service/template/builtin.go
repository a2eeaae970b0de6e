// internal/service/template/builtin.go
package template

import (
	"fmt"
	"strings"

	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/template"
)

// BuiltinTree is the fixed landscape fallback layout used when an
// organization has no usable custom template: a border, the title, a greeting
// line, and placeholders for recipient, course, organization and issue date.
func BuiltinTree(certType certificate.Type) *certificate.RenderData {
	title := fmt.Sprintf("CERTIFICATE OF %s", strings.ToUpper(string(certType)))

	return &certificate.RenderData{
		Width:           template.A4LongMM,
		Height:          template.A4ShortMM,
		Unit:            "mm",
		Orientation:     template.OrientationLandscape,
		BackgroundColor: template.DefaultBackgroundColor,
		Elements: certificate.Elements{
			&certificate.ShapeElement{
				Position:    certificate.Position{X: 8, Y: 8},
				Size:        certificate.Size{Width: 281, Height: 194},
				Shape:       "rect",
				Stroke:      "#a88a4c",
				StrokeWidth: 2,
			},
			&certificate.TextElement{
				Position:   certificate.Position{X: 48.5, Y: 35},
				Size:       certificate.Size{Width: 200, Height: 20},
				Content:    title,
				FontFamily: "Georgia",
				FontSize:   32,
				FontWeight: "bold",
				Color:      "#2b2b2b",
				Align:      "center",
			},
			&certificate.TextElement{
				Position: certificate.Position{X: 48.5, Y: 70},
				Size:     certificate.Size{Width: 200, Height: 10},
				Content:  "This certificate is proudly presented to",
				FontSize: 14,
				Color:    "#555555",
				Align:    "center",
			},
			&certificate.TextElement{
				Position:   certificate.Position{X: 48.5, Y: 85},
				Size:       certificate.Size{Width: 200, Height: 16},
				Content:    "{{recipient_name}}",
				FontFamily: "Georgia",
				FontSize:   26,
				Color:      "#1a1a1a",
				Align:      "center",
			},
			&certificate.TextElement{
				Position: certificate.Position{X: 48.5, Y: 110},
				Size:     certificate.Size{Width: 200, Height: 10},
				Content:  "for successfully completing",
				FontSize: 14,
				Color:    "#555555",
				Align:    "center",
			},
			&certificate.TextElement{
				Position:   certificate.Position{X: 48.5, Y: 122},
				Size:       certificate.Size{Width: 200, Height: 14},
				Content:    "{{course_name}}",
				FontSize:   20,
				FontWeight: "bold",
				Color:      "#1a1a1a",
				Align:      "center",
			},
			&certificate.TextElement{
				Position: certificate.Position{X: 30, Y: 165},
				Size:     certificate.Size{Width: 100, Height: 10},
				Content:  "{{organization_name}}",
				FontSize: 13,
				Color:    "#333333",
				Align:    "left",
			},
			&certificate.TextElement{
				Position: certificate.Position{X: 167, Y: 165},
				Size:     certificate.Size{Width: 100, Height: 10},
				Content:  "{{issue_date}}",
				FontSize: 13,
				Color:    "#333333",
				Align:    "right",
			},
		},
	}
}

// watermarkElement is appended to the builtin tree for FREE-tier issuance.
func watermarkElement() certificate.Element {
	return &certificate.TextElement{
		Position: certificate.Position{X: 48.5, Y: 188},
		Size:     certificate.Size{Width: 200, Height: 8},
		Content:  "Issued with CertHub Free",
		FontSize: 9,
		Color:    "#b0b0b0",
		Align:    "center",
	}
}

// builtinStarterTemplates are the two layouts auto-provisioned for FREE-tier
// organizations on their first template-list request.
func builtinStarterTemplates() []struct {
	Name string
	Tree *certificate.RenderData
} {
	return []struct {
		Name string
		Tree *certificate.RenderData
	}{
		{Name: "Classic Completion", Tree: BuiltinTree(certificate.TypeCompletion)},
		{Name: "Classic Participation", Tree: BuiltinTree(certificate.TypeParticipation)},
	}
}
