// internal/service/render/materialize.go
package render

import (
	"strings"
	"time"

	"certhub-service/internal/domain/certificate"
	"certhub-service/internal/domain/organization"
)

// Fields are the concrete values substituted into a resolved layout.
type Fields struct {
	RecipientName    string
	CourseName       string
	OrganizationName string
	CertificateID    string
	CertificateType  string
	IssueDate        time.Time
}

// Default geometry for a logo appended when the template has none. Canvas
// units (mm on the canonical A4 sizes).
var defaultLogoElement = certificate.LogoElement{
	Position: certificate.Position{X: 20, Y: 15},
	Size:     certificate.Size{Width: 30, Height: 30},
}

// Materialize produces the final render data from a resolved layout: the
// organization's logo is merged in and every recognized placeholder token is
// replaced with its field value. The input tree is never mutated; the result
// is a self-contained snapshot with no remaining template variables for the
// recognized token set. Unrecognized tokens pass through verbatim.
//
// Materializing the output again with the same inputs yields a structurally
// identical tree: the logo merge updates an existing logo element in place
// rather than appending a second one.
func Materialize(tree *certificate.RenderData, org *organization.Organization, fields Fields) *certificate.RenderData {
	out := tree.Clone()

	mergeLogo(out, org.LogoURL())

	replacer := strings.NewReplacer(
		"{{recipient_name}}", fields.RecipientName,
		"{{course_name}}", fields.CourseName,
		"{{issue_date}}", fields.IssueDate.Format("January 2, 2006"),
		"{{organization_name}}", fields.OrganizationName,
		"{{certificate_id}}", fields.CertificateID,
		"{{certificate_type}}", fields.CertificateType,
	)

	for _, el := range out.Elements {
		if text, ok := el.(*certificate.TextElement); ok {
			text.Content = replacer.Replace(text.Content)
		}
	}

	return out
}

// mergeLogo updates the first logo element's image in place, or appends a new
// logo element at the default position when the tree has none.
func mergeLogo(tree *certificate.RenderData, logoURL string) {
	if logoURL == "" {
		return
	}

	for _, el := range tree.Elements {
		if logo, ok := el.(*certificate.LogoElement); ok {
			logo.ImageURL = logoURL
			return
		}
	}

	logo := defaultLogoElement
	logo.ImageURL = logoURL
	tree.Elements = append(tree.Elements, &logo)
}
