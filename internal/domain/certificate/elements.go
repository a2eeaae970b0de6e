// internal/domain/certificate/elements.go
package certificate

import (
	"encoding/json"
	"fmt"
)

type ElementKind string

const (
	KindText      ElementKind = "text"
	KindShape     ElementKind = "shape"
	KindLogo      ElementKind = "logo"
	KindSignature ElementKind = "signature"
	KindQRCode    ElementKind = "qrcode"
)

// Element is one typed visual element of a certificate layout. Each variant
// carries only the attributes relevant to its kind.
type Element interface {
	Kind() ElementKind
	// Clone returns a deep copy so render pipelines never mutate stored trees.
	Clone() Element
}

// Position is the top-left anchor of an element on the canvas, in canvas units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TextElement struct {
	Position   Position `json:"position"`
	Size       Size     `json:"size"`
	Content    string   `json:"content"`
	FontFamily string   `json:"font_family,omitempty"`
	FontSize   float64  `json:"font_size,omitempty"`
	FontWeight string   `json:"font_weight,omitempty"`
	Color      string   `json:"color,omitempty"`
	Align      string   `json:"align,omitempty"`
}

func (e *TextElement) Kind() ElementKind { return KindText }
func (e *TextElement) Clone() Element    { c := *e; return &c }

type ShapeElement struct {
	Position    Position `json:"position"`
	Size        Size     `json:"size"`
	Shape       string   `json:"shape"` // rect, line, circle
	Fill        string   `json:"fill,omitempty"`
	Stroke      string   `json:"stroke,omitempty"`
	StrokeWidth float64  `json:"stroke_width,omitempty"`
}

func (e *ShapeElement) Kind() ElementKind { return KindShape }
func (e *ShapeElement) Clone() Element    { c := *e; return &c }

type LogoElement struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	ImageURL string   `json:"image_url"`
}

func (e *LogoElement) Kind() ElementKind { return KindLogo }
func (e *LogoElement) Clone() Element    { c := *e; return &c }

type SignatureElement struct {
	Position    Position `json:"position"`
	Size        Size     `json:"size"`
	ImageURL    string   `json:"image_url,omitempty"`
	SignerName  string   `json:"signer_name,omitempty"`
	SignerTitle string   `json:"signer_title,omitempty"`
}

func (e *SignatureElement) Kind() ElementKind { return KindSignature }
func (e *SignatureElement) Clone() Element    { c := *e; return &c }

type QRCodeElement struct {
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Value    string   `json:"value"`
}

func (e *QRCodeElement) Kind() ElementKind { return KindQRCode }
func (e *QRCodeElement) Clone() Element    { c := *e; return &c }

// Elements is the ordered element list of a layout. It serializes each entry
// with a "type" discriminator so heterogeneous lists round-trip.
type Elements []Element

// Clone deep-copies the list.
func (els Elements) Clone() Elements {
	if els == nil {
		return nil
	}
	out := make(Elements, len(els))
	for i, e := range els {
		out[i] = e.Clone()
	}
	return out
}

type elementEnvelope struct {
	Type ElementKind `json:"type"`
}

func (els Elements) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(els))
	for _, e := range els {
		body, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		// Splice the discriminator into the element object.
		tagged := append([]byte(nil), body[:len(body)-1]...)
		if len(body) > 2 {
			tagged = append(tagged, ',')
		}
		tagged = append(tagged, []byte(fmt.Sprintf("%q:%q}", "type", e.Kind()))...)
		raw = append(raw, tagged)
	}
	return json.Marshal(raw)
}

func (els *Elements) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Elements, 0, len(raw))
	for _, item := range raw {
		var env elementEnvelope
		if err := json.Unmarshal(item, &env); err != nil {
			return err
		}

		var (
			el  Element
			err error
		)
		switch env.Type {
		case KindText:
			v := &TextElement{}
			err = json.Unmarshal(item, v)
			el = v
		case KindShape:
			v := &ShapeElement{}
			err = json.Unmarshal(item, v)
			el = v
		case KindLogo:
			v := &LogoElement{}
			err = json.Unmarshal(item, v)
			el = v
		case KindSignature:
			v := &SignatureElement{}
			err = json.Unmarshal(item, v)
			el = v
		case KindQRCode:
			v := &QRCodeElement{}
			err = json.Unmarshal(item, v)
			el = v
		default:
			// Unknown kinds are dropped rather than failing the whole tree, so
			// a newer editor build cannot brick older readers.
			continue
		}
		if err != nil {
			return err
		}
		out = append(out, el)
	}

	*els = out
	return nil
}
