// internal/domain/certificate/elements_test.go
package certificate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementsRoundTrip(t *testing.T) {
	in := Elements{
		&TextElement{
			Position: Position{X: 10, Y: 20},
			Size:     Size{Width: 100, Height: 12},
			Content:  "{{recipient_name}}",
			FontSize: 24,
			Align:    "center",
		},
		&ShapeElement{Shape: "rect", Stroke: "#a88a4c", StrokeWidth: 2},
		&LogoElement{ImageURL: "https://cdn.example.com/logo.png"},
		&SignatureElement{SignerName: "Dr. Okafor", SignerTitle: "Dean"},
		&QRCodeElement{Value: "{{certificate_id}}"},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out Elements
	require.NoError(t, json.Unmarshal(raw, &out))

	require.Len(t, out, 5)
	assert.Equal(t, KindText, out[0].Kind())
	assert.Equal(t, KindShape, out[1].Kind())
	assert.Equal(t, KindLogo, out[2].Kind())
	assert.Equal(t, KindSignature, out[3].Kind())
	assert.Equal(t, KindQRCode, out[4].Kind())

	text, ok := out[0].(*TextElement)
	require.True(t, ok)
	assert.Equal(t, "{{recipient_name}}", text.Content)
	assert.Equal(t, 24.0, text.FontSize)
}

func TestElementsMarshalCarriesDiscriminator(t *testing.T) {
	raw, err := json.Marshal(Elements{&QRCodeElement{Value: "v"}})
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	require.Len(t, generic, 1)
	assert.Equal(t, "qrcode", generic[0]["type"])
}

func TestElementsUnmarshalSkipsUnknownKinds(t *testing.T) {
	raw := `[
		{"type":"text","content":"keep me","position":{"x":0,"y":0},"size":{"width":1,"height":1}},
		{"type":"video","url":"https://example.com/clip.mp4"},
		{"type":"shape","shape":"line"}
	]`

	var out Elements
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.Len(t, out, 2)
	assert.Equal(t, KindText, out[0].Kind())
	assert.Equal(t, KindShape, out[1].Kind())
}

func TestElementsCloneIsDeep(t *testing.T) {
	in := Elements{&TextElement{Content: "original"}}
	out := in.Clone()

	out[0].(*TextElement).Content = "changed"
	assert.Equal(t, "original", in[0].(*TextElement).Content)
}

func TestRenderDataCloneIsDeep(t *testing.T) {
	in := &RenderData{
		Width:    297,
		Elements: Elements{&LogoElement{ImageURL: "a"}},
	}
	out := in.Clone()

	out.Elements[0].(*LogoElement).ImageURL = "b"
	assert.Equal(t, "a", in.Elements[0].(*LogoElement).ImageURL)
}
