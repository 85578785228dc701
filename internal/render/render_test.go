package render

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/members"
)

func jpegPayload(t *testing.T) imagepkg.Payload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return imagepkg.Payload{MediaType: "image/jpeg", Data: buf.Bytes()}
}

func gifLikePayload(t *testing.T) imagepkg.Payload {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	// declared type the PDF writer does not embed directly
	return imagepkg.Payload{MediaType: "image/*", Data: buf.Bytes()}
}

func testCard(t *testing.T, p layout.Profile, a layout.Assets) layout.Card {
	t.Helper()
	e, err := layout.NewEngine(p, layout.Branding{Name: "Robi Fitness Center", Phones: []string{"1", "2"}, Website: "www.robifitness.com"})
	require.NoError(t, err)
	card, err := e.Layout(members.Member{FullName: "amanuel tesfaye", PhoneNumber: "0911000000", Gender: "male", Address: "Addis Abeba — Bole"}, a)
	require.NoError(t, err)
	return card
}

var pageObj = regexp.MustCompile(`/Type /Page[^s]`)

func TestPDFRender(t *testing.T) {
	logo := jpegPayload(t)
	a := layout.Assets{
		Logo:    imagepkg.Available(logo),
		Barcode: imagepkg.Available(gifLikePayload(t)),
	}
	c1 := testCard(t, layout.Standard(), a)
	c2 := testCard(t, layout.Standard(), a)

	r := NewPDF("All_Members_IDs", logger.Nop())
	r.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, []layout.Page{c1.Front, c1.Back, c2.Front, c2.Back}))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Len(t, pageObj.FindAll(out, -1), 4)
	assert.Equal(t, 1, bytes.Count(out, []byte("/Width 16\n")), "shared logo embedded once")
}

func TestPDFRenderWideProfile(t *testing.T) {
	c := testCard(t, layout.Wide(), layout.Assets{})
	var buf bytes.Buffer
	require.NoError(t, NewPDF("x", logger.Nop()).Render(&buf, []layout.Page{c.Front, c.Back}))
	assert.Contains(t, buf.String(), "/MediaBox [0 0 249.45 158.74]")
}

func TestPDFRenderNoPages(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, NewPDF("x", logger.Nop()).Render(&buf, nil), ErrNoPages)
	assert.Zero(t, buf.Len())
}

func TestPDFSkipsUndecodableImage(t *testing.T) {
	c := testCard(t, layout.Standard(), layout.Assets{
		Profile: imagepkg.Available(imagepkg.Payload{MediaType: "image/*", Data: []byte("junk")}),
	})
	var buf bytes.Buffer
	require.NoError(t, NewPDF("x", logger.Nop()).Render(&buf, []layout.Page{c.Front, c.Back}))
	assert.NotContains(t, buf.String(), "/Subtype /Image")
}

func TestPDFEmbedsMislabeledImage(t *testing.T) {
	j := jpegPayload(t)
	c := testCard(t, layout.Standard(), layout.Assets{
		Profile: imagepkg.Available(imagepkg.Payload{MediaType: "image/png", Data: j.Data}),
	})
	var buf bytes.Buffer
	require.NoError(t, NewPDF("x", logger.Nop()).Render(&buf, []layout.Page{c.Front, c.Back}))
	assert.Len(t, pageObj.FindAll(buf.Bytes(), -1), 2)
	assert.Contains(t, buf.String(), "/Filter /DCTDecode")
}

func appendChunk(b []byte, typ string, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	start := len(b)
	b = append(b, typ...)
	b = append(b, data...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(b[start:]))
}

func TestPDFDropsImageThatFailsToRegister(t *testing.T) {
	var full bytes.Buffer
	require.NoError(t, png.Encode(&full, image.NewNRGBA(image.Rect(0, 0, 8, 8))))
	// keep signature and IHDR so the header decodes, then a corrupt IDAT
	bad := append([]byte(nil), full.Bytes()[:33]...)
	bad = appendChunk(bad, "IDAT", []byte("not zlib data"))
	bad = appendChunk(bad, "IEND", nil)

	c1 := testCard(t, layout.Standard(), layout.Assets{
		Profile: imagepkg.Available(imagepkg.Payload{MediaType: "image/png", Data: bad}),
	})
	c2 := testCard(t, layout.Standard(), layout.Assets{Logo: imagepkg.Available(jpegPayload(t))})

	var buf bytes.Buffer
	require.NoError(t, NewPDF("x", logger.Nop()).Render(&buf, []layout.Page{c1.Front, c1.Back, c2.Front, c2.Back}))
	out := buf.Bytes()
	assert.Len(t, pageObj.FindAll(out, -1), 4)
	assert.Equal(t, 1, bytes.Count(out, []byte("/Subtype /Image")), "only the logo is embedded")
}

func TestAlignX(t *testing.T) {
	assert.Equal(t, 10.0, alignX(10, 4, layout.AlignLeft))
	assert.Equal(t, 8.0, alignX(10, 4, layout.AlignCenter))
	assert.Equal(t, 6.0, alignX(10, 4, layout.AlignRight))
}

func sameRGB(t *testing.T, want color.Color, got color.Color) {
	t.Helper()
	wr, wg, wb, _ := want.RGBA()
	gr, gg, gb, _ := got.RGBA()
	assert.InDelta(t, float64(wr>>8), float64(gr>>8), 8)
	assert.InDelta(t, float64(wg>>8), float64(gg>>8), 8)
	assert.InDelta(t, float64(wb>>8), float64(gb>>8), 8)
}

func TestPreviewFront(t *testing.T) {
	p := layout.Standard()
	c := testCard(t, p, layout.Assets{})
	pv, err := NewPreview(10)
	require.NoError(t, err)

	img := pv.Image(c.Front)
	assert.Equal(t, image.Rect(0, 0, 856, 540), img.Bounds())

	sameRGB(t, rgb(p.Colors.Dark), img.At(100, 500))
	sameRGB(t, rgb(p.Colors.Light), img.At(800, 520))
	sameRGB(t, rgb(p.Colors.Accent), img.At(360, 530))
}

func TestPreviewBackPNG(t *testing.T) {
	p := layout.Wide()
	c := testCard(t, p, layout.Assets{Barcode: imagepkg.Available(jpegPayload(t))})
	pv, err := NewPreview(5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pv.RenderPNG(&buf, c.Back))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 440, 280), img.Bounds())
	sameRGB(t, rgb(p.Colors.Light), img.At(5, 5))
	// the barcode strip is black
	sameRGB(t, color.Black, img.At(220, 230))
}

func TestNewPreviewRejectsBadScale(t *testing.T) {
	_, err := NewPreview(0)
	assert.Error(t, err)
}
