package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
)

// Preview rasterizes a single page. Output is close to, not identical with,
// the PDF: it uses the Go fonts instead of Helvetica.
type Preview struct {
	pxPerMM float64
	regular *truetype.Font
	bold    *truetype.Font
}

type faceKey struct {
	style layout.FontStyle
	size  float64
}

// NewPreview renders at pxPerMM pixels per millimetre (12 is about 300 dpi).
func NewPreview(pxPerMM float64) (*Preview, error) {
	if pxPerMM <= 0 {
		return nil, fmt.Errorf("preview scale must be positive")
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Preview{
		pxPerMM: pxPerMM,
		regular: regular,
		bold:    bold,
	}, nil
}

// face returns a cached face. Faces are not safe for concurrent use, so each
// Image call owns its cache.
func (r *Preview) face(cache map[faceKey]font.Face, style layout.FontStyle, size float64) font.Face {
	k := faceKey{style: style, size: size}
	if f, ok := cache[k]; ok {
		return f
	}
	f := r.regular
	if style == layout.Bold {
		f = r.bold
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     r.pxPerMM * 25.4,
		Hinting: font.HintingNone,
	})
	cache[k] = face
	return face
}

func (r *Preview) px(mm float64) float64 { return mm * r.pxPerMM }

// Image draws pg. Images that fail to decode are skipped.
func (r *Preview) Image(pg layout.Page) image.Image {
	w := int(math.Round(r.px(pg.Width)))
	h := int(math.Round(r.px(pg.Height)))
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	faces := map[faceKey]font.Face{}

	for _, o := range pg.Ops {
		switch op := o.(type) {
		case layout.FillRect:
			dc.SetColor(rgb(op.Color))
			dc.DrawRectangle(r.px(op.X), r.px(op.Y), r.px(op.W), r.px(op.H))
			dc.Fill()
		case layout.DrawImage:
			img, err := imagepkg.Decode(op.Payload)
			if err != nil {
				continue
			}
			img = imagepkg.Fit(img, int(math.Round(r.px(op.W))), int(math.Round(r.px(op.H))))
			dc.DrawImage(img, int(math.Round(r.px(op.X))), int(math.Round(r.px(op.Y))))
		case layout.DrawText:
			dc.SetFontFace(r.face(faces, op.Style, op.Size))
			dc.SetColor(rgb(op.Color))
			ax := 0.0
			switch op.Align {
			case layout.AlignCenter:
				ax = 0.5
			case layout.AlignRight:
				ax = 1
			}
			dc.DrawStringAnchored(op.Text, r.px(op.X), r.px(op.Y), ax, 0)
		}
	}
	return dc.Image()
}

func (r *Preview) RenderPNG(w io.Writer, pg layout.Page) error {
	return imagepkg.EncodePNG(w, r.Image(pg))
}

func rgb(c layout.Color) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
