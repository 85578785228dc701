// Package render turns layout pages into output formats: a multi-page PDF
// for printing and PNG previews of single card sides.
package render

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
)

var ErrNoPages = errors.New("document has no pages")

const pdfFont = "Helvetica"

// PDF writes pages as a PDF sized in millimetres, one PDF page per card side.
type PDF struct {
	Title   string
	Creator string
	// Now stamps the creation date; tests pin it for stable output.
	Now func() time.Time

	log *logger.Logger
}

func NewPDF(title string, log *logger.Logger) *PDF {
	return &PDF{
		Title:   title,
		Creator: "memberids",
		Now:     time.Now,
		log:     log.With("component", "PDFRenderer"),
	}
}

func (r *PDF) Render(w io.Writer, pages []layout.Page) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	first := pages[0]
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: first.Width, Ht: first.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator(r.Creator, true)
	if r.Now != nil {
		pdf.SetCreationDate(r.Now())
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, pg := range pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: pg.Width, Ht: pg.Height})
		for _, o := range pg.Ops {
			switch op := o.(type) {
			case layout.FillRect:
				pdf.SetFillColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.Rect(op.X, op.Y, op.W, op.H, "F")
			case layout.DrawImage:
				r.drawImage(pdf, op)
			case layout.DrawText:
				style := ""
				if op.Style == layout.Bold {
					style = "B"
				}
				pdf.SetFont(pdfFont, style, op.Size)
				pdf.SetTextColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				s := tr(op.Text)
				pdf.Text(alignX(op.X, pdf.GetStringWidth(s), op.Align), op.Y, s)
			}
		}
		if pdf.Err() {
			return fmt.Errorf("render page %d (%s): %w", i, pg.Side, pdf.Error())
		}
	}
	return pdf.Output(w)
}

// drawImage registers each distinct image once, so a shared logo is embedded
// a single time however many cards carry it.
func (r *PDF) drawImage(pdf *fpdf.Fpdf, op layout.DrawImage) {
	p := op.Payload
	imgType := pdfImageType(p.MediaType)
	// declared type must match the bytes
	if format, err := p.Format(); err != nil || imgType != pdfImageType("image/"+format) || !imagepkg.Embeddable(p) {
		n, err := imagepkg.Normalize(p)
		if err != nil {
			r.log.Warn("skipping image", "role", op.Role, "error", err)
			return
		}
		p = n
		imgType = pdfImageType(p.MediaType)
	}
	sum := sha1.Sum(p.Data)
	name := string(op.Role) + "-" + hex.EncodeToString(sum[:])
	opts := fpdf.ImageOptions{ImageType: imgType}
	if pdf.GetImageInfo(name) == nil {
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.Data))
		if pdf.Err() {
			// fpdf errors are sticky; drop this image and keep the page
			r.log.Warn("skipping image", "role", op.Role, "error", pdf.Error())
			pdf.ClearError()
			return
		}
	}
	pdf.ImageOptions(name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
}

func pdfImageType(mediaType string) string {
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return "JPG"
	case "image/png":
		return "PNG"
	}
	return ""
}

func alignX(x, width float64, a layout.Align) float64 {
	switch a {
	case layout.AlignCenter:
		return x - width/2
	case layout.AlignRight:
		return x - width
	}
	return x
}
