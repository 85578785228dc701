package layout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/members"
	"github.com/youruser/memberids/internal/textfmt"
)

// ErrMalformedRecord is returned by Layout for a member whose text fields are
// not valid UTF-8. It is the same sentinel the member decoder reports.
var ErrMalformedRecord = members.ErrMalformedRecord

// Branding is the organization text printed on every back page.
type Branding struct {
	Name    string
	Address string
	Phones  []string
	Website string
}

// Assets are the resolved images of one member. Absent assets are skipped.
type Assets struct {
	Profile imagepkg.Asset
	Barcode imagepkg.Asset
	Logo    imagepkg.Asset
}

// Engine turns one member into a front and a back page.
type Engine struct {
	profile Profile
	brand   Branding
}

// NewEngine validates p and binds it to the organization branding.
func NewEngine(p Profile, b Branding) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{profile: p, brand: b}, nil
}

// Profile returns the layout profile the engine draws with.
func (e *Engine) Profile() Profile { return e.profile }

// Layout builds both pages for m. Draw order within a page is significant:
// later ops paint over earlier ones.
func (e *Engine) Layout(m members.Member, a Assets) (Card, error) {
	for _, f := range []string{m.FullName, m.PhoneNumber, m.Address, m.EmergencyContact, m.Gender, m.Service.Name} {
		if !utf8.ValidString(f) {
			return Card{}, fmt.Errorf("%w: invalid utf-8 in %q", ErrMalformedRecord, m.FullName)
		}
	}
	return Card{
		Front: e.front(m, a),
		Back:  e.back(a),
	}, nil
}

func (e *Engine) front(m members.Member, a Assets) Page {
	p := e.profile
	pg := Page{Side: Front, Width: p.Width, Height: p.Height}
	half := p.Width / 2
	leftEnd := half - p.LeftMargin
	dark, light := p.Colors.Dark, p.Colors.Light

	pg.Ops = append(pg.Ops,
		FillRect{X: 0, Y: 0, W: leftEnd, H: p.Height, Color: dark},
		FillRect{X: half, Y: 0, W: half, H: p.Height, Color: light},
		FillRect{X: half - p.DividerOffset, Y: 0, W: p.DividerWidth, H: p.Height, Color: p.Colors.Accent},
	)

	if photo, ok := a.Profile.Get(); ok {
		pg.Ops = append(pg.Ops, DrawImage{Role: RoleProfile, X: p.Photo.X, Y: p.Photo.Y, W: p.Photo.W, H: p.Photo.H, Payload: photo})
	}

	name := textfmt.SplitName(m.FullName)
	cx := leftEnd / 2
	pg.addText(DrawText{Text: name.Given, X: cx, Y: p.GivenName.Y, Size: p.GivenName.Size, Style: Bold, Color: light, Align: AlignCenter})
	pg.addText(DrawText{Text: name.Rest, X: cx, Y: p.RestName.Y, Size: p.RestName.Size, Style: Regular, Color: light, Align: AlignCenter})

	labelX := half + p.LabelOffset
	for i, label := range Labels {
		pg.addText(DrawText{Text: label, X: labelX, Y: p.Rows[i], Size: p.LabelSize, Color: dark})
	}

	values := [len(Labels)]string{
		m.PhoneNumber,
		textfmt.Truncate(m.Address, p.Truncate.Address),
		textfmt.Truncate(m.Service.Name, p.Truncate.Service),
		textfmt.Truncate(m.EmergencyContact, p.Truncate.Emergency),
		m.Gender,
	}
	valueX := half + p.ValueOffset
	for i, v := range values {
		pg.addText(DrawText{Text: v, X: valueX, Y: p.Rows[i], Size: p.ValueSize, Style: Bold, Color: dark})
	}

	if p.Barcode.Placement == PlaceFront {
		pg.addBarcode(p.Barcode.Box, a.Barcode)
	}

	if p.IDLabel.Show {
		pg.addText(DrawText{Text: p.IDLabel.Text, X: p.Width - p.IDLabel.Inset, Y: p.IDLabel.Y, Size: p.IDLabel.Size, Color: dark, Align: AlignRight})
	}
	return pg
}

func (e *Engine) back(a Assets) Page {
	p := e.profile
	pg := Page{Side: Back, Width: p.Width, Height: p.Height}
	bg, fg := p.Colors.resolve(p.BackBackground)
	cx := p.Width / 2

	pg.Ops = append(pg.Ops, FillRect{X: 0, Y: 0, W: p.Width, H: p.Height, Color: bg})

	if logo, ok := a.Logo.Get(); ok {
		pg.Ops = append(pg.Ops, DrawImage{Role: RoleLogo, X: cx - p.Logo.W/2, Y: p.Logo.Y, W: p.Logo.W, H: p.Logo.H, Payload: logo})
	}

	l := p.BackLines
	pg.addText(DrawText{Text: e.brand.Name, X: cx, Y: l.Org.Y, Size: l.Org.Size, Style: Bold, Color: fg, Align: AlignCenter})
	pg.addText(DrawText{Text: e.brand.Address, X: cx, Y: l.Address.Y, Size: l.Address.Size, Color: fg, Align: AlignCenter})
	pg.addText(DrawText{Text: strings.Join(e.brand.Phones, " | "), X: cx, Y: l.Phones.Y, Size: l.Phones.Size, Color: fg, Align: AlignCenter})
	pg.addText(DrawText{Text: e.brand.Website, X: cx, Y: l.Website.Y, Size: l.Website.Size, Style: Bold, Color: fg, Align: AlignCenter})

	if p.Barcode.Placement == PlaceBack {
		pg.addBarcode(p.Barcode.Box, a.Barcode)
	}
	return pg
}

// addText drops empty runs; they would draw nothing.
func (pg *Page) addText(t DrawText) {
	if t.Text == "" {
		return
	}
	pg.Ops = append(pg.Ops, t)
}

func (pg *Page) addBarcode(b Box, a imagepkg.Asset) {
	if code, ok := a.Get(); ok {
		pg.Ops = append(pg.Ops, DrawImage{Role: RoleBarcode, X: b.X, Y: b.Y, W: b.W, H: b.H, Payload: code})
	}
}
