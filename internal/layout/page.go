package layout

import (
	"encoding/hex"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	imagepkg "github.com/youruser/memberids/internal/image"
)

// Color is an opaque RGB color.
type Color struct {
	R, G, B uint8
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: expected 6 hex chars", s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: raw[0], G: raw[1], B: raw[2]}, nil
}

// MustHex is ParseHex for constants; it panics on a bad value.
func MustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type FontStyle int

const (
	Regular FontStyle = iota
	Bold
)

// ImageRole tells which asset an image op draws.
type ImageRole string

const (
	RoleProfile ImageRole = "profile"
	RoleBarcode ImageRole = "barcode"
	RoleLogo    ImageRole = "logo"
)

// Op is one draw instruction. Coordinates are millimetres from the top-left
// corner of the page.
type Op interface {
	op()
}

type FillRect struct {
	X, Y, W, H float64
	Color      Color
}

type DrawImage struct {
	Role       ImageRole
	X, Y, W, H float64
	Payload    imagepkg.Payload
}

// DrawText places Text with its baseline at Y. X is the left edge, centre or
// right edge depending on Align.
type DrawText struct {
	Text  string
	X, Y  float64
	Size  float64 // points
	Style FontStyle
	Color Color
	Align Align
}

func (FillRect) op()  {}
func (DrawImage) op() {}
func (DrawText) op()  {}

type Side int

const (
	Front Side = iota
	Back
)

func (s Side) String() string {
	if s == Back {
		return "back"
	}
	return "front"
}

// ParseSide accepts "front" or "back".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "front":
		return Front, nil
	case "back":
		return Back, nil
	}
	return Front, fmt.Errorf("unknown card side %q", s)
}

// Page is one side of a card.
type Page struct {
	Side   Side
	Width  float64
	Height float64
	Ops    []Op
}

// Images returns the image ops of the page with the given role.
func (p Page) Images(role ImageRole) []DrawImage {
	var out []DrawImage
	for _, o := range p.Ops {
		if img, ok := o.(DrawImage); ok && img.Role == role {
			out = append(out, img)
		}
	}
	return out
}

// Texts returns all text ops in draw order.
func (p Page) Texts() []DrawText {
	var out []DrawText
	for _, o := range p.Ops {
		if t, ok := o.(DrawText); ok {
			out = append(out, t)
		}
	}
	return out
}

// Card is the front and back pages of one member.
type Card struct {
	Front Page
	Back  Page
}
