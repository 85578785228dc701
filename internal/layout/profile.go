package layout

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownProfile is returned for a profile name with no definition.
var ErrUnknownProfile = errors.New("unknown layout profile")

// Placement says which side of the card carries the barcode.
type Placement string

const (
	PlaceFront Placement = "front"
	PlaceBack  Placement = "back"
)

// ColorRole names one of the palette colors.
type ColorRole string

const (
	RoleDark  ColorRole = "dark"
	RoleLight ColorRole = "light"
)

// Palette holds the brand colors a profile draws with.
type Palette struct {
	Dark   Color `yaml:"dark"`
	Light  Color `yaml:"light"`
	Accent Color `yaml:"accent"`
}

func (p Palette) resolve(r ColorRole) (bg, fg Color) {
	if r == RoleLight {
		return p.Light, p.Dark
	}
	return p.Dark, p.Light
}

// Box is a rectangle in millimetres from the top-left corner.
type Box struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Line is the baseline offset and font size of one text line.
type Line struct {
	Y    float64 `yaml:"y"`
	Size float64 `yaml:"size"`
}

// Truncation is the maximum length of each shortened front value.
type Truncation struct {
	Address   int `yaml:"address"`
	Service   int `yaml:"service"`
	Emergency int `yaml:"emergency"`
}

// BarcodeSpec places the barcode strip on one side of the card.
type BarcodeSpec struct {
	Placement Placement `yaml:"placement"`
	Box       Box       `yaml:"box"`
}

// IDLabelSpec is the small label in the top-right corner of the front.
type IDLabelSpec struct {
	Show bool    `yaml:"show"`
	Text string  `yaml:"text"`
	Size float64 `yaml:"size"`
	// Inset is the distance of the right edge from the card's right edge.
	Inset float64 `yaml:"inset"`
	Y     float64 `yaml:"y"`
}

// BackLines are the branding text lines of the back page.
type BackLines struct {
	Org     Line `yaml:"org"`
	Address Line `yaml:"address"`
	Phones  Line `yaml:"phones"`
	Website Line `yaml:"website"`
}

// Profile is the full geometry and color configuration of one card layout.
// All lengths are millimetres, font sizes are points.
type Profile struct {
	Name   string  `yaml:"name"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	Colors Palette `yaml:"colors"`

	// The dark left region ends at Width/2 - LeftMargin.
	LeftMargin    float64 `yaml:"left_margin"`
	DividerOffset float64 `yaml:"divider_offset"`
	DividerWidth  float64 `yaml:"divider_width"`

	Photo     Box  `yaml:"photo"`
	GivenName Line `yaml:"given_name"`
	RestName  Line `yaml:"rest_name"`

	// Label and value columns are offsets from Width/2.
	LabelOffset float64   `yaml:"label_offset"`
	ValueOffset float64   `yaml:"value_offset"`
	Rows        []float64 `yaml:"rows"`
	LabelSize   float64   `yaml:"label_size"`
	ValueSize   float64   `yaml:"value_size"`

	Truncate Truncation  `yaml:"truncate"`
	Barcode  BarcodeSpec `yaml:"barcode"`
	IDLabel  IDLabelSpec `yaml:"id_label"`

	BackBackground ColorRole `yaml:"back_background"`
	// Logo X is ignored; the logo is centered horizontally.
	Logo      Box       `yaml:"logo"`
	BackLines BackLines `yaml:"back_lines"`
}

// Labels of the front detail column, top to bottom.
var Labels = [5]string{"Phone no.", "Address", "Service", "Emergency", "Sex"}

// Validate rejects profiles the engine cannot draw.
func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("profile %q: card size must be positive", p.Name)
	}
	if len(p.Rows) != len(Labels) {
		return fmt.Errorf("profile %q: want %d rows, got %d", p.Name, len(Labels), len(p.Rows))
	}
	if p.Barcode.Placement != PlaceFront && p.Barcode.Placement != PlaceBack {
		return fmt.Errorf("profile %q: barcode placement %q", p.Name, p.Barcode.Placement)
	}
	if p.BackBackground != RoleDark && p.BackBackground != RoleLight {
		return fmt.Errorf("profile %q: back background %q", p.Name, p.BackBackground)
	}
	if p.Truncate.Address < 0 || p.Truncate.Service < 0 || p.Truncate.Emergency < 0 {
		return fmt.Errorf("profile %q: negative truncation length", p.Name)
	}
	return nil
}

var (
	brandBlack  = MustHex("#000000")
	brandWhite  = MustHex("#FFFFFF")
	brandOrange = MustHex("#FF6600")
)

// Standard is the canonical ID-1 (85.6×54mm) card.
func Standard() Profile {
	return Profile{
		Name:   "standard",
		Width:  85.6,
		Height: 54,
		Colors: Palette{Dark: brandBlack, Light: brandWhite, Accent: brandOrange},

		LeftMargin:    6.5,
		DividerOffset: 7,
		DividerWidth:  0.5,

		Photo:     Box{X: 8, Y: 5, W: 20, H: 20},
		GivenName: Line{Y: 29, Size: 10},
		RestName:  Line{Y: 32, Size: 7},

		LabelOffset: -4,
		ValueOffset: 11,
		Rows:        []float64{9, 14, 19, 24, 29},
		LabelSize:   6,
		ValueSize:   8,

		Truncate: Truncation{Address: 17, Service: 17, Emergency: 17},
		Barcode:  BarcodeSpec{Placement: PlaceFront, Box: Box{X: 5.3, Y: 36, W: 75, H: 15}},
		IDLabel:  IDLabelSpec{Show: true, Text: "ID", Size: 8, Inset: 5, Y: 5},

		BackBackground: RoleDark,
		Logo:           Box{Y: 8, W: 20, H: 24},
		BackLines: BackLines{
			Org:     Line{Y: 35, Size: 10},
			Address: Line{Y: 40, Size: 8},
			Phones:  Line{Y: 45, Size: 8},
			Website: Line{Y: 50, Size: 8},
		},
	}
}

// Wide is the 88×56mm variant with a light back carrying the barcode.
func Wide() Profile {
	return Profile{
		Name:   "wide",
		Width:  88,
		Height: 56,
		Colors: Palette{Dark: brandBlack, Light: brandWhite, Accent: brandOrange},

		LeftMargin:    6.5,
		DividerOffset: 7,
		DividerWidth:  0.5,

		Photo:     Box{X: 8, Y: 5, W: 20, H: 20},
		GivenName: Line{Y: 29, Size: 10},
		RestName:  Line{Y: 32, Size: 7},

		LabelOffset: -4,
		ValueOffset: 11,
		Rows:        []float64{9, 14, 19, 24, 29},
		LabelSize:   6,
		ValueSize:   8,

		Truncate: Truncation{Address: 17, Service: 17, Emergency: 33},
		Barcode:  BarcodeSpec{Placement: PlaceBack, Box: Box{X: 9, Y: 40, W: 70, H: 12}},

		BackBackground: RoleLight,
		Logo:           Box{Y: 3, W: 14, H: 16},
		BackLines: BackLines{
			Org:     Line{Y: 24, Size: 10},
			Address: Line{Y: 28.5, Size: 8},
			Phones:  Line{Y: 32.5, Size: 8},
			Website: Line{Y: 36.5, Size: 8},
		},
	}
}

// Profiles is a registry of layout profiles keyed by name.
type Profiles map[string]Profile

// Presets returns the built-in profiles.
func Presets() Profiles {
	return Profiles{
		"standard": Standard(),
		"wide":     Wide(),
	}
}

// Get returns the named profile or ErrUnknownProfile.
func (ps Profiles) Get(name string) (Profile, error) {
	p, ok := ps[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// Names returns the profile names, sorted.
func (ps Profiles) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadProfiles reads profile overrides from a YAML file of the form
//
//	profiles:
//	  - name: standard
//	    truncate: {emergency: 25}
//	  - name: kiosk
//	    extends: wide
//	    back_background: dark
//
// Each entry starts from the preset it names (or the one in extends) and only
// the keys present in the file change. The presets are always included.
func LoadProfiles(path string) (Profiles, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseProfiles(raw)
}

// ParseProfiles is LoadProfiles on raw YAML.
func ParseProfiles(raw []byte) (Profiles, error) {
	var doc struct {
		Profiles []yaml.Node `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	out := Presets()
	for i := range doc.Profiles {
		node := &doc.Profiles[i]
		var head struct {
			Name    string `yaml:"name"`
			Extends string `yaml:"extends"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("profile #%d: %w", i, err)
		}
		if head.Name == "" {
			return nil, fmt.Errorf("profile #%d: name is required", i)
		}
		baseName := head.Extends
		if baseName == "" {
			baseName = head.Name
			if _, ok := out[baseName]; !ok {
				baseName = "standard"
			}
		}
		base, err := out.Get(baseName)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", head.Name, err)
		}
		base.Rows = append([]float64(nil), base.Rows...)
		if err := node.Decode(&base); err != nil {
			return nil, fmt.Errorf("profile %q: %w", head.Name, err)
		}
		base.Name = head.Name
		if err := base.Validate(); err != nil {
			return nil, err
		}
		out[head.Name] = base
	}
	return out, nil
}
