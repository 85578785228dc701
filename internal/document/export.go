package document

import (
	"fmt"
	"strings"
)

// Entry describes one page of the document.
type Entry struct {
	Page   int    `json:"page"`
	Holder string `json:"holder"`
	Side   string `json:"side"`
}

func (d *Document) Manifest() []Entry {
	out := make([]Entry, 0, len(d.pages))
	for i, pg := range d.pages {
		out = append(out, Entry{Page: i, Holder: d.holders[i/2], Side: pg.Side.String()})
	}
	return out
}

// ExportManifestText renders the manifest one page per line.
func ExportManifestText(d *Document) string {
	lines := []string{}
	if d.Name != "" {
		lines = append(lines, "# "+d.Name)
	}
	for _, e := range d.Manifest() {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%d %s %s", e.Page, e.Side, e.Holder)))
	}
	return strings.Join(lines, "\n")
}
