package document

import (
	"errors"

	"github.com/google/uuid"

	"github.com/youruser/memberids/internal/layout"
)

var ErrSealed = errors.New("document is sealed")

// Document accumulates card pages in member order. Member i owns pages 2i
// (front) and 2i+1 (back).
type Document struct {
	ID   uuid.UUID
	Name string

	pages   []layout.Page
	holders []string
	sealed  bool
}

func New(name string) *Document {
	return &Document{ID: uuid.New(), Name: name}
}

// AppendCard adds one member's front and back.
func (d *Document) AppendCard(holder string, card layout.Card) error {
	if d.sealed {
		return ErrSealed
	}
	d.pages = append(d.pages, card.Front, card.Back)
	d.holders = append(d.holders, holder)
	return nil
}

// Seal makes the document immutable.
func (d *Document) Seal() { d.sealed = true }

func (d *Document) Sealed() bool { return d.sealed }

func (d *Document) PageCount() int { return len(d.pages) }

func (d *Document) CardCount() int { return len(d.holders) }

// Pages returns a copy of the page list.
func (d *Document) Pages() []layout.Page {
	return append([]layout.Page(nil), d.pages...)
}

// Card returns the pages of the i-th appended member.
func (d *Document) Card(i int) (layout.Card, bool) {
	if i < 0 || i >= len(d.holders) {
		return layout.Card{}, false
	}
	return layout.Card{Front: d.pages[2*i], Back: d.pages[2*i+1]}, true
}
