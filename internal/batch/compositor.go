package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/memberids/internal/document"
	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/members"
	"github.com/youruser/memberids/internal/metrics"
)

var (
	// ErrEmptyInput means there were no members to render; no document is
	// produced.
	ErrEmptyInput = errors.New("no members to render")
	// ErrEmptyDocument means every member was skipped.
	ErrEmptyDocument = errors.New("document has no cards")
	// ErrNotSealed means Save was given a nil or unfinished document.
	ErrNotSealed = errors.New("document is still being composed")
)

// CompositionError reports a member whose card could not be built. The batch
// skips that member and carries on.
type CompositionError struct {
	Index  int
	Holder string
	Err    error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose member #%d (%s): %v", e.Index, e.Holder, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

// Renderer writes the finished pages.
type Renderer interface {
	Render(w io.Writer, pages []layout.Page) error
}

// Options tune one batch run.
type Options struct {
	ArtifactName string
	// Limit caps how many members are rendered; 0 renders everyone.
	Limit   int
	LogoURL string
	// FetchLogoPerMember fetches the logo again for every card instead of
	// once per batch.
	FetchLogoPerMember bool
	// BarcodeTextAsQR encodes plain-text barcode values as QR codes instead
	// of leaving the barcode out.
	BarcodeTextAsQR bool
	QRSize          int
}

// Compositor runs one layout profile over a member list.
type Compositor struct {
	fetcher  imagepkg.Fetcher
	engine   *layout.Engine
	renderer Renderer
	opts     Options
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New builds a compositor. m may be nil.
func New(fetcher imagepkg.Fetcher, engine *layout.Engine, renderer Renderer, opts Options, log *logger.Logger, m *metrics.Metrics) *Compositor {
	if opts.ArtifactName == "" {
		opts.ArtifactName = "All_Members_IDs.pdf"
	}
	if opts.QRSize <= 0 {
		opts.QRSize = 256
	}
	return &Compositor{
		fetcher:  fetcher,
		engine:   engine,
		renderer: renderer,
		opts:     opts,
		log:      log.With("component", "BatchCompositor"),
		metrics:  m,
	}
}

// Generate composes front and back pages for each member, in input order.
// Members are processed one at a time; a member's own fetches run
// concurrently and all finish before its layout starts. On cancellation the
// in-flight member is dropped and no document is returned.
func (c *Compositor) Generate(ctx context.Context, ms []members.Member) (*document.Document, error) {
	start := time.Now()
	if len(ms) == 0 {
		c.log.Error("No members found.")
		c.metrics.ObserveBatch("empty_input", time.Since(start))
		return nil, ErrEmptyInput
	}
	if c.opts.Limit > 0 && len(ms) > c.opts.Limit {
		c.log.Info("batch capped", "members", len(ms), "limit", c.opts.Limit)
		ms = ms[:c.opts.Limit]
	}

	doc := document.New(c.opts.ArtifactName)
	log := c.log.With("batch", doc.ID.String(), "profile", c.engine.Profile().Name)
	log.Info("batch started", "members", len(ms))

	var sharedLogo imagepkg.Asset
	if !c.opts.FetchLogoPerMember {
		sharedLogo = c.fetchImage(ctx, log, layout.RoleLogo, c.opts.LogoURL)
	}

	for i, m := range ms {
		assets, err := c.resolve(ctx, log, m, sharedLogo)
		if err != nil {
			log.Warn("batch canceled", "at", i, "error", err)
			c.metrics.ObserveBatch("canceled", time.Since(start))
			return nil, err
		}

		card, err := c.compose(m, assets)
		if err != nil {
			cerr := &CompositionError{Index: i, Holder: m.FullName, Err: err}
			log.Error("member skipped", "error", cerr)
			c.metrics.IncMembersSkipped()
			continue
		}
		if err := doc.AppendCard(m.FullName, card); err != nil {
			return nil, err
		}
		c.metrics.IncCardsComposed()
	}
	doc.Seal()

	log.Info("batch composed", "cards", doc.CardCount(), "pages", doc.PageCount(), "took", time.Since(start))
	c.metrics.ObserveBatch("composed", time.Since(start))
	return doc, nil
}

// Save renders a sealed document to w. Nothing is written unless rendering
// succeeds.
func (c *Compositor) Save(ctx context.Context, doc *document.Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil || !doc.Sealed() {
		return ErrNotSealed
	}
	if doc.PageCount() == 0 {
		return ErrEmptyDocument
	}
	var buf bytes.Buffer
	if err := c.renderer.Render(&buf, doc.Pages()); err != nil {
		return fmt.Errorf("render %s: %w", doc.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", doc.Name, err)
	}
	c.log.Info("document saved", "batch", doc.ID.String(), "name", doc.Name, "pages", doc.PageCount(), "bytes", buf.Len())
	return nil
}

// GenerateTo is Generate followed by Save.
func (c *Compositor) GenerateTo(ctx context.Context, ms []members.Member, w io.Writer) (*document.Document, error) {
	doc, err := c.Generate(ctx, ms)
	if err != nil {
		return nil, err
	}
	if err := c.Save(ctx, doc, w); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Compositor) resolve(ctx context.Context, log *logger.Logger, m members.Member, sharedLogo imagepkg.Asset) (layout.Assets, error) {
	if err := ctx.Err(); err != nil {
		return layout.Assets{}, err
	}
	a := layout.Assets{Logo: sharedLogo}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Profile = c.fetchImage(gctx, log, layout.RoleProfile, m.ProfileImageURL)
		return nil
	})
	if c.opts.FetchLogoPerMember {
		g.Go(func() error {
			a.Logo = c.fetchImage(gctx, log, layout.RoleLogo, c.opts.LogoURL)
			return nil
		})
	}
	a.Barcode = c.inlineBarcode(log, m)
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return layout.Assets{}, err
	}
	return a, nil
}

func (c *Compositor) fetchImage(ctx context.Context, log *logger.Logger, role layout.ImageRole, ref string) imagepkg.Asset {
	if ref == "" {
		return imagepkg.Unavailable()
	}
	p, ok := c.fetcher.Fetch(ctx, ref).Get()
	if !ok {
		c.metrics.IncAssetUnavailable(string(role))
		return imagepkg.Unavailable()
	}
	return c.normalize(log, role, p)
}

func (c *Compositor) inlineBarcode(log *logger.Logger, m members.Member) imagepkg.Asset {
	if m.Barcode == "" {
		return imagepkg.Unavailable()
	}
	p, err := imagepkg.ParseInline(m.Barcode)
	if err != nil && c.opts.BarcodeTextAsQR && !imagepkg.IsDataURI(m.Barcode) {
		p, err = imagepkg.QRPayload(m.Barcode, c.opts.QRSize)
	}
	if err != nil {
		log.Warn("barcode unavailable", "member", m.FullName, "error", err)
		c.metrics.IncAssetUnavailable(string(layout.RoleBarcode))
		return imagepkg.Unavailable()
	}
	return c.normalize(log, layout.RoleBarcode, p)
}

func (c *Compositor) normalize(log *logger.Logger, role layout.ImageRole, p imagepkg.Payload) imagepkg.Asset {
	n, err := imagepkg.Normalize(p)
	if err != nil {
		log.Warn("asset unavailable", "role", role, "error", err)
		c.metrics.IncAssetUnavailable(string(role))
		return imagepkg.Unavailable()
	}
	return imagepkg.Available(n)
}

func (c *Compositor) compose(m members.Member, a layout.Assets) (card layout.Card, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.engine.Layout(m, a)
}
