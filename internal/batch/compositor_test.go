package batch

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/members"
	"github.com/youruser/memberids/internal/metrics"
	"github.com/youruser/memberids/internal/render"
)

const logoURL = "/Images/logo.png"

func pngPayload() imagepkg.Payload {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return imagepkg.Payload{MediaType: "image/png", Data: buf.Bytes()}
}

// stubFetcher serves every ref from a map and records the call order.
type stubFetcher struct {
	mu     sync.Mutex
	assets map[string]imagepkg.Payload
	calls  []string
	onCall func(ref string)
}

func (f *stubFetcher) Fetch(ctx context.Context, ref string) imagepkg.Asset {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(ref)
	}
	if p, ok := f.assets[ref]; ok {
		return imagepkg.Available(p)
	}
	return imagepkg.Unavailable()
}

func (f *stubFetcher) count(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == ref {
			n++
		}
	}
	return n
}

type unavailableFetcher struct{}

func (unavailableFetcher) Fetch(context.Context, string) imagepkg.Asset { return imagepkg.Unavailable() }

type recordingRenderer struct {
	pages []layout.Page
	err   error
}

func (r *recordingRenderer) Render(w io.Writer, pages []layout.Page) error {
	if r.err != nil {
		_, _ = w.Write([]byte("partial"))
		return r.err
	}
	r.pages = pages
	_, err := w.Write([]byte("DOC"))
	return err
}

type CompositorSuite struct {
	suite.Suite
	fetcher  *stubFetcher
	renderer *recordingRenderer
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
}

func TestCompositorSuite(t *testing.T) {
	suite.Run(t, new(CompositorSuite))
}

func (s *CompositorSuite) SetupTest() {
	s.fetcher = &stubFetcher{assets: map[string]imagepkg.Payload{
		logoURL:         pngPayload(),
		"/uploads/a.png": pngPayload(),
		"/uploads/b.png": pngPayload(),
	}}
	s.renderer = &recordingRenderer{}
	s.reg = prometheus.NewRegistry()
	s.metrics = metrics.New(s.reg)
}

func (s *CompositorSuite) compositor(p layout.Profile, opts Options) *Compositor {
	engine, err := layout.NewEngine(p, layout.Branding{Name: "Robi Fitness Center", Website: "www.robifitness.com"})
	require.NoError(s.T(), err)
	if opts.LogoURL == "" {
		opts.LogoURL = logoURL
	}
	return New(s.fetcher, engine, s.renderer, opts, logger.Nop(), s.metrics)
}

func roster() []members.Member {
	barcode := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPayload().Data)
	return []members.Member{
		{FullName: "amanuel tesfaye", PhoneNumber: "0911000000", Gender: "male", ProfileImageURL: "/uploads/a.png", Barcode: barcode},
		{FullName: "sara bekele", PhoneNumber: "0922000000", Gender: "female"},
		{FullName: "kebede", PhoneNumber: "0933000000", Gender: "male", ProfileImageURL: "/uploads/b.png"},
	}
}

func (s *CompositorSuite) TestPagesAlternateInMemberOrder() {
	ms := roster()
	doc, err := s.compositor(layout.Standard(), Options{}).Generate(context.Background(), ms)
	s.Require().NoError(err)

	s.Equal(2*len(ms), doc.PageCount())
	s.True(doc.Sealed())
	for i, pg := range doc.Pages() {
		if i%2 == 0 {
			s.Equal(layout.Front, pg.Side)
		} else {
			s.Equal(layout.Back, pg.Side)
		}
	}
	for i, m := range ms {
		_, ok := doc.Card(i)
		s.Require().True(ok)
		s.Equal(m.FullName, doc.Manifest()[2*i].Holder)
	}

	first, _ := doc.Card(0)
	s.Len(first.Front.Images(layout.RoleProfile), 1)
	s.Len(first.Front.Images(layout.RoleBarcode), 1)
	second, _ := doc.Card(1)
	s.Empty(second.Front.Images(layout.RoleProfile), "no profile url, no photo")
	s.Empty(second.Front.Images(layout.RoleBarcode))

	for i := range ms {
		c, _ := doc.Card(i)
		s.Len(c.Back.Images(layout.RoleLogo), 1, "logo on every card")
	}
	s.Equal(1, s.fetcher.count(logoURL), "shared logo fetched once per batch")
	s.Equal(float64(3), testutil.ToFloat64(s.metrics.CardsComposed))
}

func (s *CompositorSuite) TestLogoPerMember() {
	_, err := s.compositor(layout.Standard(), Options{FetchLogoPerMember: true}).Generate(context.Background(), roster())
	s.Require().NoError(err)
	s.Equal(3, s.fetcher.count(logoURL))
	s.Equal(1, s.fetcher.count("/uploads/a.png"))
}

func (s *CompositorSuite) TestAllAssetsUnavailableStillProducesEveryCard() {
	engine, err := layout.NewEngine(layout.Standard(), layout.Branding{Name: "Org"})
	s.Require().NoError(err)
	c := New(unavailableFetcher{}, engine, s.renderer, Options{LogoURL: logoURL}, logger.Nop(), s.metrics)

	ms := roster()[:2]
	doc, err := c.Generate(context.Background(), ms)
	s.Require().NoError(err)
	s.Equal(4, doc.PageCount())
	for _, pg := range doc.Pages() {
		s.Empty(pg.Images(layout.RoleProfile))
		s.Empty(pg.Images(layout.RoleLogo))
	}
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.AssetsUnavailable.WithLabelValues("profile")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.AssetsUnavailable.WithLabelValues("logo")))
}

func (s *CompositorSuite) TestEmptyInput() {
	c := s.compositor(layout.Standard(), Options{})
	doc, err := c.Generate(context.Background(), nil)
	s.ErrorIs(err, ErrEmptyInput)
	s.Nil(doc)

	var buf bytes.Buffer
	_, err = c.GenerateTo(context.Background(), []members.Member{}, &buf)
	s.ErrorIs(err, ErrEmptyInput)
	s.Zero(buf.Len())
	s.Empty(s.fetcher.calls, "nothing fetched")
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.Batches.WithLabelValues("empty_input")))
}

func (s *CompositorSuite) TestLimit() {
	doc, err := s.compositor(layout.Standard(), Options{Limit: 1}).Generate(context.Background(), roster())
	s.Require().NoError(err)
	s.Equal(2, doc.PageCount())

	doc, err = s.compositor(layout.Standard(), Options{Limit: 10}).Generate(context.Background(), roster())
	s.Require().NoError(err)
	s.Equal(6, doc.PageCount())
}

func (s *CompositorSuite) TestMalformedMemberIsSkipped() {
	ms := roster()
	ms[1].Address = string([]byte{0xff})
	doc, err := s.compositor(layout.Standard(), Options{}).Generate(context.Background(), ms)
	s.Require().NoError(err)

	s.Equal(4, doc.PageCount())
	s.Equal("amanuel tesfaye", doc.Manifest()[0].Holder)
	s.Equal("kebede", doc.Manifest()[2].Holder)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.MembersSkipped))
}

func (s *CompositorSuite) TestCancellationDropsDocument() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.fetcher.onCall = func(ref string) {
		if ref == "/uploads/b.png" {
			cancel()
		}
	}

	var buf bytes.Buffer
	doc, err := s.compositor(layout.Standard(), Options{}).GenerateTo(ctx, roster(), &buf)
	s.ErrorIs(err, context.Canceled)
	s.Nil(doc)
	s.Zero(buf.Len(), "no partial document saved")
	s.Nil(s.renderer.pages)
}

func (s *CompositorSuite) TestMemberFetchesFinishBeforeNextMemberStarts() {
	var mu sync.Mutex
	var order []string
	s.fetcher.onCall = func(ref string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, ref)
	}

	_, err := s.compositor(layout.Standard(), Options{FetchLogoPerMember: true}).Generate(context.Background(), roster())
	s.Require().NoError(err)

	// member 0: photo + logo, member 1: logo only, member 2: photo + logo
	s.Require().Len(order, 5)
	s.ElementsMatch([]string{"/uploads/a.png", logoURL}, order[:2])
	s.Equal([]string{logoURL}, order[2:3])
	s.ElementsMatch([]string{"/uploads/b.png", logoURL}, order[3:])
}

func (s *CompositorSuite) TestBarcodeTextAsQR() {
	ms := []members.Member{{FullName: "abebe", Barcode: "MEMBER-000123"}}

	doc, err := s.compositor(layout.Standard(), Options{}).Generate(context.Background(), ms)
	s.Require().NoError(err)
	c, _ := doc.Card(0)
	s.Empty(c.Front.Images(layout.RoleBarcode), "plain text is not an image")

	doc, err = s.compositor(layout.Standard(), Options{BarcodeTextAsQR: true, QRSize: 64}).Generate(context.Background(), ms)
	s.Require().NoError(err)
	c, _ = doc.Card(0)
	codes := c.Front.Images(layout.RoleBarcode)
	s.Require().Len(codes, 1)
	s.Equal("image/png", codes[0].Payload.MediaType)
}

func (s *CompositorSuite) TestWideProfileBarcodeOnBack() {
	doc, err := s.compositor(layout.Wide(), Options{}).Generate(context.Background(), roster()[:1])
	s.Require().NoError(err)
	c, _ := doc.Card(0)
	s.Empty(c.Front.Images(layout.RoleBarcode))
	s.Len(c.Back.Images(layout.RoleBarcode), 1)
	s.Equal(88.0, c.Front.Width)
}

func (s *CompositorSuite) TestSave() {
	c := s.compositor(layout.Standard(), Options{})
	ctx := context.Background()

	var buf bytes.Buffer
	doc, err := c.GenerateTo(ctx, roster(), &buf)
	s.Require().NoError(err)
	s.Equal("DOC", buf.String())
	s.Len(s.renderer.pages, doc.PageCount())
	s.Equal("All_Members_IDs.pdf", doc.Name)

	s.ErrorIs(c.Save(ctx, nil, &buf), ErrNotSealed)

	ms := roster()
	for i := range ms {
		ms[i].FullName = string([]byte{0xff})
	}
	empty, err := c.Generate(ctx, ms)
	s.Require().NoError(err)
	s.ErrorIs(c.Save(ctx, empty, &buf), ErrEmptyDocument)
}

func (s *CompositorSuite) TestSaveRenderFailureWritesNothing() {
	s.renderer.err = errors.New("disk full")
	c := s.compositor(layout.Standard(), Options{})
	doc, err := c.Generate(context.Background(), roster())
	s.Require().NoError(err)

	var buf bytes.Buffer
	err = c.Save(context.Background(), doc, &buf)
	s.Error(err)
	s.Zero(buf.Len())
}

func TestGenerateToPDF(t *testing.T) {
	engine, err := layout.NewEngine(layout.Standard(), layout.Branding{Name: "Robi Fitness Center"})
	require.NoError(t, err)
	f := &stubFetcher{assets: map[string]imagepkg.Payload{logoURL: pngPayload(), "/uploads/a.png": pngPayload()}}
	c := New(f, engine, render.NewPDF("All_Members_IDs", logger.Nop()), Options{LogoURL: logoURL}, logger.Nop(), nil)

	var buf bytes.Buffer
	doc, err := c.GenerateTo(context.Background(), roster(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 6, doc.PageCount())
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestCompositionErrorUnwraps(t *testing.T) {
	err := error(&CompositionError{Index: 2, Holder: "x", Err: layout.ErrMalformedRecord})
	assert.ErrorIs(t, err, layout.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "#2")
}
