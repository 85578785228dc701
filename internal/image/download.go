package imagepkg

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/util"
)

// Fetcher resolves a URL to an Asset. Implementations never return errors:
// every failure is reported as an unavailable asset.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) Asset
}

type FetcherOptions struct {
	// BaseURL resolves relative refs.
	BaseURL  string
	Timeout  time.Duration
	MaxBytes int64
	Client   *http.Client
}

// HTTPFetcher downloads images over HTTP. It does not retry or cache.
type HTTPFetcher struct {
	base     string
	timeout  time.Duration
	maxBytes int64
	client   *http.Client
	log      *logger.Logger
}

func NewHTTPFetcher(opts FetcherOptions, log *logger.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Client == nil {
		opts.Client = util.NewClient(opts.Timeout)
	}
	return &HTTPFetcher{
		base:     opts.BaseURL,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
		client:   opts.Client,
		log:      log.With("component", "AssetFetcher"),
	}
}

// Fetch downloads ref. Data URIs are decoded in place without a request.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) Asset {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Unavailable()
	}
	if IsDataURI(ref) {
		p, err := ParseInline(ref)
		if err != nil {
			f.log.Warn("inline asset unavailable", "error", err)
			return Unavailable()
		}
		return Available(p)
	}

	url, err := util.ResolveURL(f.base, ref)
	if err != nil {
		f.log.Warn("asset unavailable", "ref", ref, "error", err)
		return Unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	resp, err := util.Get(ctx, f.client, url, f.maxBytes)
	if err != nil {
		var se *util.StatusError
		switch {
		case errors.As(err, &se):
			f.log.Warn("asset unavailable", "url", url, "status", se.Code)
		default:
			f.log.Warn("asset unavailable", "url", url, "error", err)
		}
		return Unavailable()
	}

	p := Payload{MediaType: mediaTypeFor(resp.ContentType, resp.Body), Data: resp.Body}
	if _, err := p.Format(); err != nil {
		f.log.Warn("asset unavailable", "url", url, "contentType", resp.ContentType, "error", err)
		return Unavailable()
	}
	f.log.Debug("asset fetched", "url", url, "bytes", len(p.Data), "mediaType", p.MediaType, "took", time.Since(start))
	return Available(p)
}
