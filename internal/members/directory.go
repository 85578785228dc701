package members

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/util"
)

// Directory returns the full member list for one batch.
type Directory interface {
	List(ctx context.Context) ([]Member, error)
}

// HTTPDirectory reads the membership directory endpoint.
type HTTPDirectory struct {
	url    string
	client *http.Client
	log    *logger.Logger
}

func NewHTTPDirectory(base, path string, timeout time.Duration, log *logger.Logger) (*HTTPDirectory, error) {
	u, err := util.ResolveURL(base, path)
	if err != nil {
		return nil, fmt.Errorf("directory url: %w", err)
	}
	return &HTTPDirectory{
		url:    u,
		client: util.NewClient(timeout),
		log:    log.With("component", "MemberDirectory"),
	}, nil
}

func (d *HTTPDirectory) List(ctx context.Context) ([]Member, error) {
	start := time.Now()
	resp, err := util.Get(ctx, d.client, d.url, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch directory: %w", err)
	}
	ms, skipped, err := DecodeList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode directory: %w", err)
	}
	LogSkipped(d.log, skipped)
	d.log.Info("directory loaded", "url", d.url, "members", len(ms), "took", time.Since(start))
	return ms, nil
}

// FileDirectory serves members from a local export. Log may be nil.
type FileDirectory struct {
	Path string
	Log  *logger.Logger
}

func (d FileDirectory) List(ctx context.Context) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms, skipped, err := LoadFile(d.Path)
	if err != nil {
		return nil, err
	}
	if d.Log != nil {
		LogSkipped(d.Log.With("component", "MemberDirectory", "path", d.Path), skipped)
	}
	return ms, nil
}

// LogSkipped logs one error line per skipped directory entry.
func LogSkipped(log *logger.Logger, skipped []RecordError) {
	for _, s := range skipped {
		log.Error("member record skipped", "index", s.Index, "error", s.Err)
	}
}

// Static is a fixed in-memory list.
type Static []Member

func (s Static) List(ctx context.Context) ([]Member, error) {
	return append([]Member(nil), s...), nil
}
