package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is returned by Get for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// ErrTooLarge is returned when a body exceeds the caller's limit.
var ErrTooLarge = errors.New("response body too large")

// Response is a fully read HTTP body plus its declared content type.
type Response struct {
	Body        []byte
	ContentType string
}

func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Get reads the whole body of url. maxBytes <= 0 means unlimited.
func Get(ctx context.Context, client *http.Client, rawURL string, maxBytes int64) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Response{}, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	var r io.Reader = resp.Body
	if maxBytes > 0 {
		r = io.LimitReader(resp.Body, maxBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return Response{}, err
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return Response{}, ErrTooLarge
	}
	return Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// ResolveURL resolves ref against base. Absolute refs are returned as is.
func ResolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("relative url %q without a base", ref)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base: %w", err)
	}
	return b.ResolveReference(u).String(), nil
}
