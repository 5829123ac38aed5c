package figpad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxFontBytes bounds a single fetched font.
const maxFontBytes = 16 << 20

// Fetcher retrieves the raw bytes of a font from its catalog location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// FSFetcher reads fonts from a filesystem, such as the embedded fonts or
// os.DirFS.
type FSFetcher struct {
	fsys fs.FS
}

// NewFSFetcher returns a Fetcher reading locations as paths in fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

// Fetch reads the file at location.
func (f *FSFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontFetch, err)
	}
	clean, err := cleanFSPath(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontFetch, err)
	}
	data, err := fs.ReadFile(f.fsys, clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontFetch, err)
	}
	return data, nil
}

// HTTPFetcher downloads fonts, resolving relative locations against a base
// URL the way a browser resolves "fonts/name.flf".
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPFetcher returns a Fetcher for baseURL. A nil client gets a default
// with a 30 second timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		base = u
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{base: base, client: client}, nil
}

// Fetch GETs the font at location.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	target, err := f.resolve(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontFetch, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFontFetch, target, err)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFontFetch, target, err)
	}
	if len(data) > maxFontBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFontFetch, target, maxFontBytes)
	}
	return data, nil
}

func (f *HTTPFetcher) resolve(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.base == nil {
		return "", fmt.Errorf("relative location %q without base url", location)
	}
	return f.base.ResolveReference(u).String(), nil
}

var errNotFound = errors.New("not found")

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errNotFound
	default:
		return fmt.Errorf("status %d", code)
	}
}

// LocationFetcher sends http and https locations to an HTTP fetcher and
// everything else to a filesystem.
type LocationFetcher struct {
	files Fetcher
	web   Fetcher
}

// NewLocationFetcher combines a filesystem and an HTTP client into one
// Fetcher. Either may be nil to disable that kind of location.
func NewLocationFetcher(fsys fs.FS, client *http.Client) *LocationFetcher {
	lf := &LocationFetcher{}
	if fsys != nil {
		lf.files = NewFSFetcher(fsys)
	}
	if client != nil {
		// no base url: only absolute locations reach this fetcher
		web, _ := NewHTTPFetcher("", client)
		lf.web = web
	}
	return lf
}

// Fetch routes location by scheme.
func (f *LocationFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	isURL := strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
	switch {
	case isURL && f.web != nil:
		return f.web.Fetch(ctx, location)
	case !isURL && f.files != nil:
		return f.files.Fetch(ctx, location)
	}
	return nil, fmt.Errorf("%w: no fetcher for %q", ErrFontFetch, location)
}
