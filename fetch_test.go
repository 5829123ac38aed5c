package figpad

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestFSFetcher(t *testing.T) {
	fsys := fstest.MapFS{
		"fonts/a.flf": {Data: testFontData(2)},
	}
	f := NewFSFetcher(fsys)
	ctx := context.Background()

	tests := []struct {
		name     string
		location string
		wantErr  bool
	}{
		{"existing", "fonts/a.flf", false},
		{"missing", "fonts/b.flf", true},
		{"traversal", "../a.flf", true},
		{"absolute", "/fonts/a.flf", true},
		{"backslash", `fonts\a.flf`, true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := f.Fetch(ctx, tt.location)
			if tt.wantErr {
				if !errors.Is(err, ErrFontFetch) {
					t.Fatalf("Fetch(%q) error = %v, want ErrFontFetch", tt.location, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch(%q): %v", tt.location, err)
			}
			if len(data) == 0 {
				t.Error("Fetch returned no data")
			}
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := f.Fetch(cancelled, "fonts/a.flf"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Fetch error = %v", err)
	}
}

func newFontServer(t *testing.T) *httptest.Server {
	t.Helper()
	data := testFontData(2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fonts/a.flf":
			w.Write(data)
		case "/fonts/broken.flf":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher(t *testing.T) {
	srv := newFontServer(t)
	f, err := NewHTTPFetcher(srv.URL+"/fonts", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		location string
		wantErr  string
	}{
		{name: "relative", location: "a.flf"},
		{name: "absolute", location: srv.URL + "/fonts/a.flf"},
		{name: "not found", location: "b.flf", wantErr: "not found"},
		{name: "server error", location: "broken.flf", wantErr: "status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := f.Fetch(ctx, tt.location)
			if tt.wantErr != "" {
				if !errors.Is(err, ErrFontFetch) || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Fetch(%q) error = %v, want %q", tt.location, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch(%q): %v", tt.location, err)
			}
			if _, err := ParseFontBytes(data); err != nil {
				t.Errorf("fetched data does not parse: %v", err)
			}
		})
	}
}

func TestHTTPFetcherWithoutBase(t *testing.T) {
	f, err := NewHTTPFetcher("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(context.Background(), "a.flf"); !errors.Is(err, ErrFontFetch) {
		t.Errorf("relative fetch without base error = %v", err)
	}
}

func TestLocationFetcher(t *testing.T) {
	srv := newFontServer(t)
	fsys := fstest.MapFS{"a.flf": {Data: []byte("local")}}
	ctx := context.Background()

	f := NewLocationFetcher(fsys, srv.Client())
	local, err := f.Fetch(ctx, "a.flf")
	if err != nil || string(local) != "local" {
		t.Errorf("local fetch = %q, %v", local, err)
	}
	remote, err := f.Fetch(ctx, srv.URL+"/fonts/a.flf")
	if err != nil || !strings.HasPrefix(string(remote), "flf2a") {
		t.Errorf("remote fetch = %q, %v", remote, err)
	}

	filesOnly := NewLocationFetcher(fsys, nil)
	if _, err := filesOnly.Fetch(ctx, srv.URL+"/fonts/a.flf"); !errors.Is(err, ErrFontFetch) {
		t.Errorf("URL without HTTP client error = %v", err)
	}
}

func TestLoaderOverHTTP(t *testing.T) {
	srv := newFontServer(t)
	fetcher, err := NewHTTPFetcher(srv.URL+"/fonts/", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := NewCatalog(
		CatalogEntry{ID: "a", Location: "a.flf"},
		CatalogEntry{ID: "gone", Location: "gone.flf"},
	)
	if err != nil {
		t.Fatal(err)
	}
	l := NewLoader(catalog, fetcher)

	font, err := l.Load(context.Background(), "a")
	if err != nil {
		t.Fatalf("Load(a): %v", err)
	}
	if font.Height != 2 {
		t.Errorf("Height = %d, want 2", font.Height)
	}
	if _, err := l.Load(context.Background(), "gone"); !errors.Is(err, ErrFontFetch) {
		t.Errorf("Load(gone) error = %v, want ErrFontFetch", err)
	}
}
