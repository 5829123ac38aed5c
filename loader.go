package figpad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ryanlewis/figpad/internal/debug"
)

// preloadLimit bounds concurrent fetches started by Preload.
const preloadLimit = 4

// LoadResult is the outcome of EnsureLoaded.
type LoadResult struct {
	State LoadState
	// Font is set when State is Ready
	Font *Font
	// Done is set when State is Loading; it is closed once the load has
	// settled and the registry holds the final state
	Done <-chan struct{}
}

// Loader fetches and parses catalog fonts on demand. At most one fetch per
// font is in flight; callers that arrive while it runs share its Done
// channel.
type Loader struct {
	catalog  *Catalog
	fetcher  Fetcher
	registry *Registry
	logger   *log.Logger
	tracer   *Tracer
	timeout  time.Duration

	mu      sync.Mutex
	waiters map[FontID]chan struct{}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger for load progress and failures.
func WithLoaderLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithFetchTimeout bounds each fetch. Zero, the default, waits for the
// fetcher however long it takes.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// WithLoaderTracer records load events.
func WithLoaderTracer(t *Tracer) LoaderOption {
	return func(l *Loader) { l.tracer = t }
}

// NewLoader returns a loader for the fonts in catalog, with a fresh registry.
func NewLoader(catalog *Catalog, fetcher Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		catalog:  catalog,
		fetcher:  fetcher,
		registry: NewRegistry(),
		logger:   log.New(io.Discard),
		waiters:  make(map[FontID]chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Catalog returns the loader's catalog.
func (l *Loader) Catalog() *Catalog { return l.catalog }

// Registry returns the registry the loader fills.
func (l *Loader) Registry() *Registry { return l.registry }

// State returns the load state of id.
func (l *Loader) State(id FontID) LoadState { return l.registry.StateOf(id) }

// EnsureLoaded makes sure id is loaded or loading and never blocks on I/O.
//
// A Ready font is returned directly. A font that is already loading returns
// the in-flight load's Done channel. Otherwise, including after a failure,
// a new fetch starts in the background. The fetch is detached from ctx:
// once started it runs to completion.
//
// Concurrent callers share one fetch and one Done channel. Done is closed
// after the registry holds the outcome, so a receiver can read the state
// with State or Registry().Err. An unknown id fails with ErrUnknownFont
// and starts nothing.
//
// Example:
//
//	res, err := loader.EnsureLoaded(ctx, "ascii_big")
//	if err == nil && res.State == figpad.Loading {
//		<-res.Done
//	}
func (l *Loader) EnsureLoaded(ctx context.Context, id FontID) (LoadResult, error) {
	location, err := l.catalog.Locate(id)
	if err != nil {
		return LoadResult{}, err
	}
	if f, ok := l.registry.Get(id); ok {
		return LoadResult{State: Ready, Font: f}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if done, ok := l.waiters[id]; ok {
		return LoadResult{State: Loading, Done: done}, nil
	}
	prev, attempt, started := l.registry.begin(id)
	if !started {
		// Put raced ahead of us
		f, _ := l.registry.Get(id)
		return LoadResult{State: Ready, Font: f}, nil
	}

	done := make(chan struct{})
	l.waiters[id] = done
	if prev == Failed {
		l.logger.Info("retrying font", "font", id, "attempt", attempt)
	}
	go l.load(context.WithoutCancel(ctx), id, location, attempt, done)
	return LoadResult{State: Loading, Done: done}, nil
}

func (l *Loader) load(ctx context.Context, id FontID, location string, attempt int, done chan struct{}) {
	defer close(done)

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	sess := l.tracer.session("load")
	defer sess.End()
	sess.Emit("load", "Start", debug.LoadStartData{FontID: string(id), Location: location, Attempt: attempt})
	start := time.Now()
	l.logger.Debug("loading font", "font", id, "location", location, "attempt", attempt)

	font, n, err := l.fetchAndParse(ctx, location)
	err = l.settle(id, font, err)

	end := debug.LoadEndData{FontID: string(id), Bytes: n, ElapsedMs: time.Since(start).Milliseconds()}
	if err != nil {
		l.logger.Warn("font load failed", "font", id, "attempt", attempt, "err", err)
		end.State, end.Error = Failed.String(), err.Error()
	} else {
		l.logger.Debug("font ready", "font", id, "bytes", n, "glyphs", font.GlyphCount(), "elapsed", time.Since(start))
		end.State, end.Glyphs = Ready.String(), font.GlyphCount()
		sess.Emit("load", "Header", debug.FontHeaderData{
			Hardblank:    font.Hardblank,
			Height:       font.Height,
			Baseline:     font.Baseline,
			MaxLength:    font.MaxLen,
			OldLayout:    font.OldLayout,
			FullLayout:   int(font.Layout),
			PrintDir:     font.PrintDirection,
			CommentLines: font.CommentLines,
			CodetagCount: font.parsed.CodetagCount,
		})
	}
	sess.Emit("load", "End", end)
}

// settle records the outcome of a load and drops its waiter in one step, so
// EnsureLoaded never sees a final state while the settled waiter is still
// registered.
func (l *Loader) settle(id FontID, font *Font, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.waiters, id)

	if err == nil {
		font.Name = string(id)
		if perr := l.registry.Put(id, font); perr != nil && !errors.Is(perr, ErrAlreadyLoaded) {
			err = perr
		}
	}
	if err != nil {
		l.registry.fail(id, &FontLoadError{ID: id, Cause: err})
	}
	return err
}

func (l *Loader) fetchAndParse(ctx context.Context, location string) (font *Font, n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: fetcher panicked: %v", ErrFontFetch, r)
		}
	}()

	data, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		if !errors.Is(err, ErrFontFetch) {
			err = fmt.Errorf("%w: %w", ErrFontFetch, err)
		}
		return nil, 0, err
	}
	font, err = ParseFontBytes(data)
	if err != nil {
		return nil, len(data), err
	}
	return font, len(data), nil
}

// Load blocks until id is Ready or its load fails. Waiting stops when ctx
// is done; the fetch itself carries on.
func (l *Loader) Load(ctx context.Context, id FontID) (*Font, error) {
	res, err := l.EnsureLoaded(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.State == Ready {
		return res.Font, nil
	}

	select {
	case <-res.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f, ok := l.registry.Get(id); ok {
		return f, nil
	}
	if err := l.registry.Err(id); err != nil {
		return nil, err
	}
	return nil, &FontLoadError{ID: id, Cause: errors.New("load did not settle")}
}

// Preload loads ids concurrently and returns the first failure. Every
// font is attempted regardless of failures.
func (l *Loader) Preload(ctx context.Context, ids ...FontID) error {
	var g errgroup.Group
	g.SetLimit(preloadLimit)
	for _, id := range ids {
		g.Go(func() error {
			_, err := l.Load(ctx, id)
			return err
		})
	}
	return g.Wait()
}
