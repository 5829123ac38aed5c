package figpad

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// LoadState is the lifecycle of a font in the registry.
//
//	NotRequested -> Loading -> Ready
//	                Loading -> Failed -> Loading (retry)
//
// Ready is terminal.
type LoadState int

const (
	NotRequested LoadState = iota
	Loading
	Ready
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotRequested:
		return "not-requested"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

type registryEntry struct {
	state   LoadState
	font    *Font
	err     error
	attempt int
}

// Registry holds parsed fonts and the load state of every font ID. A font
// that reached Ready is never replaced or removed.
type Registry struct {
	mu      sync.RWMutex
	entries map[FontID]*registryEntry

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[FontID]*registryEntry)}
}

// Get returns the parsed font for id if it is Ready.
func (r *Registry) Get(id FontID) (*Font, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	var f *Font
	if ok && e.state == Ready {
		f = e.font
	}
	r.mu.RUnlock()

	if f == nil {
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return f, true
}

// Put stores a parsed font and marks id Ready.
func (r *Registry) Put(id FontID, f *Font) error {
	if f == nil {
		return fmt.Errorf("put %s: nil font", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(id)
	if e.state == Ready {
		return fmt.Errorf("put %s: %w", id, ErrAlreadyLoaded)
	}
	e.state, e.font, e.err = Ready, f, nil
	return nil
}

// StateOf returns the load state of id; unknown IDs are NotRequested.
func (r *Registry) StateOf(id FontID) LoadState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok {
		return e.state
	}
	return NotRequested
}

// Err returns the error of the last failed load of id, or nil.
func (r *Registry) Err(id FontID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok && e.state == Failed {
		return e.err
	}
	return nil
}

// entry must be called with mu held for writing.
func (r *Registry) entry(id FontID) *registryEntry {
	e, ok := r.entries[id]
	if !ok {
		e = &registryEntry{}
		r.entries[id] = e
	}
	return e
}

// begin moves id to Loading unless it is Loading or Ready already. It
// returns the state found and, when the transition happened, the attempt
// number.
func (r *Registry) begin(id FontID) (LoadState, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(id)
	switch e.state {
	case Loading, Ready:
		return e.state, e.attempt, false
	}
	prev := e.state
	e.state, e.err = Loading, nil
	e.attempt++
	return prev, e.attempt, true
}

// fail moves a Loading id to Failed.
func (r *Registry) fail(id FontID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.entry(id); e.state == Loading {
		e.state, e.err = Failed, err
	}
}

// RegistryStats is a snapshot of registry counters.
type RegistryStats struct {
	Ready    int
	Loading  int
	Failed   int
	Hits     uint64
	Misses   uint64
	Bytes    int64 // approximate memory held by parsed glyphs
	Attempts int
}

// Stats returns current counts and hit rates.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := RegistryStats{Hits: r.hits.Load(), Misses: r.misses.Load()}
	for _, e := range r.entries {
		s.Attempts += e.attempt
		switch e.state {
		case Ready:
			s.Ready++
			s.Bytes += estimateFontSize(e.font)
		case Loading:
			s.Loading++
		case Failed:
			s.Failed++
		}
	}
	return s
}

// estimateFontSize approximates the bytes held by a font's glyph table.
func estimateFontSize(f *Font) int64 {
	if f == nil || f.parsed == nil {
		return 0
	}
	size := int64(100)
	for _, glyph := range f.parsed.Characters {
		for _, line := range glyph {
			size += int64(len(line))
		}
		size += int64(len(glyph) * 8)
	}
	return size + int64(len(f.parsed.Characters)*40)
}
