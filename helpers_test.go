package figpad

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// blockGlyph draws c as two copies of itself on every row; space is two
// blanks.
func blockGlyph(height int) func(rune) []string {
	return func(c rune) []string {
		rows := make([]string, height)
		for i := range rows {
			if c == ' ' {
				rows[i] = "  "
			} else {
				rows[i] = string([]rune{c, c})
			}
		}
		return rows
	}
}

// makeFLF builds a complete FIGfont with the required characters drawn by
// glyph, followed by the given code-tagged characters.
func makeFLF(height, oldLayout int, glyph func(rune) []string, codetags map[rune][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "flf2a$ %d %d 10 %d 1\n", height, height, oldLayout)
	b.WriteString("generated for tests\n")

	writeGlyph := func(rows []string) {
		for i, row := range rows {
			b.WriteString(row)
			b.WriteString("@")
			if i == len(rows)-1 {
				b.WriteString("@")
			}
			b.WriteString("\n")
		}
	}
	for c := rune(32); c <= 126; c++ {
		writeGlyph(glyph(c))
	}
	for _, c := range []rune{196, 214, 220, 228, 246, 252, 223} {
		writeGlyph(glyph(c))
	}

	codes := make([]int, 0, len(codetags))
	for c := range codetags {
		codes = append(codes, int(c))
	}
	sort.Ints(codes)
	for _, c := range codes {
		fmt.Fprintf(&b, "%d tagged\n", c)
		writeGlyph(codetags[rune(c)])
	}
	return b.String()
}

func testFontData(height int) []byte {
	return []byte(makeFLF(height, -1, blockGlyph(height), nil))
}

func mustParse(t *testing.T, data []byte) *Font {
	t.Helper()
	f, err := ParseFontBytes(data)
	if err != nil {
		t.Fatalf("ParseFontBytes: %v", err)
	}
	return f
}

// fakeFetcher serves fonts from memory. Locations listed in gates block
// until their channel is closed.
type fakeFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  map[string]error
	gates map[string]chan struct{}
	calls map[string]*atomic.Int32
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:  make(map[string][]byte),
		fail:  make(map[string]error),
		gates: make(map[string]chan struct{}),
		calls: make(map[string]*atomic.Int32),
	}
}

func (f *fakeFetcher) add(location string, data []byte) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[location] = data
	delete(f.fail, location)
	return f
}

func (f *fakeFetcher) failWith(location string, err error) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[location] = err
	return f
}

// gate makes fetches of location wait until the returned func is called.
func (f *fakeFetcher) gate(location string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[location] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeFetcher) counter(location string) *atomic.Int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.calls[location]
	if !ok {
		c = &atomic.Int32{}
		f.calls[location] = c
	}
	return c
}

func (f *fakeFetcher) Calls(location string) int { return int(f.counter(location).Load()) }

func (f *fakeFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.counter(location).Add(1)

	f.mu.Lock()
	gate := f.gates[location]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[location]; ok {
		return nil, err
	}
	data, ok := f.data[location]
	if !ok {
		return nil, fmt.Errorf("%s: no such font", location)
	}
	return data, nil
}

func testCatalog(t *testing.T, ids ...FontID) *Catalog {
	t.Helper()
	entries := make([]CatalogEntry, len(ids))
	for i, id := range ids {
		entries[i] = CatalogEntry{ID: id, Location: string(id) + ".flf"}
	}
	c, err := NewCatalog(entries...)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load to settle")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
