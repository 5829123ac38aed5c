package figpad

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ryanlewis/figpad/fonts"
)

// FontID identifies a font within a Catalog.
type FontID string

// CatalogEntry maps a font ID to where its bytes live. Location is handed
// to the Fetcher unchanged: a path within a filesystem or a URL.
type CatalogEntry struct {
	ID          FontID
	Location    string
	Description string
}

// Catalog is the closed set of fonts a session may select. It is
// immutable after construction.
type Catalog struct {
	entries []CatalogEntry
	index   map[FontID]int
}

// NewCatalog builds a catalog, keeping the declaration order of entries.
func NewCatalog(entries ...CatalogEntry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[FontID]int, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.New("catalog entry with empty id")
		}
		if e.Location == "" {
			return nil, fmt.Errorf("catalog entry %s has no location", e.ID)
		}
		if _, dup := c.index[e.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %s", e.ID)
		}
		c.index[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// DefaultCatalog lists the bundled fonts. Locations are file names in
// fonts.FS, so pair it with NewFSFetcher(fonts.FS).
func DefaultCatalog() *Catalog {
	entries := make([]CatalogEntry, len(fonts.Bundled))
	for i, f := range fonts.Bundled {
		entries[i] = CatalogEntry{ID: FontID(f.Name), Location: f.File, Description: f.Description}
	}
	c, err := NewCatalog(entries...)
	if err != nil {
		panic(fmt.Sprintf("figpad: bundled catalog: %v", err))
	}
	return c
}

// With returns a copy of the catalog with entries added. An entry whose ID
// is already present, in c or earlier in entries, replaces it in place.
func (c *Catalog) With(entries ...CatalogEntry) (*Catalog, error) {
	merged := make([]CatalogEntry, len(c.entries), len(c.entries)+len(entries))
	copy(merged, c.entries)
	index := maps.Clone(c.index)
	for _, e := range entries {
		if i, ok := index[e.ID]; ok {
			merged[i] = e
			continue
		}
		index[e.ID] = len(merged)
		merged = append(merged, e)
	}
	return NewCatalog(merged...)
}

// Locate returns the location of id.
func (c *Catalog) Locate(id FontID) (string, error) {
	i, ok := c.index[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFont, id)
	}
	return c.entries[i].Location, nil
}

// Entry returns the full entry for id.
func (c *Catalog) Entry(id FontID) (CatalogEntry, bool) {
	i, ok := c.index[id]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[i], true
}

// IDs returns every font ID in declaration order.
func (c *Catalog) IDs() []FontID {
	ids := make([]FontID, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// Entries returns a copy of the catalog entries.
func (c *Catalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

// Len returns the number of fonts.
func (c *Catalog) Len() int { return len(c.entries) }

// Resolve maps user input to a font ID: an exact ID first, then the
// closest case-insensitive fuzzy match ("braille" finds "braille_dots").
func (c *Catalog) Resolve(query string) (FontID, error) {
	query = strings.TrimSpace(query)
	if _, ok := c.index[FontID(query)]; ok {
		return FontID(query), nil
	}

	targets := make([]string, len(c.entries))
	for i, e := range c.entries {
		targets[i] = string(e.ID)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	if query == "" || len(ranks) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownFont, query)
	}
	sort.Stable(ranks)
	return FontID(ranks[0].Target), nil
}
