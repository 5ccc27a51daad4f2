package session

import (
	"sort"
	"sync"

	"github.com/openoption/blitzws/internal/protocol"
)

// Catalog is the live asset catalog: category -> asset id -> record.
// Identity is the (category, id) pair; the same numeric id can be open
// under one category and suspended under another. Each catalog push
// replaces its category's map wholesale, so readers never observe a
// half-applied update.
type Catalog struct {
	mu         sync.RWMutex
	categories map[string]map[string]protocol.AssetRecord
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{categories: make(map[string]map[string]protocol.AssetRecord)}
}

// ReplaceCategory swaps in a complete record set for one category. Other
// categories are untouched.
func (c *Catalog) ReplaceCategory(category string, records map[string]protocol.AssetRecord) {
	c.mu.Lock()
	c.categories[category] = records
	c.mu.Unlock()
}

// Get returns the record stored for an exact (category, id) pair.
func (c *Catalog) Get(category, id string) (protocol.AssetRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.categories[category][id]
	return rec, ok
}

// Lookup finds a record by id alone, walking categories in priority
// order (blitz first) and falling back to a scan of any category the
// priority list does not know about.
func (c *Catalog) Lookup(id string) (protocol.AssetRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, category := range protocol.CategoryPriority {
		if rec, ok := c.categories[category][id]; ok {
			return rec, true
		}
	}

	// Deterministic scan over categories outside the priority list.
	rest := make([]string, 0, len(c.categories))
	for category := range c.categories {
		if !isPriorityCategory(category) {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	for _, category := range rest {
		if rec, ok := c.categories[category][id]; ok {
			return rec, true
		}
	}

	return protocol.AssetRecord{}, false
}

// IsOpen reports whether the asset is tradable right now: enabled and not
// suspended in its highest-priority category.
func (c *Catalog) IsOpen(id string) bool {
	rec, ok := c.Lookup(id)
	return ok && rec.Enabled && !rec.IsSuspended
}

// PayoutPercent resolves the payout for an asset: the direct field when
// present, else 100 minus commission, else 0.
func (c *Catalog) PayoutPercent(id string) int {
	rec, ok := c.Lookup(id)
	if !ok {
		return 0
	}
	return rec.Payout()
}

// Categories lists category names currently held, sorted.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.categories))
	for category := range c.categories {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Size returns the total record count across categories.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, records := range c.categories {
		n += len(records)
	}
	return n
}

func isPriorityCategory(category string) bool {
	for _, p := range protocol.CategoryPriority {
		if p == category {
			return true
		}
	}
	return false
}
