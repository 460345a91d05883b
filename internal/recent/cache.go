// Package recent keeps the short list of questions the user asked last,
// most recent first, and persists it through a Store.
package recent

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	// StorageKey is the key the list is persisted under.
	StorageKey = "recentQuestions"
	// MaxEntries bounds the list.
	MaxEntries = 3
)

// Cache is the bounded, deduplicated, most-recent-first question list.
type Cache struct {
	store  Store
	logger *zap.SugaredLogger

	mu    sync.Mutex
	items []string
}

// NewCache creates an empty cache backed by store. Call LoadInitial once
// at startup to rehydrate it.
func NewCache(store Store, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		store:  store,
		logger: logger,
		items:  []string{},
	}
}

// Push returns list with q moved (or added) to the front, truncated to
// MaxEntries. Matching is exact and case-sensitive. list is not modified.
func Push(list []string, q string) []string {
	out := make([]string, 0, MaxEntries)
	out = append(out, q)
	for _, item := range list {
		if len(out) == MaxEntries {
			break
		}
		if item != q {
			out = append(out, item)
		}
	}
	return out
}

// LoadInitial reads the persisted list. A missing or unreadable value
// yields an empty list; the problem is logged, never returned.
func (c *Cache) LoadInitial(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = []string{}

	raw, ok, err := c.store.Get(ctx, StorageKey)
	if err != nil {
		c.logger.Warnw("Failed to read recent questions", "key", StorageKey, "error", err)
		return c.copyItems()
	}
	if !ok {
		return c.copyItems()
	}

	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		c.logger.Warnw("Failed to parse recent questions", "key", StorageKey, "error", err)
		return c.copyItems()
	}

	c.items = normalize(stored)
	c.logger.Debugw("Recent questions loaded", "count", len(c.items))
	return c.copyItems()
}

// Record moves q to the front of the list, persists the result and
// returns it. Persistence failures are logged and otherwise ignored.
func (c *Cache) Record(ctx context.Context, q string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = Push(c.items, q)

	data, err := json.Marshal(c.items)
	if err != nil {
		c.logger.Warnw("Failed to serialize recent questions", "error", err)
		return c.copyItems()
	}
	if err := c.store.Set(ctx, StorageKey, string(data)); err != nil {
		c.logger.Warnw("Failed to save recent questions", "key", StorageKey, "error", err)
	}
	return c.copyItems()
}

// List returns the current list
func (c *Cache) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

func (c *Cache) copyItems() []string {
	out := make([]string, len(c.items))
	copy(out, c.items)
	return out
}

// normalize drops blanks and repeats from a stored list, keeping the
// first occurrence, and caps it at MaxEntries.
func normalize(stored []string) []string {
	out := make([]string, 0, MaxEntries)
	seen := make(map[string]bool, len(stored))
	for _, q := range stored {
		if len(out) == MaxEntries {
			break
		}
		if strings.TrimSpace(q) == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
