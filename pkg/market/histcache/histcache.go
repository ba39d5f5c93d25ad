// Package histcache holds resampled bar series keyed by coin and window with a
// fixed time-to-live. Entries are replaced whole; readers receive copies.
package histcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"cryptoverde-api/pkg/market"
)

// DefaultTTL is how long a fetched series stays valid.
const DefaultTTL = 5 * time.Minute

// Key identifies one cached series.
type Key struct {
	CoinID string `msgpack:"id"`
	Days   int    `msgpack:"days"`
}

func (k Key) String() string { return fmt.Sprintf("%s_%d", k.CoinID, k.Days) }

// Entry is a cached series with the time it was fetched.
type Entry struct {
	Bars      []market.Bar `msgpack:"bars"`
	FetchedAt time.Time    `msgpack:"fetched_at"`
}

// Cache is safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[Key]Entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[Key]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL reports the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns a copy of the bars for key when the entry is younger than the TTL.
func (c *Cache) Get(key Key) ([]market.Bar, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.fresh(entry) {
		return nil, false
	}
	return market.CloneBars(entry.Bars), true
}

// Put replaces the entry for key with a copy of bars stamped with the current time.
func (c *Cache) Put(key Key, bars []market.Bar) {
	entry := Entry{Bars: market.CloneBars(bars), FetchedAt: c.now()}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge removes every expired entry and reports how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if !c.fresh(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) fresh(entry Entry) bool {
	return c.now().Sub(entry.FetchedAt) < c.ttl
}

type fileRecord struct {
	Key   Key   `msgpack:"key"`
	Entry Entry `msgpack:"entry"`
}

// Save writes every entry to path as msgpack. The file is replaced atomically.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	records := make([]fileRecord, 0, len(c.entries))
	for key, entry := range c.entries {
		records = append(records, fileRecord{Key: key, Entry: entry})
	}
	c.mu.RUnlock()

	data, err := msgpack.Marshal(records)
	if err != nil {
		return fmt.Errorf("histcache: encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("histcache: create dir: %w", err)
	}
	// Each save gets its own temp file so concurrent saves never share one.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("histcache: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("histcache: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("histcache: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("histcache: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("histcache: rename %s: %w", path, err)
	}
	return nil
}

// Load merges the entries stored at path into the cache, keeping their
// original fetch times so stale entries still miss. A missing file is not an error.
func (c *Cache) Load(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("histcache: read %s: %w", path, err)
	}
	var records []fileRecord
	if err := msgpack.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("histcache: decode %s: %w", path, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if current, ok := c.entries[rec.Key]; ok && current.FetchedAt.After(rec.Entry.FetchedAt) {
			continue
		}
		c.entries[rec.Key] = rec.Entry
	}
	return len(records), nil
}
