package application

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a registry answer is trusted.
const DefaultCacheTTL = 30 * 24 * time.Hour

// LookupCache keeps registry answers keyed by the queried name and by the
// official name. It loads its store once, drops expired entries while
// loading, and writes the whole map back after every Put.
type LookupCache struct {
	store ports.LookupCacheStore
	clock ports.Clock
	ttl   time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	loaded  bool
	entries map[string]domain.SchoolRecord
	evicted int
}

func NewLookupCache(store ports.LookupCacheStore, clock ports.Clock, ttl time.Duration, log zerolog.Logger) *LookupCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &LookupCache{
		store:   store,
		clock:   clock,
		ttl:     ttl,
		log:     log,
		entries: map[string]domain.SchoolRecord{},
	}
}

// Load reads the backing store on first use. An unreadable store leaves the
// cache empty; only context errors are returned.
func (c *LookupCache) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loadLocked(ctx)
}

func (c *LookupCache) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	stored, err := c.store.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warn().Err(err).Msg("lookup cache unreadable, starting empty")
		stored = nil
	}

	now := c.clock.Now()
	entries := make(map[string]domain.SchoolRecord, len(stored))
	evicted := 0
	for key, record := range stored {
		if record.Expired(now, c.ttl) {
			evicted++
			continue
		}
		entries[key] = record
	}

	c.entries = entries
	c.evicted = evicted
	c.loaded = true
	if evicted > 0 {
		c.log.Debug().Int("evicted", evicted).Msg("expired lookup cache entries dropped")
	}

	return nil
}

func (c *LookupCache) Get(ctx context.Context, key string) (domain.SchoolRecord, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.SchoolRecord{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return domain.SchoolRecord{}, false
	}

	record, ok := c.entries[key]
	if !ok || record.Expired(c.clock.Now(), c.ttl) {
		return domain.SchoolRecord{}, false
	}

	return record, true
}

// Put stamps record with the current time, stores it under query and, when
// not already present, under the official name, then flushes the store. The
// in-memory entry survives a failed flush.
func (c *LookupCache) Put(ctx context.Context, query string, record domain.SchoolRecord) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return err
	}

	record.CachedAt = c.clock.Now()
	c.entries[query] = record
	if record.Name != "" {
		if _, ok := c.entries[record.Name]; !ok {
			c.entries[record.Name] = record
		}
	}

	if err := c.store.Save(ctx, maps.Clone(c.entries)); err != nil {
		return fmt.Errorf("save lookup cache: %w", err)
	}

	return nil
}

// Entries returns a copy of the live entries.
func (c *LookupCache) Entries(ctx context.Context) (map[string]domain.SchoolRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return nil, err
	}

	return maps.Clone(c.entries), nil
}

// Prune rewrites the store without expired entries and returns how many were
// dropped.
func (c *LookupCache) Prune(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return 0, err
	}

	now := c.clock.Now()
	for key, record := range c.entries {
		if record.Expired(now, c.ttl) {
			delete(c.entries, key)
			c.evicted++
		}
	}

	if err := c.store.Save(ctx, maps.Clone(c.entries)); err != nil {
		return 0, fmt.Errorf("save pruned lookup cache: %w", err)
	}

	return c.evicted, nil
}

func (c *LookupCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]domain.SchoolRecord{}
	c.loaded = true
	if err := c.store.Save(ctx, map[string]domain.SchoolRecord{}); err != nil {
		return fmt.Errorf("clear lookup cache: %w", err)
	}

	return nil
}
