package application

import (
	"context"
	"strings"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"github.com/rs/zerolog"
)

var _ ports.SchoolRegistry = (*CachedRegistry)(nil)

// CachedRegistry answers from the lookup cache and falls through to the
// upstream registry on a miss. Without an upstream every miss reports
// domain.ErrLookupDisabled, but cached answers are still served.
type CachedRegistry struct {
	cache    *LookupCache
	upstream ports.SchoolRegistry
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration)
	log      zerolog.Logger
}

type CachedRegistryOption func(*CachedRegistry)

// WithLookupDelay pauses after each upstream call that produced a record.
func WithLookupDelay(d time.Duration) CachedRegistryOption {
	return func(r *CachedRegistry) {
		r.delay = d
	}
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration)) CachedRegistryOption {
	return func(r *CachedRegistry) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

func NewCachedRegistry(cache *LookupCache, upstream ports.SchoolRegistry, log zerolog.Logger, opts ...CachedRegistryOption) *CachedRegistry {
	r := &CachedRegistry{
		cache:    cache,
		upstream: upstream,
		sleep:    sleepContext,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *CachedRegistry) Lookup(ctx context.Context, name string) (domain.SchoolRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.SchoolRecord{}, err
	}

	key := strings.TrimSpace(name)
	if key == "" {
		return domain.SchoolRecord{}, domain.ErrRegistryMiss
	}

	if record, ok := r.cache.Get(ctx, key); ok {
		return record, nil
	}
	if r.upstream == nil {
		return domain.SchoolRecord{}, domain.ErrLookupDisabled
	}

	record, err := r.upstream.Lookup(ctx, key)
	if err != nil {
		return domain.SchoolRecord{}, err
	}

	if err := r.cache.Put(ctx, key, record); err != nil {
		r.log.Warn().Err(err).Str("school", key).Msg("lookup cache not persisted")
	}
	if r.delay > 0 {
		r.sleep(ctx, r.delay)
	}

	return record, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
