package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cmass-sales/visitlog/internal/adapters/cachestore/jsonfile"
	sqlitestore "github.com/cmass-sales/visitlog/internal/adapters/cachestore/sqlite"
	"github.com/cmass-sales/visitlog/internal/adapters/registry/chain"
	"github.com/cmass-sales/visitlog/internal/adapters/registry/neis"
	"github.com/cmass-sales/visitlog/internal/adapters/registry/snapshot"
	vocabrepo "github.com/cmass-sales/visitlog/internal/adapters/repo/vocabulary"
	csvroster "github.com/cmass-sales/visitlog/internal/adapters/roster/csv"
	"github.com/cmass-sales/visitlog/internal/application"
	"github.com/cmass-sales/visitlog/internal/config"
	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"github.com/rs/zerolog"
)

type app struct {
	cfg           config.Config
	log           zerolog.Logger
	clock         ports.Clock
	vocab         domain.Vocabulary
	vocabRepo     *vocabrepo.Repository
	roster        domain.Roster
	known         *application.KnownSchools
	cache         *application.LookupCache
	registry      ports.SchoolRegistry
	resolver      *application.SchoolResolver
	lookupEnabled bool
	closers       []func() error
}

type wireOptions struct {
	noLookup   bool
	httpClient *http.Client
}

func wireApp(ctx context.Context, cfg config.Config, log zerolog.Logger, opts wireOptions) (*app, error) {
	a := &app{cfg: cfg, log: log, clock: ports.SystemClock{}}

	vocabRepo, err := vocabrepo.NewRepository(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("wire vocabulary repository: %w", err)
	}
	vocab, err := vocabRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	a.vocabRepo, a.vocab = vocabRepo, vocab

	roster, err := csvroster.NewRepository(cfg.Roster.Path).Load(ctx)
	switch {
	case errors.Is(err, domain.ErrRosterNotFound):
		log.Warn().Str("path", cfg.Roster.Path).Msg("sales roster not found, continuing without owners")
	case err != nil:
		return nil, fmt.Errorf("load sales roster: %w", err)
	}
	a.roster = roster

	snapshots, err := snapshot.Load(ctx, cfg.Snapshot.Glob)
	if err != nil {
		return nil, fmt.Errorf("load registry snapshots: %w", err)
	}
	for _, path := range snapshots.Skipped() {
		log.Warn().Str("path", path).Msg("skipping unreadable registry snapshot")
	}
	a.known = application.NewKnownSchools(roster.SchoolNames(), snapshots.Names())

	store, closeStore, err := openCacheStore(ctx, cfg.Cache)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Str("path", cfg.Cache.Path).Msg("lookup cache unavailable, using a run-local cache")
		if store, closeStore, err = openMemoryCacheStore(ctx); err != nil {
			return nil, err
		}
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	a.cache = application.NewLookupCache(store, a.clock, cfg.Cache.TTL, log)

	// A nil upstream keeps the cache readable while network lookups are off.
	var upstream ports.SchoolRegistry
	if !opts.noLookup && cfg.LookupEnabled() {
		upstream = neis.Client{
			BaseURL:        cfg.NEIS.BaseURL,
			Key:            cfg.NEIS.Key,
			OfficeCode:     cfg.NEIS.OfficeCode,
			UserAgent:      cfg.NEIS.UserAgent,
			HTTPClient:     opts.httpClient,
			RequestTimeout: cfg.NEIS.Timeout,
		}
		a.lookupEnabled = true
	}
	cached := application.NewCachedRegistry(a.cache, upstream, log, application.WithLookupDelay(cfg.NEIS.Delay))
	a.registry = chain.NewRegistry(snapshots, cached)

	canon := application.NewCanonicalizer(log, application.DefaultStrategies(vocab, a.known, a.registry, log)...)
	a.resolver = application.NewSchoolResolver(vocab, roster, a.known, canon, a.registry, log)

	log.Debug().
		Int("roster_rows", roster.Len()).
		Int("known_schools", a.known.Len()).
		Bool("lookup", a.lookupEnabled).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("application wired")

	return a, nil
}

func (a *app) pipeline(staff string) *application.Pipeline {
	extractor := application.NewExtractor(a.vocab, a.resolver, a.clock, staff, a.log)
	return application.NewPipeline(extractor, a.log)
}

func (a *app) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}

	return errors.Join(errs...)
}

func openCacheStore(ctx context.Context, cfg config.CacheConfig) (ports.LookupCacheStore, func() error, error) {
	switch cfg.Backend {
	case config.CacheBackendSQLite:
		store, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite lookup cache: %w", err)
		}
		return store, store.Close, nil
	default:
		store, err := jsonfile.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("wire json lookup cache: %w", err)
		}
		return store, nil, nil
	}
}

func openMemoryCacheStore(ctx context.Context) (ports.LookupCacheStore, func() error, error) {
	store, err := sqlitestore.Open(ctx, sqlitestore.MemoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("wire in-memory lookup cache: %w", err)
	}

	return store, store.Close, nil
}
