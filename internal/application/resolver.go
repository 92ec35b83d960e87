package application

import (
	"context"
	"slices"
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"github.com/rs/zerolog"
)

const (
	StrategyOverride = "override"
	StrategyExact    = "exact"
	StrategyRoster   = "roster"
	StrategyReporter = "reporter"
	StrategyRegion   = "region"
	StrategyLexical  = "lexical"
)

// ResolveHint carries what the extractor knows around a school token.
type ResolveHint struct {
	Context  string
	Reporter string
}

type Resolution struct {
	Name     string
	Strategy string
}

// SchoolProfile is what the roster and registry know about a canonical school.
type SchoolProfile struct {
	Record    domain.SchoolRecord
	HasRecord bool
	Owner     string
	Region    string
	Location  string
}

// SchoolResolver layers roster disambiguation on top of the canonicalizer:
// several roster schools can share one short token, and the reporter or the
// surrounding text decides between them.
type SchoolResolver struct {
	vocab    domain.Vocabulary
	roster   domain.Roster
	known    *KnownSchools
	canon    *Canonicalizer
	registry ports.SchoolRegistry
	log      zerolog.Logger
}

func NewSchoolResolver(vocab domain.Vocabulary, roster domain.Roster, known *KnownSchools, canon *Canonicalizer, registry ports.SchoolRegistry, log zerolog.Logger) *SchoolResolver {
	return &SchoolResolver{
		vocab:    vocab,
		roster:   roster,
		known:    known,
		canon:    canon,
		registry: registry,
		log:      log,
	}
}

func (r *SchoolResolver) Resolve(ctx context.Context, token string, hint ResolveHint) string {
	return r.Explain(ctx, token, hint).Name
}

// Explain resolves token and names the step that decided it.
func (r *SchoolResolver) Explain(ctx context.Context, token string, hint ResolveHint) Resolution {
	s := strings.TrimSpace(token)
	if s == "" {
		return Resolution{Name: token, Strategy: StrategyRaw}
	}
	if r.vocab.IsOverride(s) {
		return Resolution{Name: s, Strategy: StrategyOverride}
	}
	if alias, ok := r.vocab.SchoolAliases[s]; ok && alias != "" {
		return Resolution{Name: alias, Strategy: StrategyAlias}
	}

	if r.roster.HasSchool(s) || r.known.Has(s) {
		return Resolution{Name: s, Strategy: StrategyExact}
	}

	canonical := r.canon.Canonicalize(ctx, s)

	level := domain.DetectLevel(s)
	matches := sameLevel(level, r.roster.Matching(s))
	if len(matches) == 1 {
		return Resolution{Name: matches[0], Strategy: StrategyRoster}
	}
	if len(matches) > 1 && hint.Reporter != "" {
		for _, name := range matches {
			for _, row := range r.roster.RowsFor(name) {
				if row.Owner == hint.Reporter {
					return Resolution{Name: name, Strategy: StrategyReporter}
				}
			}
		}
	}

	candidates := sameLevel(level, r.known.Containing(s))
	if name, ok := r.registryName(ctx, s); ok {
		if slices.Contains(candidates, name) || r.roster.HasSchool(name) {
			return Resolution{Name: name, Strategy: StrategyRegistry}
		}
	}

	if hint.Context != "" {
		for _, name := range candidates {
			for _, row := range r.roster.RowsFor(name) {
				for _, region := range row.RegionTokens() {
					if strings.Contains(hint.Context, region) {
						return Resolution{Name: name, Strategy: StrategyRegion}
					}
				}
			}
		}
	}

	if len(matches) > 1 {
		sorted := slices.Clone(matches)
		slices.Sort(sorted)
		return Resolution{Name: sorted[0], Strategy: StrategyLexical}
	}

	return Resolution{Name: canonical.Name, Strategy: canonical.Strategy}
}

// sameLevel keeps the names compatible with level, or all of them when none
// is.
func sameLevel(level domain.SchoolLevel, names []string) []string {
	filtered := make([]string, 0, len(names))
	for _, name := range names {
		if level.Admits(name) {
			filtered = append(filtered, name)
		}
	}
	if len(filtered) == 0 {
		return names
	}

	return filtered
}

func (r *SchoolResolver) registryName(ctx context.Context, token string) (string, bool) {
	if r.registry == nil {
		return "", false
	}

	record, err := r.registry.Lookup(ctx, token)
	if err != nil {
		r.log.Debug().Err(err).Str("token", token).Msg("registry disambiguation skipped")
		return "", false
	}

	return record.Name, record.Name != ""
}

// Profile gathers owner, region and address for a canonical school. Registry
// data wins over roster columns.
func (r *SchoolResolver) Profile(ctx context.Context, school string) SchoolProfile {
	var profile SchoolProfile
	if school == "" {
		return profile
	}

	profile.Owner, _ = r.roster.Owner(school)

	if r.registry != nil {
		record, err := r.registry.Lookup(ctx, school)
		if err == nil && !record.IsZero() {
			profile.Record = record
			profile.HasRecord = true
			profile.Region = record.Region()
			profile.Location = record.Location
		} else if err != nil {
			r.log.Debug().Err(err).Str("school", school).Msg("registry profile unavailable")
		}
	}

	if profile.Region == "" {
		for _, row := range r.roster.RowsFor(school) {
			if row.Region != "" {
				profile.Region = row.Region
				break
			}
		}
	}

	return profile
}
