package application

import (
	"context"
	"errors"
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
)

const (
	StrategyAlias       = "alias"
	StrategyContainment = "containment"
	StrategySuffix      = "suffix"
	StrategyFuzzy       = "fuzzy"
	StrategyRegistry    = "registry"
	StrategyRaw         = "raw"

	DefaultFuzzyCutoff = 0.65
)

// Query is what a strategy sees: the cleaned token and the level inferred
// from it.
type Query struct {
	Token string
	Level domain.SchoolLevel
}

type Candidate struct {
	Name       string
	Strategy   string
	Confidence float64
}

// SchoolStrategy is one step of the canonicalization chain. Attempt reports
// false to pass the token on to the next strategy.
type SchoolStrategy interface {
	Name() string
	Attempt(ctx context.Context, q Query) (Candidate, bool)
}

type Canonicalizer struct {
	strategies []SchoolStrategy
	log        zerolog.Logger
}

func NewCanonicalizer(log zerolog.Logger, strategies ...SchoolStrategy) *Canonicalizer {
	return &Canonicalizer{strategies: strategies, log: log}
}

// DefaultStrategies builds alias, containment, suffix expansion, fuzzy and
// registry steps in that order. A nil registry leaves the last step out.
func DefaultStrategies(vocab domain.Vocabulary, known *KnownSchools, registry ports.SchoolRegistry, log zerolog.Logger) []SchoolStrategy {
	strategies := []SchoolStrategy{
		AliasStrategy{aliases: vocab.SchoolAliases},
		ContainmentStrategy{known: known},
		SuffixExpansionStrategy{known: known},
		FuzzyStrategy{known: known, cutoff: DefaultFuzzyCutoff},
	}
	if registry != nil {
		strategies = append(strategies, RegistryStrategy{registry: registry, known: known, log: log})
	}

	return strategies
}

// Canonicalize never fails: when no strategy accepts the token it is returned
// as is.
func (c *Canonicalizer) Canonicalize(ctx context.Context, token string) Candidate {
	s := strings.TrimSpace(token)
	if s == "" {
		return Candidate{Name: token, Strategy: StrategyRaw}
	}

	q := Query{Token: s, Level: domain.DetectLevel(s)}
	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		candidate, ok := strategy.Attempt(ctx, q)
		if !ok || candidate.Name == "" {
			continue
		}
		c.log.Debug().
			Str("token", s).
			Str("school", candidate.Name).
			Str("strategy", candidate.Strategy).
			Float64("confidence", candidate.Confidence).
			Msg("school canonicalized")
		return candidate
	}

	return Candidate{Name: token, Strategy: StrategyRaw}
}

type AliasStrategy struct {
	aliases map[string]string
}

func NewAliasStrategy(aliases map[string]string) AliasStrategy {
	return AliasStrategy{aliases: aliases}
}

func (AliasStrategy) Name() string { return StrategyAlias }

func (s AliasStrategy) Attempt(_ context.Context, q Query) (Candidate, bool) {
	name, ok := s.aliases[q.Token]
	if !ok || name == "" {
		return Candidate{}, false
	}

	return Candidate{Name: name, Strategy: StrategyAlias, Confidence: 1}, true
}

// ContainmentStrategy accepts the first known school, of the query's level,
// that contains the token or is contained in it. An exact name is preferred
// so that canonical names map to themselves.
type ContainmentStrategy struct {
	known *KnownSchools
}

func NewContainmentStrategy(known *KnownSchools) ContainmentStrategy {
	return ContainmentStrategy{known: known}
}

func (ContainmentStrategy) Name() string { return StrategyContainment }

func (s ContainmentStrategy) Attempt(_ context.Context, q Query) (Candidate, bool) {
	if s.known.Has(q.Token) {
		return Candidate{Name: q.Token, Strategy: StrategyContainment, Confidence: 1}, true
	}

	for _, name := range s.known.Names() {
		if !q.Level.Admits(name) {
			continue
		}
		if strings.Contains(name, q.Token) || strings.Contains(q.Token, name) {
			return Candidate{Name: name, Strategy: StrategyContainment, Confidence: 0.9}, true
		}
	}

	return Candidate{}, false
}

// SuffixExpansionStrategy spells out abbreviated level endings (여중, 중, 고, 초)
// and looks the expansions up in the known set.
type SuffixExpansionStrategy struct {
	known *KnownSchools
}

func NewSuffixExpansionStrategy(known *KnownSchools) SuffixExpansionStrategy {
	return SuffixExpansionStrategy{known: known}
}

func (SuffixExpansionStrategy) Name() string { return StrategySuffix }

func (s SuffixExpansionStrategy) Attempt(_ context.Context, q Query) (Candidate, bool) {
	expansions := expandSuffix(q.Token)
	if len(expansions) == 0 {
		return Candidate{}, false
	}

	names := s.known.Names()
	for _, expanded := range expansions {
		for _, name := range names {
			if !q.Level.Admits(name) {
				continue
			}
			if strings.Contains(name, expanded) {
				return Candidate{Name: name, Strategy: StrategySuffix, Confidence: 0.8}, true
			}
		}
	}

	return Candidate{}, false
}

func expandSuffix(token string) []string {
	var out []string
	if base, ok := strings.CutSuffix(token, "여중"); ok {
		out = append(out, base+"여자중학교")
	}
	if base, ok := strings.CutSuffix(token, "여고"); ok {
		out = append(out, base+"여자고등학교")
	}
	if strings.HasSuffix(token, "중") {
		out = append(out, token+"학교", token+"중학교")
	}
	if strings.HasSuffix(token, "고") {
		out = append(out, token+"등학교", token+"고등학교")
	}
	if strings.HasSuffix(token, "초") {
		out = append(out, token+"등학교", token+"초등학교")
	}

	return out
}

// FuzzyStrategy scores known names with a sequence-matcher ratio over
// whitespace-free, case-folded runes. Only a strictly better score replaces
// the current best, so ties go to the earlier name.
type FuzzyStrategy struct {
	known  *KnownSchools
	cutoff float64
}

func NewFuzzyStrategy(known *KnownSchools, cutoff float64) FuzzyStrategy {
	if cutoff <= 0 {
		cutoff = DefaultFuzzyCutoff
	}

	return FuzzyStrategy{known: known, cutoff: cutoff}
}

func (FuzzyStrategy) Name() string { return StrategyFuzzy }

func (s FuzzyStrategy) Attempt(_ context.Context, q Query) (Candidate, bool) {
	choices := s.choices(q.Level)
	if len(choices) == 0 {
		return Candidate{}, false
	}

	target := runeStrings(foldForMatch(q.Token))
	best, bestScore := "", 0.0
	for _, name := range choices {
		score := similarity(target, runeStrings(foldForMatch(name)))
		if score >= s.cutoff && score > bestScore {
			best, bestScore = name, score
		}
	}
	if best == "" {
		return Candidate{}, false
	}

	return Candidate{Name: best, Strategy: StrategyFuzzy, Confidence: bestScore}, true
}

// choices narrows to the query's level, falling back to every name when no
// name of that level is known.
func (s FuzzyStrategy) choices(level domain.SchoolLevel) []string {
	names := s.known.Names()
	if level == domain.LevelUnknown {
		return names
	}

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

func similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	return difflib.NewMatcher(b, a).Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}

	return out
}

// RegistryStrategy asks the authoritative registry and remembers the official
// name for the rest of the run.
type RegistryStrategy struct {
	registry ports.SchoolRegistry
	known    *KnownSchools
	log      zerolog.Logger
}

func NewRegistryStrategy(registry ports.SchoolRegistry, known *KnownSchools, log zerolog.Logger) RegistryStrategy {
	return RegistryStrategy{registry: registry, known: known, log: log}
}

func (RegistryStrategy) Name() string { return StrategyRegistry }

func (s RegistryStrategy) Attempt(ctx context.Context, q Query) (Candidate, bool) {
	record, err := s.registry.Lookup(ctx, q.Token)
	if err != nil {
		if !errors.Is(err, domain.ErrRegistryMiss) && !errors.Is(err, domain.ErrLookupDisabled) {
			s.log.Debug().Err(err).Str("token", q.Token).Msg("registry lookup failed")
		}
		return Candidate{}, false
	}
	if record.Name == "" {
		return Candidate{}, false
	}

	s.known.Add(record.Name)
	return Candidate{Name: record.Name, Strategy: StrategyRegistry, Confidence: 0.95}, true
}
