package application

import (
	"context"
	"fmt"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Result struct {
	RunID        string
	MessageCount int
	Entries      []domain.VisitEntry
	Visits       []domain.AggregatedVisit
}

// Payload is the aggregated document handed to the visit store.
func (r Result) Payload(staff string) domain.VisitPayload {
	visits := r.Visits
	if visits == nil {
		visits = []domain.AggregatedVisit{}
	}

	return domain.VisitPayload{Staff: staff, Visits: visits}
}

// Pipeline runs tokenizer, extractor and aggregator over one transcript.
// Canonicalization happens inside the extractor.
type Pipeline struct {
	extractor *Extractor
	log       zerolog.Logger
	newRunID  func() string
}

func NewPipeline(extractor *Extractor, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		log:       log,
		newRunID:  uuid.NewString,
	}
}

func (p *Pipeline) Run(ctx context.Context, lines []string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	runID := p.newRunID()
	log := p.log.With().Str("run_id", runID).Logger()

	msgs := Tokenize(lines)
	log.Debug().Int("lines", len(lines)).Int("messages", len(msgs)).Msg("transcript tokenized")

	entries := p.extractor.ExtractAll(log.WithContext(ctx), msgs)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("extract entries: %w", err)
	}

	visits := Aggregate(entries)
	log.Info().
		Int("messages", len(msgs)).
		Int("entries", len(entries)).
		Int("visits", len(visits)).
		Msg("transcript converted")

	return Result{
		RunID:        runID,
		MessageCount: len(msgs),
		Entries:      entries,
		Visits:       visits,
	}, nil
}
