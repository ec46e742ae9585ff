// Package pipeline orchestrates statement processing: extraction, source
// detection, strategy parsing, deduplication, categorization and summary.
package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/upi-finance-tracker/internal/logger"
	"github.com/dvloznov/upi-finance-tracker/internal/parsers"
)

// Processor runs the statement pipeline. It holds no per-file state and is
// safe for concurrent use.
type Processor struct {
	pipeline *Pipeline
}

// NewProcessor creates a processor. categorizer and fetcher may be nil:
// without a categorizer transactions stay uncategorized, without a fetcher
// only in-memory files can be processed.
func NewProcessor(chain *parsers.Chain, categorizer Categorizer, fetcher Fetcher) *Processor {
	return &Processor{pipeline: NewStatementPipeline(chain, categorizer, fetcher)}
}

// Process handles a file already held in memory.
func (p *Processor) Process(ctx context.Context, fileName string, data []byte) (*Result, error) {
	return p.run(ctx, &PipelineState{FileName: fileName, Data: data})
}

// ProcessLocation fetches a file by path or gs:// URI and processes it.
func (p *Processor) ProcessLocation(ctx context.Context, location string) (*Result, error) {
	return p.run(ctx, &PipelineState{Location: location})
}

func (p *Processor) run(ctx context.Context, state *PipelineState) (*Result, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	if err := p.pipeline.Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("file", state.FileName).Msg("Statement processing failed")
		return nil, err
	}

	r := state.Result
	log.Info().
		Str("file", r.FileName).
		Str("source", string(r.Source)).
		Str("strategy", r.Strategy).
		Str("confidence", string(r.Confidence)).
		Int("transactions", len(r.Transactions)).
		Int("duplicates", r.Duplicates).
		Dur("duration", time.Since(start)).
		Msg("Statement processed")
	return r, nil
}
