package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/dvloznov/upi-finance-tracker/internal/dedupe"
	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/extract"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
	"github.com/dvloznov/upi-finance-tracker/internal/parsers"
	"github.com/dvloznov/upi-finance-tracker/internal/source"
)

// PipelineStep represents a single step in the processing pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	// Location is read by FetchStep when Data is empty.
	Location string
	FileName string
	Data     []byte

	Document     *extract.Document
	Source       domain.Source
	Outcome      parsers.Outcome
	Transactions []*domain.Transaction
	Duplicates   int
	Result       *Result
}

// FetchStep loads the file named by Location. It does nothing when the
// caller already supplied the bytes.
type FetchStep struct {
	Fetcher Fetcher
}

func (s *FetchStep) Name() string { return "fetch" }

func (s *FetchStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Data) > 0 || state.Location == "" {
		return nil
	}
	if s.Fetcher == nil {
		return errors.New("FetchStep: no fetcher configured")
	}
	data, err := s.Fetcher.Fetch(ctx, state.Location)
	if err != nil {
		return fmt.Errorf("FetchStep: fetching %s: %w", state.Location, err)
	}
	state.Data = data
	if state.FileName == "" {
		state.FileName = path.Base(filepath.ToSlash(state.Location))
	}
	return nil
}

// ExtractStep reads the raw file into rows or text.
type ExtractStep struct{}

func (s *ExtractStep) Name() string { return "extract" }

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	doc, err := extract.Extract(ctx, state.FileName, state.Data)
	if err != nil {
		return err
	}
	state.Document = doc
	return nil
}

// DetectSourceStep infers the provider from the file name and content.
type DetectSourceStep struct{}

func (s *DetectSourceStep) Name() string { return "detect-source" }

func (s *DetectSourceStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Source = source.Detect(state.FileName, state.Document.Content())
	log := logger.FromContext(ctx)
	log.Debug().
		Str("file", state.FileName).
		Str("source", string(state.Source)).
		Msg("Detected statement source")
	return nil
}

// ParseStep runs the strategy chain. Tabular files get a text rendering only
// when no column map fits, so rows rejected by the tabular strategies are
// never rebuilt from text.
type ParseStep struct {
	Chain *parsers.Chain
}

func (s *ParseStep) Name() string { return "parse" }

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	in := parsers.Input{
		Source: state.Source,
		Table:  state.Document.Table,
		Text:   state.Document.Text,
	}
	if in.Text == nil {
		if parsers.MapsColumns(in.Source, in.Table) {
			in.Text = &domain.TextDocument{}
		} else {
			in.Text = parsers.RenderTable(in.Table)
		}
	}

	outcome, err := s.Chain.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("ParseStep: %w", err)
	}
	state.Outcome = outcome
	state.Transactions = outcome.Transactions
	return nil
}

// DedupeStep drops candidates sharing an amount and calendar day.
type DedupeStep struct{}

func (s *DedupeStep) Name() string { return "dedupe" }

func (s *DedupeStep) Execute(ctx context.Context, state *PipelineState) error {
	kept := dedupe.Transactions(state.Transactions)
	state.Duplicates = dedupe.Dropped(state.Transactions, kept)
	state.Transactions = kept
	return nil
}

// CategorizeStep attaches categories. A nil Categorizer leaves transactions
// uncategorized.
type CategorizeStep struct {
	Categorizer Categorizer
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Categorizer == nil || len(state.Transactions) == 0 {
		return nil
	}
	if err := s.Categorizer.CategorizeAll(ctx, state.Transactions); err != nil {
		return fmt.Errorf("CategorizeStep: %w", err)
	}
	return nil
}

// SummarizeStep assembles the result.
type SummarizeStep struct{}

func (s *SummarizeStep) Name() string { return "summarize" }

func (s *SummarizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Result = buildResult(state)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}

// NewStatementPipeline creates the standard pipeline: fetch, extract, detect,
// parse, dedupe, categorize and summarize.
func NewStatementPipeline(chain *parsers.Chain, categorizer Categorizer, fetcher Fetcher) *Pipeline {
	return NewPipeline(
		&FetchStep{Fetcher: fetcher},
		&ExtractStep{},
		&DetectSourceStep{},
		&ParseStep{Chain: chain},
		&DedupeStep{},
		&CategorizeStep{Categorizer: categorizer},
		&SummarizeStep{},
	)
}
