package parsers

import (
	"context"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
)

// Attempt records how one strategy fared.
type Attempt struct {
	Strategy string `json:"strategy"`
	Found    int    `json:"found"`
	Skipped  int    `json:"skipped"`
}

// Outcome is the result of running a chain over one file.
type Outcome struct {
	// Strategy is empty when nothing matched.
	Strategy     string
	Confidence   domain.Confidence
	Transactions []*domain.Transaction
	Skipped      []Skip
	Attempts     []Attempt
}

// Chain runs strategies in order and keeps the first non-empty result.
type Chain struct {
	strategies []Strategy
}

// NewChain creates a chain trying strategies in the given order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// DefaultChain is tabular provider columns, tabular generic columns,
// statement line groups, line patterns, amount context mining and finally
// the emergency numeric fallback.
func DefaultChain(opts Options) *Chain {
	return NewChain(
		ProviderTableStrategy{},
		GenericTableStrategy{},
		StatementGroupStrategy{},
		NewLinePatternStrategy(opts),
		NewAmountContextStrategy(opts),
		NewEmergencyStrategy(opts),
	)
}

// Names lists the strategies in priority order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Run tries each strategy until one yields candidates. An empty outcome
// has confidence None and is not an error.
func (c *Chain) Run(ctx context.Context, in Input) (Outcome, error) {
	log := logger.FromContext(ctx)
	out := Outcome{Confidence: domain.ConfidenceNone}

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res := s.Parse(in)
		out.Attempts = append(out.Attempts, Attempt{
			Strategy: s.Name(),
			Found:    len(res.Transactions),
			Skipped:  len(res.Skipped),
		})
		log.Debug().
			Str("strategy", s.Name()).
			Str("source", string(in.Source)).
			Int("found", len(res.Transactions)).
			Int("skipped", len(res.Skipped)).
			Msg("Parser strategy finished")

		if len(res.Transactions) > 0 {
			out.Strategy = s.Name()
			out.Confidence = s.Confidence()
			out.Transactions = res.Transactions
			out.Skipped = res.Skipped
			return out, nil
		}
	}

	return out, nil
}
