package pipeline

import (
	"fmt"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/parsers"
)

// Result is the outcome of processing one statement file.
type Result struct {
	FileName     string                `json:"fileName"`
	Transactions []*domain.Transaction `json:"transactions"`
	Source       domain.Source         `json:"source"`
	// Strategy is empty when no strategy produced anything.
	Strategy   string                 `json:"strategy,omitempty"`
	Confidence domain.Confidence      `json:"confidence"`
	Summary    Summary                `json:"summary"`
	Metadata   *parsers.StatementInfo `json:"metadata,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	Skipped    []parsers.Skip         `json:"skipped,omitempty"`
	Duplicates int                    `json:"duplicates"`
	Attempts   []parsers.Attempt      `json:"attempts,omitempty"`
}

// DateRange spans the earliest and latest transaction dates.
type DateRange struct {
	From civil.Date `json:"from"`
	To   civil.Date `json:"to"`
}

// Summary aggregates a result's transactions.
type Summary struct {
	Count       int             `json:"count"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	DateRange   *DateRange      `json:"dateRange,omitempty"`
	// Categories sums debits per category.
	Categories map[string]decimal.Decimal `json:"categories"`
	Sources    map[domain.Source]int      `json:"sources"`
	Warnings   int                        `json:"warnings"`
}

// Summarize aggregates transactions.
func Summarize(txs []*domain.Transaction) Summary {
	s := Summary{
		Count:       len(txs),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Categories:  make(map[string]decimal.Decimal),
		Sources:     make(map[domain.Source]int),
	}
	for _, tx := range txs {
		s.Sources[tx.Source]++
		if s.DateRange == nil {
			s.DateRange = &DateRange{From: tx.Date, To: tx.Date}
		} else {
			if tx.Date.Before(s.DateRange.From) {
				s.DateRange.From = tx.Date
			}
			if tx.Date.After(s.DateRange.To) {
				s.DateRange.To = tx.Date
			}
		}

		if tx.Type == domain.Credit {
			s.TotalCredit = s.TotalCredit.Add(tx.Amount)
			continue
		}
		s.TotalDebit = s.TotalDebit.Add(tx.Amount)
		if tx.Category != "" {
			s.Categories[tx.Category] = s.Categories[tx.Category].Add(tx.Amount)
		}
	}
	return s
}

// OverallConfidence grades a result by the share of well-formed
// transactions, capped by how degraded the winning strategy is.
func OverallConfidence(strategy string, txs []*domain.Transaction) domain.Confidence {
	if len(txs) == 0 || strategy == parsers.StrategyEmergency {
		return domain.ConfidenceNone
	}

	valid := 0
	for _, tx := range txs {
		if tx.Date.IsValid() && tx.Amount.IsPositive() && utf8.RuneCountInString(tx.Description) > MinDescriptionLength {
			valid++
		}
	}
	share := float64(valid) / float64(len(txs))

	conf := domain.ConfidenceLow
	switch {
	case share > HighShare:
		conf = domain.ConfidenceHigh
	case share > MediumShare:
		conf = domain.ConfidenceMedium
	}
	if strategy == parsers.StrategyAmountContext {
		return domain.ConfidenceLow
	}
	return conf
}

func buildResult(state *PipelineState) *Result {
	txs := state.Transactions
	if txs == nil {
		txs = []*domain.Transaction{}
	}

	r := &Result{
		FileName:     state.FileName,
		Transactions: txs,
		Source:       state.Source,
		Strategy:     state.Outcome.Strategy,
		Confidence:   OverallConfidence(state.Outcome.Strategy, txs),
		Skipped:      state.Outcome.Skipped,
		Duplicates:   state.Duplicates,
		Attempts:     state.Outcome.Attempts,
	}

	if doc := state.Document; doc != nil {
		r.Warnings = append(r.Warnings, doc.Warnings()...)
		if doc.Text != nil {
			r.Metadata = parsers.ExtractStatementInfo(doc.Text.FullText)
		}
	}
	switch {
	case len(txs) == 0:
		r.Warnings = append(r.Warnings, WarningNoTransactions)
	case r.Strategy == parsers.StrategyEmergency:
		r.Warnings = append(r.Warnings, WarningEmergency)
	case r.Strategy == parsers.StrategyAmountContext:
		r.Warnings = append(r.Warnings, WarningAmountContext)
	}
	if n := len(r.Skipped); n > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d rows or lines skipped", n))
	}

	r.Summary = Summarize(txs)
	r.Summary.Warnings = len(r.Warnings)
	return r
}
