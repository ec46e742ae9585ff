// Package parsers turns extracted rows or text into candidate transactions.
//
// Strategies are tried in a fixed priority order by Chain and the first one
// producing candidates wins. Rows or lines that cannot yield a candidate are
// skipped with a SkipReason; only resource-level failures are errors, and
// those happen before parsing starts.
package parsers

import (
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/normalize"
)

// Strategy names reported in results and stamped on transactions.
const (
	StrategyTabularProvider = "tabular-provider"
	StrategyTabularGeneric  = "tabular-generic"
	StrategyStatementGroups = "statement-groups"
	StrategyLinePattern     = "line-pattern"
	StrategyAmountContext   = "amount-context"
	StrategyEmergency       = "emergency-numeric"
)

// SkipReason explains why a row or line produced no candidate.
type SkipReason string

const (
	SkipMissingDate        SkipReason = "missing date"
	SkipMissingDescription SkipReason = "missing description"
	SkipZeroAmount         SkipReason = "zero amount"
	SkipStatus             SkipReason = "unsuccessful status"
	SkipShortDescription   SkipReason = "description too short"
	SkipUnparsedDetail     SkipReason = "unparsed detail line"
)

// Skip records one dropped row or line.
type Skip struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
}

// Input is what the strategies read. Table is nil for text documents; Text
// is always present (tabular inputs carry a rendering of their rows).
type Input struct {
	Source domain.Source
	Table  *domain.Table
	Text   *domain.TextDocument
}

// Result is the output of a single strategy.
type Result struct {
	Transactions []*domain.Transaction
	Skipped      []Skip
}

func (r *Result) skip(line int, reason SkipReason) {
	r.Skipped = append(r.Skipped, Skip{Line: line, Reason: reason})
}

// Strategy is one parsing algorithm.
type Strategy interface {
	Name() string
	// Confidence is the extraction confidence attached to its candidates.
	Confidence() domain.Confidence
	Parse(in Input) Result
}

// Options tune the degraded text strategies.
type Options struct {
	// MinLineResults is how many single-line matches suffice before the
	// line+next-line window pass is skipped.
	MinLineResults int

	ContextMinAmount  decimal.Decimal
	ContextMaxAmount  decimal.Decimal
	ContextMaxResults int
	// ContextWindow is the number of characters read on each side of an amount.
	ContextWindow int

	EmergencyMinAmount  decimal.Decimal
	EmergencyMaxAmount  decimal.Decimal
	EmergencyMaxResults int

	// Now anchors synthetic dates in the emergency strategy.
	Now func() time.Time
}

// DefaultOptions returns the tuning used by the bundled binaries.
func DefaultOptions() Options {
	return Options{
		MinLineResults:      5,
		ContextMinAmount:    decimal.NewFromInt(50),
		ContextMaxAmount:    decimal.NewFromInt(1000000),
		ContextMaxResults:   15,
		ContextWindow:       100,
		EmergencyMinAmount:  decimal.NewFromInt(100),
		EmergencyMaxAmount:  decimal.NewFromInt(100000),
		EmergencyMaxResults: 10,
		Now:                 time.Now,
	}
}

var creditWordsRe = regexp.MustCompile(`(?i)\b(credit|credited|received|refund|cashback|deposit|salary)\b`)

// typeFromText defaults to debit unless the text carries a credit word.
func typeFromText(text string) domain.TxType {
	if creditWordsRe.MatchString(text) {
		return domain.Credit
	}
	return domain.Debit
}

// draft is a candidate before validation.
type draft struct {
	date        civil.Date
	hasDate     bool
	time        *civil.Time
	description string
	// amount may be signed; a negative amount means debit unless txType is set.
	amount    decimal.Decimal
	txType    domain.TxType
	merchant  string
	reference string
	utr       string
	raw       string
}

// build validates the draft and produces a transaction.
func (d draft) build(source domain.Source, strategy string, conf domain.Confidence) (*domain.Transaction, SkipReason) {
	if !d.hasDate {
		return nil, SkipMissingDate
	}
	desc := normalize.CleanDescription(d.description)
	if desc == "" {
		return nil, SkipMissingDescription
	}
	if d.amount.IsZero() {
		return nil, SkipZeroAmount
	}

	txType := d.txType
	if txType == "" {
		txType = domain.Credit
		if d.amount.IsNegative() {
			txType = domain.Debit
		}
	}

	merchant := strings.TrimSpace(d.merchant)
	if merchant == "" {
		merchant = normalize.ExtractMerchant(desc)
	}

	return &domain.Transaction{
		ID:          uuid.NewString(),
		Date:        d.date,
		Time:        d.time,
		Description: desc,
		Amount:      d.amount.Abs(),
		Type:        txType,
		Source:      source.Provenance(),
		Merchant:    merchant,
		Reference:   d.reference,
		UTR:         d.utr,
		Strategy:    strategy,
		Confidence:  conf,
		RawData:     d.raw,
	}, ""
}
