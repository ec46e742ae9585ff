package parsers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/normalize"
)

var (
	// Amount-shaped tokens for context mining, including bare 3+ digit integers.
	contextAmountRes = []*regexp.Regexp{
		regexp.MustCompile(`₹\s?[\d,]+(?:\.\d{1,2})?`),
		regexp.MustCompile(`\b\d+\.\d{2}\b`),
		regexp.MustCompile(`\b\d{1,3}(?:,\d{2,3})+\b`),
		regexp.MustCompile(`\b\d{3,}\b`),
	}
	emergencyNumberRe = regexp.MustCompile(`\b\d{2,}\b`)
	contextWordRe     = regexp.MustCompile(`[A-Za-z][A-Za-z&.']+`)

	contextStopWords = map[string]bool{
		"the": true, "and": true, "for": true, "from": true, "with": true,
		"your": true, "this": true, "that": true, "are": true, "was": true,
		"page": true, "date": true, "amount": true, "type": true, "debit": true,
		"credit": true, "transaction": true, "details": true, "statement": true,
	}
)

const contextDescriptionWords = 4

// AmountContextStrategy mines amount-shaped tokens from the full text and
// describes each from the words around it. Used when no line-level pattern
// matched, so its candidates carry low confidence.
type AmountContextStrategy struct {
	opts Options
}

// NewAmountContextStrategy creates the strategy.
func NewAmountContextStrategy(opts Options) AmountContextStrategy {
	return AmountContextStrategy{opts: opts}
}

func (AmountContextStrategy) Name() string                  { return StrategyAmountContext }
func (AmountContextStrategy) Confidence() domain.Confidence { return domain.ConfidenceLow }

type span struct {
	start, end int
	value      decimal.Decimal
}

func (s AmountContextStrategy) Parse(in Input) Result {
	var res Result
	if in.Text == nil || in.Text.FullText == "" {
		return res
	}
	text := in.Text.FullText

	for _, sp := range s.amountSpans(text) {
		lo := sp.start - s.opts.ContextWindow
		if lo < 0 {
			lo = 0
		}
		hi := sp.end + s.opts.ContextWindow
		if hi > len(text) {
			hi = len(text)
		}
		context := strings.ToValidUTF8(text[lo:hi], "")

		date, ok := contextDate(text, context, sp.start)
		d := draft{
			date:        date,
			hasDate:     ok,
			description: contextDescription(context, sp.value),
			amount:      sp.value,
			txType:      typeFromText(context),
			raw:         strings.Join(strings.Fields(context), " "),
		}
		tx, reason := d.build(in.Source, s.Name(), s.Confidence())
		if reason != "" {
			res.skip(0, reason)
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res
}

// amountSpans collects in-range amounts in document order, dropping any
// within one unit of an amount already kept.
func (s AmountContextStrategy) amountSpans(text string) []span {
	blanked := blankForMining(text)
	taken := make([]bool, len(blanked))

	var spans []span
	for _, re := range contextAmountRes {
		for _, loc := range re.FindAllStringIndex(blanked, -1) {
			if overlapsTaken(taken, loc) {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			v := normalize.ParseAmount(blanked[loc[0]:loc[1]]).Abs()
			if !v.GreaterThan(s.opts.ContextMinAmount) || !v.LessThan(s.opts.ContextMaxAmount) {
				continue
			}
			spans = append(spans, span{start: loc[0], end: loc[1], value: v})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	one := decimal.NewFromInt(1)
	var kept []span
	for _, sp := range spans {
		dup := false
		for _, k := range kept {
			if sp.value.Sub(k.value).Abs().LessThan(one) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, sp)
		if len(kept) == s.opts.ContextMaxResults {
			break
		}
	}
	return kept
}

// contextDate prefers a date inside the window, then the nearest date
// printed before the amount.
func contextDate(text, context string, pos int) (civil.Date, bool) {
	if d, _, ok := normalize.FindDate(context); ok {
		return d, true
	}
	var last civil.Date
	found := false
	for _, line := range strings.Split(text[:pos], "\n") {
		if d, _, ok := normalize.FindDate(line); ok {
			last, found = d, true
		}
	}
	return last, found
}

func contextDescription(context string, amount decimal.Decimal) string {
	var words []string
	for _, w := range contextWordRe.FindAllString(normalize.Residual(context), -1) {
		if len(w) <= 2 || contextStopWords[strings.ToLower(w)] {
			continue
		}
		words = append(words, w)
		if len(words) == contextDescriptionWords {
			break
		}
	}
	if len(words) == 0 {
		return "Transaction ₹" + amount.StringFixed(2)
	}
	return strings.Join(words, " ")
}

// blankForMining hides dates and clock times so their digits are not read
// as amounts. Byte offsets are preserved.
func blankForMining(text string) string {
	return normalize.BlankDates(text)
}

func overlapsTaken(taken []bool, loc []int) bool {
	for i := loc[0]; i < loc[1]; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

// EmergencyStrategy is the last resort: any bare multi-digit number in a
// plausible range becomes a transaction with a synthetic date and a
// generic description. Candidates carry confidence None so callers can
// warn that the layout is unsupported.
type EmergencyStrategy struct {
	opts Options
}

// NewEmergencyStrategy creates the strategy.
func NewEmergencyStrategy(opts Options) EmergencyStrategy {
	return EmergencyStrategy{opts: opts}
}

func (EmergencyStrategy) Name() string                  { return StrategyEmergency }
func (EmergencyStrategy) Confidence() domain.Confidence { return domain.ConfidenceNone }

func (s EmergencyStrategy) Parse(in Input) Result {
	var res Result
	if in.Text == nil || in.Text.FullText == "" {
		return res
	}

	today := civil.DateOf(s.opts.Now())
	label := string(in.Source.Provenance())
	for _, token := range emergencyNumberRe.FindAllString(blankForMining(in.Text.FullText), -1) {
		v, err := decimal.NewFromString(token)
		if err != nil {
			continue
		}
		if v.LessThan(s.opts.EmergencyMinAmount) || v.GreaterThan(s.opts.EmergencyMaxAmount) {
			continue
		}
		n := len(res.Transactions)
		d := draft{
			date:        today.AddDays(-n),
			hasDate:     true,
			description: fmt.Sprintf("%s Transaction %d (from number pattern)", label, n+1),
			amount:      v,
			txType:      domain.Debit,
			merchant:    normalize.UnknownMerchant,
			raw:         token,
		}
		tx, reason := d.build(in.Source, s.Name(), s.Confidence())
		if reason != "" {
			continue
		}
		res.Transactions = append(res.Transactions, tx)
		if len(res.Transactions) == s.opts.EmergencyMaxResults {
			break
		}
	}
	return res
}
