package parsers

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/normalize"
)

const (
	// bankWindowLines is how many lines after a dated line belong to it.
	bankWindowLines = 2
	// minBankDescription is the shortest description kept from bank windows.
	minBankDescription = 5
)

var minWindowAmount = decimal.NewFromInt(10)

// LinePatternStrategy finds lines where a date and an amount co-occur. The
// first date and the largest amount on a line win. Bank statements read a
// dated line together with the following lines; other sources fall back to
// a line+next-line window when single lines found too little.
type LinePatternStrategy struct {
	opts Options
}

// NewLinePatternStrategy creates the strategy.
func NewLinePatternStrategy(opts Options) LinePatternStrategy {
	return LinePatternStrategy{opts: opts}
}

func (LinePatternStrategy) Name() string                  { return StrategyLinePattern }
func (LinePatternStrategy) Confidence() domain.Confidence { return domain.ConfidenceMedium }

type indexed struct {
	line int
	tx   *domain.Transaction
}

func (s LinePatternStrategy) Parse(in Input) Result {
	var res Result
	if in.Text == nil {
		return res
	}
	lines := make([]string, 0, len(in.Text.Lines))
	for _, l := range in.Text.Lines {
		if !IsBoilerplate(l) {
			lines = append(lines, l)
		}
	}

	var found []indexed
	if in.Source == domain.SourceBank {
		found = s.bankWindows(&res, in.Source, lines)
	} else {
		found = s.singleLines(&res, in.Source, lines)
		if len(found) < s.opts.MinLineResults {
			found = append(found, s.pairedLines(&res, in.Source, lines)...)
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].line < found[j].line })
	for _, f := range found {
		res.Transactions = append(res.Transactions, f.tx)
	}
	return res
}

func (s LinePatternStrategy) singleLines(res *Result, source domain.Source, lines []string) []indexed {
	var out []indexed
	for i, line := range lines {
		date, _, ok := normalize.FindDate(line)
		if !ok {
			continue
		}
		amount, ok := normalize.LargestAmount(line)
		if !ok {
			continue
		}
		d := draft{
			date:        date,
			hasDate:     true,
			description: normalize.Residual(line),
			amount:      amount,
			txType:      typeFromText(line),
			raw:         line,
		}
		if tm, ok := normalize.ParseClock(line); ok {
			d.time = &tm
		}
		if tx := s.keep(res, i+1, d, source); tx != nil {
			out = append(out, indexed{line: i, tx: tx})
		}
	}
	return out
}

// pairedLines joins a dated line lacking an amount with the line after it.
func (s LinePatternStrategy) pairedLines(res *Result, source domain.Source, lines []string) []indexed {
	var out []indexed
	for i := 0; i+1 < len(lines); i++ {
		line := lines[i]
		date, _, ok := normalize.FindDate(line)
		if !ok || normalize.HasAmount(line) {
			continue
		}
		window := line + " " + lines[i+1]
		amount, ok := normalize.LargestAmount(lines[i+1])
		if !ok || !amount.GreaterThan(minWindowAmount) {
			continue
		}
		d := draft{
			date:        date,
			hasDate:     true,
			description: normalize.Residual(window),
			amount:      amount,
			txType:      typeFromText(window),
			raw:         window,
		}
		if tx := s.keep(res, i+1, d, source); tx != nil {
			out = append(out, indexed{line: i, tx: tx})
		}
	}
	return out
}

// bankWindows reads each dated line with up to two following undated lines.
func (s LinePatternStrategy) bankWindows(res *Result, source domain.Source, lines []string) []indexed {
	var out []indexed
	for i, line := range lines {
		date, _, ok := normalize.FindDate(line)
		if !ok {
			continue
		}
		parts := []string{line}
		for j := i + 1; j < len(lines) && j <= i+bankWindowLines; j++ {
			if normalize.HasDate(lines[j]) {
				break
			}
			parts = append(parts, lines[j])
		}
		window := strings.Join(parts, " ")

		amount, ok := normalize.LargestAmount(window)
		if !ok {
			continue
		}
		desc := normalize.Residual(window)
		if utf8.RuneCountInString(desc) <= minBankDescription {
			res.skip(i+1, SkipShortDescription)
			continue
		}
		d := draft{
			date:        date,
			hasDate:     true,
			description: desc,
			amount:      amount,
			txType:      typeFromText(desc),
			raw:         window,
		}
		if tx := s.keep(res, i+1, d, source); tx != nil {
			out = append(out, indexed{line: i, tx: tx})
		}
	}
	return out
}

func (s LinePatternStrategy) keep(res *Result, line int, d draft, source domain.Source) *domain.Transaction {
	tx, reason := d.build(source, s.Name(), s.Confidence())
	if reason != "" {
		res.skip(line, reason)
		return nil
	}
	return tx
}
