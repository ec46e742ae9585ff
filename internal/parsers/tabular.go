package parsers

import (
	"strings"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/normalize"
)

// failedStatuses are dropped for every provider that exports a status column.
var failedStatuses = map[string]bool{
	"failed": true, "failure": true, "declined": true,
	"cancelled": true, "canceled": true, "pending": true, "reversed": true,
}

// ProviderTableStrategy maps rows using the detected provider's column aliases.
type ProviderTableStrategy struct{}

func (ProviderTableStrategy) Name() string                  { return StrategyTabularProvider }
func (ProviderTableStrategy) Confidence() domain.Confidence { return domain.ConfidenceHigh }

func (s ProviderTableStrategy) Parse(in Input) Result {
	var res Result
	if in.Table == nil {
		return res
	}
	table, ok := providerColumns[in.Source]
	if !ok {
		return res
	}
	cols := resolve(in.Table.Headers, table, false)
	if !cols.usable() {
		return res
	}
	parseRows(&res, in, cols, s)
	return res
}

// GenericTableStrategy guesses columns from common header names and fragments.
type GenericTableStrategy struct{}

func (GenericTableStrategy) Name() string                  { return StrategyTabularGeneric }
func (GenericTableStrategy) Confidence() domain.Confidence { return domain.ConfidenceMedium }

func (s GenericTableStrategy) Parse(in Input) Result {
	var res Result
	if in.Table == nil {
		return res
	}
	cols := resolve(in.Table.Headers, genericColumns, true)
	if !cols.usable() {
		return res
	}
	parseRows(&res, in, cols, s)
	return res
}

func parseRows(res *Result, in Input, cols columns, s Strategy) {
	for _, row := range in.Table.Rows {
		if reason := statusReason(in.Source, cols, row); reason != "" {
			res.skip(row.Line, reason)
			continue
		}
		tx, reason := rowDraft(cols, row).build(in.Source, s.Name(), s.Confidence())
		if reason != "" {
			res.skip(row.Line, reason)
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
}

// statusReason applies status acceptance rules. PhonePe rows must say
// "success"; other providers only drop explicit failures.
func statusReason(source domain.Source, cols columns, row domain.Row) SkipReason {
	if len(cols[fieldStatus]) == 0 {
		return ""
	}
	status := strings.ToLower(cols.first(row, fieldStatus))
	if source == domain.SourcePhonePe {
		if status != "success" {
			return SkipStatus
		}
		return ""
	}
	if failedStatuses[status] {
		return SkipStatus
	}
	return ""
}

func rowDraft(cols columns, row domain.Row) draft {
	d := draft{
		description: cols.first(row, fieldDescription),
		merchant:    cols.first(row, fieldMerchant),
		reference:   cols.first(row, fieldReference),
		raw:         row.String(),
	}

	for _, h := range cols[fieldDate] {
		date, tm, ok := normalize.ParseTimestamp(row.Get(h))
		if ok {
			d.date, d.time, d.hasDate = date, tm, true
			break
		}
	}
	if d.hasDate && d.time == nil {
		if tm, ok := normalize.ParseClock(cols.first(row, fieldTime)); ok {
			d.time = &tm
		}
	}

	hint := typeHint(cols.first(row, fieldType))
	if amount := normalize.ParseAmount(cols.first(row, fieldAmount)); !amount.IsZero() {
		d.amount = amount
		d.txType = hint
		return d
	}

	credit := normalize.ParseAmount(cols.first(row, fieldCredit)).Abs()
	debit := normalize.ParseAmount(cols.first(row, fieldDebit)).Abs()
	switch {
	case credit.IsPositive():
		d.amount, d.txType = credit, domain.Credit
	case debit.IsPositive():
		d.amount, d.txType = debit, domain.Debit
	}
	return d
}

// typeHint reads a Type or Dr/Cr cell.
func typeHint(v string) domain.TxType {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return ""
	case v == "cr" || v == "c" || strings.Contains(v, "credit") || strings.Contains(v, "received") || strings.Contains(v, "deposit"):
		return domain.Credit
	case v == "dr" || v == "d" || strings.Contains(v, "debit") || strings.Contains(v, "paid") || strings.Contains(v, "sent") || strings.Contains(v, "withdraw"):
		return domain.Debit
	}
	return ""
}

// MapsColumns reports whether the provider or generic column map resolves
// against the table headers. Rows of such a table are fully accounted for by
// the tabular strategies, including those they reject.
func MapsColumns(source domain.Source, table *domain.Table) bool {
	if table == nil {
		return false
	}
	if aliases, ok := providerColumns[source]; ok && resolve(table.Headers, aliases, false).usable() {
		return true
	}
	return resolve(table.Headers, genericColumns, true).usable()
}

// RenderTable renders rows as text lines so the text strategies can mine
// tabular files whose headers no column map recognizes.
func RenderTable(table *domain.Table) *domain.TextDocument {
	if table == nil {
		return &domain.TextDocument{}
	}
	lines := make([]string, 0, len(table.Rows)+1)
	if len(table.Headers) > 0 {
		lines = append(lines, strings.Join(table.Headers, " "))
	}
	for _, row := range table.Rows {
		cells := make([]string, 0, len(row.Headers))
		for _, h := range row.Headers {
			if v := row.Get(h); v != "" {
				cells = append(cells, v)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return &domain.TextDocument{Lines: lines, FullText: strings.Join(lines, "\n"), Pages: 1}
}
