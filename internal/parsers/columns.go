package parsers

import (
	"strings"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

type field int

const (
	fieldDate field = iota
	fieldTime
	fieldDescription
	fieldAmount
	fieldDebit
	fieldCredit
	fieldType
	fieldStatus
	fieldReference
	fieldMerchant
)

// aliases lists acceptable header names per field in priority order.
type aliases map[field][]string

// providerColumns holds the header aliases of each provider's export.
var providerColumns = map[domain.Source]aliases{
	domain.SourceGPay: {
		fieldDate:        {"Date", "date", "Transaction Date"},
		fieldTime:        {"Time"},
		fieldDescription: {"Description", "description", "Details"},
		fieldAmount:      {"Amount", "amount", "Amount (INR)"},
		fieldType:        {"Type", "Transaction Type"},
		fieldStatus:      {"Status", "status"},
		fieldReference:   {"Transaction ID", "transaction_id", "UPI Transaction ID"},
		fieldMerchant:    {"Merchant", "Paid To", "Name"},
	},
	domain.SourcePhonePe: {
		fieldDate:        {"Date", "Transaction Date"},
		fieldTime:        {"Time"},
		fieldDescription: {"Transaction Details", "Description"},
		fieldAmount:      {"Amount"},
		fieldDebit:       {"Debit"},
		fieldCredit:      {"Credit"},
		fieldType:        {"Type"},
		fieldStatus:      {"Status"},
		fieldReference:   {"Transaction ID", "UTR No", "UTR"},
	},
	domain.SourcePaytm: {
		fieldDate:        {"Date", "Transaction Date"},
		fieldTime:        {"Time"},
		fieldDescription: {"Activity", "Description", "Transaction Details"},
		fieldAmount:      {"Amount"},
		fieldType:        {"Type"},
		fieldStatus:      {"Status"},
		fieldReference:   {"Order ID", "Transaction ID", "UPI Ref No"},
		fieldMerchant:    {"Source/Destination", "Merchant"},
	},
	domain.SourceBank: {
		fieldDate:        {"Date", "Transaction Date", "Txn Date", "Value Date", "Posting Date"},
		fieldDescription: {"Description", "Transaction Details", "Particulars", "Narration", "Remarks"},
		fieldAmount:      {"Amount"},
		fieldDebit:       {"Debit", "Withdrawal", "Withdrawal Amt", "Withdrawal Amount", "Debit Amount"},
		fieldCredit:      {"Credit", "Deposit", "Deposit Amt", "Deposit Amount", "Credit Amount"},
		fieldType:        {"Dr/Cr", "Type"},
		fieldReference:   {"Chq./Ref.No.", "Ref No", "Reference", "Cheque No"},
	},
}

// genericColumns is probed for unrecognized exports.
var genericColumns = aliases{
	fieldDate:        {"date", "Date", "transaction_date", "Transaction Date", "posting_date", "Txn Date", "Value Date"},
	fieldTime:        {"time", "Time"},
	fieldDescription: {"description", "Description", "particulars", "Particulars", "details", "Details", "merchant", "Merchant", "narration", "Narration", "remarks", "Remarks"},
	fieldAmount:      {"amount", "Amount"},
	fieldDebit:       {"debit", "Debit", "Withdrawal"},
	fieldCredit:      {"credit", "Credit", "Deposit"},
	fieldType:        {"type", "Type", "Dr/Cr"},
	fieldStatus:      {"status", "Status"},
	fieldReference:   {"reference", "Reference", "Transaction ID", "Ref No"},
}

// substringRules discovers columns by header fragments. A header matching an
// exclusion is ignored for that field.
var substringRules = map[field]struct {
	include []string
	exclude []string
}{
	fieldDate:        {include: []string{"date"}},
	fieldDescription: {include: []string{"description", "particulars", "details", "merchant", "activity", "narration", "remarks"}},
	fieldAmount:      {include: []string{"amount"}, exclude: []string{"balance", "withdrawal", "deposit", "debit", "credit"}},
	fieldDebit:       {include: []string{"debit", "withdrawal"}},
	fieldCredit:      {include: []string{"credit", "deposit"}},
	fieldType:        {include: []string{"type", "dr/cr"}},
	fieldStatus:      {include: []string{"status"}},
}

// columns maps each field to the present headers, in priority order.
type columns map[field][]string

// resolve finds which aliases exist among the headers. Exact matches are
// tried before case-insensitive ones; when discover is set, headers found
// by substring follow the aliases.
func resolve(headers []string, table aliases, discover bool) columns {
	exact := make(map[string]string, len(headers))
	folded := make(map[string]string, len(headers))
	for _, h := range headers {
		exact[h] = h
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := folded[key]; !ok {
			folded[key] = h
		}
	}

	cols := make(columns)
	for f, names := range table {
		seen := make(map[string]bool)
		for _, name := range names {
			h, ok := exact[name]
			if !ok {
				h, ok = folded[strings.ToLower(name)]
			}
			if ok && !seen[h] {
				cols[f] = append(cols[f], h)
				seen[h] = true
			}
		}
		if !discover {
			continue
		}
		rule, ok := substringRules[f]
		if !ok {
			continue
		}
		for _, h := range headers {
			if seen[h] {
				continue
			}
			lower := strings.ToLower(h)
			if containsAnyOf(lower, rule.include) && !containsAnyOf(lower, rule.exclude) {
				cols[f] = append(cols[f], h)
				seen[h] = true
			}
		}
	}
	return cols
}

// usable reports whether the columns can yield a transaction at all.
func (c columns) usable() bool {
	if len(c[fieldDate]) == 0 || len(c[fieldDescription]) == 0 {
		return false
	}
	return len(c[fieldAmount]) > 0 || len(c[fieldDebit]) > 0 || len(c[fieldCredit]) > 0
}

// first returns the first non-empty value among the field's columns.
func (c columns) first(row domain.Row, f field) string {
	for _, h := range c[f] {
		if v := row.Get(h); v != "" {
			return v
		}
	}
	return ""
}

func containsAnyOf(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
