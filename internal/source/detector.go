// Package source infers which payment provider produced a statement.
package source

import (
	"strings"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

type fingerprint struct {
	source  domain.Source
	names   []string
	content []string
}

// fingerprints is checked in order; specific apps precede the generic buckets.
var fingerprints = []fingerprint{
	{
		source:  domain.SourceGPay,
		names:   []string{"gpay", "google pay", "googlepay", "google_pay"},
		content: []string{"google pay", "gpay"},
	},
	{
		source:  domain.SourcePhonePe,
		names:   []string{"phonepe", "phone pe", "phone_pe"},
		content: []string{"phonepe", "phone pe"},
	},
	{
		source:  domain.SourcePaytm,
		names:   []string{"paytm"},
		content: []string{"paytm", "one97"},
	},
	{
		source:  domain.SourceBank,
		names:   []string{"bank", "statement", "account"},
		content: []string{"account statement", "bank statement", "current account", "savings account"},
	},
	{
		source:  domain.SourceUPI,
		names:   []string{"upi", "transaction"},
		content: []string{"upi", "unified payments"},
	},
}

// Detect returns the first provider, in fingerprint order, whose filename or
// content markers match. A specific app named only in the content still beats
// a generic filename such as "statement.pdf". Detect never fails; no signal
// yields SourceUnknown.
func Detect(fileName, content string) domain.Source {
	name := strings.ToLower(fileName)
	text := strings.ToLower(content)
	for _, fp := range fingerprints {
		if containsAny(name, fp.names) || containsAny(text, fp.content) {
			return fp.source
		}
	}
	return domain.SourceUnknown
}

// DetectTable detects a tabular export, using the header row as content.
func DetectTable(fileName string, table *domain.Table) domain.Source {
	if table == nil {
		return Detect(fileName, "")
	}
	return Detect(fileName, strings.Join(table.Headers, " "))
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
