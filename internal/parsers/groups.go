package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/normalize"
)

var (
	groupDateRe   = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},\s+\d{4}$`)
	groupTimeRe   = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}\s+(am|pm)$`)
	mergedDateRe  = regexp.MustCompile(`^((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},\s+\d{4})\s+(.+)$`)
	mergedTimeRe  = regexp.MustCompile(`(?i)^(\d{1,2}:\d{2}\s+(?:am|pm))\b\s*(.*)$`)
	paidToRe      = regexp.MustCompile(`(?i)^Paid to (.+?)\s+(DEBIT)\s+₹\s?([\d,]+(?:\.\d{1,2})?)$`)
	receivedRe    = regexp.MustCompile(`(?i)^Received from (.+?)\s+(CREDIT)\s+₹\s?([\d,]+(?:\.\d{1,2})?)$`)
	genericDetail = regexp.MustCompile(`(?i)^(.+?)\s+(DEBIT|CREDIT)\s+₹\s?([\d,]+(?:\.\d{1,2})?)$`)
	txnIDRe       = regexp.MustCompile(`Transaction ID\s*:?\s*([A-Z0-9]+)`)
	utrRe         = regexp.MustCompile(`UTR No\.?\s*:?\s*(\d+)`)

	billRe = regexp.MustCompile(`(?i)\b(bill|electricity|gas|water|recharge|broadband)\b`)

	// Statement boilerplate that is never transaction data.
	skipPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^Transaction Statement for`),
		regexp.MustCompile(`^Date Transaction Details Type Amount$`),
		regexp.MustCompile(`^Page \d+ of \d+$`),
		regexp.MustCompile(`^This is a system generated statement`),
		regexp.MustCompile(`^For any queries, contact us at`),
		regexp.MustCompile(`^terms-conditions`),
		regexp.MustCompile(`^Disclaimer`),
		regexp.MustCompile(`^etc\. through SMS`),
		regexp.MustCompile(`^https://support\.phonepe\.com`),
		regexp.MustCompile(`^XXXXXX\d+$`),
		regexp.MustCompile(`^Paid by$`),
		regexp.MustCompile(`^Credited to$`),
		regexp.MustCompile(`^\d+ \w+, \d+ - \d+ \w+, \d+$`),
	}

	statementIndicators = []string{
		"Transaction Statement for",
		"support.phonepe.com",
		"PhonePe Terms & Conditions",
		"This is a system generated statement",
	}

	accountRe = regexp.MustCompile(`Transaction Statement for (\d+)`)
	periodRe  = regexp.MustCompile(`(\d{1,2} \w+, \d{4}) - (\d{1,2} \w+, \d{4})`)
	pagesRe   = regexp.MustCompile(`Page \d+ of (\d+)`)
)

// referenceLookahead is how many lines after a detail line may carry the
// Transaction ID and UTR.
const referenceLookahead = 4

// IsBoilerplate reports whether a line is a statement header or footer.
func IsBoilerplate(line string) bool {
	for _, re := range skipPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// StatementInfo is header metadata printed on wallet statements.
type StatementInfo struct {
	AccountNumber string `json:"accountNumber,omitempty"`
	PeriodFrom    string `json:"periodFrom,omitempty"`
	PeriodTo      string `json:"periodTo,omitempty"`
	Pages         int    `json:"pages,omitempty"`
}

// LooksLikeGroupedStatement reports whether text carries the markers of a
// statement export that prints one transaction per line group.
func LooksLikeGroupedStatement(text string) bool {
	for _, ind := range statementIndicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}

// ExtractStatementInfo reads header metadata. It returns nil when the text is
// not a grouped statement export.
func ExtractStatementInfo(text string) *StatementInfo {
	if !LooksLikeGroupedStatement(text) {
		return nil
	}
	info := &StatementInfo{}
	if m := accountRe.FindStringSubmatch(text); m != nil {
		info.AccountNumber = m[1]
	}
	if m := periodRe.FindStringSubmatch(text); m != nil {
		info.PeriodFrom, info.PeriodTo = m[1], m[2]
	}
	for _, m := range pagesRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > info.Pages {
			info.Pages = n
		}
	}
	return info
}

// StatementGroupStrategy parses exports that print each transaction as a
// date line, a time line and a detail line, optionally followed by
// Transaction ID and UTR lines. Layouts where the renderer merged the date
// with the detail line ("<date> <detail>" then "<time> ...") are accepted too.
type StatementGroupStrategy struct{}

func (StatementGroupStrategy) Name() string                  { return StrategyStatementGroups }
func (StatementGroupStrategy) Confidence() domain.Confidence { return domain.ConfidenceHigh }

func (s StatementGroupStrategy) Parse(in Input) Result {
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

	for i := 0; i < len(lines); i++ {
		var dateLine, timeLine, detail string
		var next int

		switch {
		case groupDateRe.MatchString(lines[i]) && i+2 < len(lines) && groupTimeRe.MatchString(lines[i+1]):
			dateLine, timeLine, detail = lines[i], lines[i+1], lines[i+2]
			next = i + 3
		case mergedDateRe.MatchString(lines[i]) && i+1 < len(lines) && mergedTimeRe.MatchString(lines[i+1]):
			m := mergedDateRe.FindStringSubmatch(lines[i])
			dateLine, detail = m[1], m[2]
			tm := mergedTimeRe.FindStringSubmatch(lines[i+1])
			timeLine = tm[1]
			// The rest of the time line usually holds the Transaction ID.
			next = i + 1
		default:
			continue
		}

		d, ok := parseDetail(detail)
		if !ok {
			res.skip(i+1, SkipUnparsedDetail)
			continue
		}
		date, okDate := normalize.ParseDate(dateLine)
		d.date, d.hasDate = date, okDate
		if tm, ok := normalize.ParseClock(timeLine); ok {
			d.time = &tm
		}

		end := next + referenceLookahead
		if end > len(lines) {
			end = len(lines)
		}
		for j := next; j < end; j++ {
			if j > next && startsGroup(lines, j) {
				break
			}
			if m := txnIDRe.FindStringSubmatch(lines[j]); m != nil && d.reference == "" {
				d.reference = m[1]
			}
			if m := utrRe.FindStringSubmatch(lines[j]); m != nil && d.utr == "" {
				d.utr = m[1]
			}
		}
		d.raw = strings.Join([]string{dateLine, timeLine, detail}, " | ")

		tx, reason := d.build(in.Source, s.Name(), s.Confidence())
		if reason != "" {
			res.skip(i+1, reason)
			continue
		}
		res.Transactions = append(res.Transactions, tx)
		i = next - 1
	}
	return res
}

func startsGroup(lines []string, i int) bool {
	if groupDateRe.MatchString(lines[i]) {
		return true
	}
	return mergedDateRe.MatchString(lines[i]) && !txnIDRe.MatchString(lines[i])
}

// parseDetail reads "Paid to X DEBIT ₹amt", "Received from X CREDIT ₹amt"
// or a generic "<desc> DEBIT|CREDIT ₹amt" line.
func parseDetail(line string) (draft, bool) {
	var d draft
	if m := paidToRe.FindStringSubmatch(line); m != nil {
		d.merchant = strings.TrimSpace(m[1])
		d.description = "Paid to " + d.merchant
		d.txType = domain.Debit
		d.amount = normalize.ParseAmount(m[3])
		return d, true
	}
	if m := receivedRe.FindStringSubmatch(line); m != nil {
		d.merchant = strings.TrimSpace(m[1])
		d.description = "Received from " + d.merchant
		d.txType = domain.Credit
		d.amount = normalize.ParseAmount(m[3])
		return d, true
	}
	if m := genericDetail.FindStringSubmatch(line); m != nil {
		d.description = strings.TrimSpace(m[1])
		d.merchant = detailMerchant(d.description)
		d.txType = domain.Debit
		if strings.EqualFold(m[2], "CREDIT") {
			d.txType = domain.Credit
		}
		d.amount = normalize.ParseAmount(m[3])
		return d, true
	}
	return d, false
}

// detailMerchant names the payee of generic detail lines. Utility bill
// payments get the utility type as merchant.
func detailMerchant(desc string) string {
	if !billRe.MatchString(desc) {
		return normalize.ExtractMerchant(desc)
	}
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "electricity"):
		return "Electricity Board"
	case strings.Contains(lower, "gas"):
		return "Gas Company"
	case strings.Contains(lower, "water"):
		return "Water Board"
	}
	if m := normalize.ExtractMerchant(desc); m != normalize.UnknownMerchant && !billRe.MatchString(m) {
		return cases.Title(language.English).String(m)
	}
	return "Utility Company"
}
