package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyNoiseRe = regexp.MustCompile(`(?i)(₹|\$|rs\.?|inr|,|\s)`)
	numericPrefixRe = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)

	// Currency-shaped amounts: rupee or Rs/INR prefix, Indian or western
	// thousands grouping, or exactly two decimals.
	amountSearchRes = []*regexp.Regexp{
		regexp.MustCompile(`₹\s?\d[\d,]*(?:\.\d{1,2})?`),
		regexp.MustCompile(`(?i)\b(?:rs\.?|inr)\s?\d[\d,]*(?:\.\d{1,2})?`),
		regexp.MustCompile(`\b\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?\b`),
		regexp.MustCompile(`\b\d+\.\d{2}\b`),
	}
)

// ParseAmount parses a statement amount. Currency glyphs, thousands
// separators and whitespace are stripped and "(500)" reads as -500. Like a
// lenient float parse, a leading numeric prefix is accepted and anything
// unparseable yields zero.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	s = currencyNoiseRe.ReplaceAllString(s, "")
	m := numericPrefixRe.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d
}

// AmountFromFloat converts a numeric spreadsheet cell.
func AmountFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FindAmounts returns every currency-shaped amount in a line, in order of
// appearance. Date and clock tokens are blanked first so "15.01.2024" is not
// read as 15.01.
func FindAmounts(line string) []decimal.Decimal {
	cleaned := blankDates(line)

	type hit struct {
		start int
		value decimal.Decimal
	}
	var hits []hit
	taken := make([]bool, len(cleaned))
	for _, re := range amountSearchRes {
		for _, loc := range re.FindAllStringIndex(cleaned, -1) {
			if overlaps(taken, loc) {
				continue
			}
			v := ParseAmount(cleaned[loc[0]:loc[1]]).Abs()
			if v.IsZero() {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			hits = append(hits, hit{start: loc[0], value: v})
		}
	}

	// Insertion sort keeps the slice in positional order; lines are short.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].start < hits[j-1].start; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := make([]decimal.Decimal, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}

// LargestAmount returns the largest currency-shaped amount in a line.
// Totals usually dominate reference numbers on a statement line, which is a
// heuristic and not a guarantee.
func LargestAmount(line string) (decimal.Decimal, bool) {
	amounts := FindAmounts(line)
	if len(amounts) == 0 {
		return decimal.Zero, false
	}
	largest := amounts[0]
	for _, a := range amounts[1:] {
		if a.GreaterThan(largest) {
			largest = a
		}
	}
	return largest, true
}

// HasAmount reports whether a line contains a currency-shaped amount.
func HasAmount(line string) bool {
	return len(FindAmounts(line)) > 0
}

// BlankDates replaces date and clock tokens with spaces, keeping byte offsets.
func BlankDates(line string) string {
	return blankDates(line)
}

func blankDates(line string) string {
	b := []byte(line)
	for _, span := range dateSpans(line) {
		for i := span[0]; i < span[1]; i++ {
			b[i] = ' '
		}
	}
	for _, span := range clockRe.FindAllStringIndex(line, -1) {
		for i := span[0]; i < span[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

func overlaps(taken []bool, loc []int) bool {
	for i := loc[0]; i < loc[1]; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}
