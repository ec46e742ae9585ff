package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

const (
	inspectPreviewChars = 1000
	inspectPreviewLines = 50
)

var (
	inspectDateRe   = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}|(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},\s+\d{4}`)
	inspectAmountRe = regexp.MustCompile(`₹\s?[\d,]+|\d+\.\d{2}|\d{1,3}(,\d{2,3})+`)
)

// Inspection summarizes extracted PDF text for troubleshooting layouts that
// no parser recognizes.
type Inspection struct {
	Pages            int      `json:"pages"`
	TextLength       int      `json:"textLength"`
	LineCount        int      `json:"lineCount"`
	Preview          string   `json:"preview"`
	Lines            []string `json:"lines"`
	HasRupeeSymbol   bool     `json:"hasRupeeSymbol"`
	HasDatePattern   bool     `json:"hasDatePattern"`
	HasAmountPattern bool     `json:"hasAmountPattern"`
}

// Inspect builds an Inspection of a text document.
func Inspect(doc *domain.TextDocument) Inspection {
	text := doc.FullText
	preview := text
	if utf8.RuneCountInString(preview) > inspectPreviewChars {
		preview = string([]rune(preview)[:inspectPreviewChars])
	}
	lines := doc.Lines
	if len(lines) > inspectPreviewLines {
		lines = lines[:inspectPreviewLines]
	}

	return Inspection{
		Pages:            doc.Pages,
		TextLength:       utf8.RuneCountInString(text),
		LineCount:        len(doc.Lines),
		Preview:          preview,
		Lines:            lines,
		HasRupeeSymbol:   strings.Contains(text, "₹"),
		HasDatePattern:   inspectDateRe.MatchString(text),
		HasAmountPattern: inspectAmountRe.MatchString(text),
	}
}
