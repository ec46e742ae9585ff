package domain

import "strings"

// Row is one tabular record: header name to cell value, with the original
// header order preserved. Header case is left untouched.
type Row struct {
	Headers []string
	Values  map[string]string
	// Line is the 1-based source line or spreadsheet row number.
	Line int
}

// Get returns the trimmed value for an exact header name.
func (r Row) Get(header string) string {
	return strings.TrimSpace(r.Values[header])
}

// String renders the row in header order for debugging.
func (r Row) String() string {
	var b strings.Builder
	for i, h := range r.Headers {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(h)
		b.WriteString("=")
		b.WriteString(r.Values[h])
	}
	return b.String()
}

// Table is the output of a tabular extractor.
type Table struct {
	Headers  []string
	Rows     []Row
	Warnings []string
}

// TextDocument is the output of the text extractor: trimmed non-empty lines
// plus the full text for scans that cross line boundaries.
type TextDocument struct {
	Lines    []string
	FullText string
	Pages    int
}

// Category is a taxonomy entry.
type Category struct {
	Name      string   `yaml:"name" json:"name"`
	Icon      string   `yaml:"icon" json:"icon"`
	Color     string   `yaml:"color" json:"color"`
	Merchants []string `yaml:"merchants" json:"merchants,omitempty"`
	Keywords  []string `yaml:"keywords" json:"keywords,omitempty"`
}
