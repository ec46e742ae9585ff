package extract

import (
	"fmt"
	"strings"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// headerScanLimit bounds how many leading rows are searched for the header.
const headerScanLimit = 20

// looksLikeHeader reports whether a record is plausibly the column header
// row: it names a date column and has at least two non-empty cells.
func looksLikeHeader(record []string) bool {
	nonEmpty := 0
	hasDate := false
	for _, cell := range record {
		c := strings.ToLower(strings.TrimSpace(cell))
		if c == "" {
			continue
		}
		nonEmpty++
		if strings.Contains(c, "date") {
			hasDate = true
		}
	}
	return hasDate && nonEmpty >= 2
}

// findHeader returns the index of the header record among the first rows,
// defaulting to the first non-empty one.
func findHeader(records [][]string) int {
	first := -1
	for i, rec := range records {
		if i >= headerScanLimit {
			break
		}
		if isBlank(rec) {
			continue
		}
		if first < 0 {
			first = i
		}
		if looksLikeHeader(rec) {
			return i
		}
	}
	if first < 0 {
		return 0
	}
	return first
}

// normalizeHeaders trims headers, strips a byte order mark and names empty
// or repeated headers so every column keeps a unique key.
func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	seen := make(map[string]int)
	for i, h := range record {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h == "" {
			h = fmt.Sprintf("Column%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}
	return headers
}

// toRow maps a record onto headers. Short records are padded; a record with
// non-empty cells beyond the header width is rejected with a reason.
func toRow(headers, record []string, line int) (domain.Row, string) {
	if len(record) > len(headers) {
		for _, extra := range record[len(headers):] {
			if strings.TrimSpace(extra) != "" {
				return domain.Row{}, fmt.Sprintf("row %d: %d fields, expected %d", line, len(record), len(headers))
			}
		}
	}
	values := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(record) {
			values[h] = strings.TrimSpace(record[i])
		} else {
			values[h] = ""
		}
	}
	return domain.Row{Headers: headers, Values: values, Line: line}, ""
}

// buildTable turns in-memory records into a table.
func buildTable(records [][]string) *domain.Table {
	table := &domain.Table{}
	if len(records) == 0 {
		return table
	}
	hi := findHeader(records)
	table.Headers = normalizeHeaders(records[hi])
	for i := hi + 1; i < len(records); i++ {
		if isBlank(records[i]) {
			continue
		}
		row, warning := toRow(table.Headers, records[i], i+1)
		if warning != "" {
			table.Warnings = append(table.Warnings, warning)
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
