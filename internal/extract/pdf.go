package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// ReadPDF extracts the text of every page. Text is grouped into visual rows
// by vertical position; pages whose rows cannot be read fall back to the
// plain text stream.
func ReadPDF(data []byte) (doc *domain.TextDocument, err error) {
	// The PDF reader panics on some corrupt cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("ReadPDF: corrupt document: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("ReadPDF: open document: %w", err)
	}

	pages := r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p)
		if err != nil {
			return nil, fmt.Errorf("ReadPDF: page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	doc = FromText(b.String())
	doc.Pages = pages
	return doc, nil
}

func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return p.GetPlainText(nil)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	var b strings.Builder
	for _, row := range rows {
		texts := row.Content
		sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

		var line strings.Builder
		prevEnd := math.Inf(-1)
		for _, t := range texts {
			// A horizontal gap wider than a point means a word break.
			if line.Len() > 0 && t.X-prevEnd > 1 && !strings.HasSuffix(line.String(), " ") {
				line.WriteString(" ")
			}
			line.WriteString(t.S)
			prevEnd = t.X + t.W
		}
		b.WriteString(line.String())
		b.WriteString("\n")
	}
	return b.String(), nil
}

// FromText splits extracted text into trimmed, non-empty lines and keeps
// the full text.
func FromText(text string) *domain.TextDocument {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return &domain.TextDocument{Lines: lines, FullText: text, Pages: 1}
}
