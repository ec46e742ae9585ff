// Package extract reads raw statement files into tabular rows or text lines.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

var (
	// ErrUnsupportedFileType is returned for extensions other than csv, xls, xlsx and pdf.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyFile is returned when the file has no bytes.
	ErrEmptyFile = errors.New("empty file")
)

// Format identifies the container format of a statement file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatPDF  Format = "pdf"
)

// Tabular reports whether the format yields rows rather than text.
func (f Format) Tabular() bool {
	return f == FormatCSV || f == FormatXLSX || f == FormatXLS
}

// Document is the extractor output for one file. Exactly one of Table and
// Text is set.
type Document struct {
	FileName string
	Format   Format
	Table    *domain.Table
	Text     *domain.TextDocument
}

// Warnings returns the per-row warnings collected while reading.
func (d *Document) Warnings() []string {
	if d.Table == nil {
		return nil
	}
	return d.Table.Warnings
}

// Content returns text suitable for source detection.
func (d *Document) Content() string {
	if d.Text != nil {
		return d.Text.FullText
	}
	if d.Table == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(d.Table.Headers, " "))
	for i, row := range d.Table.Rows {
		if i == 5 {
			break
		}
		b.WriteString("\n")
		for _, h := range row.Headers {
			b.WriteString(row.Values[h])
			b.WriteString(" ")
		}
	}
	return b.String()
}

// FormatOf maps a file name to its format by extension.
func FormatOf(fileName string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch Format(ext) {
	case FormatCSV, FormatXLSX, FormatXLS, FormatPDF:
		return Format(ext), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(fileName))
}

// Extract reads a statement held in memory. The extension decides the
// reader; unknown extensions fail before any bytes are inspected.
func Extract(ctx context.Context, fileName string, data []byte) (*Document, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("extract: %s: %w", fileName, ErrEmptyFile)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &Document{FileName: fileName, Format: format}
	switch format {
	case FormatCSV:
		doc.Table, err = ReadCSV(bytes.NewReader(data))
	case FormatXLSX:
		doc.Table, err = ReadXLSX(bytes.NewReader(data))
	case FormatXLS:
		doc.Table, err = ReadXLS(bytes.NewReader(data))
	case FormatPDF:
		doc.Text, err = ReadPDF(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract: reading %s as %s: %w", fileName, format, err)
	}
	return doc, nil
}
