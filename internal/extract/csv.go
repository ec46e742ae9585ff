package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// CSVReader streams rows from a CSV statement. Memory use is bounded by the
// header scan window plus one record.
type CSVReader struct {
	r        *csv.Reader
	headers  []string
	pending  [][]string
	lines    []int
	started  bool
	warnings []string
}

// NewCSVReader wraps r. The header row is located lazily on the first Next.
func NewCSVReader(r io.Reader) *CSVReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false
	return &CSVReader{r: cr}
}

// Headers returns the header row once Next has been called.
func (c *CSVReader) Headers() []string {
	return c.headers
}

// Warnings returns the malformed-row warnings recorded so far.
func (c *CSVReader) Warnings() []string {
	return c.warnings
}

// Next returns the next data row, or io.EOF when the input is exhausted.
// Malformed rows are skipped and recorded as warnings.
func (c *CSVReader) Next() (domain.Row, error) {
	if !c.started {
		if err := c.start(); err != nil {
			return domain.Row{}, err
		}
	}

	for {
		record, line, err := c.nextRecord()
		if err != nil {
			return domain.Row{}, err
		}
		if isBlank(record) {
			continue
		}
		row, warning := toRow(c.headers, record, line)
		if warning != "" {
			c.warnings = append(c.warnings, warning)
			continue
		}
		return row, nil
	}
}

// start buffers up to headerScanLimit records to find the header row, then
// keeps whatever follows it for replay.
func (c *CSVReader) start() error {
	c.started = true
	var buffered [][]string
	var lines []int
	for len(buffered) < headerScanLimit {
		record, line, err := c.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		buffered = append(buffered, record)
		lines = append(lines, line)
		if looksLikeHeader(record) {
			break
		}
	}
	if len(buffered) == 0 {
		return io.EOF
	}

	hi := findHeader(buffered)
	c.headers = normalizeHeaders(buffered[hi])
	c.pending = buffered[hi+1:]
	c.lines = lines[hi+1:]
	return nil
}

func (c *CSVReader) nextRecord() ([]string, int, error) {
	if len(c.pending) > 0 {
		record, line := c.pending[0], c.lines[0]
		c.pending, c.lines = c.pending[1:], c.lines[1:]
		return record, line, nil
	}
	return c.read()
}

// read returns the next well-formed record, recording parse errors as
// warnings instead of failing the whole file.
func (c *CSVReader) read() ([]string, int, error) {
	for {
		record, err := c.r.Read()
		if err == nil {
			line := 0
			if len(record) > 0 {
				line, _ = c.r.FieldPos(0)
			}
			return record, line, nil
		}
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			c.warnings = append(c.warnings, fmt.Sprintf("row %d: %v", perr.Line, perr.Err))
			continue
		}
		return nil, 0, err
	}
}

// ReadCSV reads a whole CSV statement into a table.
func ReadCSV(r io.Reader) (*domain.Table, error) {
	reader := NewCSVReader(r)
	table := &domain.Table{}
	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadCSV: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	table.Headers = reader.Headers()
	table.Warnings = reader.Warnings()
	return table, nil
}
