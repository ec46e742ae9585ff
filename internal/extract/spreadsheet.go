package extract

import (
	"fmt"
	"io"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first non-empty worksheet of an xlsx workbook. Cells
// are read raw so date cells arrive as spreadsheet serials.
func ReadXLSX(r io.Reader) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ReadXLSX: open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("ReadXLSX: read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		return buildTable(rows), nil
	}
	return &domain.Table{}, nil
}

// ReadXLS reads the first non-empty worksheet of a legacy xls workbook.
func ReadXLS(r io.ReadSeeker) (*domain.Table, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("ReadXLS: open workbook: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		var records [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				records = append(records, nil)
				continue
			}
			record := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				record = append(record, row.Col(c))
			}
			records = append(records, record)
		}
		if len(records) == 0 || allBlank(records) {
			continue
		}
		return buildTable(records), nil
	}
	return &domain.Table{}, nil
}

func allBlank(records [][]string) bool {
	for _, rec := range records {
		if !isBlank(rec) {
			return false
		}
	}
	return true
}
