package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		fileName string
		want     Format
		wantErr  bool
	}{
		{fileName: "gpay.csv", want: FormatCSV},
		{fileName: "Statement.XLSX", want: FormatXLSX},
		{fileName: "old.xls", want: FormatXLS},
		{fileName: "phonepe.pdf", want: FormatPDF},
		{fileName: "notes.txt", wantErr: true},
		{fileName: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			got, err := FormatOf(tt.fileName)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_UnsupportedFailsFast(t *testing.T) {
	_, err := Extract(context.Background(), "statement.docx", []byte("irrelevant"))
	assert.True(t, errors.Is(err, ErrUnsupportedFileType))
}

func TestExtract_EmptyFile(t *testing.T) {
	_, err := Extract(context.Background(), "statement.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestExtract_CorruptPDF(t *testing.T) {
	_, err := Extract(context.Background(), "statement.pdf", []byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestExtract_CSV(t *testing.T) {
	data := "Date,Description,Amount\n15/01/2024,Zomato Order,-450\n16/01/2024,Salary,50000\n"
	doc, err := Extract(context.Background(), "gpay.csv", []byte(data))
	require.NoError(t, err)
	require.NotNil(t, doc.Table)
	assert.Nil(t, doc.Text)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, doc.Table.Headers)
	require.Len(t, doc.Table.Rows, 2)
	assert.Equal(t, "Zomato Order", doc.Table.Rows[0].Get("Description"))
	assert.Contains(t, doc.Content(), "Description")
}

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	data := strings.Join([]string{
		"Date,Description,Amount",
		"15/01/2024,Coffee,120",
		"16/01/2024,Broken,10,unexpected,extra",
		"",
		"17/01/2024,Tea",
		"18/01/2024,Lunch,300,",
	}, "\n")

	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Coffee", table.Rows[0].Get("Description"))
	assert.Equal(t, "", table.Rows[1].Get("Amount"))
	assert.Equal(t, "300", table.Rows[2].Get("Amount"))
	require.Len(t, table.Warnings, 1)
	assert.Contains(t, table.Warnings[0], "expected 3")
}

func TestReadCSV_StripsByteOrderMark(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\uFEFFDate,Description,Amount\n15/01/2024,Zomato,-450\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "15/01/2024", table.Rows[0].Get("Date"))
}

func TestReadCSV_FindsHeaderAfterPreamble(t *testing.T) {
	data := strings.Join([]string{
		"HDFC BANK LTD",
		"Account Statement for 01/01/2024 - 31/01/2024",
		"Date,Narration,Withdrawal Amt,Deposit Amt",
		"02/01/2024,ATM WDL,2000.00,",
	}, "\n")

	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Narration", "Withdrawal Amt", "Deposit Amt"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "ATM WDL", table.Rows[0].Get("Narration"))
}

func TestCSVReader_Streams(t *testing.T) {
	r := NewCSVReader(strings.NewReader("Date,Amount\n01/02/2024,10\n02/02/2024,20\n"))
	var amounts []string
	for {
		row, err := r.Next()
		if err != nil {
			break
		}
		amounts = append(amounts, row.Get("Amount"))
	}
	assert.Equal(t, []string{"10", "20"}, amounts)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Particulars", "Debit", "Credit"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{45306, "Swiggy", 250.5, ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"16/01/2024", "Refund", "", 99}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := Extract(context.Background(), "bank.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, doc.Table.Rows, 2)
	assert.Equal(t, "45306", doc.Table.Rows[0].Get("Date"))
	assert.Equal(t, "250.5", doc.Table.Rows[0].Get("Debit"))
	assert.Equal(t, "Refund", doc.Table.Rows[1].Get("Particulars"))
}

func TestFromText(t *testing.T) {
	doc := FromText("  Jun 24, 2025 \r\n\r\n03:13 pm\n   \nPaid to X DEBIT ₹20")
	assert.Equal(t, []string{"Jun 24, 2025", "03:13 pm", "Paid to X DEBIT ₹20"}, doc.Lines)
	assert.Contains(t, doc.FullText, "03:13 pm")
}

func TestInspect(t *testing.T) {
	doc := FromText("Transaction Statement\nJun 24, 2025\nPaid to X DEBIT ₹20,000")
	got := Inspect(doc)
	assert.Equal(t, 3, got.LineCount)
	assert.True(t, got.HasRupeeSymbol)
	assert.True(t, got.HasDatePattern)
	assert.True(t, got.HasAmountPattern)

	plain := Inspect(FromText("hello world"))
	assert.False(t, plain.HasDatePattern)
	assert.False(t, plain.HasAmountPattern)
}
