package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-finance-tracker/internal/categorizer"
	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/extract"
	"github.com/dvloznov/upi-finance-tracker/internal/pipeline"
)

func TestPrintResult(t *testing.T) {
	txs := []*domain.Transaction{
		{
			Date:        civil.Date{Year: 2024, Month: time.January, Day: 15},
			Description: "UPI/Zomato Order/zomato@paytm",
			Amount:      decimal.NewFromInt(450),
			Type:        domain.Debit,
			Merchant:    "Zomato",
			Category:    "Food & Dining",
		},
	}
	res := &pipeline.Result{
		FileName:     "gpay.csv",
		Transactions: txs,
		Source:       domain.SourceGPay,
		Strategy:     "tabular-provider",
		Confidence:   domain.ConfidenceHigh,
		Summary:      pipeline.Summarize(txs),
		Duplicates:   1,
		Warnings:     []string{"row 4: wrong number of fields"},
	}
	var buf bytes.Buffer

	printResult(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "=== gpay.csv ===")
	assert.Contains(t, out, "Strategy:   tabular-provider")
	assert.Contains(t, out, "=== Transactions (1) ===")
	assert.Contains(t, out, "450.00")
	assert.Contains(t, out, "Zomato")
	assert.Contains(t, out, "Period:  2024-01-15 to 2024-01-15")
	assert.Contains(t, out, "Duplicates dropped: 1")
	assert.Contains(t, out, "Warning: row 4: wrong number of fields")
}

func TestPrintResult_Empty(t *testing.T) {
	var buf bytes.Buffer

	printResult(&buf, &pipeline.Result{FileName: "odd.pdf", Confidence: domain.ConfidenceNone, Summary: pipeline.Summarize(nil)})

	assert.Contains(t, buf.String(), "Strategy:   -")
	assert.Contains(t, buf.String(), "No transactions found")
}

func TestPrintDetection(t *testing.T) {
	doc := &extract.Document{
		Format: extract.FormatCSV,
		Table:  &domain.Table{Headers: []string{"Date", "Amount"}},
	}
	var buf bytes.Buffer

	printDetection(&buf, "upi_export.csv", doc, domain.SourceUPI)

	out := buf.String()
	assert.Contains(t, out, "Source:   UPI")
	assert.Contains(t, out, "Recorded: Unknown")
	assert.Contains(t, out, "Headers:  Date, Amount")
}

func TestPrintCategories(t *testing.T) {
	tax, err := categorizer.DefaultTaxonomy()
	require.NoError(t, err)
	var buf bytes.Buffer

	printCategories(&buf, tax)

	out := buf.String()
	assert.Contains(t, out, "Food & Dining")
	assert.Contains(t, out, "Default: Others")
	assert.Equal(t, len(tax.Categories)+3, strings.Count(out, "\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	long := strings.Repeat("a", 50)
	got := truncate(long)
	assert.Len(t, []rune(got), maxDescriptionWidth)
	assert.True(t, strings.HasSuffix(got, "..."))
}
