package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/upi-finance-tracker/internal/categorizer"
	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/extract"
	"github.com/dvloznov/upi-finance-tracker/internal/pipeline"
)

const maxDescriptionWidth = 40

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "\n=== %s ===\n", res.FileName)
	fmt.Fprintf(w, "Source:     %s\n", res.Source)
	strategy := res.Strategy
	if strategy == "" {
		strategy = "-"
	}
	fmt.Fprintf(w, "Strategy:   %s\n", strategy)
	fmt.Fprintf(w, "Confidence: %s\n", res.Confidence)
	if res.Metadata != nil && res.Metadata.AccountNumber != "" {
		fmt.Fprintf(w, "Account:    %s\n", res.Metadata.AccountNumber)
	}

	fmt.Fprintf(w, "\n=== Transactions (%d) ===\n", len(res.Transactions))
	if len(res.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions found; the statement format may be unsupported.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tMERCHANT\tCATEGORY\tDESCRIPTION")
		for _, tx := range res.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.Timestamp(), tx.Type, tx.Amount.StringFixed(2), tx.Merchant, tx.Category, truncate(tx.Description))
		}
		tw.Flush()
	}

	s := res.Summary
	fmt.Fprintln(w, "\n=== Summary ===")
	fmt.Fprintf(w, "Debits:  %s\n", s.TotalDebit.StringFixed(2))
	fmt.Fprintf(w, "Credits: %s\n", s.TotalCredit.StringFixed(2))
	if s.DateRange != nil {
		fmt.Fprintf(w, "Period:  %s to %s\n", s.DateRange.From, s.DateRange.To)
	}
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-20s %s\n", name, s.Categories[name].StringFixed(2))
	}
	if res.Duplicates > 0 {
		fmt.Fprintf(w, "Duplicates dropped: %d\n", res.Duplicates)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

func printDetection(w io.Writer, name string, doc *extract.Document, src domain.Source) {
	fmt.Fprintf(w, "File:     %s\n", name)
	fmt.Fprintf(w, "Format:   %s\n", doc.Format)
	fmt.Fprintf(w, "Source:   %s\n", src)
	if src.Provenance() != src {
		fmt.Fprintf(w, "Recorded: %s\n", src.Provenance())
	}
	switch {
	case doc.Table != nil:
		fmt.Fprintf(w, "Headers:  %s\n", strings.Join(doc.Table.Headers, ", "))
		fmt.Fprintf(w, "Rows:     %d\n", len(doc.Table.Rows))
	case doc.Text != nil:
		fmt.Fprintf(w, "Pages:    %d\n", doc.Text.Pages)
		fmt.Fprintf(w, "Lines:    %d\n", len(doc.Text.Lines))
	}
}

func printInspection(w io.Writer, in extract.Inspection) {
	fmt.Fprintf(w, "Pages:          %d\n", in.Pages)
	fmt.Fprintf(w, "Text length:    %d\n", in.TextLength)
	fmt.Fprintf(w, "Lines:          %d\n", in.LineCount)
	fmt.Fprintf(w, "Rupee symbol:   %t\n", in.HasRupeeSymbol)
	fmt.Fprintf(w, "Date pattern:   %t\n", in.HasDatePattern)
	fmt.Fprintf(w, "Amount pattern: %t\n", in.HasAmountPattern)
	fmt.Fprintln(w, "\n=== First lines ===")
	for i, line := range in.Lines {
		fmt.Fprintf(w, "%3d  %s\n", i+1, line)
	}
}

func printCategories(w io.Writer, tax *categorizer.Taxonomy) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ICON\tNAME\tCOLOR\tMERCHANTS\tKEYWORDS")
	for _, c := range tax.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", c.Icon, c.Name, c.Color, len(c.Merchants), len(c.Keywords))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nDefault: %s (taxonomy v%d)\n", tax.Default().Name, tax.Version)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDescriptionWidth {
		return s
	}
	return string(r[:maxDescriptionWidth-3]) + "..."
}
