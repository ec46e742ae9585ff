package parsers

import (
	"context"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
)

func table(headers []string, records ...[]string) *domain.Table {
	t := &domain.Table{Headers: headers}
	for i, rec := range records {
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			values[h] = rec[j]
		}
		t.Rows = append(t.Rows, domain.Row{Headers: headers, Values: values, Line: i + 2})
	}
	return t
}

func text(lines ...string) *domain.TextDocument {
	doc := &domain.TextDocument{Lines: lines, Pages: 1}
	for i, l := range lines {
		if i > 0 {
			doc.FullText += "\n"
		}
		doc.FullText += l
	}
	return doc
}

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProviderTableStrategy(t *testing.T) {
	tests := []struct {
		name    string
		source  domain.Source
		table   *domain.Table
		want    []decimal.Decimal
		types   []domain.TxType
		skipped []SkipReason
	}{
		{
			name:   "gpay export",
			source: domain.SourceGPay,
			table: table([]string{"Date", "Description", "Amount", "Type"},
				[]string{"2024-01-15", "Zomato order", "450", "Debit"}),
			want:  []decimal.Decimal{dec("450")},
			types: []domain.TxType{domain.Debit},
		},
		{
			name:   "phonepe drops failed status",
			source: domain.SourcePhonePe,
			table: table([]string{"Date", "Transaction Details", "Amount", "Type", "Status"},
				[]string{"15/01/2024", "Paid to Ravi Kumar", "200", "Debit", "Success"},
				[]string{"16/01/2024", "Paid to Big Bazaar", "999", "Debit", "FAILED"}),
			want:    []decimal.Decimal{dec("200")},
			types:   []domain.TxType{domain.Debit},
			skipped: []SkipReason{SkipStatus},
		},
		{
			name:   "bank withdrawal and deposit columns",
			source: domain.SourceBank,
			table: table([]string{"Txn Date", "Narration", "Withdrawal Amt", "Deposit Amt"},
				[]string{"15/01/2024", "ATM WDL MG ROAD", "5,000.00", ""},
				[]string{"16/01/2024", "SALARY ACME CORP", "", "50,000.00"}),
			want:  []decimal.Decimal{dec("5000"), dec("50000")},
			types: []domain.TxType{domain.Debit, domain.Credit},
		},
		{
			name:   "rows without date or amount are skipped",
			source: domain.SourceGPay,
			table: table([]string{"Date", "Description", "Amount"},
				[]string{"", "Zomato order", "450"},
				[]string{"2024-01-15", "Zomato order", "0"}),
			skipped: []SkipReason{SkipMissingDate, SkipZeroAmount},
		},
		{
			name:   "unknown source has no column map",
			source: domain.SourceUnknown,
			table: table([]string{"Date", "Description", "Amount"},
				[]string{"2024-01-15", "Zomato order", "450"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ProviderTableStrategy{}.Parse(Input{Source: tt.source, Table: tt.table})

			require.Len(t, res.Transactions, len(tt.want))
			for i, tx := range res.Transactions {
				assert.True(t, tt.want[i].Equal(tx.Amount), "amount %s", tx.Amount)
				assert.Equal(t, tt.types[i], tx.Type)
				assert.Equal(t, tt.source, tx.Source)
				assert.Equal(t, StrategyTabularProvider, tx.Strategy)
				assert.Equal(t, domain.ConfidenceHigh, tx.Confidence)
				assert.NotEmpty(t, tx.ID)
			}
			var reasons []SkipReason
			for _, s := range res.Skipped {
				reasons = append(reasons, s.Reason)
			}
			assert.Equal(t, tt.skipped, reasons)
		})
	}
}

func TestProviderTableStrategy_GPayFields(t *testing.T) {
	in := Input{
		Source: domain.SourceGPay,
		Table: table([]string{"Date", "Description", "Amount", "Type"},
			[]string{"2024-01-15", "Zomato order", "450", "Debit"}),
	}

	res := ProviderTableStrategy{}.Parse(in)

	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 15}, tx.Date)
	assert.Equal(t, "Zomato order", tx.Description)
	assert.Equal(t, "Zomato", tx.Merchant)
	assert.Equal(t, domain.Debit, tx.Type)
	assert.Contains(t, tx.RawData, "Zomato order")
}

func TestGenericTableStrategy_DiscoversColumns(t *testing.T) {
	in := Input{
		Source: domain.SourceUnknown,
		Table: table([]string{"Posting Date", "Particulars", "Amount (Rs)", "Balance"},
			[]string{"15/01/2024", "Card payment Croma", "-1,200.50", "10,000.00"},
			[]string{"16/01/2024", "Refund Croma", "300", "10,300.00"}),
	}

	res := GenericTableStrategy{}.Parse(in)

	require.Len(t, res.Transactions, 2)
	assert.True(t, dec("1200.50").Equal(res.Transactions[0].Amount))
	assert.Equal(t, domain.Debit, res.Transactions[0].Type)
	assert.True(t, dec("300").Equal(res.Transactions[1].Amount))
	assert.Equal(t, domain.Credit, res.Transactions[1].Type)
	assert.Equal(t, domain.SourceUnknown, res.Transactions[0].Source)
	assert.Equal(t, domain.ConfidenceMedium, res.Transactions[0].Confidence)
}

func TestGenericTableStrategy_UnusableHeaders(t *testing.T) {
	in := Input{Table: table([]string{"foo", "bar"}, []string{"1", "2"})}

	res := GenericTableStrategy{}.Parse(in)

	assert.Empty(t, res.Transactions)
}

func TestStatementGroupStrategy(t *testing.T) {
	doc := text(
		"Transaction Statement for 9876543210",
		"Date Transaction Details Type Amount",
		"Jun 24, 2025",
		"10:42 am",
		"Paid to RAHIM KUTUBUDDIN PINJARI DEBIT ₹20,000",
		"Transaction ID T2506241042123456789",
		"UTR No. 123456789012",
		"Paid by",
		"XXXXXX1234",
		"Jun 25, 2025",
		"09:15 pm",
		"Received from ASHA DEVI CREDIT ₹1,500.50",
		"Transaction ID T2506252115000000001",
		"Page 1 of 1",
	)

	res := StatementGroupStrategy{}.Parse(Input{Source: domain.SourcePhonePe, Text: doc})

	require.Len(t, res.Transactions, 2)

	first := res.Transactions[0]
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 24}, first.Date)
	require.NotNil(t, first.Time)
	assert.Equal(t, civil.Time{Hour: 10, Minute: 42}, *first.Time)
	assert.True(t, dec("20000").Equal(first.Amount))
	assert.Equal(t, domain.Debit, first.Type)
	assert.Equal(t, "RAHIM KUTUBUDDIN PINJARI", first.Merchant)
	assert.Equal(t, "Paid to RAHIM KUTUBUDDIN PINJARI", first.Description)
	assert.Equal(t, "T2506241042123456789", first.Reference)
	assert.Equal(t, "123456789012", first.UTR)
	assert.Equal(t, domain.SourcePhonePe, first.Source)
	assert.Equal(t, domain.ConfidenceHigh, first.Confidence)

	second := res.Transactions[1]
	assert.Equal(t, domain.Credit, second.Type)
	assert.Equal(t, "ASHA DEVI", second.Merchant)
	assert.True(t, dec("1500.50").Equal(second.Amount))
	assert.Equal(t, "T2506252115000000001", second.Reference)
	assert.Empty(t, second.UTR)
}

func TestStatementGroupStrategy_MergedLayout(t *testing.T) {
	doc := text(
		"Jun 25, 2025 Received from ASHA DEVI CREDIT ₹1,500.50",
		"09:15 pm Transaction ID T99887766",
		"UTR No. 5556667778",
		"Jun 26, 2025 Electricity bill payment DEBIT ₹1,250",
		"08:00 am Transaction ID T11223344",
	)

	res := StatementGroupStrategy{}.Parse(Input{Source: domain.SourcePhonePe, Text: doc})

	require.Len(t, res.Transactions, 2)
	first := res.Transactions[0]
	require.NotNil(t, first.Time)
	assert.Equal(t, civil.Time{Hour: 21, Minute: 15}, *first.Time)
	assert.Equal(t, "T99887766", first.Reference)
	assert.Equal(t, "5556667778", first.UTR)
	assert.Equal(t, domain.Credit, first.Type)

	second := res.Transactions[1]
	assert.Equal(t, "Electricity Board", second.Merchant)
	assert.Equal(t, domain.Debit, second.Type)
	assert.Equal(t, "T11223344", second.Reference)
	assert.Empty(t, second.UTR)
}

func TestStatementGroupStrategy_UnparsedDetail(t *testing.T) {
	doc := text("Jun 24, 2025", "10:42 am", "something unexpected")

	res := StatementGroupStrategy{}.Parse(Input{Source: domain.SourcePhonePe, Text: doc})

	assert.Empty(t, res.Transactions)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipUnparsedDetail, res.Skipped[0].Reason)
}

func TestExtractStatementInfo(t *testing.T) {
	info := ExtractStatementInfo("Transaction Statement for 9876543210\n01 Jun, 2025 - 30 Jun, 2025\nPage 1 of 2\nPage 2 of 2")

	require.NotNil(t, info)
	assert.Equal(t, "9876543210", info.AccountNumber)
	assert.Equal(t, "01 Jun, 2025", info.PeriodFrom)
	assert.Equal(t, "30 Jun, 2025", info.PeriodTo)
	assert.Equal(t, 2, info.Pages)

	assert.Nil(t, ExtractStatementInfo("just a bank statement"))
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("Page 3 of 10"))
	assert.True(t, IsBoilerplate("XXXXXX4321"))
	assert.False(t, IsBoilerplate("Paid to Zomato DEBIT ₹450"))
}

func TestLinePatternStrategy_SingleLines(t *testing.T) {
	doc := text(
		"GPay transaction history",
		"15/01/2024 Swiggy order ₹450.00",
		"16/01/2024 Salary credited ₹50,000.00",
	)

	res := NewLinePatternStrategy(DefaultOptions()).Parse(Input{Source: domain.SourceGPay, Text: doc})

	require.Len(t, res.Transactions, 2)
	first := res.Transactions[0]
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 15}, first.Date)
	assert.True(t, dec("450").Equal(first.Amount))
	assert.Equal(t, domain.Debit, first.Type)
	assert.Contains(t, first.Description, "Swiggy")
	assert.Equal(t, domain.ConfidenceMedium, first.Confidence)

	second := res.Transactions[1]
	assert.True(t, dec("50000").Equal(second.Amount))
	assert.Equal(t, domain.Credit, second.Type)
}

func TestLinePatternStrategy_PairsDateWithNextLine(t *testing.T) {
	doc := text(
		"15/01/2024 Payment to Amazon",
		"Rs. 1,299.00 debited",
	)

	res := NewLinePatternStrategy(DefaultOptions()).Parse(Input{Source: domain.SourcePaytm, Text: doc})

	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 15}, tx.Date)
	assert.True(t, dec("1299").Equal(tx.Amount))
	assert.Contains(t, tx.Merchant, "Amazon")
	assert.Equal(t, domain.SourcePaytm, tx.Source)
}

func TestLinePatternStrategy_BankWindows(t *testing.T) {
	doc := text(
		"01/02/2024 NEFT-ACME CORP SALARY",
		"Ref 12345",
		"50,000.00 CR",
		"02/02/2024 ATM WDL",
		"5,000.00",
		"03/02/2024 ATM",
		"100.00",
	)

	res := NewLinePatternStrategy(DefaultOptions()).Parse(Input{Source: domain.SourceBank, Text: doc})

	require.Len(t, res.Transactions, 2)
	assert.True(t, dec("50000").Equal(res.Transactions[0].Amount))
	assert.Equal(t, domain.Credit, res.Transactions[0].Type)
	assert.True(t, dec("5000").Equal(res.Transactions[1].Amount))
	assert.Equal(t, domain.Debit, res.Transactions[1].Type)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 2}, res.Transactions[1].Date)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipShortDescription, res.Skipped[0].Reason)
}

func TestAmountContextStrategy(t *testing.T) {
	doc := text(
		"Statement 10/03/2024",
		"Paid Big Bazaar store ₹2,345.50 groceries",
		"Total ₹2,345.00",
		"Fee ₹20",
	)

	res := NewAmountContextStrategy(DefaultOptions()).Parse(Input{Source: domain.SourceUnknown, Text: doc})

	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	assert.True(t, dec("2345.50").Equal(tx.Amount))
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 10}, tx.Date)
	assert.Equal(t, domain.ConfidenceLow, tx.Confidence)
	assert.Equal(t, StrategyAmountContext, tx.Strategy)
	assert.NotEmpty(t, tx.Description)
}

func TestAmountContextStrategy_MaxResults(t *testing.T) {
	opts := DefaultOptions()
	opts.ContextMaxResults = 2
	doc := text("01/01/2024 ₹100.00 ₹200.00 ₹300.00 ₹400.00")

	res := NewAmountContextStrategy(opts).Parse(Input{Text: doc})

	assert.Len(t, res.Transactions, 2)
}

func TestEmergencyStrategy(t *testing.T) {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC) }
	doc := text("ref 4500 and 12 and 250000 and 700")

	res := NewEmergencyStrategy(opts).Parse(Input{Source: domain.SourceUPI, Text: doc})

	require.Len(t, res.Transactions, 2)
	first, second := res.Transactions[0], res.Transactions[1]
	assert.True(t, dec("4500").Equal(first.Amount))
	assert.Equal(t, civil.Date{Year: 2025, Month: time.July, Day: 1}, first.Date)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 30}, second.Date)
	assert.Equal(t, "Unknown Transaction 2 (from number pattern)", second.Description)
	assert.Equal(t, domain.SourceUnknown, second.Source)
	assert.Equal(t, domain.Debit, second.Type)
	assert.Equal(t, "Unknown", second.Merchant)
	assert.Equal(t, domain.ConfidenceNone, second.Confidence)
}

func TestChain_Run(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		strategy string
		conf     domain.Confidence
		count    int
	}{
		{
			name: "provider table wins",
			in: Input{
				Source: domain.SourceGPay,
				Table: table([]string{"Date", "Description", "Amount", "Type"},
					[]string{"2024-01-15", "Zomato order", "450", "Debit"}),
			},
			strategy: StrategyTabularProvider,
			conf:     domain.ConfidenceHigh,
			count:    1,
		},
		{
			name: "generic table for unknown source",
			in: Input{
				Source: domain.SourceUnknown,
				Table: table([]string{"date", "details", "amount"},
					[]string{"2024-01-15", "Coffee", "-120"}),
			},
			strategy: StrategyTabularGeneric,
			conf:     domain.ConfidenceMedium,
			count:    1,
		},
		{
			name:     "line pattern on text",
			in:       Input{Source: domain.SourceGPay, Text: text("15/01/2024 Swiggy order ₹450.00")},
			strategy: StrategyLinePattern,
			conf:     domain.ConfidenceMedium,
			count:    1,
		},
		{
			name:  "nothing matches",
			in:    Input{Source: domain.SourceUnknown, Text: text("hello world", "no numbers here")},
			conf:  domain.ConfidenceNone,
			count: 0,
		},
	}

	chain := DefaultChain(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := chain.Run(quietCtx(), tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.strategy, out.Strategy)
			assert.Equal(t, tt.conf, out.Confidence)
			assert.Len(t, out.Transactions, tt.count)
			assert.NotEmpty(t, out.Attempts)
		})
	}
}

func TestChain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(quietCtx())
	cancel()

	_, err := DefaultChain(DefaultOptions()).Run(ctx, Input{Text: text("15/01/2024 ₹450.00")})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestChain_Names(t *testing.T) {
	assert.Equal(t, []string{
		StrategyTabularProvider,
		StrategyTabularGeneric,
		StrategyStatementGroups,
		StrategyLinePattern,
		StrategyAmountContext,
		StrategyEmergency,
	}, DefaultChain(DefaultOptions()).Names())
}

func TestRenderTable(t *testing.T) {
	doc := RenderTable(table([]string{"When", "What", "How much"},
		[]string{"15/01/2024", "Tea", "₹40.00"}))

	assert.Equal(t, []string{"When What How much", "15/01/2024 Tea ₹40.00"}, doc.Lines)
	assert.Equal(t, "When What How much\n15/01/2024 Tea ₹40.00", doc.FullText)
}

func TestMapsColumns(t *testing.T) {
	tests := []struct {
		name   string
		source domain.Source
		table  *domain.Table
		want   bool
	}{
		{name: "provider map", source: domain.SourcePhonePe, table: table([]string{"Date", "Transaction Details", "Amount", "Status"}), want: true},
		{name: "generic map", source: domain.SourceUnknown, table: table([]string{"Txn Date", "Narration", "Withdrawal", "Deposit"}), want: true},
		{name: "unrecognized headers", source: domain.SourceUnknown, table: table([]string{"When", "What", "How much"}), want: false},
		{name: "no description column", source: domain.SourceGPay, table: table([]string{"Date", "Amount"}), want: false},
		{name: "nil table", source: domain.SourcePhonePe, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapsColumns(tt.source, tt.table))
		})
	}
}
