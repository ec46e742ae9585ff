package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TxType is the direction of money movement. Sign information lives here;
// Transaction.Amount is always a non-negative magnitude.
type TxType string

const (
	Debit  TxType = "debit"
	Credit TxType = "credit"
)

// Confidence is a coarse reliability tag for extraction and categorization results.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
	ConfidenceNone   Confidence = "None"
)

// CategoryMethod records which categorizer tier produced a category.
type CategoryMethod string

const (
	MethodRule    CategoryMethod = "Rule"
	MethodAI      CategoryMethod = "AI"
	MethodDefault CategoryMethod = "Default"
)

// Transaction is one normalized statement entry.
type Transaction struct {
	ID          string          `json:"id"`
	Date        civil.Date      `json:"date"`
	Time        *civil.Time     `json:"time,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TxType          `json:"type"`
	Source      Source          `json:"source"`
	Merchant    string          `json:"merchant"`

	// Reference and UTR are only filled when the statement prints them.
	Reference string `json:"reference,omitempty"`
	UTR       string `json:"utr,omitempty"`

	Category           string         `json:"category"`
	CategoryIcon       string         `json:"categoryIcon,omitempty"`
	CategoryColor      string         `json:"categoryColor,omitempty"`
	CategoryConfidence Confidence     `json:"categoryConfidence"`
	CategoryMethod     CategoryMethod `json:"categoryMethod"`

	// Strategy names the parser that produced the record and Confidence
	// reflects how directly that parser matched a known layout.
	Strategy   string     `json:"strategy"`
	Confidence Confidence `json:"confidence"`

	RawData string `json:"rawData,omitempty"`
}

// Timestamp renders the canonical textual date: an ISO date, or date and
// time when the statement carried a time of day.
func (t *Transaction) Timestamp() string {
	if t.Time == nil {
		return t.Date.String()
	}
	return civil.DateTime{Date: t.Date, Time: *t.Time}.String()
}

// Categorized reports whether a category has been assigned.
func (t *Transaction) Categorized() bool {
	return t.Category != ""
}

// SignedAmount returns the amount with debits negative.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}
