package domain

// Source is the payment provider that produced a statement.
type Source string

const (
	SourceGPay    Source = "GPay"
	SourcePhonePe Source = "PhonePe"
	SourcePaytm   Source = "Paytm"
	SourceBank    Source = "Bank"
	// SourceUPI is a detector-only bucket for UPI exports from an unidentified app.
	SourceUPI     Source = "UPI"
	SourceUnknown Source = "Unknown"
)

// Provenance maps a detected source onto the set stamped on transactions.
func (s Source) Provenance() Source {
	switch s {
	case SourceGPay, SourcePhonePe, SourcePaytm, SourceBank:
		return s
	default:
		return SourceUnknown
	}
}

// IsUPIApp reports whether the source is one of the UPI wallet apps.
func (s Source) IsUPIApp() bool {
	return s == SourceGPay || s == SourcePhonePe || s == SourcePaytm || s == SourceUPI
}
