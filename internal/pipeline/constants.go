package pipeline

// Thresholds for the overall extraction confidence: the share of
// transactions that carry a valid date, a positive amount and a description
// longer than MinDescriptionLength.
const (
	HighShare            = 0.8
	MediumShare          = 0.5
	MinDescriptionLength = 3
)

// Warning texts attached to results from degraded strategies.
const (
	WarningAmountContext  = "statement layout not recognized; transactions were mined from amounts in the text and should be reviewed"
	WarningEmergency      = "statement layout not supported; transactions were guessed from bare numbers and dates are synthetic"
	WarningNoTransactions = "no transactions found in file"
)
