// Package dedupe collapses candidate transactions rediscovered by
// overlapping parser strategies.
package dedupe

import (
	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// Key identifies a transaction for duplicate detection: the exact amount and
// the calendar day. Time of day is ignored because the same entry read from
// two text windows often differs only in the captured clock.
func Key(tx *domain.Transaction) string {
	return tx.Date.String() + "|" + tx.Amount.String()
}

// Transactions keeps the first occurrence of each key and preserves order.
// The input slice is not modified.
func Transactions(txs []*domain.Transaction) []*domain.Transaction {
	seen := make(map[string]bool, len(txs))
	out := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		k := Key(tx)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, tx)
	}
	return out
}

// Dropped returns how many entries Transactions would remove.
func Dropped(before, after []*domain.Transaction) int {
	return len(before) - len(after)
}
