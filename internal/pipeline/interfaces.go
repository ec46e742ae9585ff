package pipeline

import (
	"context"

	"github.com/dvloznov/upi-finance-tracker/internal/domain"
)

// Fetcher loads statement bytes from a location such as a local path or a
// gs:// URI.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Categorizer attaches categories to transactions in place. It only fails
// when ctx is done.
type Categorizer interface {
	CategorizeAll(ctx context.Context, txs []*domain.Transaction) error
}
