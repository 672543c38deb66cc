package storage

import (
	"context"

	"exercises-server/exchange"
)

// RateStore is the persistence the server needs for exchange-rate history.
// Implementations can be swapped for testing or for a different backend.
type RateStore interface {
	exchange.RateHistory
	ListRates(ctx context.Context, from, to string, limit int) ([]RateRecord, error)
	Close()
}

// Ensure *Store implements RateStore at compile time.
var _ RateStore = (*Store)(nil)
