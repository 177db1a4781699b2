package port

import (
	"context"

	"coinsentry/internal/domain/model"
)

// Oracle is the external quote API. Implementations must bound every call
// with a timeout; callers treat a missing map entry as "pair not quotable"
// and skip it rather than alerting on it.
type Oracle interface {
	// SpotPrices returns the current price of each instrument in the given
	// currency. Instruments the upstream cannot quote are absent from the
	// result.
	SpotPrices(ctx context.Context, ids []string, currency string) (map[string]float64, error)

	// RankByMarketCap returns the given instrument ids ordered by market
	// capitalization, highest first. Used only for symbol disambiguation.
	RankByMarketCap(ctx context.Context, ids []string) ([]string, error)

	// ListInstruments returns the full upstream directory.
	ListInstruments(ctx context.Context) ([]model.Instrument, error)
}
