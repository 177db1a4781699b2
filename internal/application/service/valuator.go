package service

import (
	"context"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// PositionValue is one lot priced at the current market.
type PositionValue struct {
	Position model.Position
	Invested float64
	Current  float64
	Pct      float64
	Quoted   bool
}

// PortfolioSnapshot aggregates a user's lots for display.
type PortfolioSnapshot struct {
	Currency  string
	Positions []PositionValue
	Invested  float64
	Current   float64
	Pct       float64
}

// Valuator prices a user's positions with one batched quote query in the
// user's settlement currency.
type Valuator struct {
	store  port.Store
	oracle port.Oracle
}

func NewValuator(store port.Store, oracle port.Oracle) *Valuator {
	return &Valuator{store: store, oracle: oracle}
}

// TotalValue sums quantity * current price over the user's quotable
// positions. Positions without a quote are excluded, not zeroed. Returns 0
// when the user has no positions or the batched query fails entirely; a
// store failure is the caller's problem.
func (v *Valuator) TotalValue(ctx context.Context, userID int64) (float64, error) {
	positions, err := v.store.Positions(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(positions) == 0 {
		return 0, nil
	}

	currency, err := v.store.Currency(ctx, userID)
	if err != nil {
		return 0, err
	}

	prices, err := v.oracle.SpotPrices(ctx, instrumentIDs(positions), currency)
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("portfolio quote query failed")
		return 0, nil
	}

	var total float64
	for _, p := range positions {
		price, ok := prices[p.InstrumentID]
		if !ok {
			continue
		}
		total += p.Quantity * price
	}
	return total, nil
}

// Snapshot prices every lot individually and aggregates invested/current
// across the quotable ones.
func (v *Valuator) Snapshot(ctx context.Context, userID int64) (*PortfolioSnapshot, error) {
	positions, err := v.store.Positions(ctx, userID)
	if err != nil {
		return nil, err
	}

	currency, err := v.store.Currency(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := &PortfolioSnapshot{Currency: currency}
	if len(positions) == 0 {
		return snap, nil
	}

	prices, err := v.oracle.SpotPrices(ctx, instrumentIDs(positions), currency)
	if err != nil {
		return nil, err
	}

	for _, p := range positions {
		pv := PositionValue{Position: p, Invested: p.Invested()}
		if price, ok := prices[p.InstrumentID]; ok {
			pv.Quoted = true
			pv.Current = p.Quantity * price
			pv.Pct = pctChange(pv.Invested, pv.Current)
			snap.Invested += pv.Invested
			snap.Current += pv.Current
		}
		snap.Positions = append(snap.Positions, pv)
	}
	snap.Pct = pctChange(snap.Invested, snap.Current)
	return snap, nil
}

func pctChange(invested, current float64) float64 {
	if invested == 0 {
		return 0
	}
	return (current - invested) / invested * 100
}

func instrumentIDs(positions []model.Position) []string {
	ids := make([]string, 0, len(positions))
	seen := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.InstrumentID]; ok {
			continue
		}
		seen[p.InstrumentID] = struct{}{}
		ids = append(ids, p.InstrumentID)
	}
	return ids
}
