package service

import (
	"context"
	"fmt"
	"time"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// Portfolio carries the position CRUD operations. Every mutation re-bases
// the user's portfolio variation alert at the freshly computed total.
type Portfolio struct {
	store    port.Store
	oracle   port.Oracle
	resolver Resolver
	valuator *Valuator
}

func NewPortfolio(store port.Store, oracle port.Oracle, resolver Resolver, valuator *Valuator) *Portfolio {
	return &Portfolio{store: store, oracle: oracle, resolver: resolver, valuator: valuator}
}

// AddPosition buys quantity of the resolved instrument at the current
// market price and records it as a new independent lot. The purchase price
// seeds a variation alert for the instrument, and the portfolio alert is
// re-based.
func (p *Portfolio) AddPosition(ctx context.Context, userID int64, input string, quantity float64) (*model.Position, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %v", quantity)
	}

	id, err := p.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	currency, err := p.store.Currency(ctx, userID)
	if err != nil {
		return nil, err
	}

	prices, err := p.oracle.SpotPrices(ctx, []string{id}, currency)
	if err != nil {
		return nil, err
	}
	price, ok := prices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrQuoteUnavailable, id, currency)
	}

	pos := &model.Position{
		UserID:        userID,
		InstrumentID:  id,
		Quantity:      quantity,
		PurchasePrice: price,
		PurchasedAt:   time.Now().UTC(),
	}
	if err := p.store.AddPosition(ctx, pos); err != nil {
		return nil, err
	}

	p.rebase(ctx, userID)
	p.armVariationAlert(ctx, userID, id, price)

	log.Info().Int64("user", userID).Str("instrument", id).
		Float64("quantity", quantity).Float64("price", price).
		Msg("position added")
	return pos, nil
}

// RemoveInstrument deletes every lot of the resolved instrument for the
// user and re-bases the portfolio alert.
func (p *Portfolio) RemoveInstrument(ctx context.Context, userID int64, input string) error {
	id, err := p.resolver.Resolve(ctx, input)
	if err != nil {
		return err
	}

	if err := p.store.RemovePositions(ctx, userID, id); err != nil {
		return err
	}

	p.rebase(ctx, userID)

	log.Info().Int64("user", userID).Str("instrument", id).Msg("positions removed")
	return nil
}

// View returns the priced snapshot of the user's portfolio.
func (p *Portfolio) View(ctx context.Context, userID int64) (*PortfolioSnapshot, error) {
	return p.valuator.Snapshot(ctx, userID)
}

// rebase recomputes the portfolio total and upserts the user's portfolio
// variation alert with it, re-arming the alert. A total of zero (empty or
// unquotable portfolio) leaves the alert row untouched.
func (p *Portfolio) rebase(ctx context.Context, userID int64) {
	total, err := p.valuator.TotalValue(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("portfolio re-base valuation failed")
		return
	}
	if total <= 0 {
		return
	}

	err = p.store.UpsertPortfolioAlert(ctx, &model.PortfolioAlert{
		UserID:    userID,
		BaseValue: total,
		Percent:   model.DefaultVariationPercent,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("portfolio re-base upsert failed")
		return
	}
	log.Info().Int64("user", userID).Float64("base", total).Msg("portfolio alert re-based")
}

// armVariationAlert mirrors Alerts.armVariationAlert for position adds.
func (p *Portfolio) armVariationAlert(ctx context.Context, userID int64, instrumentID string, base float64) {
	_, err := p.store.RegisterVariationAlert(ctx, &model.VariationAlert{
		UserID:       userID,
		InstrumentID: instrumentID,
		BasePrice:    base,
		Percent:      model.DefaultVariationPercent,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Str("instrument", instrumentID).
			Msg("variation alert registration failed")
	}
}
