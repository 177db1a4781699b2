package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// ErrQuoteUnavailable means the oracle returned no price for the pair.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// ErrCurrencyRejected means the requested settlement currency is either not
// quotable upstream or is itself a crypto instrument.
var ErrCurrencyRejected = errors.New("currency rejected")

// Resolver is satisfied by catalog.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, input string) (string, error)
}

// Quote is the result of a user price query.
type Quote struct {
	InstrumentID string
	Price        float64
	Currency     string
}

// Alerts carries the user-facing alert and preference operations.
type Alerts struct {
	store    port.Store
	oracle   port.Oracle
	resolver Resolver
}

func NewAlerts(store port.Store, oracle port.Oracle, resolver Resolver) *Alerts {
	return &Alerts{store: store, oracle: oracle, resolver: resolver}
}

// QueryPrice resolves the input and returns its spot price in the user's
// settlement currency. A successful query also arms a variation alert
// based at the quoted price, unless one is already active for the pair.
func (a *Alerts) QueryPrice(ctx context.Context, userID int64, input string) (*Quote, error) {
	id, err := a.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	currency, err := a.store.Currency(ctx, userID)
	if err != nil {
		return nil, err
	}

	prices, err := a.oracle.SpotPrices(ctx, []string{id}, currency)
	if err != nil {
		return nil, err
	}
	price, ok := prices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrQuoteUnavailable, id, currency)
	}

	a.armVariationAlert(ctx, userID, id, price)

	return &Quote{InstrumentID: id, Price: price, Currency: currency}, nil
}

// CreateThreshold registers a one-shot threshold alert. The threshold also
// seeds a variation alert base for the instrument.
func (a *Alerts) CreateThreshold(ctx context.Context, userID int64, input string, dir model.Direction, threshold float64) (*model.ThresholdAlert, error) {
	if dir != model.DirectionAbove && dir != model.DirectionBelow {
		return nil, fmt.Errorf("invalid direction %q", dir)
	}

	id, err := a.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	alert := &model.ThresholdAlert{
		UserID:       userID,
		InstrumentID: id,
		Direction:    dir,
		Threshold:    threshold,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.CreateThresholdAlert(ctx, alert); err != nil {
		return nil, err
	}

	a.armVariationAlert(ctx, userID, id, threshold)

	log.Info().Int64("user", userID).Str("instrument", id).
		Str("direction", string(dir)).Float64("threshold", threshold).
		Msg("threshold alert created")
	return alert, nil
}

// ListThresholds returns the user's active threshold alerts.
func (a *Alerts) ListThresholds(ctx context.Context, userID int64) ([]model.ThresholdAlert, error) {
	return a.store.ListThresholdAlerts(ctx, userID)
}

// DeleteThreshold deactivates one alert by id.
func (a *Alerts) DeleteThreshold(ctx context.Context, id int64) error {
	return a.store.DeactivateThresholdAlert(ctx, id)
}

// SetCurrency stores the user's settlement currency after checking the
// oracle can quote it and that the code is not itself a crypto symbol.
func (a *Alerts) SetCurrency(ctx context.Context, userID int64, code string) error {
	code = strings.ToLower(strings.TrimSpace(code))

	prices, err := a.oracle.SpotPrices(ctx, []string{"bitcoin"}, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCurrencyRejected, err)
	}
	if _, ok := prices["bitcoin"]; !ok {
		return fmt.Errorf("%w: %q not quotable", ErrCurrencyRejected, code)
	}

	if _, err := a.resolver.Resolve(ctx, code); err == nil {
		return fmt.Errorf("%w: %q is a crypto instrument, fiat only", ErrCurrencyRejected, code)
	}

	return a.store.SetCurrency(ctx, userID, code)
}

// Currency returns the user's settlement currency.
func (a *Alerts) Currency(ctx context.Context, userID int64) (string, error) {
	return a.store.Currency(ctx, userID)
}

// armVariationAlert registers a 5% variation alert based at the given
// price. A no-op when one is already active for the pair; failures only
// degrade the implicit re-arm and are not surfaced to the user action.
func (a *Alerts) armVariationAlert(ctx context.Context, userID int64, instrumentID string, base float64) {
	inserted, err := a.store.RegisterVariationAlert(ctx, &model.VariationAlert{
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
		return
	}
	if inserted {
		log.Info().Int64("user", userID).Str("instrument", instrumentID).
			Float64("base", base).Msg("variation alert armed")
	}
}
