package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// Reconciler sweeps the active alerts against live prices on a fixed
// cadence. Each of the three passes runs on its own ticker: a pass always
// finishes its batch before its next tick fires, while different passes may
// overlap each other and user CRUD freely. A failure on one alert never
// aborts the rest of the batch.
type Reconciler struct {
	store    port.Store
	oracle   port.Oracle
	notifier port.Notifier
	valuator *Valuator
	interval time.Duration
}

func NewReconciler(store port.Store, oracle port.Oracle, notifier port.Notifier, valuator *Valuator, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		store:    store,
		oracle:   oracle,
		notifier: notifier,
		valuator: valuator,
		interval: interval,
	}
}

// Run drives the three passes until the context is done.
func (r *Reconciler) Run(ctx context.Context) error {
	passes := []struct {
		name string
		fn   func(context.Context)
	}{
		{"threshold", r.ThresholdPass},
		{"variation", r.VariationPass},
		{"portfolio", r.PortfolioPass},
	}

	var wg sync.WaitGroup
	for _, p := range passes {
		wg.Add(1)
		go func(name string, fn func(context.Context)) {
			defer wg.Done()
			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()
			log.Info().Str("pass", name).Dur("interval", r.interval).Msg("reconciliation pass scheduled")
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					fn(ctx)
				}
			}
		}(p.name, p.fn)
	}

	wg.Wait()
	return ctx.Err()
}

// ThresholdPass fires every active threshold alert whose instrument price
// has crossed its threshold. Alerts without a quote this cycle stay active
// and are retried next cycle.
func (r *Reconciler) ThresholdPass(ctx context.Context) {
	alerts, err := r.store.ActiveThresholdAlerts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("threshold pass: load alerts failed")
		return
	}

	for _, a := range alerts {
		price, currency, ok := r.spotPrice(ctx, a.UserID, a.InstrumentID)
		if !ok {
			continue
		}
		if !a.Triggered(price) {
			continue
		}

		side := "above"
		if a.Direction == model.DirectionBelow {
			side = "below"
		}
		text := fmt.Sprintf("%s is %s %s %s. Current price: %s %s.",
			a.InstrumentID, side, formatPrice(a.Threshold), currency,
			formatPrice(price), currency)

		r.notify(ctx, a.UserID, text, port.EmphasisNormal)

		if err := r.store.DeactivateThresholdAlert(ctx, a.ID); err != nil {
			log.Error().Err(err).Int64("alert", a.ID).Msg("threshold deactivate failed")
			continue
		}
		log.Info().Int64("alert", a.ID).Int64("user", a.UserID).
			Str("instrument", a.InstrumentID).Str("direction", string(a.Direction)).
			Float64("threshold", a.Threshold).Float64("price", price).
			Msg("threshold alert fired")
	}
}

// VariationPass fires every active variation alert whose instrument has
// drifted at least its percentage from the base price. A zero base is
// skipped outright.
func (r *Reconciler) VariationPass(ctx context.Context) {
	alerts, err := r.store.ActiveVariationAlerts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("variation pass: load alerts failed")
		return
	}

	for _, a := range alerts {
		if a.BasePrice == 0 {
			continue
		}

		price, currency, ok := r.spotPrice(ctx, a.UserID, a.InstrumentID)
		if !ok {
			continue
		}

		pct := math.Abs(price-a.BasePrice) / a.BasePrice * 100
		if pct < a.Percent {
			continue
		}

		dir := "up"
		if price < a.BasePrice {
			dir = "down"
		}
		text := fmt.Sprintf("%s moved %s %.2f%% from its base of %s %s. Current price: %s %s.",
			a.InstrumentID, dir, pct, formatPrice(a.BasePrice), currency,
			formatPrice(price), currency)

		r.notify(ctx, a.UserID, text, port.EmphasisNormal)

		if err := r.store.DeactivateVariationAlert(ctx, a.ID); err != nil {
			log.Error().Err(err).Int64("alert", a.ID).Msg("variation deactivate failed")
			continue
		}
		log.Info().Int64("alert", a.ID).Int64("user", a.UserID).
			Str("instrument", a.InstrumentID).Str("direction", dir).
			Float64("base", a.BasePrice).Float64("price", price).Float64("pct", pct).
			Msg("variation alert fired")
	}
}

// PortfolioPass re-values each user's portfolio against the alert's base
// value, notifying at a standard tier from the alert's percentage and at a
// critical tier from 10%. Fired alerts deactivate even when delivery fails;
// re-arming happens on the next position change.
func (r *Reconciler) PortfolioPass(ctx context.Context) {
	alerts, err := r.store.ActivePortfolioAlerts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("portfolio pass: load alerts failed")
		return
	}

	for _, a := range alerts {
		total, err := r.valuator.TotalValue(ctx, a.UserID)
		if err != nil {
			log.Warn().Err(err).Int64("user", a.UserID).Msg("portfolio pass: valuation failed")
			continue
		}
		if total <= 0 || a.BaseValue == 0 {
			continue
		}

		pct := (total - a.BaseValue) / a.BaseValue * 100
		absPct := math.Abs(pct)

		currency, err := r.store.Currency(ctx, a.UserID)
		if err != nil {
			currency = model.DefaultCurrency
		}

		dir := "up"
		if pct < 0 {
			dir = "down"
		}

		var text string
		var emphasis port.Emphasis
		switch {
		case absPct >= model.CriticalVariationPercent:
			emphasis = port.EmphasisCritical
			text = fmt.Sprintf("CRITICAL: your portfolio is %s %.2f%% from its base value. Base: %s %s, current: %s %s. Review your strategy.",
				dir, absPct, formatPrice(a.BaseValue), currency, formatPrice(total), currency)
		case absPct >= a.Percent:
			emphasis = port.EmphasisNormal
			text = fmt.Sprintf("Your portfolio is %s %.2f%% from its base value. Base: %s %s, current: %s %s.",
				dir, absPct, formatPrice(a.BaseValue), currency, formatPrice(total), currency)
		default:
			continue
		}

		r.notify(ctx, a.UserID, text, emphasis)

		if err := r.store.DeactivatePortfolioAlert(ctx, a.UserID); err != nil {
			log.Error().Err(err).Int64("user", a.UserID).Msg("portfolio deactivate failed")
			continue
		}
		log.Info().Int64("user", a.UserID).Float64("base", a.BaseValue).
			Float64("total", total).Float64("pct", pct).
			Bool("critical", emphasis == port.EmphasisCritical).
			Msg("portfolio alert fired")
	}
}

// spotPrice fetches one instrument's price in the user's settlement
// currency. A missing quote or any transport failure reads as "no data".
func (r *Reconciler) spotPrice(ctx context.Context, userID int64, instrumentID string) (float64, string, bool) {
	currency, err := r.store.Currency(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("preference lookup failed")
		return 0, "", false
	}

	prices, err := r.oracle.SpotPrices(ctx, []string{instrumentID}, currency)
	if err != nil {
		log.Warn().Err(err).Str("instrument", instrumentID).Str("currency", currency).
			Msg("spot price query failed")
		return 0, "", false
	}
	price, ok := prices[instrumentID]
	if !ok {
		return 0, "", false
	}
	return price, currency, true
}

// notify delivers best-effort. The fired alert deactivates regardless; an
// unreachable user loses this single shot.
func (r *Reconciler) notify(ctx context.Context, userID int64, text string, emphasis port.Emphasis) {
	if err := r.notifier.Send(ctx, userID, text, emphasis); err != nil {
		log.Warn().Err(err).Int64("user", userID).Msg("notification delivery failed")
	}
}
