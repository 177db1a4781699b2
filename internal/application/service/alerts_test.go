package service

import (
	"context"
	"errors"
	"testing"

	"coinsentry/internal/domain/model"
)

func TestQueryPriceArmsVariationAlert(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{"bitcoin": 30000}}
	resolver := &staticResolver{ids: map[string]string{"btc": "bitcoin"}}

	a := NewAlerts(store, oracle, resolver)
	q, err := a.QueryPrice(context.Background(), 7, "btc")
	if err != nil {
		t.Fatalf("QueryPrice failed: %v", err)
	}
	if q.InstrumentID != "bitcoin" || q.Price != 30000 || q.Currency != "usd" {
		t.Errorf("unexpected quote: %+v", q)
	}

	if len(store.variations) != 1 {
		t.Fatalf("expected 1 variation alert, got %d", len(store.variations))
	}
	v := store.variations[0]
	if v.BasePrice != 30000 || v.Percent != model.DefaultVariationPercent || !v.Active {
		t.Errorf("unexpected variation alert: %+v", v)
	}
}

func TestRegisterVariationAlertKeepsExistingBase(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{"bitcoin": 30000}}
	resolver := &staticResolver{ids: map[string]string{"btc": "bitcoin"}}

	a := NewAlerts(store, oracle, resolver)
	if _, err := a.QueryPrice(context.Background(), 7, "btc"); err != nil {
		t.Fatal(err)
	}

	// second query at a different price: existing base must not move
	oracle.prices["bitcoin"] = 35000
	if _, err := a.QueryPrice(context.Background(), 7, "btc"); err != nil {
		t.Fatal(err)
	}

	if len(store.variations) != 1 {
		t.Fatalf("expected 1 variation alert, got %d", len(store.variations))
	}
	if store.variations[0].BasePrice != 30000 {
		t.Errorf("base price changed to %v, want 30000", store.variations[0].BasePrice)
	}
}

func TestQueryPriceQuoteUnavailable(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{}}
	resolver := &staticResolver{ids: map[string]string{"btc": "bitcoin"}}

	a := NewAlerts(store, oracle, resolver)
	_, err := a.QueryPrice(context.Background(), 7, "btc")
	if !errors.Is(err, ErrQuoteUnavailable) {
		t.Fatalf("expected ErrQuoteUnavailable, got %v", err)
	}
	if len(store.variations) != 0 {
		t.Error("no variation alert should be armed without a quote")
	}
}

func TestCreateThresholdSeedsVariationAtThreshold(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{"ethereum": 2500}}
	resolver := &staticResolver{ids: map[string]string{"eth": "ethereum"}}

	a := NewAlerts(store, oracle, resolver)
	alert, err := a.CreateThreshold(context.Background(), 7, "eth", model.DirectionAbove, 3000)
	if err != nil {
		t.Fatalf("CreateThreshold failed: %v", err)
	}
	if alert.ID == 0 || !alert.Active {
		t.Errorf("unexpected alert: %+v", alert)
	}

	if len(store.variations) != 1 || store.variations[0].BasePrice != 3000 {
		t.Fatalf("variation alert should be based at the threshold: %+v", store.variations)
	}
}

func TestCreateThresholdRejectsBadDirection(t *testing.T) {
	a := NewAlerts(newMockStore(), &mockOracle{}, &staticResolver{})
	if _, err := a.CreateThreshold(context.Background(), 7, "btc", "sideways", 1); err == nil {
		t.Fatal("expected error for invalid direction")
	}
}

func TestSetCurrencyRejectsCryptoSymbol(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{"bitcoin": 30000}}
	resolver := &staticResolver{ids: map[string]string{"eth": "ethereum"}}

	a := NewAlerts(store, oracle, resolver)
	err := a.SetCurrency(context.Background(), 7, "eth")
	if !errors.Is(err, ErrCurrencyRejected) {
		t.Fatalf("expected ErrCurrencyRejected, got %v", err)
	}
}

func TestSetCurrencyAcceptsFiat(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{"bitcoin": 28000}}
	resolver := &staticResolver{ids: map[string]string{}}

	a := NewAlerts(store, oracle, resolver)
	if err := a.SetCurrency(context.Background(), 7, "eur"); err != nil {
		t.Fatalf("SetCurrency failed: %v", err)
	}
	if store.currencies[7] != "eur" {
		t.Errorf("currency not stored: %v", store.currencies)
	}
}

func TestSetCurrencyRejectsUnquotable(t *testing.T) {
	store := newMockStore()
	oracle := &mockOracle{prices: map[string]float64{}} // bitcoin unquotable in this currency
	resolver := &staticResolver{ids: map[string]string{}}

	a := NewAlerts(store, oracle, resolver)
	if err := a.SetCurrency(context.Background(), 7, "xyz"); !errors.Is(err, ErrCurrencyRejected) {
		t.Fatalf("expected ErrCurrencyRejected, got %v", err)
	}
}

func TestDeleteThresholdDeactivates(t *testing.T) {
	store := newMockStore()
	store.thresholds = []model.ThresholdAlert{{ID: 3, UserID: 7, Active: true}}

	a := NewAlerts(store, &mockOracle{}, &staticResolver{})
	if err := a.DeleteThreshold(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if store.thresholds[0].Active {
		t.Error("alert still active after delete")
	}
}
