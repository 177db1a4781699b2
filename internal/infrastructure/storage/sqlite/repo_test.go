package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"coinsentry/internal/domain/model"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCurrencyDefaultsToUSD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	currency, err := repo.Currency(ctx, 42)
	if err != nil {
		t.Fatalf("Currency failed: %v", err)
	}
	if currency != model.DefaultCurrency {
		t.Errorf("expected default %q, got %q", model.DefaultCurrency, currency)
	}
}

func TestSetCurrencyUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetCurrency(ctx, 42, "eur"); err != nil {
		t.Fatalf("SetCurrency failed: %v", err)
	}
	if err := repo.SetCurrency(ctx, 42, "ars"); err != nil {
		t.Fatalf("SetCurrency upsert failed: %v", err)
	}

	currency, err := repo.Currency(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if currency != "ars" {
		t.Errorf("expected last write ars, got %q", currency)
	}
}

func TestThresholdAlertLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &model.ThresholdAlert{
		UserID:       7,
		InstrumentID: "bitcoin",
		Direction:    model.DirectionAbove,
		Threshold:    30000,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateThresholdAlert(ctx, a); err != nil {
		t.Fatalf("CreateThresholdAlert failed: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("alert id not assigned")
	}

	active, err := repo.ActiveThresholdAlerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Direction != model.DirectionAbove || active[0].Threshold != 30000 {
		t.Fatalf("unexpected active alerts: %+v", active)
	}

	if err := repo.DeactivateThresholdAlert(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	active, err = repo.ActiveThresholdAlerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active alerts after deactivation, got %d", len(active))
	}
}

func TestMultipleThresholdAlertsPerPair(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, threshold := range []float64{30000, 35000, 40000} {
		a := &model.ThresholdAlert{
			UserID: 7, InstrumentID: "bitcoin",
			Direction: model.DirectionAbove, Threshold: threshold,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.CreateThresholdAlert(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	alerts, err := repo.ListThresholdAlerts(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 3 {
		t.Errorf("threshold alerts must coexist per pair, got %d", len(alerts))
	}
}

func TestRegisterVariationAlertSingleActivePerPair(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &model.VariationAlert{
		UserID: 7, InstrumentID: "bitcoin",
		BasePrice: 30000, Percent: 5, CreatedAt: time.Now().UTC(),
	}
	inserted, err := repo.RegisterVariationAlert(ctx, first)
	if err != nil || !inserted {
		t.Fatalf("first register: inserted=%v err=%v", inserted, err)
	}

	second := &model.VariationAlert{
		UserID: 7, InstrumentID: "bitcoin",
		BasePrice: 99999, Percent: 5, CreatedAt: time.Now().UTC(),
	}
	inserted, err = repo.RegisterVariationAlert(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Fatal("second register must be a no-op while one is active")
	}

	active, err := repo.ActiveVariationAlerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].BasePrice != 30000 {
		t.Fatalf("existing base price must not move: %+v", active)
	}

	// deactivating frees the pair for a new registration
	if err := repo.DeactivateVariationAlert(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	inserted, err = repo.RegisterVariationAlert(ctx, second)
	if err != nil || !inserted {
		t.Fatalf("register after deactivation: inserted=%v err=%v", inserted, err)
	}
}

func TestPositionsAreIndependentLots(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, price := range []float64{40000, 42000} {
		p := &model.Position{
			UserID: 7, InstrumentID: "bitcoin",
			Quantity: 0.5, PurchasePrice: price,
			PurchasedAt: time.Now().UTC(),
		}
		if err := repo.AddPosition(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	positions, err := repo.Positions(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 lots, got %d", len(positions))
	}

	if err := repo.RemovePositions(ctx, 7, "bitcoin"); err != nil {
		t.Fatal(err)
	}
	positions, err = repo.Positions(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 0 {
		t.Errorf("expected all lots removed, got %d", len(positions))
	}
}

func TestPortfolioAlertUpsertsSingleRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &model.PortfolioAlert{
		UserID: 7, BaseValue: 1000, Percent: 5, CreatedAt: time.Now().UTC(),
	}
	if err := repo.UpsertPortfolioAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeactivatePortfolioAlert(ctx, 7); err != nil {
		t.Fatal(err)
	}

	// re-base replaces the row and re-arms it
	a.BaseValue = 2000
	if err := repo.UpsertPortfolioAlert(ctx, a); err != nil {
		t.Fatal(err)
	}

	active, err := repo.ActivePortfolioAlerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].BaseValue != 2000 {
		t.Fatalf("expected one re-armed row with base 2000, got %+v", active)
	}
}
