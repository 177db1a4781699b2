package service

import (
	"context"
	"errors"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"
)

type mockStore struct {
	currencies map[int64]string
	thresholds []model.ThresholdAlert
	variations []model.VariationAlert
	positions  []model.Position
	portfolio  map[int64]model.PortfolioAlert
	nextID     int64
}

func newMockStore() *mockStore {
	return &mockStore{
		currencies: make(map[int64]string),
		portfolio:  make(map[int64]model.PortfolioAlert),
	}
}

func (m *mockStore) SetCurrency(ctx context.Context, userID int64, currency string) error {
	m.currencies[userID] = currency
	return nil
}

func (m *mockStore) Currency(ctx context.Context, userID int64) (string, error) {
	if c, ok := m.currencies[userID]; ok {
		return c, nil
	}
	return model.DefaultCurrency, nil
}

func (m *mockStore) CreateThresholdAlert(ctx context.Context, a *model.ThresholdAlert) error {
	m.nextID++
	a.ID = m.nextID
	m.thresholds = append(m.thresholds, *a)
	return nil
}

func (m *mockStore) ListThresholdAlerts(ctx context.Context, userID int64) ([]model.ThresholdAlert, error) {
	var out []model.ThresholdAlert
	for _, a := range m.thresholds {
		if a.UserID == userID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) ActiveThresholdAlerts(ctx context.Context) ([]model.ThresholdAlert, error) {
	var out []model.ThresholdAlert
	for _, a := range m.thresholds {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) DeactivateThresholdAlert(ctx context.Context, id int64) error {
	for i := range m.thresholds {
		if m.thresholds[i].ID == id {
			m.thresholds[i].Active = false
			return nil
		}
	}
	return errors.New("no such alert")
}

func (m *mockStore) RegisterVariationAlert(ctx context.Context, a *model.VariationAlert) (bool, error) {
	for _, v := range m.variations {
		if v.UserID == a.UserID && v.InstrumentID == a.InstrumentID && v.Active {
			return false, nil
		}
	}
	m.nextID++
	a.ID = m.nextID
	m.variations = append(m.variations, *a)
	return true, nil
}

func (m *mockStore) ActiveVariationAlerts(ctx context.Context) ([]model.VariationAlert, error) {
	var out []model.VariationAlert
	for _, a := range m.variations {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) DeactivateVariationAlert(ctx context.Context, id int64) error {
	for i := range m.variations {
		if m.variations[i].ID == id {
			m.variations[i].Active = false
			return nil
		}
	}
	return errors.New("no such alert")
}

func (m *mockStore) AddPosition(ctx context.Context, p *model.Position) error {
	m.nextID++
	p.ID = m.nextID
	m.positions = append(m.positions, *p)
	return nil
}

func (m *mockStore) RemovePositions(ctx context.Context, userID int64, instrumentID string) error {
	kept := m.positions[:0]
	for _, p := range m.positions {
		if p.UserID == userID && p.InstrumentID == instrumentID {
			continue
		}
		kept = append(kept, p)
	}
	m.positions = kept
	return nil
}

func (m *mockStore) Positions(ctx context.Context, userID int64) ([]model.Position, error) {
	var out []model.Position
	for _, p := range m.positions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertPortfolioAlert(ctx context.Context, a *model.PortfolioAlert) error {
	m.portfolio[a.UserID] = *a
	return nil
}

func (m *mockStore) ActivePortfolioAlerts(ctx context.Context) ([]model.PortfolioAlert, error) {
	var out []model.PortfolioAlert
	for _, a := range m.portfolio {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) DeactivatePortfolioAlert(ctx context.Context, userID int64) error {
	a, ok := m.portfolio[userID]
	if !ok {
		return errors.New("no such alert")
	}
	a.Active = false
	m.portfolio[userID] = a
	return nil
}

func (m *mockStore) Close() error { return nil }

var _ port.Store = (*mockStore)(nil)

type mockOracle struct {
	prices      map[string]float64
	spotErr     error
	ranked      []string
	rankErr     error
	instruments []model.Instrument
	listErr     error
	spotCalls   int
}

func (m *mockOracle) SpotPrices(ctx context.Context, ids []string, currency string) (map[string]float64, error) {
	m.spotCalls++
	if m.spotErr != nil {
		return nil, m.spotErr
	}
	out := make(map[string]float64)
	for _, id := range ids {
		if p, ok := m.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockOracle) RankByMarketCap(ctx context.Context, ids []string) ([]string, error) {
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	return m.ranked, nil
}

func (m *mockOracle) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	return m.instruments, m.listErr
}

var _ port.Oracle = (*mockOracle)(nil)

type sentMessage struct {
	userID   int64
	text     string
	emphasis port.Emphasis
}

type mockNotifier struct {
	sent    []sentMessage
	sendErr error
}

func (m *mockNotifier) Send(ctx context.Context, userID int64, text string, emphasis port.Emphasis) error {
	m.sent = append(m.sent, sentMessage{userID: userID, text: text, emphasis: emphasis})
	return m.sendErr
}

var _ port.Notifier = (*mockNotifier)(nil)

type staticResolver struct {
	ids map[string]string
}

func (r *staticResolver) Resolve(ctx context.Context, input string) (string, error) {
	if id, ok := r.ids[input]; ok {
		return id, nil
	}
	return "", errors.New("instrument not found")
}
