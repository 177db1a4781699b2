package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS user_prefs (
  user_id INTEGER PRIMARY KEY,
  currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS threshold_alerts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  instrument_id TEXT NOT NULL,
  direction TEXT NOT NULL,
  threshold REAL NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threshold_user ON threshold_alerts(user_id);
CREATE INDEX IF NOT EXISTS idx_threshold_active ON threshold_alerts(active);

CREATE TABLE IF NOT EXISTS variation_alerts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  instrument_id TEXT NOT NULL,
  base_price REAL NOT NULL,
  percent REAL NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_variation_pair ON variation_alerts(user_id, instrument_id, active);

CREATE TABLE IF NOT EXISTS positions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  instrument_id TEXT NOT NULL,
  quantity REAL NOT NULL,
  purchase_price REAL NOT NULL,
  purchased_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_user ON positions(user_id);

CREATE TABLE IF NOT EXISTS portfolio_alerts (
  user_id INTEGER PRIMARY KEY,
  base_value REAL NOT NULL,
  percent REAL NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);
`)
	return err
}

func (r *Repo) SetCurrency(ctx context.Context, userID int64, currency string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_prefs(user_id, currency) VALUES(?, ?)
		ON CONFLICT(user_id) DO UPDATE SET currency=excluded.currency
	`, userID, currency)
	return err
}

func (r *Repo) Currency(ctx context.Context, userID int64) (string, error) {
	var currency string
	err := r.db.QueryRowContext(ctx, `SELECT currency FROM user_prefs WHERE user_id=?`, userID).Scan(&currency)
	if err == sql.ErrNoRows {
		return model.DefaultCurrency, nil
	}
	if err != nil {
		return "", err
	}
	return currency, nil
}

func (r *Repo) CreateThresholdAlert(ctx context.Context, a *model.ThresholdAlert) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO threshold_alerts(user_id, instrument_id, direction, threshold, active, created_at)
		VALUES(?, ?, ?, ?, 1, ?)
	`, a.UserID, a.InstrumentID, string(a.Direction), a.Threshold, a.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (r *Repo) ListThresholdAlerts(ctx context.Context, userID int64) ([]model.ThresholdAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, direction, threshold, active, created_at
		FROM threshold_alerts WHERE user_id=? AND active=1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThresholdAlerts(rows)
}

func (r *Repo) ActiveThresholdAlerts(ctx context.Context) ([]model.ThresholdAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, direction, threshold, active, created_at
		FROM threshold_alerts WHERE active=1 ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThresholdAlerts(rows)
}

func (r *Repo) DeactivateThresholdAlert(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE threshold_alerts SET active=0 WHERE id=?`, id)
	return err
}

func (r *Repo) RegisterVariationAlert(ctx context.Context, a *model.VariationAlert) (bool, error) {
	// single statement keeps the one-active-per-pair check atomic
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO variation_alerts(user_id, instrument_id, base_price, percent, active, created_at)
		SELECT ?, ?, ?, ?, 1, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM variation_alerts WHERE user_id=? AND instrument_id=? AND active=1
		)
	`, a.UserID, a.InstrumentID, a.BasePrice, a.Percent, a.CreatedAt.UnixMilli(), a.UserID, a.InstrumentID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	a.ID, err = res.LastInsertId()
	return true, err
}

func (r *Repo) ActiveVariationAlerts(ctx context.Context) ([]model.VariationAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, base_price, percent, active, created_at
		FROM variation_alerts WHERE active=1 ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []model.VariationAlert
	for rows.Next() {
		var a model.VariationAlert
		var active int
		var createdMs int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.InstrumentID, &a.BasePrice, &a.Percent, &active, &createdMs); err != nil {
			return nil, err
		}
		a.Active = active != 0
		a.CreatedAt = time.UnixMilli(createdMs).UTC()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *Repo) DeactivateVariationAlert(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE variation_alerts SET active=0 WHERE id=?`, id)
	return err
}

func (r *Repo) AddPosition(ctx context.Context, p *model.Position) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO positions(user_id, instrument_id, quantity, purchase_price, purchased_at)
		VALUES(?, ?, ?, ?, ?)
	`, p.UserID, p.InstrumentID, p.Quantity, p.PurchasePrice, p.PurchasedAt.UnixMilli())
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *Repo) RemovePositions(ctx context.Context, userID int64, instrumentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE user_id=? AND instrument_id=?`, userID, instrumentID)
	return err
}

func (r *Repo) Positions(ctx context.Context, userID int64) ([]model.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, quantity, purchase_price, purchased_at
		FROM positions WHERE user_id=? ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		var purchasedMs int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.InstrumentID, &p.Quantity, &p.PurchasePrice, &purchasedMs); err != nil {
			return nil, err
		}
		p.PurchasedAt = time.UnixMilli(purchasedMs).UTC()
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r *Repo) UpsertPortfolioAlert(ctx context.Context, a *model.PortfolioAlert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio_alerts(user_id, base_value, percent, active, created_at)
		VALUES(?, ?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
		base_value=excluded.base_value, percent=excluded.percent,
		active=excluded.active, created_at=excluded.created_at
	`, a.UserID, a.BaseValue, a.Percent, a.CreatedAt.UnixMilli())
	return err
}

func (r *Repo) ActivePortfolioAlerts(ctx context.Context) ([]model.PortfolioAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, base_value, percent, active, created_at
		FROM portfolio_alerts WHERE active=1 ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []model.PortfolioAlert
	for rows.Next() {
		var a model.PortfolioAlert
		var active int
		var createdMs int64
		if err := rows.Scan(&a.UserID, &a.BaseValue, &a.Percent, &active, &createdMs); err != nil {
			return nil, err
		}
		a.Active = active != 0
		a.CreatedAt = time.UnixMilli(createdMs).UTC()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *Repo) DeactivatePortfolioAlert(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE portfolio_alerts SET active=0 WHERE user_id=?`, userID)
	return err
}

func scanThresholdAlerts(rows *sql.Rows) ([]model.ThresholdAlert, error) {
	var alerts []model.ThresholdAlert
	for rows.Next() {
		var a model.ThresholdAlert
		var direction string
		var active int
		var createdMs int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.InstrumentID, &direction, &a.Threshold, &active, &createdMs); err != nil {
			return nil, err
		}
		a.Direction = model.Direction(direction)
		a.Active = active != 0
		a.CreatedAt = time.UnixMilli(createdMs).UTC()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

var _ port.Store = (*Repo)(nil)
