package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"coinsentry/internal/application/port"
	"coinsentry/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

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
  user_id BIGINT PRIMARY KEY,
  currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS threshold_alerts (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  instrument_id TEXT NOT NULL,
  direction TEXT NOT NULL,
  threshold DOUBLE PRECISION NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threshold_user ON threshold_alerts(user_id);
CREATE INDEX IF NOT EXISTS idx_threshold_active ON threshold_alerts(active);

CREATE TABLE IF NOT EXISTS variation_alerts (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  instrument_id TEXT NOT NULL,
  base_price DOUBLE PRECISION NOT NULL,
  percent DOUBLE PRECISION NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_variation_pair ON variation_alerts(user_id, instrument_id, active);

CREATE TABLE IF NOT EXISTS positions (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  instrument_id TEXT NOT NULL,
  quantity DOUBLE PRECISION NOT NULL,
  purchase_price DOUBLE PRECISION NOT NULL,
  purchased_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_user ON positions(user_id);

CREATE TABLE IF NOT EXISTS portfolio_alerts (
  user_id BIGINT PRIMARY KEY,
  base_value DOUBLE PRECISION NOT NULL,
  percent DOUBLE PRECISION NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (r *Repo) SetCurrency(ctx context.Context, userID int64, currency string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_prefs(user_id, currency) VALUES($1, $2)
		ON CONFLICT(user_id) DO UPDATE SET currency=excluded.currency
	`, userID, currency)
	return err
}

func (r *Repo) Currency(ctx context.Context, userID int64) (string, error) {
	var currency string
	err := r.db.QueryRowContext(ctx, `SELECT currency FROM user_prefs WHERE user_id=$1`, userID).Scan(&currency)
	if err == sql.ErrNoRows {
		return model.DefaultCurrency, nil
	}
	if err != nil {
		return "", err
	}
	return currency, nil
}

func (r *Repo) CreateThresholdAlert(ctx context.Context, a *model.ThresholdAlert) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO threshold_alerts(user_id, instrument_id, direction, threshold, active, created_at)
		VALUES($1, $2, $3, $4, TRUE, $5)
		RETURNING id
	`, a.UserID, a.InstrumentID, string(a.Direction), a.Threshold, a.CreatedAt).Scan(&a.ID)
}

func (r *Repo) ListThresholdAlerts(ctx context.Context, userID int64) ([]model.ThresholdAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, direction, threshold, active, created_at
		FROM threshold_alerts WHERE user_id=$1 AND active ORDER BY id
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
		FROM threshold_alerts WHERE active ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThresholdAlerts(rows)
}

func (r *Repo) DeactivateThresholdAlert(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE threshold_alerts SET active=FALSE WHERE id=$1`, id)
	return err
}

func (r *Repo) RegisterVariationAlert(ctx context.Context, a *model.VariationAlert) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO variation_alerts(user_id, instrument_id, base_price, percent, active, created_at)
		SELECT $1, $2, $3, $4, TRUE, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM variation_alerts WHERE user_id=$1 AND instrument_id=$2 AND active
		)
		RETURNING id
	`, a.UserID, a.InstrumentID, a.BasePrice, a.Percent, a.CreatedAt).Scan(&a.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repo) ActiveVariationAlerts(ctx context.Context) ([]model.VariationAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, base_price, percent, active, created_at
		FROM variation_alerts WHERE active ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []model.VariationAlert
	for rows.Next() {
		var a model.VariationAlert
		if err := rows.Scan(&a.ID, &a.UserID, &a.InstrumentID, &a.BasePrice, &a.Percent, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *Repo) DeactivateVariationAlert(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE variation_alerts SET active=FALSE WHERE id=$1`, id)
	return err
}

func (r *Repo) AddPosition(ctx context.Context, p *model.Position) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO positions(user_id, instrument_id, quantity, purchase_price, purchased_at)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id
	`, p.UserID, p.InstrumentID, p.Quantity, p.PurchasePrice, p.PurchasedAt).Scan(&p.ID)
}

func (r *Repo) RemovePositions(ctx context.Context, userID int64, instrumentID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE user_id=$1 AND instrument_id=$2`, userID, instrumentID)
	return err
}

func (r *Repo) Positions(ctx context.Context, userID int64) ([]model.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, instrument_id, quantity, purchase_price, purchased_at
		FROM positions WHERE user_id=$1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.InstrumentID, &p.Quantity, &p.PurchasePrice, &p.PurchasedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r *Repo) UpsertPortfolioAlert(ctx context.Context, a *model.PortfolioAlert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio_alerts(user_id, base_value, percent, active, created_at)
		VALUES($1, $2, $3, TRUE, $4)
		ON CONFLICT(user_id) DO UPDATE SET
		base_value=excluded.base_value, percent=excluded.percent,
		active=excluded.active, created_at=excluded.created_at
	`, a.UserID, a.BaseValue, a.Percent, a.CreatedAt)
	return err
}

func (r *Repo) ActivePortfolioAlerts(ctx context.Context) ([]model.PortfolioAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, base_value, percent, active, created_at
		FROM portfolio_alerts WHERE active ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []model.PortfolioAlert
	for rows.Next() {
		var a model.PortfolioAlert
		if err := rows.Scan(&a.UserID, &a.BaseValue, &a.Percent, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *Repo) DeactivatePortfolioAlert(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE portfolio_alerts SET active=FALSE WHERE user_id=$1`, userID)
	return err
}

func scanThresholdAlerts(rows *sql.Rows) ([]model.ThresholdAlert, error) {
	var alerts []model.ThresholdAlert
	for rows.Next() {
		var a model.ThresholdAlert
		var direction string
		if err := rows.Scan(&a.ID, &a.UserID, &a.InstrumentID, &direction, &a.Threshold, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Direction = model.Direction(direction)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

var _ port.Store = (*Repo)(nil)
