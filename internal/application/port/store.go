package port

import (
	"context"

	"coinsentry/internal/domain/model"
)

// Store is the durable record of alerts, positions and preferences.
// Deactivations are single-row transactional updates so that user actions
// and reconciliation passes can touch the same rows concurrently.
type Store interface {
	// Preference operations. Currency returns model.DefaultCurrency when
	// the user never configured one.
	SetCurrency(ctx context.Context, userID int64, currency string) error
	Currency(ctx context.Context, userID int64) (string, error)

	// Threshold alert operations.
	CreateThresholdAlert(ctx context.Context, a *model.ThresholdAlert) error
	ListThresholdAlerts(ctx context.Context, userID int64) ([]model.ThresholdAlert, error)
	ActiveThresholdAlerts(ctx context.Context) ([]model.ThresholdAlert, error)
	DeactivateThresholdAlert(ctx context.Context, id int64) error

	// Variation alert operations. RegisterVariationAlert inserts the alert
	// only when no active one exists for the (user, instrument) pair and
	// reports whether an insert happened; the existing alert's base price
	// is never updated.
	RegisterVariationAlert(ctx context.Context, a *model.VariationAlert) (bool, error)
	ActiveVariationAlerts(ctx context.Context) ([]model.VariationAlert, error)
	DeactivateVariationAlert(ctx context.Context, id int64) error

	// Position operations. Lots are independent rows; RemovePositions
	// deletes every lot of the instrument for that user.
	AddPosition(ctx context.Context, p *model.Position) error
	RemovePositions(ctx context.Context, userID int64, instrumentID string) error
	Positions(ctx context.Context, userID int64) ([]model.Position, error)

	// Portfolio alert operations. UpsertPortfolioAlert replaces the user's
	// single row, re-arming it.
	UpsertPortfolioAlert(ctx context.Context, a *model.PortfolioAlert) error
	ActivePortfolioAlerts(ctx context.Context) ([]model.PortfolioAlert, error)
	DeactivatePortfolioAlert(ctx context.Context, userID int64) error

	Close() error
}
