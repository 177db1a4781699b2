package model

import "time"

// Direction is the side of a threshold condition.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// DefaultVariationPercent is the drift a variation alert fires at.
const DefaultVariationPercent = 5.0

// CriticalVariationPercent is the tier at which a portfolio move is
// escalated from a standard to a critical notification.
const CriticalVariationPercent = 10.0

// ThresholdAlert fires once when the instrument's price crosses Threshold
// in the given direction, then goes inactive.
type ThresholdAlert struct {
	ID           int64
	UserID       int64
	InstrumentID string
	Direction    Direction
	Threshold    float64
	Active       bool
	CreatedAt    time.Time
}

// Triggered reports whether the given current price crosses the threshold.
func (a ThresholdAlert) Triggered(price float64) bool {
	switch a.Direction {
	case DirectionAbove:
		return price > a.Threshold
	case DirectionBelow:
		return price < a.Threshold
	}
	return false
}

// VariationAlert fires once when the instrument's price drifts at least
// Percent away from BasePrice in either direction. At most one active
// alert per (user, instrument) pair exists at any time.
type VariationAlert struct {
	ID           int64
	UserID       int64
	InstrumentID string
	BasePrice    float64
	Percent      float64
	Active       bool
	CreatedAt    time.Time
}

// PortfolioAlert tracks the aggregate value of a user's positions against
// BaseValue. There is at most one row per user; re-basing overwrites it.
type PortfolioAlert struct {
	UserID    int64
	BaseValue float64
	Percent   float64
	Active    bool
	CreatedAt time.Time
}

// Preference is a user's settlement currency choice.
type Preference struct {
	UserID   int64
	Currency string
}

// DefaultCurrency is used when a user never configured one.
const DefaultCurrency = "usd"
