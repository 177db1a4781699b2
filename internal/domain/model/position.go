package model

import "time"

// Position is one purchased lot of an instrument. Multiple lots per
// (user, instrument) pair are kept as independent rows, never merged.
type Position struct {
	ID            int64
	UserID        int64
	InstrumentID  string
	Quantity      float64
	PurchasePrice float64
	PurchasedAt   time.Time
}

// Invested is the cost basis of the lot.
func (p Position) Invested() float64 {
	return p.Quantity * p.PurchasePrice
}
