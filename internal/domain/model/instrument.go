package model

// Instrument is a priced asset as listed by the upstream directory.
// ID is the canonical identifier (e.g. "bitcoin"); Symbol is the trading
// ticker (e.g. "btc") and is not unique across instruments.
type Instrument struct {
	ID     string
	Symbol string
	Name   string
}
