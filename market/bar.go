// Package market holds the bar and quote types fed into the engine.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one OHLCV candlestick for a symbol/interval.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Quote is the best bid/ask at the bar's close.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// Mid returns the quote midpoint, or zero if both sides are empty.
func (q Quote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// Snapshot bundles everything the engine observes for one bar: the candle,
// the closing quote, and an externally supplied liquidity score in [0, 1].
type Snapshot struct {
	Symbol    string
	Bar       Bar
	Quote     Quote
	Liquidity float64
}
