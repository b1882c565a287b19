package market

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Metrics are the microstructure measurements the risk layer thresholds.
// They are derived, not stored; compute them fresh per bar.
type Metrics struct {
	VolatilityPct  float64 `json:"volatility_pct"`
	LiquidityScore float64 `json:"liquidity_score"`
	MovementPct    float64 `json:"market_movement_pct"`
	SpreadPct      float64 `json:"spread_pct"`
}

// ComputeMetrics derives Metrics from the current snapshot and the previous
// bar. prev may be nil (first bar); movement is then 0. All ratios guard
// against zero denominators and short-circuit to 0 instead of dividing.
func ComputeMetrics(cur Snapshot, prev *Bar) Metrics {
	m := Metrics{LiquidityScore: cur.Liquidity}

	// (high-low)/close over the current bar.
	if !cur.Bar.Close.IsZero() {
		r := cur.Bar.High.Sub(cur.Bar.Low).Div(cur.Bar.Close).Mul(hundred)
		m.VolatilityPct = r.InexactFloat64()
	}

	// Absolute % change vs the previous bar's close.
	if prev != nil && !prev.Close.IsZero() {
		r := cur.Bar.Close.Sub(prev.Close).Div(prev.Close).Mul(hundred)
		m.MovementPct = r.Abs().InexactFloat64()
	}

	// (ask-bid)/bid.
	if !cur.Quote.Bid.IsZero() {
		r := cur.Quote.Ask.Sub(cur.Quote.Bid).Div(cur.Quote.Bid).Mul(hundred)
		m.SpreadPct = r.InexactFloat64()
	}

	return m
}
