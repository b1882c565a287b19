// Package risk gates actionable trade decisions on market microstructure
// thresholds. A veto is final for that timestamp; the guard never retries and
// never mutates the decision.
package risk

import (
	"fmt"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

// Config holds the guard thresholds. All percentages are in percent units
// (5.0 means 5%); liquidity is a composite score in [0, 1] supplied by an
// external collaborator — the guard only thresholds it.
type Config struct {
	MaxVolatilityPct  float64 `json:"max_volatility_pct" yaml:"max_volatility_pct"`
	MinLiquidityScore float64 `json:"min_liquidity_score" yaml:"min_liquidity_score"`
	MaxMovementPct    float64 `json:"max_market_movement_pct" yaml:"max_market_movement_pct"`
	MaxSpreadPct      float64 `json:"max_spread_pct" yaml:"max_spread_pct"`
	MinConfidence     float64 `json:"min_confidence_threshold" yaml:"min_confidence_threshold"`
}

// Verdict is created fresh per decision and never mutated afterwards.
// RejectionReason names the first failing check with its measured vs
// threshold values.
type Verdict struct {
	Approved        bool
	Metrics         market.Metrics
	RejectionReason string
}

// Evaluate runs each check independently and rejects the decision if any
// fails. HOLD decisions pass unconditionally: risk checks apply only to
// directional trades.
func Evaluate(cfg Config, d decision.TradeDecision, m market.Metrics) Verdict {
	v := Verdict{Approved: true, Metrics: m}

	if d.Action == signal.Hold {
		return v
	}

	switch {
	case m.VolatilityPct > cfg.MaxVolatilityPct:
		v.reject(fmt.Sprintf("volatility %.2f%% exceeds max %.2f%%",
			m.VolatilityPct, cfg.MaxVolatilityPct))

	case m.LiquidityScore < cfg.MinLiquidityScore:
		v.reject(fmt.Sprintf("liquidity score %.2f below min %.2f",
			m.LiquidityScore, cfg.MinLiquidityScore))

	case m.MovementPct > cfg.MaxMovementPct:
		v.reject(fmt.Sprintf("market movement %.2f%% exceeds max %.2f%%",
			m.MovementPct, cfg.MaxMovementPct))

	case m.SpreadPct > cfg.MaxSpreadPct:
		v.reject(fmt.Sprintf("spread %.2f%% exceeds max %.2f%%",
			m.SpreadPct, cfg.MaxSpreadPct))

	case d.Confidence < cfg.MinConfidence:
		v.reject(fmt.Sprintf("decision confidence %.2f below min %.2f",
			d.Confidence, cfg.MinConfidence))
	}

	return v
}

func (v *Verdict) reject(reason string) {
	v.Approved = false
	v.RejectionReason = reason
}
