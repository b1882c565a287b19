package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

func testConfig() Config {
	return Config{
		MaxVolatilityPct:  5.0,
		MinLiquidityScore: 0.3,
		MaxMovementPct:    10.0,
		MaxSpreadPct:      1.0,
		MinConfidence:     50.0,
	}
}

func calmMetrics() market.Metrics {
	return market.Metrics{
		VolatilityPct:  2.0,
		LiquidityScore: 0.9,
		MovementPct:    1.0,
		SpreadPct:      0.1,
	}
}

func buyDecision(conf float64) decision.TradeDecision {
	return decision.TradeDecision{Symbol: "BTC_USD", Action: signal.Buy, Confidence: conf}
}

func TestEvaluate_ApprovesCalmMarket(t *testing.T) {
	t.Parallel()

	v := Evaluate(testConfig(), buyDecision(80), calmMetrics())
	assert.True(t, v.Approved)
	assert.Empty(t, v.RejectionReason)
	assert.Equal(t, calmMetrics(), v.Metrics)
}

func TestEvaluate_HoldAlwaysPasses(t *testing.T) {
	t.Parallel()

	// Metrics violate every threshold, but HOLD is not a trade.
	bad := market.Metrics{VolatilityPct: 99, LiquidityScore: 0, MovementPct: 99, SpreadPct: 99}
	v := Evaluate(testConfig(), decision.TradeDecision{Action: signal.Hold}, bad)
	assert.True(t, v.Approved)
}

func TestEvaluate_RejectionReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*market.Metrics)
		conf    float64
		wantMsg string
	}{
		{
			name:    "volatility",
			mutate:  func(m *market.Metrics) { m.VolatilityPct = 6.5 },
			conf:    80,
			wantMsg: "volatility 6.50% exceeds max 5.00%",
		},
		{
			name:    "liquidity",
			mutate:  func(m *market.Metrics) { m.LiquidityScore = 0.1 },
			conf:    80,
			wantMsg: "liquidity score 0.10 below min 0.30",
		},
		{
			name:    "movement",
			mutate:  func(m *market.Metrics) { m.MovementPct = 12.0 },
			conf:    80,
			wantMsg: "market movement 12.00% exceeds max 10.00%",
		},
		{
			name:    "spread",
			mutate:  func(m *market.Metrics) { m.SpreadPct = 2.5 },
			conf:    80,
			wantMsg: "spread 2.50% exceeds max 1.00%",
		},
		{
			name:    "confidence",
			mutate:  func(m *market.Metrics) {},
			conf:    40,
			wantMsg: "decision confidence 40.00 below min 50.00",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := calmMetrics()
			tt.mutate(&m)
			v := Evaluate(testConfig(), buyDecision(tt.conf), m)
			assert.False(t, v.Approved)
			assert.Equal(t, tt.wantMsg, v.RejectionReason)
		})
	}
}

func TestEvaluate_FirstFailingCheckNamed(t *testing.T) {
	t.Parallel()

	// Volatility and spread both fail; volatility is checked first.
	m := calmMetrics()
	m.VolatilityPct = 9.0
	m.SpreadPct = 5.0

	v := Evaluate(testConfig(), buyDecision(80), m)
	assert.False(t, v.Approved)
	assert.Contains(t, v.RejectionReason, "volatility")
}

func TestEvaluate_NeverApprovesLowConfidence(t *testing.T) {
	t.Parallel()

	// Sweep a few metric combinations; confidence below the floor always
	// rejects a directional decision.
	for _, m := range []market.Metrics{
		calmMetrics(),
		{VolatilityPct: 0, LiquidityScore: 1, MovementPct: 0, SpreadPct: 0},
	} {
		v := Evaluate(testConfig(), buyDecision(49.99), m)
		assert.False(t, v.Approved)
	}
}
