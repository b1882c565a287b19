package sim

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/journal"
	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c string) market.Bar {
	return market.Bar{
		Time:  t0.Add(time.Duration(i) * time.Hour),
		Open:  d(o),
		High:  d(h),
		Low:   d(l),
		Close: d(c),
	}
}

func buy(conf, hint float64) decision.TradeDecision {
	return decision.TradeDecision{
		Symbol:     "BTC_USD",
		Action:     signal.Buy,
		Confidence: conf,
		SizeHint:   hint,
		Contributions: []decision.Contribution{
			{Source: "tech", Direction: signal.Buy, Confidence: conf, Weight: 1, Weighted: conf},
		},
	}
}

func sell(conf, hint float64) decision.TradeDecision {
	dec := buy(conf, hint)
	dec.Action = signal.Sell
	dec.Contributions[0].Direction = signal.Sell
	return dec
}

func hold() decision.TradeDecision {
	return decision.TradeDecision{Symbol: "BTC_USD", Action: signal.Hold}
}

func newSim(t *testing.T, balance string) (*Simulator, *journal.Memory) {
	t.Helper()
	jrn := journal.NewMemory()
	s := New("BTC_USD", Config{
		InitialBalance: d(balance),
		StopLossPct:    d("2"),
		TakeProfitPct:  d("4"),
	}, jrn, zerolog.Nop())
	return s, jrn
}

func TestStep_OpensLongWithHintSizing(t *testing.T) {
	t.Parallel()

	s, _ := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))

	pos := s.Position()
	require.NotNil(t, pos)
	assert.Equal(t, Long, pos.Side)
	// (10000 * 0.5) / 100 = 50 units.
	assert.True(t, pos.Size.Equal(d("50")), "size=%s", pos.Size)
	// stop_loss_pct=2% -> stop at 98; take_profit_pct=4% -> target 104.
	assert.True(t, pos.Stop.Equal(d("98")), "stop=%s", pos.Stop)
	assert.True(t, pos.Take.Equal(d("104")), "take=%s", pos.Take)
	assert.True(t, s.Cash().Equal(d("5000")))
}

func TestStep_StopFillsAtStopPrice(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))

	// Price falls to 97: the stop triggers and fills at 98, not 97.
	require.NoError(t, s.Step(bar(1, "100", "100", "97", "97"), hold(), true))

	require.True(t, s.Flat())
	trades := jrn.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ReasonStopLoss, trades[0].Reason)
	assert.True(t, trades[0].ExitPrice.Equal(d("98")))
	assert.True(t, trades[0].ProfitLoss.Equal(d("-100")), "pl=%s", trades[0].ProfitLoss)
	assert.InDelta(t, -2.0, trades[0].ProfitLossPct, 1e-9)
	assert.True(t, s.Cash().Equal(d("9900")))
}

func TestStep_TakeProfitFillsAtTarget(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.NoError(t, s.Step(bar(1, "100", "105", "100", "105"), hold(), true))

	trades := jrn.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ReasonTakeProfit, trades[0].Reason)
	assert.True(t, trades[0].ExitPrice.Equal(d("104")))
	assert.True(t, trades[0].ProfitLoss.Equal(d("200")))
}

func TestStep_ShortStopAndTargetMirrored(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), sell(80, 0.5), true))

	pos := s.Position()
	require.NotNil(t, pos)
	assert.Equal(t, Short, pos.Side)
	assert.True(t, pos.Stop.Equal(d("102")))
	assert.True(t, pos.Take.Equal(d("96")))

	// Rally through the stop.
	require.NoError(t, s.Step(bar(1, "100", "103", "100", "103"), hold(), true))
	trades := jrn.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ReasonStopLoss, trades[0].Reason)
	assert.True(t, trades[0].ProfitLoss.Equal(d("-100")))
}

func TestStep_ExitNeverReentersSameBar(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))

	// Bar both triggers the stop and carries a fresh approved BUY.
	require.NoError(t, s.Step(bar(1, "100", "100", "97", "97"), buy(90, 0.5), true))

	assert.True(t, s.Flat())
	assert.Len(t, jrn.Trades(), 1)

	// Entry resumes on the next bar.
	require.NoError(t, s.Step(bar(2, "97", "98", "96", "97"), buy(90, 0.5), true))
	assert.False(t, s.Flat())
}

func TestStep_ReversalClosesWithoutReentry(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.NoError(t, s.Step(bar(1, "100", "101", "99", "101"), sell(80, 0.5), true))

	assert.True(t, s.Flat())
	trades := jrn.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ReasonReversal, trades[0].Reason)
	assert.True(t, trades[0].ExitPrice.Equal(d("101")))
}

func TestStep_SameDirectionIsNoop(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	id := s.Position().ID

	require.NoError(t, s.Step(bar(1, "100", "101", "99", "101"), buy(90, 0.8), true))

	// Never two simultaneous positions; the original stays.
	require.NotNil(t, s.Position())
	assert.Equal(t, id, s.Position().ID)
	assert.Empty(t, jrn.Trades())
}

func TestStep_SizeClampedToCash(t *testing.T) {
	t.Parallel()

	jrn := journal.NewMemory()
	s := New("BTC_USD", Config{
		InitialBalance: d("10000"),
		StopLossPct:    d("2"),
		TakeProfitPct:  d("4"),
	}, jrn, zerolog.Nop())

	// A hint requesting more than available cash is clamped, never
	// rejected: the simulator always acts on approved signals within
	// budget.
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 1.5), true))

	pos := s.Position()
	require.NotNil(t, pos)
	assert.True(t, pos.Size.Equal(d("100")), "size=%s", pos.Size)
	assert.True(t, s.Cash().IsZero(), "cash=%s", s.Cash())
}

func TestStep_VetoedAndHoldAdvanceEquityOnly(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")

	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), hold(), true))
	require.NoError(t, s.Step(bar(1, "100", "101", "99", "101"), buy(80, 0.5), false)) // vetoed

	assert.True(t, s.Flat())
	assert.Empty(t, jrn.Trades())
	require.Len(t, jrn.Equity(), 2)
	assert.True(t, jrn.Equity()[0].Equity.Equal(d("10000")))
	assert.True(t, jrn.Equity()[1].Equity.Equal(d("10000")))
}

func TestStep_AllHoldStreamLeavesBalanceUnchanged(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Step(bar(i, "100", "101", "99", "100"), hold(), true))
	}

	assert.True(t, s.Cash().Equal(d("10000")))
	assert.Empty(t, jrn.Trades())
	assert.Len(t, jrn.Equity(), 20)
}

func TestCloseAll_ForcedLiquidationAtLastClose(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.NoError(t, s.Step(bar(1, "100", "103", "100", "102"), hold(), true))

	require.NoError(t, s.CloseAll(""))

	assert.True(t, s.Flat())
	trades := jrn.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, ReasonEndOfData, trades[0].Reason)
	assert.True(t, trades[0].ExitPrice.Equal(d("102")))
	assert.True(t, trades[0].ProfitLoss.Equal(d("100")))
	assert.True(t, s.Cash().Equal(d("10100")))
}

func TestCloseAll_KeepsOneEquitySamplePerBar(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.NoError(t, s.Step(bar(1, "100", "103", "100", "102"), hold(), true))
	require.NoError(t, s.CloseAll(""))

	// Liquidation fills at the last close the final sample was marked at,
	// so the curve gains no duplicate-time point.
	pts := jrn.Equity()
	require.Len(t, pts, 2)
	assert.True(t, pts[1].Time.After(pts[0].Time))
	assert.True(t, pts[1].Equity.Equal(d("10100")))
	assert.True(t, s.Cash().Equal(d("10100")))
}

func TestCloseAll_NoopWhenFlat(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.CloseAll(""))
	assert.Empty(t, jrn.Trades())
}

func TestTrailingStop_RatchetsOnlyInFavor(t *testing.T) {
	t.Parallel()

	jrn := journal.NewMemory()
	s := New("BTC_USD", Config{
		InitialBalance:  d("10000"),
		StopLossPct:     d("2"),
		TakeProfitPct:   d("50"), // keep the target out of the way
		TrailingStopPct: d("2"),
	}, jrn, zerolog.Nop())

	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.True(t, s.Position().Stop.Equal(d("98")))

	// Close rises to 110: stop ratchets to 110*0.98 = 107.8.
	require.NoError(t, s.Step(bar(1, "100", "110", "100", "110"), hold(), true))
	assert.True(t, s.Position().Stop.Equal(d("107.8")), "stop=%s", s.Position().Stop)

	// Close falls back to 108: the stop never loosens.
	require.NoError(t, s.Step(bar(2, "110", "110", "108", "108"), hold(), true))
	assert.True(t, s.Position().Stop.Equal(d("107.8")))

	// Drop through the trailed stop.
	require.NoError(t, s.Step(bar(3, "108", "108", "107", "107"), hold(), true))
	require.True(t, s.Flat())
	trades := jrn.Trades()
	require.Len(t, trades, 1)
	assert.True(t, trades[0].ExitPrice.Equal(d("107.8")))
}

func TestStep_EquityMarksOpenPosition(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.NoError(t, s.Step(bar(1, "100", "103", "100", "102"), hold(), true))

	// cash 5000 + committed 5000 + 2*50 unrealized = 10100.
	pts := jrn.Equity()
	require.Len(t, pts, 2)
	assert.True(t, pts[1].Equity.Equal(d("10100")), "equity=%s", pts[1].Equity)
	assert.True(t, pts[1].Balance.Equal(d("5000")))
}

func TestStep_ZeroPriceEntrySkipped(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "0", "0", "0", "0"), buy(80, 0.5), true))
	assert.True(t, s.Flat())
	assert.Empty(t, jrn.Trades())
}

func TestTradeRecordCarriesOpeningSignals(t *testing.T) {
	t.Parallel()

	s, jrn := newSim(t, "10000")
	require.NoError(t, s.Step(bar(0, "100", "101", "99", "100"), buy(80, 0.5), true))
	require.NoError(t, s.Step(bar(1, "100", "100", "97", "97"), hold(), true))

	trades := jrn.Trades()
	require.Len(t, trades, 1)
	require.Len(t, trades[0].Signals, 1)
	assert.Equal(t, "tech", trades[0].Signals[0].Source)
	assert.Equal(t, signal.Buy, trades[0].Signals[0].Direction)
}
