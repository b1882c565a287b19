// Package analyst ships rule-based demo signal sources so a backtest can run
// without an external signal file. Real analysts live outside the engine;
// these implement the same contract from bar data alone.
package analyst

import (
	"fmt"

	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

// Technical votes on SMA crossovers, with RSI extremes as a secondary vote.
// It emits at most one signal per bar and holds until both averages are
// warmed up.
type Technical struct {
	fast *smaStream
	slow *smaStream
	rsi  *rsiStream

	prevFast float64
	prevSlow float64
	primed   bool
}

func NewTechnical(fastPeriod, slowPeriod, rsiPeriod int) *Technical {
	return &Technical{
		fast: newSMA(fastPeriod),
		slow: newSMA(slowPeriod),
		rsi:  newRSI(rsiPeriod),
	}
}

func (t *Technical) Name() string { return "technical" }

func (t *Technical) Observe(snap market.Snapshot) []signal.Record {
	bar := snap.Bar
	t.fast.Update(bar)
	t.slow.Update(bar)
	t.rsi.Update(bar)

	if !t.fast.Ready() || !t.slow.Ready() {
		return nil
	}

	fast, slow := t.fast.Value(), t.slow.Value()
	defer func() {
		t.prevFast, t.prevSlow = fast, slow
		t.primed = true
	}()

	if !t.primed {
		return nil
	}

	rec := signal.Record{
		Source: t.Name(),
		Time:   bar.Time,
	}

	switch {
	case t.prevFast <= t.prevSlow && fast > slow:
		rec.Direction = signal.Buy
		rec.Confidence = crossConfidence(fast, slow)
		rec.Rationale = fmt.Sprintf("fast SMA %.2f crossed above slow SMA %.2f", fast, slow)

	case t.prevFast >= t.prevSlow && fast < slow:
		rec.Direction = signal.Sell
		rec.Confidence = crossConfidence(fast, slow)
		rec.Rationale = fmt.Sprintf("fast SMA %.2f crossed below slow SMA %.2f", fast, slow)

	case t.rsi.Ready() && t.rsi.Value() <= 30:
		rec.Direction = signal.Buy
		rec.Confidence = 55
		rec.Rationale = fmt.Sprintf("RSI oversold at %.1f", t.rsi.Value())

	case t.rsi.Ready() && t.rsi.Value() >= 70:
		rec.Direction = signal.Sell
		rec.Confidence = 55
		rec.Rationale = fmt.Sprintf("RSI overbought at %.1f", t.rsi.Value())

	default:
		rec.Direction = signal.Hold
		rec.Confidence = 20
		rec.Rationale = "no crossover, RSI neutral"
	}

	return []signal.Record{rec}
}

// crossConfidence scales with the separation of the averages: a decisive
// cross reads stronger than a graze.
func crossConfidence(fast, slow float64) float64 {
	if slow == 0 {
		return 60
	}
	sep := (fast - slow) / slow * 100
	if sep < 0 {
		sep = -sep
	}
	conf := 60 + sep*20
	if conf > 95 {
		conf = 95
	}
	return conf
}
