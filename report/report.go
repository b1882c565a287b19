// Package report derives summary statistics from a trade ledger and equity
// curve. Reports are recomputed from the ledger on demand and never mutated;
// evaluating the same ledger twice yields identical reports.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/quorum/journal"
	"github.com/rustyeddy/quorum/signal"
)

// annualizationFactor converts per-bar Sharpe to an annual figure, assuming
// daily bars.
const annualizationFactor = 252.0

// SourceStats measures one analyst source: trades where the source's vote
// matched the executed direction (aligned) vs where it did not (opposed).
type SourceStats struct {
	Source string

	AlignedTrades       int
	AlignedWinRatePct   float64
	AlignedAvgReturnPct float64

	OpposedTrades       int
	OpposedWinRatePct   float64
	OpposedAvgReturnPct float64
}

// Report is the derived performance summary. Degenerate inputs (no trades,
// flat equity) produce zeros, never NaN or infinities.
type Report struct {
	Start time.Time
	End   time.Time

	TotalTrades int
	Wins        int
	Losses      int
	WinRatePct  float64

	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
	NetProfit    decimal.Decimal
	ReturnPct    float64

	MaxDrawdownPct float64
	Sharpe         float64

	Sources []SourceStats
}

// Evaluate computes the report from the ledger. It is a pure function of its
// inputs: no clocks, no randomness, map iteration replaced by sorted source
// order.
func Evaluate(trades []journal.TradeRecord, equity []journal.EquityPoint, initialBalance decimal.Decimal) Report {
	r := Report{
		StartBalance: initialBalance,
		EndBalance:   initialBalance,
		NetProfit:    decimal.Zero,
	}

	if len(equity) > 0 {
		r.Start = equity[0].Time
		r.End = equity[len(equity)-1].Time
		r.EndBalance = equity[len(equity)-1].Equity
	}

	for _, t := range trades {
		r.TotalTrades++
		if t.ProfitLoss.IsPositive() {
			r.Wins++
		} else if t.ProfitLoss.IsNegative() {
			r.Losses++
		}
		r.NetProfit = r.NetProfit.Add(t.ProfitLoss)
	}

	if r.TotalTrades > 0 {
		r.WinRatePct = float64(r.Wins) / float64(r.TotalTrades) * 100
	}
	if !initialBalance.IsZero() {
		r.ReturnPct = r.NetProfit.Div(initialBalance).
			Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	r.MaxDrawdownPct = maxDrawdownPct(equity)
	r.Sharpe = sharpe(equity)
	r.Sources = attribute(trades)

	return r
}

// maxDrawdownPct is the largest peak-to-trough decline as a percentage of
// the running peak, which only ever increases.
func maxDrawdownPct(equity []journal.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0].Equity
	worst := decimal.Zero

	for _, p := range equity {
		if p.Equity.GreaterThan(peak) {
			peak = p.Equity
		}
		if peak.IsZero() {
			continue
		}
		dd := peak.Sub(p.Equity).Div(peak)
		if dd.GreaterThan(worst) {
			worst = dd
		}
	}

	return worst.Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// sharpe is mean(period returns)/stdev(period returns) * sqrt(annualization).
// Zero variance or fewer than two returns yields 0, not infinity.
func sharpe(equity []journal.EquityPoint) float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev.IsZero() {
			continue
		}
		r := equity[i].Equity.Sub(prev).Div(prev)
		returns = append(returns, r.InexactFloat64())
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varSum float64
	for _, r := range returns {
		varSum += (r - mean) * (r - mean)
	}
	stdev := math.Sqrt(varSum / float64(len(returns)-1))
	if stdev == 0 {
		return 0
	}

	return mean / stdev * math.Sqrt(annualizationFactor)
}

// attribute buckets each trade per contributing source by whether the
// source's vote matched the executed direction, then summarizes win rate and
// average return per bucket.
func attribute(trades []journal.TradeRecord) []SourceStats {
	type bucket struct {
		trades int
		wins   int
		retSum float64
	}
	aligned := map[string]*bucket{}
	opposed := map[string]*bucket{}

	get := func(m map[string]*bucket, src string) *bucket {
		b, ok := m[src]
		if !ok {
			b = &bucket{}
			m[src] = b
		}
		return b
	}

	for _, t := range trades {
		executed := signal.Buy
		if t.Side == "SHORT" {
			executed = signal.Sell
		}
		win := t.ProfitLoss.IsPositive()

		for _, c := range t.Signals {
			// Touch both maps so every observed source appears in the
			// merged stats even when one bucket stays empty.
			a := get(aligned, c.Source)
			o := get(opposed, c.Source)

			b := o
			if c.Direction == executed {
				b = a
			}
			b.trades++
			if win {
				b.wins++
			}
			b.retSum += t.ProfitLossPct
		}
	}

	sources := make([]string, 0, len(aligned))
	for src := range aligned {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	out := make([]SourceStats, 0, len(sources))
	for _, src := range sources {
		a, o := aligned[src], opposed[src]
		s := SourceStats{Source: src, AlignedTrades: a.trades, OpposedTrades: o.trades}
		if a.trades > 0 {
			s.AlignedWinRatePct = float64(a.wins) / float64(a.trades) * 100
			s.AlignedAvgReturnPct = a.retSum / float64(a.trades)
		}
		if o.trades > 0 {
			s.OpposedWinRatePct = float64(o.wins) / float64(o.trades) * 100
			s.OpposedAvgReturnPct = o.retSum / float64(o.trades)
		}
		out = append(out, s)
	}

	return out
}
