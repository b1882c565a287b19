// Package backtest drives bars and analyst signals through the aggregation,
// risk, and simulation pipeline.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/journal"
	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/risk"
	"github.com/rustyeddy/quorum/signal"
	"github.com/rustyeddy/quorum/sim"
)

// RunnerOptions controls end-of-run behavior.
type RunnerOptions struct {
	// If true, force-close any open position at the end of the dataset.
	CloseEnd    bool
	CloseReason string
}

// Result is a lightweight summary of one run. The statistics proper come
// from report.Evaluate over the ledger.
type Result struct {
	Bars      int
	Decisions int // actionable (non-HOLD) decisions produced
	Vetoes    int

	Start time.Time
	End   time.Time
}

// Runner executes the per-bar loop: gather signals, aggregate, risk-gate,
// simulate. Bars are processed strictly in order; nothing inside a bar's
// evaluation sees a future bar.
type Runner struct {
	Feed       BarFeed
	Sources    []SignalSource
	Aggregator *decision.Aggregator
	Risk       risk.Config
	Sim        *sim.Simulator
	Journal    journal.Journal
	Log        zerolog.Logger
	Options    RunnerOptions
}

// Run processes the feed to exhaustion. On context cancellation it stops
// before the next bar and returns the partial result together with the
// context's error; the ledger written so far remains valid.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	if r.Aggregator == nil {
		return Result{}, fmt.Errorf("backtest: Aggregator is required")
	}
	if r.Sim == nil {
		return Result{}, fmt.Errorf("backtest: Sim is required")
	}
	if r.Journal == nil {
		return Result{}, fmt.Errorf("backtest: Journal is required")
	}
	defer r.Feed.Close()

	var (
		res  Result
		prev *market.Bar
	)

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		snap, ok, err := r.Feed.Next()
		if err != nil {
			return res, err
		}
		if !ok {
			break
		}

		res.Bars++
		if res.Start.IsZero() {
			res.Start = snap.Bar.Time
		}
		res.End = snap.Bar.Time

		var sigs []signal.Record
		for _, src := range r.Sources {
			sigs = append(sigs, src.Observe(snap)...)
		}

		dec := r.Aggregator.Aggregate(snap.Symbol, snap.Bar.Time, sigs)
		if dec.Action != signal.Hold {
			res.Decisions++
		}

		metrics := market.ComputeMetrics(snap, prev)
		verdict := risk.Evaluate(r.Risk, dec, metrics)

		if !verdict.Approved {
			res.Vetoes++
			r.Log.Warn().
				Time("bar", snap.Bar.Time).
				Str("action", string(dec.Action)).
				Float64("confidence", dec.Confidence).
				Str("reason", verdict.RejectionReason).
				Msg("decision vetoed")

			if err := r.Journal.RecordRejection(journal.Rejection{
				Time:       snap.Bar.Time,
				Symbol:     snap.Symbol,
				Action:     string(dec.Action),
				Confidence: dec.Confidence,
				Metrics:    verdict.Metrics,
				Reason:     verdict.RejectionReason,
			}); err != nil {
				return res, err
			}
		}

		if err := r.Sim.Step(snap.Bar, dec, verdict.Approved); err != nil {
			return res, err
		}

		b := snap.Bar
		prev = &b
	}

	if r.Options.CloseEnd {
		reason := r.Options.CloseReason
		if reason == "" {
			reason = sim.ReasonEndOfData
		}
		if err := r.Sim.CloseAll(reason); err != nil {
			return res, err
		}
	}

	return res, nil
}
