// Package sim replays trade decisions bar by bar against a cash/position
// state machine and journals the resulting ledger.
package sim

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/internal/id"
	"github.com/rustyeddy/quorum/journal"
	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

// Close reasons recorded on the trade ledger. EndOfData marks forced
// liquidation at the final bar, distinct from ordinary exits.
const (
	ReasonStopLoss   = "StopLoss"
	ReasonTakeProfit = "TakeProfit"
	ReasonReversal   = "Reversal"
	ReasonEndOfData  = "EndOfData"
)

var hundred = decimal.NewFromInt(100)

// Config holds the simulator parameters. Percentages are in percent units.
// TrailingStopPct of 0 disables trailing; otherwise the stop ratchets
// monotonically in the position's favor.
type Config struct {
	InitialBalance  decimal.Decimal
	StopLossPct     decimal.Decimal
	TakeProfitPct   decimal.Decimal
	TrailingStopPct decimal.Decimal
}

// Simulator holds one symbol's cash and position state. States are FLAT,
// LONG, SHORT; at most one position is open at a time. Bars must arrive in
// chronological order; the simulator never looks ahead.
type Simulator struct {
	cfg    Config
	symbol string
	jrn    journal.Journal
	log    zerolog.Logger

	cash decimal.Decimal
	pos  *Position

	lastClose decimal.Decimal
	lastTime  time.Time
}

func New(symbol string, cfg Config, jrn journal.Journal, log zerolog.Logger) *Simulator {
	return &Simulator{
		cfg:    cfg,
		symbol: symbol,
		jrn:    jrn,
		log:    log.With().Str("symbol", symbol).Logger(),
		cash:   cfg.InitialBalance,
	}
}

// Flat reports whether no position is open.
func (s *Simulator) Flat() bool { return s.pos == nil }

// Position returns the open position, or nil.
func (s *Simulator) Position() *Position { return s.pos }

// Cash returns uncommitted funds.
func (s *Simulator) Cash() decimal.Decimal { return s.cash }

// Equity returns cash plus the mark-to-market value of any open position at
// the last seen close.
func (s *Simulator) Equity() decimal.Decimal {
	return s.equityAt(s.lastClose)
}

func (s *Simulator) equityAt(price decimal.Decimal) decimal.Decimal {
	if s.pos == nil {
		return s.cash
	}
	committed := s.pos.EntryPrice.Mul(s.pos.Size)
	return s.cash.Add(committed).Add(s.pos.unrealized(price))
}

// Step advances the simulator by one bar, in order: mark to the close and
// sample equity, check stop/target exits, then act on the decision. A bar
// that exits never re-enters; the new decision stream is evaluated on the
// next bar.
func (s *Simulator) Step(bar market.Bar, dec decision.TradeDecision, approved bool) error {
	s.lastClose = bar.Close
	s.lastTime = bar.Time

	if err := s.jrn.RecordEquity(journal.EquityPoint{
		Time:    bar.Time,
		Balance: s.cash,
		Equity:  s.equityAt(bar.Close),
	}); err != nil {
		return err
	}

	if s.pos != nil {
		if price, reason, hit := s.pos.checkExit(bar.High, bar.Low); hit {
			return s.close(price, bar.Time, reason)
		}
		// Ratchet after the exit check so the stop in force for this bar
		// was set from information available before it.
		if !s.cfg.TrailingStopPct.IsZero() {
			s.pos.trail(bar.Close, s.cfg.TrailingStopPct)
		}
	}

	if !approved || dec.Action == signal.Hold {
		return nil
	}

	want := Long
	if dec.Action == signal.Sell {
		want = Short
	}

	if s.pos != nil {
		if s.pos.Side != want {
			// Contrary signal closes at the bar close; re-entry waits
			// for the next bar.
			return s.close(bar.Close, bar.Time, ReasonReversal)
		}
		return nil
	}

	return s.open(want, bar, dec)
}

// CloseAll force-closes any open position at the last seen close. Used at
// end of data; the reason distinguishes it from ordinary exits. No equity
// point is appended: the final bar's sample already marks the position at
// the price the liquidation fills at, and the curve keeps one sample per
// bar with strictly increasing timestamps.
func (s *Simulator) CloseAll(reason string) error {
	if s.pos == nil {
		return nil
	}
	if reason == "" {
		reason = ReasonEndOfData
	}
	return s.close(s.lastClose, s.lastTime, reason)
}

func (s *Simulator) open(side Side, bar market.Bar, dec decision.TradeDecision) error {
	entry := bar.Close
	if entry.IsZero() {
		s.log.Warn().Time("bar", bar.Time).Msg("skipping entry at zero price")
		return nil
	}

	hint := decimal.NewFromFloat(dec.SizeHint)
	want := s.equityAt(entry).Mul(hint)

	// Cost may never exceed available cash; clamp rather than reject so an
	// approved signal always gets acted on within budget.
	cost := want
	if cost.GreaterThan(s.cash) {
		cost = s.cash
		s.log.Info().
			Str("wanted", want.String()).
			Str("filled", cost.String()).
			Msg("partial fill: size clamped to available cash")
	}

	size := cost.Div(entry)
	if !size.IsPositive() {
		return nil
	}

	stopOff := entry.Mul(s.cfg.StopLossPct).Div(hundred)
	takeOff := entry.Mul(s.cfg.TakeProfitPct).Div(hundred)

	pos := &Position{
		ID:         id.New(),
		Side:       side,
		EntryPrice: entry,
		Size:       size,
		EntryTime:  bar.Time,
		Signals:    dec.Contributions,
	}
	if side == Long {
		pos.Stop = entry.Sub(stopOff)
		pos.Take = entry.Add(takeOff)
	} else {
		pos.Stop = entry.Add(stopOff)
		pos.Take = entry.Sub(takeOff)
	}

	s.cash = s.cash.Sub(size.Mul(entry))
	s.pos = pos

	s.log.Debug().
		Str("trade_id", pos.ID).
		Str("side", side.String()).
		Str("entry", entry.String()).
		Str("size", size.String()).
		Str("stop", pos.Stop.String()).
		Str("take", pos.Take.String()).
		Msg("position opened")

	return nil
}

func (s *Simulator) close(price decimal.Decimal, at time.Time, reason string) error {
	pos := s.pos
	s.pos = nil

	pl := pos.unrealized(price)
	s.cash = s.cash.Add(pos.EntryPrice.Mul(pos.Size)).Add(pl)

	committed := pos.EntryPrice.Mul(pos.Size)
	plPct := 0.0
	if !committed.IsZero() {
		plPct = pl.Div(committed).Mul(hundred).InexactFloat64()
	}

	rec := journal.TradeRecord{
		TradeID:       pos.ID,
		Symbol:        s.symbol,
		Side:          pos.Side.String(),
		Size:          pos.Size,
		EntryPrice:    pos.EntryPrice,
		ExitPrice:     price,
		OpenTime:      pos.EntryTime,
		CloseTime:     at,
		ProfitLoss:    pl,
		ProfitLossPct: plPct,
		Reason:        reason,
		Signals:       pos.Signals,
	}

	s.log.Debug().
		Str("trade_id", pos.ID).
		Str("exit", price.String()).
		Str("pl", pl.String()).
		Str("reason", reason).
		Msg("position closed")

	return s.jrn.RecordTrade(rec)
}
