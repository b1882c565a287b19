// Package journal persists the engine's ledger: closed trades, equity
// samples, and risk vetoes. Records are append-only and immutable once
// written.
package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/market"
)

// TradeRecord is one closed trade. Signals carries the contributions of the
// decision that opened the trade, for per-source attribution.
type TradeRecord struct {
	TradeID       string
	Symbol        string
	Side          string // "LONG" or "SHORT"
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	ExitPrice     decimal.Decimal
	OpenTime      time.Time
	CloseTime     time.Time
	ProfitLoss    decimal.Decimal
	ProfitLossPct float64
	Reason        string
	Signals       []decision.Contribution
}

// EquityPoint is one sample of total account value, taken once per bar.
type EquityPoint struct {
	Time    time.Time
	Balance decimal.Decimal // cash
	Equity  decimal.Decimal // cash + mark-to-market of any open position
}

// Rejection is one risk-guard veto, kept for offline audit of how often and
// why trades were blocked.
type Rejection struct {
	Time       time.Time
	Symbol     string
	Action     string
	Confidence float64
	Metrics    market.Metrics
	Reason     string
}

// Journal is the ledger sink. Implementations must tolerate being closed
// once and must never reorder records.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	RecordRejection(Rejection) error
	Close() error
}
