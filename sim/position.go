package sim

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/quorum/decision"
)

// Side: +1 long, -1 short.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}

// Position is one open trade. Exactly one exists per simulator at a time.
// Stop and Take are fixed at entry; Stop may only ratchet in the position's
// favor when a trailing percentage is configured.
type Position struct {
	ID         string
	Side       Side
	EntryPrice decimal.Decimal
	Size       decimal.Decimal // units of asset, always positive
	EntryTime  time.Time
	Stop       decimal.Decimal
	Take       decimal.Decimal

	// Contributions of the decision that opened the position, carried
	// through to the trade record for attribution.
	Signals []decision.Contribution
}

// checkExit tests the bar's range against stop and target. The stop is
// checked first: a bar that straddles both fills pessimistically at the stop.
func (p *Position) checkExit(high, low decimal.Decimal) (price decimal.Decimal, reason string, hit bool) {
	if p.Side == Long {
		if low.LessThanOrEqual(p.Stop) {
			return p.Stop, ReasonStopLoss, true
		}
		if high.GreaterThanOrEqual(p.Take) {
			return p.Take, ReasonTakeProfit, true
		}
		return decimal.Zero, "", false
	}

	if high.GreaterThanOrEqual(p.Stop) {
		return p.Stop, ReasonStopLoss, true
	}
	if low.LessThanOrEqual(p.Take) {
		return p.Take, ReasonTakeProfit, true
	}
	return decimal.Zero, "", false
}

// trail ratchets the stop toward price by trailPct, never loosening it.
func (p *Position) trail(price decimal.Decimal, trailPct decimal.Decimal) {
	offset := price.Mul(trailPct).Div(hundred)

	if p.Side == Long {
		if cand := price.Sub(offset); cand.GreaterThan(p.Stop) {
			p.Stop = cand
		}
		return
	}
	if cand := price.Add(offset); cand.LessThan(p.Stop) {
		p.Stop = cand
	}
}

// unrealized returns mark-to-market P/L at the given price.
func (p *Position) unrealized(price decimal.Decimal) decimal.Decimal {
	diff := price.Sub(p.EntryPrice)
	if p.Side == Short {
		diff = diff.Neg()
	}
	return diff.Mul(p.Size)
}
