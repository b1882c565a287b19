// Package signal defines the normalized unit of analyst output.
package signal

import (
	"math"
	"strings"
	"time"
)

// Direction is an analyst's directional vote.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
	Hold Direction = "HOLD"
)

// ParseDirection maps free-form input to a Direction. ok is false for
// anything unrecognized; callers must treat those as Hold (see Normalize).
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, true
	case Sell:
		return Sell, true
	case Hold:
		return Hold, true
	}
	return Hold, false
}

// Record is one analyst's opinion at one point in time. The rationale is
// opaque to the engine and carried only for audit.
type Record struct {
	Source     string
	Direction  Direction
	Confidence float64 // [0, 100]
	Rationale  string
	Time       time.Time

	// Invalid marks a record whose direction was unrecognized or whose
	// confidence was out of range. Invalid records vote HOLD with
	// confidence 0 but are never dropped.
	Invalid bool
}

// Normalize clamps confidence to [0, 100] and downgrades unrecognized
// directions to Hold with confidence 0, flagging the record invalid in both
// cases. It never errors: malformed analyst output degrades, it does not
// abort a run.
func Normalize(r Record) Record {
	switch r.Direction {
	case Buy, Sell, Hold:
	default:
		r.Direction = Hold
		r.Confidence = 0
		r.Invalid = true
	}

	// NaN passes both range comparisons below; it must zero out here or it
	// propagates through every downstream threshold unchecked.
	if math.IsNaN(r.Confidence) {
		r.Confidence = 0
		r.Invalid = true
	}
	if r.Confidence < 0 {
		r.Confidence = 0
		r.Invalid = true
	}
	if r.Confidence > 100 {
		r.Confidence = 100
		r.Invalid = true
	}

	return r
}
