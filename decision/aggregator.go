// Package decision combines heterogeneous analyst signals into one trade
// decision using per-source weights and a confidence threshold.
package decision

import (
	"time"

	"github.com/rustyeddy/quorum/signal"
)

// Contribution records how one input signal entered the aggregation. Every
// input appears, winner or not, so downstream attribution can replay the vote.
type Contribution struct {
	Source     string           `json:"source"`
	Direction  signal.Direction `json:"direction"`
	Confidence float64          `json:"confidence"`
	Weight     float64          `json:"weight"`
	Weighted   float64          `json:"weighted_confidence"`
	Invalid    bool             `json:"invalid,omitempty"`
}

// TradeDecision is the aggregator's output for one timestamp.
type TradeDecision struct {
	Symbol        string
	Time          time.Time
	Action        signal.Direction
	Confidence    float64 // winning directional score, capped at 100
	SizeHint      float64 // fraction of capital in [0, 1]; 0 for HOLD
	Contributions []Contribution
}

// Config holds the aggregation parameters. Weights default to 1.0 for any
// source not listed.
type Config struct {
	ConfidenceThreshold float64            `json:"confidence_threshold" yaml:"confidence_threshold"`
	Weights             map[string]float64 `json:"weights" yaml:"weights"`
	MinPositionSize     float64            `json:"min_position_size" yaml:"min_position_size"`
	MaxPositionSize     float64            `json:"max_position_size" yaml:"max_position_size"`
}

// Aggregator is a pure function of its inputs; it carries no state between
// calls beyond the configuration.
type Aggregator struct {
	cfg Config
}

func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate combines signals into one TradeDecision.
//
// Each signal's weighted confidence is confidence * weight. BUY and SELL
// accumulate their voters' weighted confidences; HOLD accumulates HOLD votes
// plus anything invalid. The winning action must meet the configured
// threshold and strictly exceed both the opposing directional score and the
// HOLD score; any tie resolves to HOLD. An empty signal list yields HOLD
// with confidence 0.
func (a *Aggregator) Aggregate(symbol string, at time.Time, signals []signal.Record) TradeDecision {
	dec := TradeDecision{
		Symbol: symbol,
		Time:   at,
		Action: signal.Hold,
	}

	var buyScore, sellScore, holdScore float64

	for _, raw := range signals {
		s := signal.Normalize(raw)
		w := a.weight(s.Source)
		weighted := s.Confidence * w

		dec.Contributions = append(dec.Contributions, Contribution{
			Source:     s.Source,
			Direction:  s.Direction,
			Confidence: s.Confidence,
			Weight:     w,
			Weighted:   weighted,
			Invalid:    s.Invalid,
		})

		switch s.Direction {
		case signal.Buy:
			buyScore += weighted
		case signal.Sell:
			sellScore += weighted
		default:
			holdScore += weighted
		}
	}

	action, score := signal.Buy, buyScore
	if sellScore > score {
		action, score = signal.Sell, sellScore
	} else if sellScore == score {
		// BUY/SELL tie: ambiguity never produces an actionable trade.
		action = signal.Hold
	}

	if action == signal.Hold || score < a.cfg.ConfidenceThreshold || score <= holdScore {
		return dec
	}

	dec.Action = action
	dec.Confidence = score
	if dec.Confidence > 100 {
		dec.Confidence = 100
	}
	dec.SizeHint = a.sizeHint(dec.Confidence)

	return dec
}

func (a *Aggregator) weight(source string) float64 {
	if w, ok := a.cfg.Weights[source]; ok {
		return w
	}
	return 1.0
}

// sizeHint linearly scales confidence above the threshold into
// [MinPositionSize, MaxPositionSize]. Called only for actionable decisions,
// so conf >= threshold always holds here.
func (a *Aggregator) sizeHint(conf float64) float64 {
	min, max := a.cfg.MinPositionSize, a.cfg.MaxPositionSize
	span := 100 - a.cfg.ConfidenceThreshold
	if span <= 0 {
		return max
	}
	hint := min + (conf-a.cfg.ConfidenceThreshold)/span*(max-min)
	if hint > max {
		hint = max
	}
	return hint
}
