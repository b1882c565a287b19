package analyst

import (
	"fmt"

	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

// Liquidity reads volume expansion as conviction behind the bar's move:
// above-average volume on an up bar votes BUY, on a down bar SELL. Thin
// volume votes HOLD.
type Liquidity struct {
	period  int
	volumes []float64
}

func NewLiquidity(period int) *Liquidity {
	return &Liquidity{period: period}
}

func (l *Liquidity) Name() string { return "liquidity" }

func (l *Liquidity) Observe(snap market.Snapshot) []signal.Record {
	bar := snap.Bar
	vol := bar.Volume.InexactFloat64()

	avg := 0.0
	if len(l.volumes) > 0 {
		for _, v := range l.volumes {
			avg += v
		}
		avg /= float64(len(l.volumes))
	}

	l.volumes = append(l.volumes, vol)
	if len(l.volumes) > l.period {
		l.volumes = l.volumes[1:]
	}

	if avg == 0 || len(l.volumes) < l.period {
		return nil
	}

	rec := signal.Record{
		Source: l.Name(),
		Time:   bar.Time,
	}

	ratio := vol / avg
	up := bar.Close.GreaterThan(bar.Open)
	down := bar.Close.LessThan(bar.Open)

	switch {
	case ratio >= 1.5 && up:
		rec.Direction = signal.Buy
		rec.Confidence = volumeConfidence(ratio)
		rec.Rationale = fmt.Sprintf("volume %.1fx average on an up bar", ratio)

	case ratio >= 1.5 && down:
		rec.Direction = signal.Sell
		rec.Confidence = volumeConfidence(ratio)
		rec.Rationale = fmt.Sprintf("volume %.1fx average on a down bar", ratio)

	default:
		rec.Direction = signal.Hold
		rec.Confidence = 15
		rec.Rationale = fmt.Sprintf("volume %.1fx average, no conviction", ratio)
	}

	return []signal.Record{rec}
}

func volumeConfidence(ratio float64) float64 {
	conf := 40 + ratio*10
	if conf > 90 {
		conf = 90
	}
	return conf
}
