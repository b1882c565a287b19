package analyst

import (
	"github.com/rustyeddy/quorum/market"
)

// smaStream is a streaming Simple Moving Average over bar closes.
type smaStream struct {
	period int
	closes []float64
}

func newSMA(period int) *smaStream {
	return &smaStream{period: period, closes: make([]float64, 0, period)}
}

func (m *smaStream) Update(b market.Bar) {
	m.closes = append(m.closes, b.Close.InexactFloat64())
	// Keep only the last 'period' closes
	if len(m.closes) > m.period {
		m.closes = m.closes[1:]
	}
}

func (m *smaStream) Ready() bool {
	return len(m.closes) >= m.period
}

func (m *smaStream) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, c := range m.closes {
		sum += c
	}
	return sum / float64(len(m.closes))
}

// rsiStream is a streaming Wilder RSI over bar closes.
type rsiStream struct {
	period    int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	count     int
}

func newRSI(period int) *rsiStream {
	return &rsiStream{period: period}
}

func (r *rsiStream) Update(b market.Bar) {
	close := b.Close.InexactFloat64()
	if r.count == 0 {
		r.prevClose = close
		r.count++
		return
	}

	gain, loss := 0.0, 0.0
	if diff := close - r.prevClose; diff > 0 {
		gain = diff
	} else {
		loss = -diff
	}
	r.prevClose = close

	if r.count <= r.period {
		// Seed with a plain average over the first 'period' changes.
		r.avgGain += gain / float64(r.period)
		r.avgLoss += loss / float64(r.period)
	} else {
		n := float64(r.period)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}
	r.count++
}

func (r *rsiStream) Ready() bool {
	return r.count > r.period
}

func (r *rsiStream) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
