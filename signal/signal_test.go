package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"BUY", Buy, true},
		{"buy", Buy, true},
		{" Sell ", Sell, true},
		{"HOLD", Hold, true},
		{"LONG", Hold, false},
		{"", Hold, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseDirection(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNormalize_UnknownDirection(t *testing.T) {
	t.Parallel()

	r := Normalize(Record{Source: "tech", Direction: "SHORT_SQUEEZE", Confidence: 90})
	assert.Equal(t, Hold, r.Direction)
	assert.Zero(t, r.Confidence)
	assert.True(t, r.Invalid)
}

func TestNormalize_ClampsConfidence(t *testing.T) {
	t.Parallel()

	hi := Normalize(Record{Direction: Buy, Confidence: 150})
	assert.InDelta(t, 100.0, hi.Confidence, 1e-12)
	assert.True(t, hi.Invalid)

	lo := Normalize(Record{Direction: Sell, Confidence: -5})
	assert.Zero(t, lo.Confidence)
	assert.True(t, lo.Invalid)
}

func TestNormalize_NonFiniteConfidence(t *testing.T) {
	t.Parallel()

	nan := Normalize(Record{Source: "tech", Direction: Buy, Confidence: math.NaN()})
	assert.Zero(t, nan.Confidence)
	assert.True(t, nan.Invalid)
	assert.Equal(t, Buy, nan.Direction)

	posInf := Normalize(Record{Direction: Sell, Confidence: math.Inf(1)})
	assert.InDelta(t, 100.0, posInf.Confidence, 1e-12)
	assert.True(t, posInf.Invalid)

	negInf := Normalize(Record{Direction: Sell, Confidence: math.Inf(-1)})
	assert.Zero(t, negInf.Confidence)
	assert.True(t, negInf.Invalid)
}

func TestNormalize_ValidRecordUntouched(t *testing.T) {
	t.Parallel()

	in := Record{Source: "sentiment", Direction: Sell, Confidence: 62.5, Rationale: "bearish flow"}
	out := Normalize(in)
	assert.Equal(t, in, out)
	assert.False(t, out.Invalid)
}
