package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/quorum/market"
	"github.com/rustyeddy/quorum/signal"
)

// BarFeed yields market snapshots one at a time, in chronological order.
// Implementations must be deterministic and return ok=false, err=nil at EOF.
type BarFeed interface {
	Next() (snap market.Snapshot, ok bool, err error)
	Close() error
}

// SignalSource produces analyst signals for a bar. Sources are opaque to the
// engine: any number may be present, and none has to fire every bar.
type SignalSource interface {
	Name() string
	Observe(snap market.Snapshot) []signal.Record
}

// CSVBars reads snapshots from a CSV file with a header row:
//
//	time,open,high,low,close,volume[,bid,ask,liquidity]
//
// When the quote columns are absent, the bid and ask default to the close
// (zero spread) and liquidity to 1.0. Gaps in the series are passed through
// untouched — missing bars are the caller's concern, never interpolated.
// Rows that step backwards in time are skipped and logged, never reordered.
type CSVBars struct {
	symbol   string
	f        *os.File
	r        *csv.Reader
	log      zerolog.Logger
	lastTime time.Time
	line     int
}

func NewCSVBars(path, symbol string, log zerolog.Logger) (*CSVBars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// Consume the header.
	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read bars header: %w", err)
	}

	return &CSVBars{symbol: symbol, f: f, r: r, log: log, line: 1}, nil
}

func (c *CSVBars) Next() (market.Snapshot, bool, error) {
	for {
		row, err := c.r.Read()
		if err == io.EOF {
			return market.Snapshot{}, false, nil
		}
		if err != nil {
			return market.Snapshot{}, false, err
		}
		c.line++

		snap, err := c.parse(row)
		if err != nil {
			return market.Snapshot{}, false, fmt.Errorf("bars line %d: %w", c.line, err)
		}

		// Out-of-order bars are normalized away by skipping, not raised.
		if !c.lastTime.IsZero() && !snap.Bar.Time.After(c.lastTime) {
			c.log.Warn().
				Int("line", c.line).
				Time("bar", snap.Bar.Time).
				Time("last", c.lastTime).
				Msg("skipping non-monotonic bar")
			continue
		}
		c.lastTime = snap.Bar.Time

		return snap, true, nil
	}
}

func (c *CSVBars) parse(row []string) (market.Snapshot, error) {
	if len(row) != 6 && len(row) != 9 {
		return market.Snapshot{}, fmt.Errorf("expected 6 or 9 columns, got %d", len(row))
	}

	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("bad time %q: %w", row[0], err)
	}

	var cols [5]decimal.Decimal
	for i := 0; i < 5; i++ {
		cols[i], err = decimal.NewFromString(row[i+1])
		if err != nil {
			return market.Snapshot{}, fmt.Errorf("bad value %q: %w", row[i+1], err)
		}
	}

	snap := market.Snapshot{
		Symbol: c.symbol,
		Bar: market.Bar{
			Time:   ts,
			Open:   cols[0],
			High:   cols[1],
			Low:    cols[2],
			Close:  cols[3],
			Volume: cols[4],
		},
		Quote:     market.Quote{Bid: cols[3], Ask: cols[3]},
		Liquidity: 1.0,
	}

	if len(row) == 9 {
		if snap.Quote.Bid, err = decimal.NewFromString(row[6]); err != nil {
			return market.Snapshot{}, fmt.Errorf("bad bid %q: %w", row[6], err)
		}
		if snap.Quote.Ask, err = decimal.NewFromString(row[7]); err != nil {
			return market.Snapshot{}, fmt.Errorf("bad ask %q: %w", row[7], err)
		}
		if snap.Liquidity, err = strconv.ParseFloat(row[8], 64); err != nil {
			return market.Snapshot{}, fmt.Errorf("bad liquidity %q: %w", row[8], err)
		}
	}

	return snap, nil
}

func (c *CSVBars) Close() error { return c.f.Close() }

// CSVSignals replays pre-recorded analyst signals from a CSV file with a
// header row:
//
//	time,source,direction,confidence,rationale
//
// The whole file is loaded up front and indexed by timestamp so the
// simulation loop never blocks on I/O.
type CSVSignals struct {
	byTime map[int64][]signal.Record
}

func NewCSVSignals(path string) (*CSVSignals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signals file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read signals file: %w", err)
	}
	if len(rows) == 0 {
		return &CSVSignals{byTime: map[int64][]signal.Record{}}, nil
	}

	s := &CSVSignals{byTime: make(map[int64][]signal.Record, len(rows))}
	for i, row := range rows[1:] {
		if len(row) != 5 {
			return nil, fmt.Errorf("signals line %d: expected 5 columns, got %d", i+2, len(row))
		}

		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("signals line %d: bad time %q: %w", i+2, row[0], err)
		}
		conf, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("signals line %d: bad confidence %q: %w", i+2, row[3], err)
		}

		// Unrecognized directions stay in the stream as-is; the
		// aggregator normalizes them to flagged HOLD votes.
		dir, ok := signal.ParseDirection(row[2])
		if !ok {
			dir = signal.Direction(row[2])
		}

		rec := signal.Record{
			Source:     row[1],
			Direction:  dir,
			Confidence: conf,
			Rationale:  row[4],
			Time:       ts,
		}
		s.byTime[ts.Unix()] = append(s.byTime[ts.Unix()], rec)
	}

	return s, nil
}

func (s *CSVSignals) Name() string { return "csv" }

func (s *CSVSignals) Observe(snap market.Snapshot) []signal.Record {
	return s.byTime[snap.Bar.Time.Unix()]
}
