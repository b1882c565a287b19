package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSV writes trades, equity samples, and rejections to three CSV files.
// Rows are flushed per record so a partial run still leaves a readable
// ledger on disk.
type CSV struct {
	trades     *csv.Writer
	equity     *csv.Writer
	rejections *csv.Writer
	files      []*os.File
}

func NewCSV(tradesPath, equityPath, rejectionsPath string) (*CSV, error) {
	j := &CSV{}

	for _, f := range []struct {
		path   string
		header []string
		dst    **csv.Writer
	}{
		{tradesPath, []string{
			"trade_id", "symbol", "side", "size", "entry_price", "exit_price",
			"open_time", "close_time", "profit_loss", "profit_loss_pct", "reason", "signals",
		}, &j.trades},
		{equityPath, []string{"time", "balance", "equity"}, &j.equity},
		{rejectionsPath, []string{
			"time", "symbol", "action", "confidence",
			"volatility_pct", "liquidity_score", "market_movement_pct", "spread_pct", "reason",
		}, &j.rejections},
	} {
		file, err := os.Create(f.path)
		if err != nil {
			j.Close()
			return nil, fmt.Errorf("create %s: %w", f.path, err)
		}
		j.files = append(j.files, file)

		w := csv.NewWriter(file)
		if err := w.Write(f.header); err != nil {
			j.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			j.Close()
			return nil, err
		}
		*f.dst = w
	}

	return j, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	sigs, err := json.Marshal(t.Signals)
	if err != nil {
		return err
	}

	if err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		t.Side,
		t.Size.String(),
		t.EntryPrice.String(),
		t.ExitPrice.String(),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		t.ProfitLoss.String(),
		f(t.ProfitLossPct),
		t.Reason,
		string(sigs),
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityPoint) error {
	if err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		e.Balance.String(),
		e.Equity.String(),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) RecordRejection(r Rejection) error {
	if err := j.rejections.Write([]string{
		r.Time.Format(time.RFC3339),
		r.Symbol,
		r.Action,
		f(r.Confidence),
		f(r.Metrics.VolatilityPct),
		f(r.Metrics.LiquidityScore),
		f(r.Metrics.MovementPct),
		f(r.Metrics.SpreadPct),
		r.Reason,
	}); err != nil {
		return err
	}
	j.rejections.Flush()
	return j.rejections.Error()
}

func (j *CSV) Close() error {
	var first error
	for _, w := range []*csv.Writer{j.trades, j.equity, j.rejections} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil && first == nil {
			first = err
		}
	}
	for _, file := range j.files {
		if err := file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
