package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/quorum/decision"
)

// SQLite journals to a SQLite database. Monetary columns are stored as
// decimal strings so values round-trip exactly.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	sigs, err := json.Marshal(t.Signals)
	if err != nil {
		return err
	}

	_, err = j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, size, entry_price, exit_price, open_time, close_time, profit_loss, profit_loss_pct, reason, signals)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Side, t.Size.String(),
		t.EntryPrice.String(), t.ExitPrice.String(),
		t.OpenTime, t.CloseTime,
		t.ProfitLoss.String(), t.ProfitLossPct, t.Reason, string(sigs),
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, balance, equity)
		VALUES (?, ?, ?)`,
		e.Time, e.Balance.String(), e.Equity.String(),
	)
	return err
}

func (j *SQLite) RecordRejection(r Rejection) error {
	_, err := j.db.Exec(`
		INSERT INTO rejections
		(time, symbol, action, confidence, volatility_pct, liquidity_score, market_movement_pct, spread_pct, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Time, r.Symbol, r.Action, r.Confidence,
		r.Metrics.VolatilityPct, r.Metrics.LiquidityScore,
		r.Metrics.MovementPct, r.Metrics.SpreadPct, r.Reason,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, symbol, side, size, entry_price, exit_price, open_time, close_time, profit_loss, profit_loss_pct, reason, signals
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return rec, err
}

// ListTrades returns all trades ordered by close time.
func (j *SQLite) ListTrades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, side, size, entry_price, exit_price, open_time, close_time, profit_loss, profit_loss_pct, reason, signals
		FROM trades
		ORDER BY close_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquity returns the equity curve ordered by time.
func (j *SQLite) ListEquity() ([]EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, equity
		FROM equity
		ORDER BY time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var (
			e               EquityPoint
			balance, equity string
		)
		if err := rows.Scan(&e.Time, &balance, &equity); err != nil {
			return nil, err
		}
		if e.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, err
		}
		if e.Equity, err = decimal.NewFromString(equity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRejectionsBetween returns vetoes within [start, end) ordered by time.
func (j *SQLite) ListRejectionsBetween(start, end time.Time) ([]Rejection, error) {
	rows, err := j.db.Query(`
		SELECT time, symbol, action, confidence, volatility_pct, liquidity_score, market_movement_pct, spread_pct, reason
		FROM rejections
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rejection
	for rows.Next() {
		var r Rejection
		if err := rows.Scan(
			&r.Time, &r.Symbol, &r.Action, &r.Confidence,
			&r.Metrics.VolatilityPct, &r.Metrics.LiquidityScore,
			&r.Metrics.MovementPct, &r.Metrics.SpreadPct, &r.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec                                           TradeRecord
		size, entryPrice, exitPrice, profitLoss, sigs string
	)

	err := s.Scan(
		&rec.TradeID, &rec.Symbol, &rec.Side, &size,
		&entryPrice, &exitPrice,
		&rec.OpenTime, &rec.CloseTime,
		&profitLoss, &rec.ProfitLossPct, &rec.Reason, &sigs,
	)
	if err != nil {
		return TradeRecord{}, err
	}

	if rec.Size, err = decimal.NewFromString(size); err != nil {
		return TradeRecord{}, err
	}
	if rec.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
		return TradeRecord{}, err
	}
	if rec.ExitPrice, err = decimal.NewFromString(exitPrice); err != nil {
		return TradeRecord{}, err
	}
	if rec.ProfitLoss, err = decimal.NewFromString(profitLoss); err != nil {
		return TradeRecord{}, err
	}

	var contribs []decision.Contribution
	if err := json.Unmarshal([]byte(sigs), &contribs); err != nil {
		return TradeRecord{}, err
	}
	rec.Signals = contribs

	return rec, nil
}
