package journal

// Memory keeps the ledger in process. It is what the backtest runner hands to
// the report evaluator after a run; see Tee to persist at the same time.
type Memory struct {
	trades     []TradeRecord
	equity     []EquityPoint
	rejections []Rejection
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquityPoint) error {
	m.equity = append(m.equity, e)
	return nil
}

func (m *Memory) RecordRejection(r Rejection) error {
	m.rejections = append(m.rejections, r)
	return nil
}

func (m *Memory) Close() error { return nil }

// Trades returns the recorded trades in close order.
func (m *Memory) Trades() []TradeRecord { return m.trades }

// Equity returns the equity curve in sample order.
func (m *Memory) Equity() []EquityPoint { return m.equity }

// Rejections returns the veto log in occurrence order.
func (m *Memory) Rejections() []Rejection { return m.rejections }
