package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quorum",
	Short: "A multi-analyst decision aggregation and backtest engine",
	Long: `Quorum aggregates directional signals from weighted analyst sources into
trade decisions, gates them through a market-condition risk layer, and
replays them bar by bar through a portfolio simulator.

It provides tools for:
  - Aggregating weighted BUY/SELL/HOLD votes into a single decision
  - Vetoing trades on volatility, liquidity, movement and spread limits
  - Backtesting decisions against historical OHLCV bars
  - Journaling trades, equity and rejections to CSV or SQLite
  - Evaluating runs: win rate, drawdown, Sharpe, per-source attribution

Complete documentation is available at https://github.com/rustyeddy/quorum`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
