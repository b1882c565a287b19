package report

import (
	"fmt"
	"io"
	"time"
)

// Write renders the report as a plain-text summary.
func Write(w io.Writer, r Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRatePct)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %s\n", r.StartBalance.StringFixed(2))
	fmt.Fprintf(w, "End Balance:   %s\n", r.EndBalance.StringFixed(2))
	fmt.Fprintf(w, "Net P/L:       %s\n", r.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdownPct)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Sharpe)

	if len(r.Sources) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Source Attribution")
	fmt.Fprintln(w, "--------------------------------------------------")
	for _, s := range r.Sources {
		fmt.Fprintf(w, "%-14s aligned %3d trades, win %.2f%%, avg %.2f%%\n",
			s.Source+":", s.AlignedTrades, s.AlignedWinRatePct, s.AlignedAvgReturnPct)
		fmt.Fprintf(w, "%-14s opposed %3d trades, win %.2f%%, avg %.2f%%\n",
			"", s.OpposedTrades, s.OpposedWinRatePct, s.OpposedAvgReturnPct)
	}
}
