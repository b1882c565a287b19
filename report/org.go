package report

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// OrgRun is the report plus run metadata for the org-mode export.
type OrgRun struct {
	Report

	RunID    string
	Symbol   string
	Dataset  string
	Created  time.Time
	Notes    []string
	FilePath string
}

// WriteOrg renders the run as an org-mode heading and writes it to
// r.FilePath.
func (r *OrgRun) WriteOrg() error {
	t, err := template.New("backtest").Funcs(orgFuncs).Parse(orgTemplate)
	if err != nil {
		return fmt.Errorf("parse org template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, r); err != nil {
		return fmt.Errorf("render org report: %w", err)
	}
	return os.WriteFile(r.FilePath, buf.Bytes(), 0644)
}

const orgTemplate = `
* BACKTEST: {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{.StartBalance.StringFixed 2}}
:END_BAL:     {{.EndBalance.StringFixed 2}}
:NET_PL:      {{.NetProfit.StringFixed 2}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDrawdownPct}}
:SHARPE:      {{printf "%.2f" .Sharpe}}
:TRADES:      {{.TotalTrades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRatePct}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Net P/L:          *{{.NetProfit.StringFixed 2}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDrawdownPct}}%*
- Win Rate:         *{{printf "%.2f" .WinRatePct}}%*
- Sharpe:           *{{printf "%.2f" .Sharpe}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.TotalTrades}} |

{{- if .Sources }}

** Source Attribution
| Source | Aligned | Win % | Avg % | Opposed | Win % | Avg % |
|--------+---------+-------+-------+---------+-------+-------|
{{- range .Sources }}
| {{.Source}} | {{.AlignedTrades}} | {{printf "%.2f" .AlignedWinRatePct}} | {{printf "%.2f" .AlignedAvgReturnPct}} | {{.OpposedTrades}} | {{printf "%.2f" .OpposedWinRatePct}} | {{printf "%.2f" .OpposedAvgReturnPct}} |
{{- end }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
