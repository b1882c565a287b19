package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/quorum/analyst"
	"github.com/rustyeddy/quorum/backtest"
	"github.com/rustyeddy/quorum/config"
	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/internal/id"
	"github.com/rustyeddy/quorum/internal/logging"
	"github.com/rustyeddy/quorum/journal"
	"github.com/rustyeddy/quorum/report"
	"github.com/rustyeddy/quorum/sim"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through the decision pipeline",
	Long: `Backtest replays a CSV bar file through signal gathering, weighted
aggregation, the risk guard and the portfolio simulator, then prints a
performance report.

Signals come either from a signals CSV (time,source,direction,confidence)
or, when none is given, from the built-in technical and liquidity analysts.

Example:
  quorum backtest --bars data/btcusd.csv --config quorum.yaml
  quorum backtest --bars data/btcusd.csv --signals data/votes.csv --org run.org`,
	RunE: runBacktest,
}

var (
	btConfigPath  string
	btBarsPath    string
	btSignalsPath string
	btSymbol      string
	btBalance     float64
	btCloseEnd    bool
	btOrgPath     string

	btFast      int
	btSlow      int
	btRSI       int
	btVolPeriod int
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to config file (YAML or JSON); defaults used if empty")
	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (time,open,high,low,close,volume[,bid,ask,liquidity]) (required)")
	backtestCmd.Flags().StringVarP(&btSignalsPath, "signals", "s", "", "path to signals CSV (time,source,direction,confidence[,rationale])")
	backtestCmd.Flags().StringVar(&btSymbol, "symbol", "", "instrument symbol (overrides config)")
	backtestCmd.Flags().Float64Var(&btBalance, "balance", 0, "starting balance (overrides config)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "force-close any open position at end of data")
	backtestCmd.Flags().StringVar(&btOrgPath, "org", "", "write an org-mode run report to this path")

	backtestCmd.Flags().IntVar(&btFast, "fast", 10, "technical analyst: fast SMA period")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 30, "technical analyst: slow SMA period")
	backtestCmd.Flags().IntVar(&btRSI, "rsi", 14, "technical analyst: RSI period")
	backtestCmd.Flags().IntVar(&btVolPeriod, "vol-period", 20, "liquidity analyst: volume lookback period")

	backtestCmd.MarkFlagRequired("bars")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if btSymbol != "" {
		cfg.Symbol = btSymbol
	}
	if btBalance > 0 {
		cfg.Simulator.InitialBalance = btBalance
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	jrn, mem, err := buildJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer jrn.Close()

	feed, err := backtest.NewCSVBars(btBarsPath, cfg.Symbol, log)
	if err != nil {
		return fmt.Errorf("bars: %w", err)
	}

	sources, err := buildSources()
	if err != nil {
		return err
	}

	simulator := sim.New(cfg.Symbol, cfg.SimConfig(), jrn, log)

	runner := &backtest.Runner{
		Feed:       feed,
		Sources:    sources,
		Aggregator: decision.New(cfg.Aggregator),
		Risk:       cfg.Risk,
		Sim:        simulator,
		Journal:    jrn,
		Log:        log,
		Options: backtest.RunnerOptions{
			CloseEnd: btCloseEnd,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running backtest: %s\n", cfg.Symbol)
	fmt.Printf("  Bars: %s\n", btBarsPath)
	if btSignalsPath != "" {
		fmt.Printf("  Signals: %s\n", btSignalsPath)
	} else {
		fmt.Printf("  Analysts: technical (SMA %d/%d, RSI %d), liquidity (vol %d)\n",
			btFast, btSlow, btRSI, btVolPeriod)
	}
	fmt.Println()

	res, err := runner.Run(ctx)
	if err != nil {
		// A canceled run still has a valid partial ledger worth reporting.
		if ctx.Err() == nil {
			return fmt.Errorf("run: %w", err)
		}
		log.Warn().Err(err).Msg("run interrupted, reporting partial results")
	}

	rep := report.Evaluate(mem.Trades(), mem.Equity(), decimal.NewFromFloat(cfg.Simulator.InitialBalance))
	report.Write(os.Stdout, rep)

	fmt.Printf("\nProcessed %d bars, %d actionable decisions, %d vetoed\n",
		res.Bars, res.Decisions, res.Vetoes)

	if btOrgPath != "" {
		run := &report.OrgRun{
			Report:   rep,
			RunID:    id.New(),
			Symbol:   cfg.Symbol,
			Dataset:  btBarsPath,
			Created:  time.Now(),
			FilePath: btOrgPath,
		}
		if err := run.WriteOrg(); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
		fmt.Printf("Org report written to %s\n", btOrgPath)
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	if btConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildJournal always includes an in-memory ledger so the report can be
// evaluated after the run, plus the configured persistent sink.
func buildJournal(jc config.JournalConfig) (journal.Journal, *journal.Memory, error) {
	mem := journal.NewMemory()

	switch jc.Type {
	case "", "none":
		return mem, mem, nil

	case "csv":
		csvJ, err := journal.NewCSV(jc.TradesFile, jc.EquityFile, jc.RejectionsFile)
		if err != nil {
			return nil, nil, err
		}
		return journal.NewTee(mem, csvJ), mem, nil

	case "sqlite":
		dbJ, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return journal.NewTee(mem, dbJ), mem, nil

	default:
		return nil, nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}

func buildSources() ([]backtest.SignalSource, error) {
	if btSignalsPath != "" {
		src, err := backtest.NewCSVSignals(btSignalsPath)
		if err != nil {
			return nil, fmt.Errorf("signals: %w", err)
		}
		return []backtest.SignalSource{src}, nil
	}

	if btFast >= btSlow {
		return nil, fmt.Errorf("fast period (%d) must be below slow period (%d)", btFast, btSlow)
	}

	return []backtest.SignalSource{
		analyst.NewTechnical(btFast, btSlow, btRSI),
		analyst.NewLiquidity(btVolPeriod),
	}, nil
}
