package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bitcoin-abm/src/analysis"
	"bitcoin-abm/src/client"
	"bitcoin-abm/src/driver"
	"bitcoin-abm/src/models"
)

var (
	flagWatchScenario string
	flagWatchDuration time.Duration
	flagWatchRefresh  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Attach to a server and run the simulation live",
	Long: `Attach a client session to a running server, start the continuous
run cadence and print a live summary of the simulated network.

The session prefers the websocket and falls back to plain HTTP when it is
unavailable; transport loss and rejected intents show up in the output
instead of killing the watch.

Examples:
  abm watch
  abm watch --scenario fee_spike
  abm watch --scenario hash_war --duration 30s`,
	Run: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagWatchScenario, "scenario", "", "Reset to this scenario before running")
	watchCmd.Flags().DurationVar(&flagWatchDuration, "duration", 0, "Stop after this long (0 = run until interrupted)")
	watchCmd.Flags().DurationVar(&flagWatchRefresh, "refresh", time.Second, "Summary refresh interval")
}

func runWatch(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	sess := client.NewSession(cfg.MConfig)
	sess.OnError = func(msg string) {
		if msg != "" {
			fmt.Printf("! intent rejected: %s\n", msg)
		}
	}
	sess.OnStatus = func(st client.Status) {
		fmt.Printf("* session %s\n", st)
	}
	sess.OnScenario = func(scn models.MScenario) {
		fmt.Printf("* scenario: %s (%s)\n", scn.Name, scn.ID)
		if scn.Hypothesis != "" {
			fmt.Printf("  hypothesis: %s\n", scn.Hypothesis)
		}
	}

	if err := sess.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach server at %s: %v\n", cfg.Client.ServerURL, err)
		os.Exit(1)
	}
	defer sess.Close()

	if flagWatchScenario != "" {
		if err := sess.ResetScenario(flagWatchScenario); err != nil {
			fmt.Fprintf(os.Stderr, "Scenario reset failed: %v\n", err)
			os.Exit(1)
		}
	}

	drv := driver.NewDriver(cfg.Driver, sess)
	drv.OnTransition = sess.SetRunning
	drv.Start()
	defer drv.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var deadline <-chan time.Time
	if flagWatchDuration > 0 {
		deadline = time.After(flagWatchDuration)
	}

	ticker := time.NewTicker(flagWatchRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println()
			printSummary(sess, drv)
			return
		case <-deadline:
			printSummary(sess, drv)
			return
		case <-ticker.C:
			printStateLine(sess)
		}
	}
}

// -----------------------------------------------------------------------------

func printStateLine(sess *client.Session) {
	state := sess.CurrentState()
	window := sess.Window()

	line := fmt.Sprintf("step %5d | height %4d | hashrate %7.1f | mempool %6d | fee %6.2f",
		state.Step,
		state.Metrics.BlockHeight,
		state.Metrics.Hashrate,
		state.Metrics.MempoolSize,
		state.Metrics.AvgFee,
	)

	if delta, pct, ok := window.Trend(models.MetricMempoolSize); ok {
		line += fmt.Sprintf(" | mempool Δ%+.0f (%+.1f%%)", delta, pct*100)
	}

	mempool := window.Series(models.MetricMempoolSize)
	fees := window.Series(models.MetricAvgFee)
	if corr := analysis.CalculateCorrelation(mempool, fees); corr != 0 {
		line += fmt.Sprintf(" | corr(mempool,fee) %+.2f", corr)
	}

	hashStats := window.Stats(models.MetricHashrate)
	if z := analysis.CalculateZScore(state.Metrics.Hashrate, hashStats.Mean, hashStats.Std); z > 3 || z < -3 {
		line += fmt.Sprintf(" | hashrate anomaly z=%+.1f", z)
	}

	fmt.Println(line)
}

func printSummary(sess *client.Session, drv *driver.Driver) {
	drv.Stop()
	state := sess.CurrentState()

	fmt.Println("--- run summary ---")
	if scn := sess.ActiveScenario(); scn != nil {
		fmt.Printf("scenario:   %s (%s)\n", scn.Name, scn.ID)
	}
	fmt.Printf("steps:      %d\n", state.Step)
	fmt.Printf("blocks:     %d\n", state.Activity.BlocksMined)
	fmt.Printf("txs:        %d\n", state.Activity.TransactionsProcessed)
	fmt.Printf("bips:       %d\n", state.Activity.BipsProposed)
	fmt.Printf("difficulty: %.3f\n", state.Metrics.Difficulty)
	if skipped := drv.SkippedTicks(); skipped > 0 {
		fmt.Printf("ticks dropped under backpressure: %d\n", skipped)
	}
}
