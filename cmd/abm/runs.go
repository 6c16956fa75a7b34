package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bitcoin-abm/src/interfaces"
	"bitcoin-abm/src/storage"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List runs persisted by the server",
	Long: `List the most recent simulation runs recorded in the configured run
store, newest first. Each reset starts a new run; stepped snapshots are
appended to it.

Examples:
  abm runs
  abm runs --limit 5`,
	Run: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum runs to list (0 = all)")
}

func runRuns(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Storage.Enabled {
		fmt.Println("Note: storage is disabled in the config; the server is not recording new runs.")
	}

	var store interfaces.IRunStore
	switch cfg.Storage.DBType {
	case "postgres":
		pg, err := storage.NewPostgresRunStore(cfg.MConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open run store: %v\n", err)
			os.Exit(1)
		}
		store = pg
	default:
		store = storage.NewSQLiteRunStore(cfg.MConfig)
	}
	if err := store.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(flagRunsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	fmt.Printf("  %-36s  %-18s  %-19s  %s\n", "RUN", "SCENARIO", "STARTED", "SNAPSHOTS")
	for _, run := range runs {
		fmt.Printf("  %-36s  %-18s  %-19s  %d\n",
			run.ID,
			run.ScenarioID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Snapshots,
		)
	}
}
