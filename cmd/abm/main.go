// abm is an agent-based Bitcoin network simulator with a real-time dashboard
// backend.
//
// Usage:
//
//	abm serve               - Start the simulation server
//	abm watch               - Attach to a server and run the simulation live
//	abm scenarios           - List the built-in scenarios
//	abm export <path>       - Snapshot the server state into a JSON/CSV artifact
//	abm runs                - List persisted runs
//	abm demo                - Run every scenario headless and print a comparison
//
// Global flags:
//
//	--config <path>  - Path to a YAML config file (built-in defaults if omitted)
//	--debug          - Enable debug logging
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bitcoin-abm/src/config"
	"bitcoin-abm/src/logger"
)

var (
	flagConfig string
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "abm",
	Short: "Agent-based Bitcoin network simulator",
	Long: `abm simulates a simplified Bitcoin network (miners, users, protocol
governance) as an educational agent-based model and serves it to dashboard
clients over websocket and HTTP.

Available commands:
  serve      - Start the simulation server
  watch      - Attach a live client session and drive the simulation
  scenarios  - List the built-in scenarios
  export     - Snapshot the current server state to JSON or CSV
  runs       - List runs persisted by the server
  demo       - Run every scenario headless and print a comparison

Examples:
  abm serve --config config.yaml
  abm watch --scenario fee_spike --duration 30s
  abm export state.json
  abm demo --steps 200`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(demoCmd)
}

// loadConfig resolves the effective configuration for every subcommand.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig == "" {
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.NewConfig(flagConfig)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if flagDebug {
		cfg.Debug = true
	}
	logger.SetDebug(cfg.Debug)
	return cfg, nil
}
