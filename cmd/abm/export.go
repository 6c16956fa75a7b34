package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bitcoin-abm/src/client"
	"bitcoin-abm/src/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Snapshot the current server state into a local artifact",
	Long: `Pull the committed simulation state from the server and write it to
a local file. The format follows the file extension: .csv produces a flat
one-row table, anything else produces the JSON document.

The artifact is a disposable projection for notebooks and reports; it is
never read back by the simulator.

Examples:
  abm export state.json
  abm export run42.csv`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func runExport(_ *cobra.Command, args []string) {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	sess := client.NewSession(cfg.MConfig)
	if err := sess.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot reach server at %s: %v\n", cfg.Client.ServerURL, err)
		os.Exit(1)
	}
	defer sess.Close()

	if err := sess.Refresh(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch state: %v\n", err)
		os.Exit(1)
	}

	doc := export.BuildDocument(sess.ActiveScenario(), sess.CurrentState())

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.WriteCSV(path, doc)
	default:
		err = export.WriteJSON(path, doc)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported step %d to %s\n", doc.State.Step, path)
}
