package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bitcoin-abm/src/engine"
	"bitcoin-abm/src/interfaces"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/scenarios"
	"bitcoin-abm/src/server"
	"bitcoin-abm/src/storage"
	"bitcoin-abm/src/structure"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulation server",
	Long: `Start the simulation server backing the dashboard.

The server owns a single shared engine: every connected client steps and
resets the same simulation, and every committed state is broadcast to all
websocket clients. Run persistence is optional and controlled by the
storage section of the config.

Examples:
  abm serve
  abm serve --config config.yaml
  abm serve --debug`,
	Run: runServe,
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.Name)

	var store interfaces.IRunStore
	if cfg.Storage.Enabled {
		switch cfg.Storage.DBType {
		case "postgres":
			pg, err := storage.NewPostgresRunStore(cfg.MConfig)
			if err != nil {
				appLogger.Critical("Failed to init run store: %v", err)
			}
			store = pg
		default:
			store = storage.NewSQLiteRunStore(cfg.MConfig)
		}
		if err := store.Initialize(); err != nil {
			appLogger.Critical("Failed to migrate run store: %v", err)
		}
	}

	sim := engine.NewEngine(cfg.Engine)
	registry := scenarios.NewRegistry()
	loader := structure.NewLoader(cfg.Structure.ModelPath)
	srv := server.NewServer(cfg.MConfig, sim, registry, loader, store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		if err := srv.Stop(); err != nil {
			appLogger.Error("Shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	appLogger.Info("Serving on %s:%d", cfg.Host, cfg.Port)
	if err := srv.Start(); err != nil {
		appLogger.Critical("Server failed: %v", err)
	}
}
