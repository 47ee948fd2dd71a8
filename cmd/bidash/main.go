// bidash - Business data sync CLI
//
// Pulls datasets from HubSpot, AWS Athena, and PostHog into local DuckDB
// caches that dashboards query offline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlighty/bi-agent-dashboard/internal/audit"
	"github.com/mlighty/bi-agent-dashboard/internal/cli"
	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Load config and open the audit store for the persistent tracking ID
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	paths := config.GetPaths(cfg)
	if err := log.Init(paths.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Close()
	}()

	store, err := audit.New(audit.DefaultConfig(paths.AuditDB))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open audit store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	telemetryClient := telemetry.New(store)
	defer telemetryClient.Close()

	if err := cli.Execute(ctx, telemetryClient); err != nil {
		os.Exit(1)
	}
}
