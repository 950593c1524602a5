package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"climate-api/internal/config"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

var cli struct {
	Direction string `arg:"" optional:"" default:"up" enum:"up,down" help:"Migration direction (up or down)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("migrate"),
		kong.Description("Apply or roll back the station and measurement schema."),
		kong.UsageOnError(),
	)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger("climate-migrate", "1.0.0")
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DatabaseSettings(false), logger, metrics.NewCollector("climate_migrate", prometheus.NewRegistry()))
	if err != nil {
		logger.Fatal(ctx, "[MIGRATE_ERROR] Failed to open database", logging.Fields{}, err)
	}
	defer db.Close()

	if err := db.Migrate(ctx, database.Direction(cli.Direction)); err != nil {
		logger.Error(ctx, "[MIGRATE_ERROR] Migration failed", logging.Fields{
			"direction": cli.Direction,
		}, err)
		db.Close()
		os.Exit(1)
	}

	fmt.Printf("Migration %s completed successfully\n", cli.Direction)
}
