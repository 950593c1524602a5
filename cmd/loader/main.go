package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"climate-api/internal/config"
	"climate-api/internal/repository"
	"climate-api/internal/services"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

const maxPrintedErrors = 10

var cli struct {
	Stations     string `default:"Resources/hawaii_stations.csv" type:"existingfile" help:"Station CSV (station,name,latitude,longitude,elevation)."`
	Measurements string `default:"Resources/hawaii_measurements.csv" type:"existingfile" help:"Measurement CSV (station,date,prcp,tobs)."`
	BatchSize    int    `default:"1000" help:"Rows per insert transaction."`
	Replace      bool   `help:"Delete existing measurements before loading."`
	Migrate      bool   `help:"Apply the schema before loading."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("loader"),
		kong.Description("Load the station and measurement CSV files into the dataset."),
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

	logger := cfg.Logger("climate-loader", "1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[LOADER_START] Starting dataset load", logging.Fields{
		"stations_file":     cli.Stations,
		"measurements_file": cli.Measurements,
		"batch_size":        cli.BatchSize,
		"replace":           cli.Replace,
	})

	metricsCollector := metrics.NewCollector("climate_loader", prometheus.NewRegistry())

	db, err := database.Open(ctx, cfg.DatabaseSettings(false), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[LOADER_ERROR] Failed to open database", logging.Fields{}, err)
	}
	defer db.Close()

	if cli.Migrate {
		if err := db.Migrate(ctx, database.Up); err != nil {
			db.Close()
			logger.Fatal(ctx, "[LOADER_ERROR] Schema migration failed", logging.Fields{}, err)
		}
	}

	repo := repository.NewClimateRepository(db, logger, metricsCollector)
	loader := services.NewLoaderService(repo, logger, metricsCollector, clockwork.NewRealClock())

	result, err := loader.Load(ctx, services.LoadOptions{
		StationsFile:     cli.Stations,
		MeasurementsFile: cli.Measurements,
		BatchSize:        cli.BatchSize,
		Replace:          cli.Replace,
	})
	if err != nil {
		db.Close()
		logger.Fatal(ctx, "[LOADER_ERROR] Load failed", logging.Fields{}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("LOAD COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Records:       %d\n", result.TotalRecords)
	fmt.Printf("Stations Loaded:     %d\n", result.StationsLoaded)
	fmt.Printf("Measurements Loaded: %d\n", result.MeasurementsLoaded)
	fmt.Printf("Measurements Deleted: %d\n", result.Deleted)
	fmt.Printf("Failed Records:      %d\n", result.FailedRecords)
	fmt.Printf("Duration:            %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d shown of %d failed):\n", min(len(result.Errors), maxPrintedErrors), result.FailedRecords)
		for _, msg := range result.Errors[:min(len(result.Errors), maxPrintedErrors)] {
			fmt.Printf("  - %s\n", msg)
		}
	}

	logger.Info(ctx, "[LOADER_COMPLETE] Dataset load finished", logging.Fields{
		"total_records":       result.TotalRecords,
		"stations_loaded":     result.StationsLoaded,
		"measurements_loaded": result.MeasurementsLoaded,
		"failed_records":      result.FailedRecords,
		"duration_seconds":    result.Duration.Seconds(),
	})
}
