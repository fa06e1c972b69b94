package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/reviewcal/internal/config"
	"github.com/example/reviewcal/internal/database"
	"github.com/example/reviewcal/internal/logging"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reviewcal",
	Short: "Spaced repetition review calendar",
	Long: "reviewcal schedules spaced repetition reviews under a daily capacity, " +
		"simulates workloads to measure lateness and abandonment, and runs a live study session.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.Setup(cfg.Environment)
	return nil
}

// openDatabase connects to the configured store (used by import, runs, serve and sweep --save)
func openDatabase() (*sqlx.DB, error) {
	db, err := database.Connect(database.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("driver", cfg.DBDriver).Msg("database connected")
	return db, nil
}
