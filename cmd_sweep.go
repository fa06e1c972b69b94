package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reviewcal/internal/config"
	"github.com/example/reviewcal/internal/database"
	"github.com/example/reviewcal/internal/excel"
	"github.com/example/reviewcal/internal/report"
	"github.com/example/reviewcal/internal/simulation"
)

var (
	sweepConfigPath string
	sweepXLSX       string
	sweepSave       bool
	sweepName       string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Simulate a grid of workloads and report lateness",
	Long: `Run repeated simulated trials for every combination of feed chance
(probability a lesson is published on a day) and skip chance (share of a
day's questions pushed to the next day), then print the average days late
and the share of questions kept.

Examples:
  # Reference grid: 30 trials of 80 days, capacity 5
  reviewcal sweep

  # Custom grid, exported and stored
  reviewcal sweep --config sweep.yaml --xlsx sweep.xlsx --save --name baseline
`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "c", "", "YAML sweep definition (defaults to the reference grid)")
	sweepCmd.Flags().StringVar(&sweepXLSX, "xlsx", "", "Write a color-coded workbook to this path")
	sweepCmd.Flags().BoolVar(&sweepSave, "save", false, "Store the result in the database")
	sweepCmd.Flags().StringVar(&sweepName, "name", "", "Name of the stored run (defaults to the file's name)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	sf, err := config.LoadSweep(sweepConfigPath)
	if err != nil {
		return err
	}
	if sweepName != "" {
		sf.Name = sweepName
	}
	sweepCfg, err := sf.SweepConfig()
	if err != nil {
		return fmt.Errorf("sweep config: %w", err)
	}
	sweepCfg.Logger = logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	logger.Info().
		Int("feed_values", len(sweepCfg.FeedChances)).
		Int("skip_values", len(sweepCfg.SkipChances)).
		Int("iterations", sweepCfg.Iterations).
		Msg("sweep started")
	result, err := simulation.Sweep(ctx, sweepCfg)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logger.Info().Dur("elapsed", time.Since(started)).Msg("sweep finished")

	if err := report.WriteTable(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if sweepXLSX != "" {
		if err := excel.ExportSweep(sweepXLSX, result); err != nil {
			return err
		}
		logger.Info().Str("path", sweepXLSX).Msg("workbook written")
	}

	if sweepSave {
		if err := saveSweep(ctx, sf.Name, result); err != nil {
			return err
		}
	}
	return nil
}

func saveSweep(ctx context.Context, name string, result *simulation.SweepResult) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	run, cells := database.RecordsFromSweep(name, result)
	if err := database.NewSweepRepository(db).Create(ctx, &run, cells); err != nil {
		return err
	}
	logger.Info().Int64("run_id", run.ID).Str("name", run.Name).Msg("sweep stored")
	return nil
}
