package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/reviewcal/internal/database"
	"github.com/example/reviewcal/internal/excel"
	"github.com/example/reviewcal/internal/report"
)

var (
	runsLimit int
	runsXLSX  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored sweeps",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sweeps, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored sweep",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored sweep",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list")
	runsShowCmd.Flags().StringVar(&runsXLSX, "xlsx", "", "Also write a color-coded workbook to this path")
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := database.NewSweepRepository(db).List(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCAPACITY\tHORIZON\tITERATIONS\tSPACING\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.ID, run.Name, run.Capacity, run.Horizon, run.Iterations, run.Spacing,
			run.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}
	if err := loadConfig(); err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := database.NewSweepRepository(db)
	run, err := repo.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	cells, err := repo.GetCells(cmd.Context(), id)
	if err != nil {
		return err
	}
	result := database.SweepFromRecords(*run, cells)

	fmt.Fprintf(cmd.OutOrStdout(), "Run %d %q, spacing %s, %d trials per cell\n", run.ID, run.Name, run.Spacing, run.Iterations)
	if err := report.WriteTable(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if runsXLSX != "" {
		return excel.ExportSweep(runsXLSX, result)
	}
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}
	if err := loadConfig(); err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewSweepRepository(db).Delete(cmd.Context(), id); err != nil {
		return err
	}
	logger.Info().Int64("run_id", id).Msg("sweep deleted")
	return nil
}
