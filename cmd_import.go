package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/reviewcal/internal/database"
	"github.com/example/reviewcal/internal/excel"
)

var importConfig = excel.DefaultImportConfig()

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the curriculum for a live session",
	Long: `Import questions grouped by lesson from an xlsx or csv file.

In a workbook, one column holds the question and another the lesson number
or name. In a csv file, a row whose first cell starts with "#" opens a new
named lesson; otherwise the second column names the lesson.

Examples:
  reviewcal import --file words.xlsx
  reviewcal import --file words.xlsx --sheet Verbs --label-col C --lesson-col A
  reviewcal import --file words.csv
`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importConfig.FilePath, "file", "f", "", "Path to the xlsx or csv file")
	importCmd.Flags().StringVar(&importConfig.SheetName, "sheet", importConfig.SheetName, "Sheet to read from a workbook")
	importCmd.Flags().StringVar(&importConfig.LabelColumn, "label-col", importConfig.LabelColumn, "Column holding the question")
	importCmd.Flags().StringVar(&importConfig.LessonColumn, "lesson-col", importConfig.LessonColumn, "Column holding the lesson")
	importCmd.Flags().IntVar(&importConfig.StartRow, "start-row", importConfig.StartRow, "First data row of a workbook (1-based)")
	importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	result, err := excel.ImportItems(importConfig)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		logger.Warn().Str("file", importConfig.FilePath).Msg(msg)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := database.NewItemRepository(db).SaveLessons(cmd.Context(), result.Lessons)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Processed %d rows: %d questions in %d lessons, %d skipped, %d new in the database\n",
		result.TotalProcessed, result.Created, result.LessonsCreated, result.Skipped, stored)
	return nil
}
