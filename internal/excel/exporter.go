package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/example/reviewcal/internal/report"
	"github.com/example/reviewcal/internal/simulation"
)

const (
	sweepSheet = "Sweep"
	rawSheet   = "Raw"
)

// ExportSweep writes result to an xlsx file: a color-coded grid on the
// "Sweep" sheet and one line per cell on the "Raw" sheet.
func ExportSweep(path string, result *simulation.SweepResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sweepSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeGrid(f, result); err != nil {
		return err
	}
	if err := writeRaw(f, result); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeGrid(f *excelize.File, result *simulation.SweepResult) error {
	cfg := result.Config
	if err := f.SetCellValue(sweepSheet, "A1", report.Title(cfg)); err != nil {
		return err
	}

	// Feed chances across row 2, skip chances down column A.
	for c, feed := range cfg.FeedChances {
		if err := setCell(f, c+2, 2, report.AxisLabel("F", c, feed)); err != nil {
			return err
		}
	}
	for r, skip := range cfg.SkipChances {
		if err := setCell(f, 1, r+3, report.AxisLabel("S", r, skip)); err != nil {
			return err
		}
	}

	styles := make(map[string]int)
	for r, row := range result.Cells {
		for c, cell := range row {
			name, err := excelize.CoordinatesToCellName(c+2, r+3)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sweepSheet, name, report.FormatCell(cell)); err != nil {
				return err
			}
			hex := report.CellColor(cell).Hex()
			style, ok := styles[hex]
			if !ok {
				style, err = f.NewStyle(&excelize.Style{
					Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
				})
				if err != nil {
					return fmt.Errorf("failed to create style: %w", err)
				}
				styles[hex] = style
			}
			if err := f.SetCellStyle(sweepSheet, name, name, style); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sweepSheet, "B", columnName(len(cfg.FeedChances)+1), 14)
}

func writeRaw(f *excelize.File, result *simulation.SweepResult) error {
	if _, err := f.NewSheet(rawSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	header := []interface{}{"feed_chance", "skip_chance", "avg_days_late", "abandoned_share", "trials"}
	if err := f.SetSheetRow(rawSheet, "A1", &header); err != nil {
		return err
	}
	line := 2
	for _, row := range result.Cells {
		for _, cell := range row {
			values := []interface{}{cell.FeedChance, cell.SkipChance, cell.AvgDaysLate, cell.AbandonedShare, cell.Trials}
			if err := f.SetSheetRow(rawSheet, fmt.Sprintf("A%d", line), &values); err != nil {
				return err
			}
			line++
		}
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sweepSheet, name, value)
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "B"
	}
	return name
}
