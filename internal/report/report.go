// Package report renders sweep results as a lateness/retention table.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/example/reviewcal/internal/simulation"
)

// LatenessScale is the average lateness (days) rendered as full red.
const LatenessScale = 20.0

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Red is the end color of the lateness gradient.
var Red = RGB{R: 255}

// Hex returns the color as RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Gradient interpolates from white to end; factor is clamped to [0, 1].
func Gradient(end RGB, factor float64) RGB {
	factor = math.Max(0, math.Min(1, factor))
	lerp := func(to uint8) uint8 {
		v := 255 + (float64(to)-255)*factor
		return uint8(math.Max(0, math.Min(255, v)))
	}
	return RGB{R: lerp(end.R), G: lerp(end.G), B: lerp(end.B)}
}

// CellColor is the background for a cell with the given average lateness.
func CellColor(cell simulation.Cell) RGB {
	return Gradient(Red, cell.AvgDaysLate/LatenessScale)
}

// FormatCell renders "2.31d, 87%": average days late and the share of
// questions that were not abandoned.
func FormatCell(cell simulation.Cell) string {
	return fmt.Sprintf("%.2fd, %s", cell.AvgDaysLate, Percent(1-cell.AbandonedShare))
}

// Percent formats a share with no decimals.
func Percent(share float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(share*100)))
}

// AxisLabel labels the index-th value of an axis. The first value carries
// the axis name, e.g. "F: 10%", the others only the percentage.
func AxisLabel(axis string, index int, chance float64) string {
	if index == 0 {
		return axis + ": " + Percent(chance)
	}
	return Percent(chance)
}

// Title describes the sweep in one line.
func Title(cfg simulation.SweepConfig) string {
	return fmt.Sprintf("(%d day trial) Average days late, with avg. %.2f questions/lesson of %d/day",
		cfg.Horizon, cfg.FeedProportion*float64(cfg.Capacity), cfg.Capacity)
}

// WriteTable writes the result as an aligned text table: one row per skip
// chance, one column per feed chance.
func WriteTable(w io.Writer, result *simulation.SweepResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, Title(result.Config)); err != nil {
		return err
	}

	header := ""
	for c, feed := range result.Config.FeedChances {
		header += "\t" + AxisLabel("F", c, feed)
	}
	if _, err := fmt.Fprintln(tw, header); err != nil {
		return err
	}

	for r, row := range result.Cells {
		line := AxisLabel("S", r, result.Config.SkipChances[r])
		for _, cell := range row {
			line += "\t" + FormatCell(cell)
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	return tw.Flush()
}
