package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/reviewcal/internal/simulation"
	"github.com/example/reviewcal/internal/spaced_repetition"
	"github.com/example/reviewcal/pkg/models"
)

// SweepRepository handles database operations for stored sweeps
type SweepRepository struct {
	db *sqlx.DB
}

// NewSweepRepository creates a new repository instance
func NewSweepRepository(db *sqlx.DB) *SweepRepository {
	return &SweepRepository{db: db}
}

// Create inserts a run with its cells in one transaction
func (r *SweepRepository) Create(ctx context.Context, run *models.SweepRun, cells []models.SweepCell) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	query := tx.Rebind(`
		INSERT INTO sweep_runs (
			name, capacity, horizon, iterations, feed_proportion, spacing, seed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err = tx.QueryRowxContext(ctx, query,
		run.Name,
		run.Capacity,
		run.Horizon,
		run.Iterations,
		run.FeedProportion,
		run.Spacing,
		run.Seed,
		run.CreatedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to create sweep run: %w", err)
	}

	for i := range cells {
		cells[i].RunID = run.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO sweep_cells (
				run_id, row_index, col_index, feed_chance, skip_chance,
				avg_days_late, abandoned_share, trials
			) VALUES (
				:run_id, :row_index, :col_index, :feed_chance, :skip_chance,
				:avg_days_late, :abandoned_share, :trials
			)
		`, cells[i])
		if err != nil {
			return fmt.Errorf("failed to create sweep cell: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID returns a single run
func (r *SweepRepository) GetByID(ctx context.Context, id int64) (*models.SweepRun, error) {
	var run models.SweepRun
	err := r.db.GetContext(ctx, &run, r.db.Rebind(`
		SELECT id, name, capacity, horizon, iterations, feed_proportion, spacing, seed, created_at
		FROM sweep_runs
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sweep run %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep run: %w", err)
	}
	return &run, nil
}

// List returns the most recent runs first
func (r *SweepRepository) List(ctx context.Context, limit int) ([]models.SweepRun, error) {
	var runs []models.SweepRun
	err := r.db.SelectContext(ctx, &runs, r.db.Rebind(`
		SELECT id, name, capacity, horizon, iterations, feed_proportion, spacing, seed, created_at
		FROM sweep_runs
		ORDER BY id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep runs: %w", err)
	}
	return runs, nil
}

// GetCells returns the cells of a run in row-major order
func (r *SweepRepository) GetCells(ctx context.Context, runID int64) ([]models.SweepCell, error) {
	var cells []models.SweepCell
	err := r.db.SelectContext(ctx, &cells, r.db.Rebind(`
		SELECT id, run_id, row_index, col_index, feed_chance, skip_chance,
		       avg_days_late, abandoned_share, trials
		FROM sweep_cells
		WHERE run_id = ?
		ORDER BY row_index, col_index
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep cells: %w", err)
	}
	return cells, nil
}

// Delete removes a run and its cells
func (r *SweepRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sweep_runs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete sweep run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sweep run %d", ErrNotFound, id)
	}
	return nil
}

// RecordsFromSweep converts a sweep result into rows ready to be stored
func RecordsFromSweep(name string, result *simulation.SweepResult) (models.SweepRun, []models.SweepCell) {
	cfg := result.Config
	run := models.SweepRun{
		Name:           name,
		Capacity:       cfg.Capacity,
		Horizon:        cfg.Horizon,
		Iterations:     cfg.Iterations,
		FeedProportion: cfg.FeedProportion,
		Spacing:        fmt.Sprint(cfg.Policy),
		Seed:           cfg.Seed,
	}
	var cells []models.SweepCell
	for r, row := range result.Cells {
		for c, cell := range row {
			cells = append(cells, models.SweepCell{
				Row:            r,
				Col:            c,
				FeedChance:     cell.FeedChance,
				SkipChance:     cell.SkipChance,
				AvgDaysLate:    cell.AvgDaysLate,
				AbandonedShare: cell.AbandonedShare,
				Trials:         cell.Trials,
			})
		}
	}
	return run, cells
}

// SweepFromRecords rebuilds a sweep result from stored rows. The policy is
// restored when the stored spacing is a plain offset table or an sm2 policy
// with default settings.
func SweepFromRecords(run models.SweepRun, cells []models.SweepCell) *simulation.SweepResult {
	cfg := simulation.SweepConfig{
		Iterations:     run.Iterations,
		Capacity:       run.Capacity,
		Horizon:        run.Horizon,
		FeedProportion: run.FeedProportion,
		Seed:           run.Seed,
	}
	if strings.HasPrefix(run.Spacing, spaced_repetition.KindSM2) {
		cfg.Policy = spaced_repetition.NewSM2()
	} else if policy, err := spaced_repetition.ParseOffsets(run.Spacing); err == nil {
		cfg.Policy = policy
	}

	rows, cols := 0, 0
	for _, cell := range cells {
		rows = max(rows, cell.Row+1)
		cols = max(cols, cell.Col+1)
	}
	cfg.SkipChances = make([]float64, rows)
	cfg.FeedChances = make([]float64, cols)

	result := &simulation.SweepResult{Cells: make([][]simulation.Cell, rows)}
	for r := range result.Cells {
		result.Cells[r] = make([]simulation.Cell, cols)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	for _, cell := range cells {
		cfg.SkipChances[cell.Row] = cell.SkipChance
		cfg.FeedChances[cell.Col] = cell.FeedChance
		result.Cells[cell.Row][cell.Col] = simulation.Cell{
			FeedChance:     cell.FeedChance,
			SkipChance:     cell.SkipChance,
			AvgDaysLate:    cell.AvgDaysLate,
			AbandonedShare: cell.AbandonedShare,
			Trials:         cell.Trials,
		}
	}
	result.Config = cfg
	return result
}
