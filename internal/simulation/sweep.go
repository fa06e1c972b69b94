package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/example/reviewcal/internal/spaced_repetition"
)

// SweepConfig describes a grid of workloads. Every (skip, feed) cell runs
// Iterations independent trials.
type SweepConfig struct {
	Iterations       int
	Capacity         int
	Horizon          int
	FeedProportion   float64
	FeedChances      []float64 // Columns
	SkipChances      []float64 // Rows
	AbandonThreshold int
	Policy           spaced_repetition.Policy
	Seed             int64
	Workers          int // zero means GOMAXPROCS
	Logger           zerolog.Logger
}

// DefaultSweepConfig returns the grid used for the reference analysis:
// 30 iterations of an 80 day run, 5 questions a day, spacing 0,1,2,5,8,14.
func DefaultSweepConfig() SweepConfig {
	policy, _ := spaced_repetition.NewStatic(0, 1, 2, 5, 8, 14)
	return SweepConfig{
		Iterations:       30,
		Capacity:         5,
		Horizon:          80,
		FeedProportion:   0.4,
		FeedChances:      Range(0.1, 0.8, 0.1),
		SkipChances:      Range(0, 0.5, 0.05),
		AbandonThreshold: DefaultAbandonThreshold,
		Policy:           policy,
		Logger:           zerolog.Nop(),
	}
}

// Range returns start, start+step, ... up to and including stop.
func Range(start, stop, step float64) []float64 {
	if step <= 0 || stop < start {
		return []float64{start}
	}
	n := int(math.Round((stop-start)/step)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round((start+float64(i)*step)*1e9) / 1e9
	}
	return out
}

// Cell is the average outcome of one grid point.
type Cell struct {
	FeedChance     float64
	SkipChance     float64
	AvgDaysLate    float64
	AbandonedShare float64
	Trials         int
}

// SweepResult holds cells indexed [skip row][feed column].
type SweepResult struct {
	Config SweepConfig
	Cells  [][]Cell
}

// Sweep runs the whole grid. Trials run in parallel, each on its own calendar
// with its own id counter and a seed derived from (Seed, row, col, trial), so
// the result does not depend on the number of workers.
func Sweep(ctx context.Context, cfg SweepConfig) (*SweepResult, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("%w: iterations %d", ErrInvalidConfig, cfg.Iterations)
	}
	if len(cfg.FeedChances) == 0 || len(cfg.SkipChances) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidConfig)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows, cols := len(cfg.SkipChances), len(cfg.FeedChances)
	trials := make([][][]TrialResult, rows)
	for r := range trials {
		trials[r] = make([][]TrialResult, cols)
		for c := range trials[r] {
			trials[r][c] = make([]TrialResult, cfg.Iterations)
		}
	}

	configs := make([][]TrialConfig, rows)
	for r, skip := range cfg.SkipChances {
		configs[r] = make([]TrialConfig, cols)
		for c, feed := range cfg.FeedChances {
			tc := TrialConfig{
				Capacity:         cfg.Capacity,
				Horizon:          cfg.Horizon,
				FeedChance:       feed,
				FeedProportion:   cfg.FeedProportion,
				SkipChance:       skip,
				AbandonThreshold: cfg.AbandonThreshold,
				Policy:           cfg.Policy,
			}
			if err := tc.Validate(); err != nil {
				return nil, err
			}
			configs[r][c] = tc
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for r := range configs {
		for c, tc := range configs[r] {
			for i := 0; i < cfg.Iterations; i++ {
				r, c, tc, i := r, c, tc, i
				seed := trialSeed(cfg.Seed, (r*cols+c)*cfg.Iterations+i)
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					res, err := RunTrial(tc, rand.New(rand.NewSource(seed)))
					if err != nil {
						return fmt.Errorf("trial skip=%v feed=%v #%d: %w", tc.SkipChance, tc.FeedChance, i, err)
					}
					trials[r][c][i] = res
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SweepResult{Config: cfg, Cells: make([][]Cell, rows)}
	for r := range trials {
		result.Cells[r] = make([]Cell, cols)
		for c := range trials[r] {
			cell := average(trials[r][c])
			cell.SkipChance = cfg.SkipChances[r]
			cell.FeedChance = cfg.FeedChances[c]
			result.Cells[r][c] = cell
			cfg.Logger.Debug().
				Float64("skip", cell.SkipChance).
				Float64("feed", cell.FeedChance).
				Float64("avg_days_late", cell.AvgDaysLate).
				Float64("abandoned_share", cell.AbandonedShare).
				Msg("sweep cell")
		}
	}
	return result, nil
}

func average(results []TrialResult) Cell {
	var cell Cell
	for _, res := range results {
		cell.AvgDaysLate += res.AvgDaysLate
		cell.AbandonedShare += res.AbandonedShare
	}
	cell.Trials = len(results)
	if cell.Trials > 0 {
		cell.AvgDaysLate /= float64(cell.Trials)
		cell.AbandonedShare /= float64(cell.Trials)
	}
	return cell
}

// trialSeed mixes the sweep seed with a trial index (splitmix64 finalizer).
func trialSeed(seed int64, index int) int64 {
	z := uint64(seed) + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
