package simulation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/example/reviewcal/internal/calendar"
	"github.com/example/reviewcal/internal/spaced_repetition"
)

func defaultPolicy(t *testing.T) spaced_repetition.Policy {
	t.Helper()
	p, err := spaced_repetition.NewStatic(0, 1, 2, 5, 8, 14)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return p
}

func TestThresholdResolverNeverAbandonsBelowThreshold(t *testing.T) {
	r := &ThresholdResolver{Threshold: 14, Rand: rand.New(rand.NewSource(1))}
	for late := -5; late <= 14; late++ {
		for i := 0; i < 50; i++ {
			if got := r.Resolve(calendar.Occurrence{}, 0, late); got != calendar.Delay {
				t.Fatalf("daysLate %d: got %v, want delay", late, got)
			}
		}
	}
}

func TestThresholdResolverAbandonsVeryLate(t *testing.T) {
	r := &ThresholdResolver{Rand: rand.New(rand.NewSource(1))}
	abandoned := 0
	for i := 0; i < 1000; i++ {
		if r.Resolve(calendar.Occurrence{}, 0, 200) == calendar.Abandon {
			abandoned++
		}
	}
	// (200-14)/14 ~ 13.3, so rand must exceed ~0.04.
	if abandoned < 900 {
		t.Errorf("abandoned %d of 1000 at 200 days late, want > 900", abandoned)
	}
}

func TestRange(t *testing.T) {
	got := Range(0, 0.5, 0.05)
	if len(got) != 11 {
		t.Fatalf("len = %d, want 11: %v", len(got), got)
	}
	if got[10] != 0.5 || got[3] != 0.15 {
		t.Errorf("Range values drifted: %v", got)
	}
	if got := Range(0.1, 0.8, 0.1); len(got) != 8 {
		t.Errorf("feed range len = %d, want 8", len(got))
	}
	if got := Range(1, 0, 0.1); len(got) != 1 || got[0] != 1 {
		t.Errorf("inverted range = %v, want [1]", got)
	}
}

func TestTrialConfigValidate(t *testing.T) {
	base := TrialConfig{Capacity: 5, Horizon: 10, FeedChance: 0.5, FeedProportion: 0.4, Policy: defaultPolicy(t)}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*TrialConfig)
	}{
		{"capacity", func(c *TrialConfig) { c.Capacity = 0 }},
		{"horizon", func(c *TrialConfig) { c.Horizon = -1 }},
		{"feed", func(c *TrialConfig) { c.FeedChance = 1.5 }},
		{"proportion", func(c *TrialConfig) { c.FeedProportion = -0.1 }},
		{"skip", func(c *TrialConfig) { c.SkipChance = 2 }},
		{"policy", func(c *TrialConfig) { c.Policy = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRunTrialNoFeed(t *testing.T) {
	res, err := RunTrial(TrialConfig{
		Capacity: 5, Horizon: 20, FeedChance: 0, FeedProportion: 0.4, SkipChance: 0.5,
		Policy: defaultPolicy(t),
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	if res.Inserted != 0 || res.Served != 0 {
		t.Errorf("got %+v, want an empty trial", res)
	}
	if math.IsNaN(res.AvgDaysLate) || math.IsNaN(res.AbandonedShare) {
		t.Error("empty trial produced NaN")
	}
}

func TestRunTrialConservation(t *testing.T) {
	res, err := RunTrial(TrialConfig{
		Capacity: 5, Horizon: 80, FeedChance: 0.8, FeedProportion: 0.4, SkipChance: 0.5,
		AbandonThreshold: 14, Policy: defaultPolicy(t),
	}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	if res.Inserted == 0 {
		t.Fatal("expected some questions to be posted")
	}
	if res.Inserted != res.Abandoned+res.Served {
		t.Errorf("inserted %d != abandoned %d + served %d", res.Inserted, res.Abandoned, res.Served)
	}
	if res.AbandonedShare < 0 || res.AbandonedShare > 1 {
		t.Errorf("abandoned share %v out of range", res.AbandonedShare)
	}
}

func TestRunTrialDeterministic(t *testing.T) {
	cfg := TrialConfig{
		Capacity: 3, Horizon: 40, FeedChance: 0.6, FeedProportion: 0.5, SkipChance: 0.3,
		Policy: defaultPolicy(t),
	}
	a, err := RunTrial(cfg, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	b, err := RunTrial(cfg, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	if a != b {
		t.Errorf("same seed produced %+v and %+v", a, b)
	}
}

func smallSweep(t *testing.T, workers int) SweepConfig {
	cfg := DefaultSweepConfig()
	cfg.Iterations = 3
	cfg.Horizon = 30
	cfg.FeedChances = []float64{0.2, 0.6}
	cfg.SkipChances = []float64{0, 0.3, 0.5}
	cfg.Seed = 42
	cfg.Workers = workers
	return cfg
}

func TestSweepIndependentOfWorkers(t *testing.T) {
	serial, err := Sweep(context.Background(), smallSweep(t, 1))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	parallel, err := Sweep(context.Background(), smallSweep(t, 8))
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(serial.Cells) != 3 || len(serial.Cells[0]) != 2 {
		t.Fatalf("grid shape = %dx%d, want 3x2", len(serial.Cells), len(serial.Cells[0]))
	}
	for r := range serial.Cells {
		for c := range serial.Cells[r] {
			if serial.Cells[r][c] != parallel.Cells[r][c] {
				t.Errorf("cell [%d][%d]: %+v vs %+v", r, c, serial.Cells[r][c], parallel.Cells[r][c])
			}
		}
	}
	cell := serial.Cells[2][1]
	if cell.SkipChance != 0.5 || cell.FeedChance != 0.6 || cell.Trials != 3 {
		t.Errorf("cell labels = %+v", cell)
	}
}

func TestSweepRejectsBadConfig(t *testing.T) {
	cfg := smallSweep(t, 1)
	cfg.Iterations = 0
	if _, err := Sweep(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("iterations 0: error = %v, want ErrInvalidConfig", err)
	}
	cfg = smallSweep(t, 1)
	cfg.SkipChances = []float64{1.5}
	if _, err := Sweep(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("skip 1.5: error = %v, want ErrInvalidConfig", err)
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sweep(ctx, smallSweep(t, 2)); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
