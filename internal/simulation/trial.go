package simulation

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/example/reviewcal/internal/calendar"
	"github.com/example/reviewcal/internal/spaced_repetition"
	"github.com/example/reviewcal/pkg/models"
)

// ErrInvalidConfig is returned for out-of-range workload parameters.
var ErrInvalidConfig = errors.New("simulation: invalid config")

// TrialConfig describes one synthetic workload.
type TrialConfig struct {
	Capacity         int     // Max questions asked per day
	Horizon          int     // Days simulated; also the calendar horizon
	FeedChance       float64 // Chance a lesson is posted on a given day
	FeedProportion   float64 // Chance each of Capacity question slots is filled in a lesson
	SkipChance       float64 // Scales how many of a day's questions are kept when skipping
	AbandonThreshold int
	Policy           spaced_repetition.Policy
}

// Validate checks ranges.
func (c TrialConfig) Validate() error {
	switch {
	case c.Capacity < 1:
		return fmt.Errorf("%w: capacity %d", ErrInvalidConfig, c.Capacity)
	case c.Horizon < 0:
		return fmt.Errorf("%w: horizon %d", ErrInvalidConfig, c.Horizon)
	case !isChance(c.FeedChance):
		return fmt.Errorf("%w: feed chance %v", ErrInvalidConfig, c.FeedChance)
	case !isChance(c.FeedProportion):
		return fmt.Errorf("%w: feed proportion %v", ErrInvalidConfig, c.FeedProportion)
	case !isChance(c.SkipChance):
		return fmt.Errorf("%w: skip chance %v", ErrInvalidConfig, c.SkipChance)
	case c.Policy == nil:
		return fmt.Errorf("%w: no spacing policy", ErrInvalidConfig)
	}
	return nil
}

func isChance(p float64) bool {
	return p >= 0 && p <= 1
}

// TrialResult summarises a finished trial.
type TrialResult struct {
	Inserted       int
	Abandoned      int
	Served         int // Occurrences still on the calendar, i.e. eventually asked
	TotalDaysLate  int
	AvgDaysLate    float64
	AbandonedShare float64
	LastDate       models.TimePoint
}

// RunTrial simulates cfg.Horizon days on a fresh calendar driven by rng.
func RunTrial(cfg TrialConfig, rng *rand.Rand) (TrialResult, error) {
	if err := cfg.Validate(); err != nil {
		return TrialResult{}, err
	}
	ids := models.NewIDCounter(0)
	resolver := &ThresholdResolver{Threshold: cfg.AbandonThreshold, Rand: rng}
	cal, err := calendar.New(cfg.Capacity, models.TimePoint(cfg.Horizon), resolver)
	if err != nil {
		return TrialResult{}, err
	}

	for day := 0; day < cfg.Horizon; day++ {
		date := models.TimePoint(day)
		if rng.Float64() < cfg.FeedChance {
			for q := 0; q < cfg.Capacity; q++ {
				if rng.Float64() < cfg.FeedProportion {
					item := ids.NewItem(fmt.Sprintf("Q%d.%d", day, q), day)
					cal.InsertSequence(item, date, cfg.Policy)
				}
			}
		}

		count := cal.CountOn(date)
		keep := int(rng.Float64() * cfg.SkipChance * float64(count))
		if keep > 0 {
			if err := cal.Skip(date, keep); err != nil {
				return TrialResult{}, fmt.Errorf("skip day %d: %w", day, err)
			}
		}
	}

	return Collect(cal), nil
}

// Collect tallies lateness over every scheduled date, including the backlog
// beyond the horizon.
func Collect(cal *calendar.Calendar) TrialResult {
	res := TrialResult{
		Inserted:  cal.TotalInserted(),
		Abandoned: cal.TotalAbandoned(),
	}
	for _, date := range cal.Dates() {
		for _, occ := range cal.OccurrencesOn(date) {
			res.Served++
			res.TotalDaysLate += cal.DaysLate(occ, date)
		}
		res.LastDate = date
	}
	if res.Served > 0 {
		res.AvgDaysLate = float64(res.TotalDaysLate) / float64(res.Served)
	}
	if res.Inserted > 0 {
		res.AbandonedShare = float64(res.Abandoned) / float64(res.Inserted)
	}
	return res
}
