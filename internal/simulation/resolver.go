package simulation

import (
	"math/rand"

	"github.com/example/reviewcal/internal/calendar"
	"github.com/example/reviewcal/pkg/models"
)

// DefaultAbandonThreshold is the lateness around which questions start being dropped.
const DefaultAbandonThreshold = 14

// ThresholdResolver abandons occurrences that are well past Threshold days
// late, with random smoothing: abandon when rand * (late - T) / T > 0.5.
// It is never triggered at or below the threshold.
type ThresholdResolver struct {
	Threshold int
	Rand      *rand.Rand
}

// Resolve implements calendar.OverflowResolver.
func (r *ThresholdResolver) Resolve(_ calendar.Occurrence, _ models.TimePoint, daysLate int) calendar.Decision {
	t := float64(r.Threshold)
	if t <= 0 {
		t = DefaultAbandonThreshold
	}
	if r.Rand.Float64()*(float64(daysLate)-t)/t > 0.5 {
		return calendar.Abandon
	}
	return calendar.Delay
}
