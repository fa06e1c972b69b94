package spaced_repetition

import (
	"fmt"

	"github.com/example/reviewcal/pkg/models"
)

// SM2 is a procedural spacing policy derived from the SuperMemo-2 algorithm.
// Every review is assumed to be answered with the same Quality, so the
// easiness factor evolves deterministically and offsets can be computed on demand.
type SM2 struct {
	// Minimum quality that counts as a successful recall
	PassThreshold int
	// Maximum interval between two repetitions, in days
	MaxInterval int
	// Preset intervals for the first repetitions, in days
	InitialIntervals []int
	// Starting easiness factor
	EasinessFactor float64
	// Assumed response quality (0-5)
	Quality QualityResponse
	// Number of repetitions before the sequence ends; 0 means unbounded
	MaxRepetitions int
}

// NewSM2 returns an SM2 policy with the default settings.
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    3,
		MaxInterval:      365,
		InitialIntervals: []int{0, 1, 2, 3, 7, 10, 15, 20, 30},
		EasinessFactor:   2.5,
		Quality:          QualityCorrectHesitation,
	}
}

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Offset returns the cumulative number of days from the basis date to the
// n-th repetition.
func (sm *SM2) Offset(n int) (models.TimePoint, bool) {
	if n < 0 || (sm.MaxRepetitions > 0 && n >= sm.MaxRepetitions) {
		return 0, false
	}
	ef := sm.EasinessFactor
	interval, total := 0, 0
	for rep := 0; rep <= n; rep++ {
		interval, ef = sm.ComputeNextInterval(rep, ef, interval)
		total += interval
	}
	return models.TimePoint(total), true
}

// ComputeNextInterval returns the interval preceding repetition rep and the
// updated easiness factor. A failed recall restarts at one day.
func (sm *SM2) ComputeNextInterval(rep int, currentEF float64, currentInterval int) (int, float64) {
	q := float64(sm.Quality)
	newEF := currentEF + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if newEF < 1.3 {
		newEF = 1.3
	}

	if int(sm.Quality) < sm.PassThreshold {
		if rep == 0 {
			return 0, newEF
		}
		return 1, newEF
	}

	var next int
	if rep < len(sm.InitialIntervals) {
		next = sm.InitialIntervals[rep]
	} else {
		next = int(float64(currentInterval) * newEF)
	}
	if next > sm.MaxInterval {
		next = sm.MaxInterval
	}
	return next, newEF
}

func (sm *SM2) String() string {
	return fmt.Sprintf("sm2(ef=%.2f,q=%d,max=%d)", sm.EasinessFactor, sm.Quality, sm.MaxInterval)
}
