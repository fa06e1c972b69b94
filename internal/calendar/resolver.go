package calendar

import "github.com/example/reviewcal/pkg/models"

// Decision is the outcome of resolving one overflowing occurrence.
type Decision int

const (
	// Delay moves the occurrence to the following day.
	Delay Decision = iota
	// Abandon drops the occurrence permanently.
	Abandon
)

func (d Decision) String() string {
	if d == Abandon {
		return "abandon"
	}
	return "delay"
}

// OverflowResolver decides what happens to an occurrence that does not fit
// into its day.
type OverflowResolver interface {
	Resolve(occ Occurrence, date models.TimePoint, daysLate int) Decision
}

// ResolverFunc adapts a function to the OverflowResolver interface.
type ResolverFunc func(occ Occurrence, date models.TimePoint, daysLate int) Decision

// Resolve calls f.
func (f ResolverFunc) Resolve(occ Occurrence, date models.TimePoint, daysLate int) Decision {
	return f(occ, date, daysLate)
}

// AlwaysDelay never abandons; overflow becomes backlog.
var AlwaysDelay = ResolverFunc(func(Occurrence, models.TimePoint, int) Decision { return Delay })

// AlwaysAbandon drops every overflowing occurrence.
var AlwaysAbandon = ResolverFunc(func(Occurrence, models.TimePoint, int) Decision { return Abandon })

// MaxLateness delays occurrences until they are more than limit days late,
// then abandons them.
func MaxLateness(limit int) OverflowResolver {
	return ResolverFunc(func(_ Occurrence, _ models.TimePoint, daysLate int) Decision {
		if daysLate > limit {
			return Abandon
		}
		return Delay
	})
}
