// Package calendar keeps a per-day queue of pending review occurrences under a
// daily capacity and rebalances it after every mutation.
//
// A Calendar is owned by a single caller; it performs no locking.
package calendar

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/example/reviewcal/internal/spaced_repetition"
	"github.com/example/reviewcal/pkg/models"
)

// Calendar maps dates to the occurrences due on them.
type Calendar struct {
	byDate   map[models.TimePoint][]Occurrence
	basis    map[models.Item]models.TimePoint
	capacity int
	horizon  models.TimePoint
	resolver OverflowResolver
	logger   zerolog.Logger

	totalInserted  int
	totalAbandoned int
	seq            uint64
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithLogger makes repair decisions visible at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Calendar) {
		c.logger = logger
	}
}

// New creates an empty calendar holding at most capacity occurrences per day.
// New repetitions are only generated strictly before horizon. A nil resolver
// delays every overflowing occurrence.
func New(capacity int, horizon models.TimePoint, resolver OverflowResolver, opts ...Option) (*Calendar, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d must be at least 1", ErrInvalidArgument, capacity)
	}
	if resolver == nil {
		resolver = AlwaysDelay
	}
	c := &Calendar{
		byDate:   make(map[models.TimePoint][]Occurrence),
		basis:    make(map[models.Item]models.TimePoint),
		capacity: capacity,
		horizon:  horizon,
		resolver: resolver,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Capacity returns the per-day limit.
func (c *Calendar) Capacity() int { return c.capacity }

// Horizon returns the cutoff for generating new repetitions.
func (c *Calendar) Horizon() models.TimePoint { return c.horizon }

// TotalInserted counts every occurrence ever scheduled.
func (c *Calendar) TotalInserted() int { return c.totalInserted }

// TotalAbandoned counts occurrences dropped by the overflow resolver.
func (c *Calendar) TotalAbandoned() int { return c.totalAbandoned }

// InsertSequence schedules the repetitions of item starting at basis.
// Generation stops when the policy is exhausted or the first date at or past
// the horizon is reached; policy offsets are assumed non-decreasing.
// The basis date is recorded (overwriting any previous one) and the calendar
// is repaired once afterwards.
func (c *Calendar) InsertSequence(item models.Item, basis models.TimePoint, policy spaced_repetition.Policy) {
	c.basis[item] = basis
	for n := 0; ; n++ {
		offset, ok := policy.Offset(n)
		if !ok {
			break
		}
		date := basis.Add(offset)
		if !date.Before(c.horizon) {
			break
		}
		c.place(date, Occurrence{Item: item, Repetition: n, Policy: policy})
		c.totalInserted++
	}
	c.Repair()
}

// Skip keeps the first keep occurrences of date in ask order and moves the
// rest to the following day, then repairs. The calendar is unchanged when an
// error is returned.
func (c *Calendar) Skip(date models.TimePoint, keep int) error {
	queue := c.byDate[date]
	if len(queue) == 0 {
		return fmt.Errorf("%w: no occurrences on %v", ErrNotFound, date)
	}
	if keep < 0 || keep >= len(queue) {
		return fmt.Errorf("%w: keep %d out of range [0, %d)", ErrInvalidArgument, keep, len(queue))
	}

	sortAskOrder(queue)
	moved := queue[keep:]
	c.byDate[date] = append([]Occurrence(nil), queue[:keep]...)
	for _, occ := range moved {
		c.place(date.Next(), occ)
	}
	c.logger.Debug().
		Int("date", date.Offset()).
		Int("kept", keep).
		Int("skipped", len(moved)).
		Msg("skipped occurrences")

	c.Repair()
	return nil
}

// Repair deduplicates every date and pushes overflow forward until each date
// holds at most Capacity distinct items. Dates are visited in ascending order;
// a date receiving pushed occurrences is (re)visited after the current one.
// Repairing an already repaired calendar changes nothing.
func (c *Calendar) Repair() {
	keys := make([]models.TimePoint, 0, len(c.byDate))
	for d := range c.byDate {
		keys = append(keys, d)
	}
	work := newWorklist(keys)

	for {
		date, ok := work.pop()
		if !ok {
			return
		}
		if c.dedup(date) {
			work.push(date.Next())
		}
		if c.enforceCapacity(date) {
			work.push(date.Next())
		}
	}
}

// dedup keeps the lowest repetition of each item on date and moves the other
// copies to the next day. It reports whether anything moved.
func (c *Calendar) dedup(date models.TimePoint) bool {
	queue := c.byDate[date]
	if len(queue) < 2 {
		return false
	}
	sortAskOrder(queue)

	seen := make(map[models.Item]bool, len(queue))
	kept := make([]Occurrence, 0, len(queue))
	var moved []Occurrence
	for _, occ := range queue {
		if seen[occ.Item] {
			moved = append(moved, occ)
			continue
		}
		seen[occ.Item] = true
		kept = append(kept, occ)
	}
	if len(moved) == 0 {
		return false
	}

	c.byDate[date] = kept
	for _, occ := range moved {
		c.logger.Debug().
			Int("date", date.Offset()).
			Int("item", occ.Item.ID).
			Int("repetition", occ.Repetition).
			Msg("delayed duplicate")
		c.place(date.Next(), occ)
	}
	return true
}

// enforceCapacity resolves the least urgent occurrences of date (largest
// repetition, latest arrival) until it fits. It reports whether any
// occurrence was delayed.
func (c *Calendar) enforceCapacity(date models.TimePoint) bool {
	queue := c.byDate[date]
	if len(queue) <= c.capacity {
		return false
	}
	sortAskOrder(queue)

	delayed := false
	for len(queue) > c.capacity {
		victim := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		late := c.DaysLate(victim, date)
		decision := c.resolver.Resolve(victim, date, late)
		c.logger.Debug().
			Int("date", date.Offset()).
			Int("item", victim.Item.ID).
			Int("repetition", victim.Repetition).
			Int("days_late", late).
			Stringer("decision", decision).
			Msg("resolved overflow")

		if decision == Abandon {
			c.totalAbandoned++
			continue
		}
		c.place(date.Next(), victim)
		delayed = true
	}
	c.byDate[date] = queue
	return delayed
}

// DaysLate is how many days after its originally scheduled slot occ would be
// served on date.
func (c *Calendar) DaysLate(occ Occurrence, date models.TimePoint) int {
	due, ok := c.basis[occ.Item]
	if !ok {
		return 0
	}
	if occ.Policy != nil {
		if offset, ok := occ.Policy.Offset(occ.Repetition); ok {
			due = due.Add(offset)
		}
	}
	return int(date - due)
}

// OccurrencesOn returns the occurrences of date in ask order: ascending
// repetition index, earlier arrivals first. The result is a copy.
func (c *Calendar) OccurrencesOn(date models.TimePoint) []Occurrence {
	queue := c.byDate[date]
	out := make([]Occurrence, len(queue))
	copy(out, queue)
	sortAskOrder(out)
	return out
}

// CountOn returns the number of occurrences on date.
func (c *Calendar) CountOn(date models.TimePoint) int {
	return len(c.byDate[date])
}

// BasisOf returns the first-ask date recorded for item.
func (c *Calendar) BasisOf(item models.Item) (models.TimePoint, bool) {
	d, ok := c.basis[item]
	return d, ok
}

// Dates returns every date holding at least one occurrence, ascending.
func (c *Calendar) Dates() []models.TimePoint {
	dates := make([]models.TimePoint, 0, len(c.byDate))
	for d, queue := range c.byDate {
		if len(queue) > 0 {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}

// Pending returns the number of occurrences currently scheduled.
func (c *Calendar) Pending() int {
	total := 0
	for _, queue := range c.byDate {
		total += len(queue)
	}
	return total
}

func (c *Calendar) place(date models.TimePoint, occ Occurrence) {
	occ.seq = c.seq
	c.seq++
	c.byDate[date] = append(c.byDate[date], occ)
}
