package calendar

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/example/reviewcal/internal/spaced_repetition"
	"github.com/example/reviewcal/pkg/models"
)

func mustStatic(t *testing.T, offsets ...int) *spaced_repetition.Static {
	t.Helper()
	p, err := spaced_repetition.NewStatic(offsets...)
	if err != nil {
		t.Fatalf("NewStatic(%v): %v", offsets, err)
	}
	return p
}

func mustNew(t *testing.T, capacity int, horizon int, resolver OverflowResolver) *Calendar {
	t.Helper()
	c, err := New(capacity, models.TimePoint(horizon), resolver)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

type placement struct {
	id  int
	rep int
}

func assertDay(t *testing.T, c *Calendar, date int, want ...placement) {
	t.Helper()
	got := c.OccurrencesOn(models.TimePoint(date))
	if len(got) != len(want) {
		t.Fatalf("T+%d: got %v, want %v", date, got, want)
	}
	for i, w := range want {
		if got[i].Item.ID != w.id || got[i].Repetition != w.rep {
			t.Errorf("T+%d[%d] = %v, want Q%d rep %d", date, i, got[i], w.id, w.rep)
		}
	}
}

// checkInvariants verifies capacity, dedup, ask order and conservation.
func checkInvariants(t *testing.T, c *Calendar) {
	t.Helper()
	present := 0
	for _, d := range c.Dates() {
		queue := c.OccurrencesOn(d)
		present += len(queue)
		if len(queue) > c.Capacity() {
			t.Fatalf("%v holds %d occurrences, capacity %d", d, len(queue), c.Capacity())
		}
		seen := make(map[models.Item]bool)
		for i, occ := range queue {
			if seen[occ.Item] {
				t.Fatalf("%v holds duplicate %v", d, occ.Item)
			}
			seen[occ.Item] = true
			if i > 0 && queue[i-1].Repetition > occ.Repetition {
				t.Fatalf("%v not in ask order: %v", d, queue)
			}
		}
	}
	if present != c.Pending() {
		t.Fatalf("Pending() = %d, counted %d", c.Pending(), present)
	}
	if c.TotalInserted() != c.TotalAbandoned()+present {
		t.Fatalf("conservation: inserted %d != abandoned %d + present %d",
			c.TotalInserted(), c.TotalAbandoned(), present)
	}
}

func TestNewValidatesCapacity(t *testing.T) {
	if _, err := New(0, 10, AlwaysDelay); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("New(0) error = %v, want ErrInvalidArgument", err)
	}
	c, err := New(1, 10, nil)
	if err != nil {
		t.Fatalf("New with nil resolver: %v", err)
	}
	if c.resolver == nil {
		t.Error("nil resolver should default to AlwaysDelay")
	}
}

func TestInsertSequencePlacesRepetitions(t *testing.T) {
	c := mustNew(t, 5, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	a := ids.NewItem("A", 0)

	c.InsertSequence(a, 3, mustStatic(t, 0, 1, 2, 5))

	assertDay(t, c, 3, placement{0, 0})
	assertDay(t, c, 4, placement{0, 1})
	assertDay(t, c, 5, placement{0, 2})
	assertDay(t, c, 8, placement{0, 3})
	if c.TotalInserted() != 4 {
		t.Errorf("TotalInserted() = %d, want 4", c.TotalInserted())
	}
	if basis, ok := c.BasisOf(a); !ok || basis != 3 {
		t.Errorf("BasisOf = (%v, %v), want (T+3, true)", basis, ok)
	}
	checkInvariants(t, c)
}

func TestInsertSequenceStopsAtHorizon(t *testing.T) {
	c := mustNew(t, 5, 10, AlwaysDelay)
	ids := models.NewIDCounter(0)
	c.InsertSequence(ids.NewItem("A", 0), 5, mustStatic(t, 0, 1, 5, 6))

	// 5+5 == horizon, so repetitions 2 and 3 are never created.
	if c.TotalInserted() != 2 {
		t.Errorf("TotalInserted() = %d, want 2", c.TotalInserted())
	}
	if got := c.Dates(); len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("Dates() = %v, want [T+5 T+6]", got)
	}
}

func TestInsertSequenceProceduralPolicy(t *testing.T) {
	c := mustNew(t, 5, 20, AlwaysDelay)
	ids := models.NewIDCounter(0)
	squares := spaced_repetition.PolicyFunc(func(n int) (models.TimePoint, bool) {
		return models.TimePoint(n * n), true
	})
	c.InsertSequence(ids.NewItem("A", 0), 0, squares)
	// 0, 1, 4, 9, 16 are before 20; 25 is not.
	if c.TotalInserted() != 5 {
		t.Errorf("TotalInserted() = %d, want 5", c.TotalInserted())
	}
}

func TestBasisOfUnknownItem(t *testing.T) {
	c := mustNew(t, 1, 10, AlwaysDelay)
	if _, ok := c.BasisOf(models.Item{Label: "nope"}); ok {
		t.Error("BasisOf should report unknown items")
	}
}

func TestCollisionWithDelay(t *testing.T) {
	c := mustNew(t, 1, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	policy := mustStatic(t, 0, 1)
	a := ids.NewItem("A", 0)
	b := ids.NewItem("B", 0)

	c.InsertSequence(a, 0, policy)
	assertDay(t, c, 0, placement{a.ID, 0})
	assertDay(t, c, 1, placement{a.ID, 1})

	c.InsertSequence(b, 0, policy)

	// B rep 0 arrived later at T+0 and is pushed forward. At T+1 the
	// duplicate B rep 1 moves first, then A rep 1 overflows.
	assertDay(t, c, 0, placement{a.ID, 0})
	assertDay(t, c, 1, placement{b.ID, 0})
	assertDay(t, c, 2, placement{b.ID, 1})
	assertDay(t, c, 3, placement{a.ID, 1})
	if c.TotalAbandoned() != 0 {
		t.Errorf("TotalAbandoned() = %d, want 0", c.TotalAbandoned())
	}
	checkInvariants(t, c)
}

func TestCollisionWithAbandon(t *testing.T) {
	c := mustNew(t, 1, 100, AlwaysAbandon)
	ids := models.NewIDCounter(0)
	policy := mustStatic(t, 0, 1)
	a := ids.NewItem("A", 0)
	b := ids.NewItem("B", 0)

	c.InsertSequence(a, 0, policy)
	c.InsertSequence(b, 0, policy)

	assertDay(t, c, 0, placement{a.ID, 0})
	assertDay(t, c, 1, placement{a.ID, 1})
	if c.TotalAbandoned() != 2 {
		t.Errorf("TotalAbandoned() = %d, want 2", c.TotalAbandoned())
	}
	checkInvariants(t, c)
}

func TestCapacityDisplacesLargestRepetition(t *testing.T) {
	c := mustNew(t, 2, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	a := ids.NewItem("A", 0)
	b := ids.NewItem("B", 1)
	d := ids.NewItem("D", 2)

	// A rep 2 and B rep 1 land on T+2, then D rep 0 arrives there too.
	c.InsertSequence(a, 0, mustStatic(t, 0, 1, 2))
	c.InsertSequence(b, 1, mustStatic(t, 0, 1))
	c.InsertSequence(d, 2, mustStatic(t, 0))

	assertDay(t, c, 2, placement{d.ID, 0}, placement{b.ID, 1})
	assertDay(t, c, 3, placement{a.ID, 2})
	checkInvariants(t, c)
}

func TestResolverSeesLateness(t *testing.T) {
	var seen []int
	record := ResolverFunc(func(_ Occurrence, _ models.TimePoint, daysLate int) Decision {
		seen = append(seen, daysLate)
		return Delay
	})
	c := mustNew(t, 1, 100, record)
	ids := models.NewIDCounter(0)
	policy := mustStatic(t, 0)
	for i := 0; i < 3; i++ {
		c.InsertSequence(ids.NewItem("Q", 0), 0, policy)
	}
	// Second insert: 0 days late at T+0. Third insert: 0 at T+0, then the
	// delayed one is 1 day late at T+1.
	want := []int{0, 0, 1}
	if len(seen) != len(want) {
		t.Fatalf("resolver calls = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("call %d daysLate = %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestMaxLatenessResolver(t *testing.T) {
	r := MaxLateness(2)
	if got := r.Resolve(Occurrence{}, 0, 2); got != Delay {
		t.Errorf("2 days late: got %v, want delay", got)
	}
	if got := r.Resolve(Occurrence{}, 0, 3); got != Abandon {
		t.Errorf("3 days late: got %v, want abandon", got)
	}
}

func TestDaysLate(t *testing.T) {
	c := mustNew(t, 5, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	a := ids.NewItem("A", 0)
	policy := mustStatic(t, 0, 2, 5)
	c.InsertSequence(a, 10, policy)

	occ := c.OccurrencesOn(12)[0]
	tests := []struct {
		date int
		want int
	}{
		{12, 0},
		{15, 3},
		{11, -1},
	}
	for _, tt := range tests {
		if got := c.DaysLate(occ, models.TimePoint(tt.date)); got != tt.want {
			t.Errorf("DaysLate(T+%d) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func seedFive(t *testing.T, c *Calendar, ids *models.IDCounter, date int) {
	t.Helper()
	policy := mustStatic(t, 0)
	for i := 0; i < 5; i++ {
		c.InsertSequence(ids.NewItem("Q", date), models.TimePoint(date), policy)
	}
}

func TestSkipMovesTail(t *testing.T) {
	c := mustNew(t, 5, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	seedFive(t, c, ids, 5)

	before := c.OccurrencesOn(5)
	if err := c.Skip(5, 2); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	after := c.OccurrencesOn(5)
	if len(after) != 2 || after[0].Item != before[0].Item || after[1].Item != before[1].Item {
		t.Errorf("T+5 after skip = %v, want %v", after, before[:2])
	}
	moved := c.OccurrencesOn(6)
	if len(moved) != 3 {
		t.Fatalf("T+6 holds %d occurrences, want 3", len(moved))
	}
	for i, occ := range moved {
		if occ.Item != before[i+2].Item {
			t.Errorf("T+6[%d] = %v, want %v", i, occ, before[i+2])
		}
	}
	checkInvariants(t, c)
}

func TestSkipRepairsNextDay(t *testing.T) {
	c := mustNew(t, 3, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	policy := mustStatic(t, 0)
	for _, date := range []int{0, 0, 0, 1, 1} {
		c.InsertSequence(ids.NewItem("Q", date), models.TimePoint(date), policy)
	}
	if err := c.Skip(0, 0); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if got := c.CountOn(0); got != 0 {
		t.Errorf("CountOn(T+0) = %d, want 0", got)
	}
	if got := c.CountOn(1); got != 3 {
		t.Errorf("CountOn(T+1) = %d, want 3", got)
	}
	if got := c.CountOn(2); got != 2 {
		t.Errorf("CountOn(T+2) = %d, want 2", got)
	}
	checkInvariants(t, c)
}

func TestSkipErrors(t *testing.T) {
	c := mustNew(t, 5, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	seedFive(t, c, ids, 5)

	tests := []struct {
		name string
		date int
		keep int
		want error
	}{
		{"empty date", 4, 0, ErrNotFound},
		{"negative keep", 5, -1, ErrInvalidArgument},
		{"keep everything", 5, 5, ErrInvalidArgument},
		{"keep too many", 5, 9, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Skip(models.TimePoint(tt.date), tt.keep)
			if !errors.Is(err, tt.want) {
				t.Errorf("Skip(%d, %d) error = %v, want %v", tt.date, tt.keep, err, tt.want)
			}
			if c.CountOn(5) != 5 || c.CountOn(6) != 0 {
				t.Error("failed skip mutated the calendar")
			}
		})
	}
}

func TestSkipEmptiedDateIsNotFound(t *testing.T) {
	c := mustNew(t, 5, 100, AlwaysDelay)
	ids := models.NewIDCounter(0)
	seedFive(t, c, ids, 0)
	if err := c.Skip(0, 0); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if err := c.Skip(0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Skip on emptied date error = %v, want ErrNotFound", err)
	}
}

func TestQueriesOnAbsentDate(t *testing.T) {
	c := mustNew(t, 1, 10, AlwaysDelay)
	if got := c.OccurrencesOn(42); len(got) != 0 {
		t.Errorf("OccurrencesOn(absent) = %v, want empty", got)
	}
	if got := c.CountOn(42); got != 0 {
		t.Errorf("CountOn(absent) = %d, want 0", got)
	}
}

func TestOccurrencesOnReturnsCopy(t *testing.T) {
	c := mustNew(t, 5, 10, AlwaysDelay)
	ids := models.NewIDCounter(0)
	seedFive(t, c, ids, 0)
	got := c.OccurrencesOn(0)
	got[0].Repetition = 99
	if c.OccurrencesOn(0)[0].Repetition == 99 {
		t.Error("OccurrencesOn exposed internal storage")
	}
}

type snapshot map[models.TimePoint][]placement

func takeSnapshot(c *Calendar) snapshot {
	s := make(snapshot)
	for _, d := range c.Dates() {
		for _, occ := range c.OccurrencesOn(d) {
			s[d] = append(s[d], placement{occ.Item.ID, occ.Repetition})
		}
	}
	return s
}

func TestRepairIdempotent(t *testing.T) {
	c := mustNew(t, 2, 30, AlwaysDelay)
	ids := models.NewIDCounter(0)
	policy := mustStatic(t, 0, 1, 2, 5, 8, 14)
	for day := 0; day < 10; day++ {
		for q := 0; q < 3; q++ {
			c.InsertSequence(ids.NewItem("Q", day), models.TimePoint(day), policy)
		}
	}
	first := takeSnapshot(c)
	inserted, abandoned := c.TotalInserted(), c.TotalAbandoned()

	c.Repair()
	c.Repair()

	second := takeSnapshot(c)
	if len(first) != len(second) {
		t.Fatalf("date count changed: %d -> %d", len(first), len(second))
	}
	for d, queue := range first {
		other := second[d]
		if len(queue) != len(other) {
			t.Fatalf("%v changed: %v -> %v", d, queue, other)
		}
		for i := range queue {
			if queue[i] != other[i] {
				t.Errorf("%v[%d] changed: %v -> %v", d, i, queue[i], other[i])
			}
		}
	}
	if c.TotalInserted() != inserted || c.TotalAbandoned() != abandoned {
		t.Error("repair changed the counters")
	}
}

func TestRandomWorkloadInvariants(t *testing.T) {
	resolvers := map[string]OverflowResolver{
		"delay":   AlwaysDelay,
		"abandon": AlwaysAbandon,
		"max3":    MaxLateness(3),
	}
	for name, resolver := range resolvers {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			c := mustNew(t, 4, 60, resolver)
			ids := models.NewIDCounter(0)
			policy := mustStatic(t, 0, 1, 2, 5, 8, 14)
			for day := 0; day < 60; day++ {
				date := models.TimePoint(day)
				for q := rng.Intn(6); q > 0; q-- {
					c.InsertSequence(ids.NewItem("Q", day), date, policy)
					checkInvariants(t, c)
				}
				if n := c.CountOn(date); n > 0 {
					if err := c.Skip(date, rng.Intn(n)); err != nil {
						t.Fatalf("Skip: %v", err)
					}
					checkInvariants(t, c)
				}
			}
		})
	}
}

func TestAlwaysAbandonHasNoBacklog(t *testing.T) {
	c := mustNew(t, 2, 50, AlwaysAbandon)
	ids := models.NewIDCounter(0)
	policy := mustStatic(t, 0, 1, 2, 5, 8, 14)
	for day := 0; day < 50; day++ {
		for q := 0; q < 10; q++ {
			c.InsertSequence(ids.NewItem("Q", day), models.TimePoint(day), policy)
		}
	}
	for _, d := range c.Dates() {
		if !d.Before(c.Horizon()) {
			t.Errorf("occurrence pushed to %v beyond horizon %v", d, c.Horizon())
		}
	}
	if share := float64(c.TotalAbandoned()) / float64(c.TotalInserted()); share < 0.8 {
		t.Errorf("abandoned share = %.2f, want most occurrences abandoned", share)
	}
	checkInvariants(t, c)
}
