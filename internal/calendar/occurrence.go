package calendar

import (
	"fmt"
	"sort"

	"github.com/example/reviewcal/internal/spaced_repetition"
	"github.com/example/reviewcal/pkg/models"
)

// Occurrence is the n-th scheduled review of an item under a spacing policy.
// Two occurrences of the same Item on one date are duplicates regardless of
// their repetition index.
type Occurrence struct {
	Item       models.Item
	Repetition int
	Policy     spaced_repetition.Policy

	// arrival order at the current date, used to break ties
	seq uint64
}

func (o Occurrence) String() string {
	return fmt.Sprintf("rep %d: Q%d", o.Repetition, o.Item.ID)
}

// sortAskOrder sorts ascending by repetition index, then by arrival.
func sortAskOrder(queue []Occurrence) {
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Repetition != queue[j].Repetition {
			return queue[i].Repetition < queue[j].Repetition
		}
		return queue[i].seq < queue[j].seq
	})
}
