package calendar

import (
	"container/heap"

	"github.com/example/reviewcal/pkg/models"
)

// worklist is a min-heap of pending dates with set semantics: a date is
// queued at most once until it is popped.
type worklist struct {
	dates   dateHeap
	pending map[models.TimePoint]bool
}

func newWorklist(seed []models.TimePoint) *worklist {
	w := &worklist{pending: make(map[models.TimePoint]bool, len(seed))}
	for _, d := range seed {
		w.push(d)
	}
	return w
}

func (w *worklist) push(d models.TimePoint) {
	if w.pending[d] {
		return
	}
	w.pending[d] = true
	heap.Push(&w.dates, d)
}

func (w *worklist) pop() (models.TimePoint, bool) {
	if w.dates.Len() == 0 {
		return 0, false
	}
	d := heap.Pop(&w.dates).(models.TimePoint)
	delete(w.pending, d)
	return d, true
}

type dateHeap []models.TimePoint

func (h dateHeap) Len() int           { return len(h) }
func (h dateHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h dateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *dateHeap) Push(x any) {
	*h = append(*h, x.(models.TimePoint))
}

func (h *dateHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	*h = old[:n-1]
	return d
}
