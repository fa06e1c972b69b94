package models

import (
	"fmt"
	"sync/atomic"
)

// Item is a piece of content to be reviewed, e.g. a single question of a lesson.
// Items are comparable; identity is the (Label, BatchID, ID) triple.
type Item struct {
	Label   string `json:"label" db:"label"`
	BatchID int    `json:"batch_id" db:"batch_id"` // Lesson the item was published with
	ID      int    `json:"id" db:"id"`
}

func (i Item) String() string {
	return fmt.Sprintf("Q#%d: %s", i.ID, i.Label)
}

// IDCounter hands out monotonically increasing item ids.
// Each workload owns its own counter so fixtures stay deterministic.
type IDCounter struct {
	next atomic.Int64
}

// NewIDCounter returns a counter whose first id is start.
func NewIDCounter(start int) *IDCounter {
	c := &IDCounter{}
	c.next.Store(int64(start))
	return c
}

// Next returns the next id and advances the counter.
func (c *IDCounter) Next() int {
	return int(c.next.Add(1) - 1)
}

// Reset rewinds the counter so the next id is start.
func (c *IDCounter) Reset(start int) {
	c.next.Store(int64(start))
}

// NewItem creates an item with the next id from the counter.
func (c *IDCounter) NewItem(label string, batchID int) Item {
	return Item{Label: label, BatchID: batchID, ID: c.Next()}
}
