package models

import "fmt"

// TimePoint is an abstract day offset on the review timeline.
// It is not tied to wall-clock time: T+0 is simply the first day of a run.
type TimePoint int

// Add returns the point shifted by the given offset.
func (t TimePoint) Add(offset TimePoint) TimePoint {
	return t + offset
}

// Next returns the following day.
func (t TimePoint) Next() TimePoint {
	return t + 1
}

// Before reports whether t is strictly earlier than other.
func (t TimePoint) Before(other TimePoint) bool {
	return t < other
}

// Compare returns -1, 0 or +1 depending on the ordering of t and other.
func (t TimePoint) Compare(other TimePoint) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	}
	return 0
}

// Offset returns the raw integer offset.
func (t TimePoint) Offset() int {
	return int(t)
}

func (t TimePoint) String() string {
	return fmt.Sprintf("T+%d", int(t))
}
