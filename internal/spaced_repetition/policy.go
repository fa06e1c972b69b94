package spaced_repetition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/reviewcal/pkg/models"
)

// ErrInvalidPolicy is returned when a spacing table is malformed.
var ErrInvalidPolicy = errors.New("spaced_repetition: invalid policy")

// Policy maps a repetition index to its offset from the item's basis date.
// ok is false once the sequence is exhausted. Offsets must be non-decreasing in n.
type Policy interface {
	Offset(n int) (offset models.TimePoint, ok bool)
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(n int) (models.TimePoint, bool)

// Offset calls f(n).
func (f PolicyFunc) Offset(n int) (models.TimePoint, bool) {
	return f(n)
}

// Static is a fixed, finite spacing table.
type Static struct {
	offsets []models.TimePoint
}

// NewStatic builds a static policy from day offsets. Offsets must be
// non-negative and non-decreasing.
func NewStatic(offsets ...int) (*Static, error) {
	points := make([]models.TimePoint, len(offsets))
	for i, o := range offsets {
		if o < 0 {
			return nil, fmt.Errorf("%w: offset %d is negative", ErrInvalidPolicy, o)
		}
		if i > 0 && o < offsets[i-1] {
			return nil, fmt.Errorf("%w: offset %d follows %d", ErrInvalidPolicy, o, offsets[i-1])
		}
		points[i] = models.TimePoint(o)
	}
	return &Static{offsets: points}, nil
}

// Offset returns the n-th table entry.
func (s *Static) Offset(n int) (models.TimePoint, bool) {
	if n < 0 || n >= len(s.offsets) {
		return 0, false
	}
	return s.offsets[n], true
}

// Len returns the number of repetitions in the table.
func (s *Static) Len() int {
	return len(s.offsets)
}

func (s *Static) String() string {
	parts := make([]string, len(s.offsets))
	for i, o := range s.offsets {
		parts[i] = strconv.Itoa(int(o))
	}
	return strings.Join(parts, ",")
}

// ParseOffsets parses a comma separated list such as "0,1,2,5,8,14".
func ParseOffsets(s string) (*Static, error) {
	fields := strings.Split(s, ",")
	offsets := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidPolicy, f)
		}
		offsets = append(offsets, v)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: empty spacing", ErrInvalidPolicy)
	}
	return NewStatic(offsets...)
}

// Table returns up to count offsets of p, stopping early if p is exhausted.
func Table(p Policy, count int) []models.TimePoint {
	out := make([]models.TimePoint, 0, count)
	for n := 0; n < count; n++ {
		o, ok := p.Offset(n)
		if !ok {
			break
		}
		out = append(out, o)
	}
	return out
}

// Policy kinds accepted by Select.
const (
	KindStatic = "static"
	KindSM2    = "sm2"
)

// Select returns the policy of the given kind. The static kind (also the
// empty string) uses offsets; sm2 uses NewSM2 and ignores them.
func Select(kind string, offsets []int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindStatic:
		return NewStatic(offsets...)
	case KindSM2:
		return NewSM2(), nil
	}
	return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicy, kind)
}

// Offsets returns a copy of the table as plain day counts.
func (s *Static) Offsets() []int {
	out := make([]int, len(s.offsets))
	for i, o := range s.offsets {
		out[i] = int(o)
	}
	return out
}
