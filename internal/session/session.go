// Package session runs a live study calendar: one learner, a curriculum of
// lessons, and a day cursor moved forward by a scheduler or by hand.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/reviewcal/internal/calendar"
	"github.com/example/reviewcal/internal/spaced_repetition"
	"github.com/example/reviewcal/pkg/models"
)

// ErrCurriculumExhausted is returned by Advance once every item has been
// introduced and no review remains on or after the current day.
var ErrCurriculumExhausted = errors.New("session: curriculum exhausted")

// ErrHorizonReached is returned by Advance once the calendar horizon stops new
// items from being scheduled and no review remains. Items not yet introduced
// stay in Stats.Remaining.
var ErrHorizonReached = errors.New("session: horizon reached")

// Config describes a session.
type Config struct {
	Capacity   int
	Horizon    int
	LessonSize int // New items introduced per day
	Policy     spaced_repetition.Policy
	Resolver   calendar.OverflowResolver // nil delays everything
	Logger     zerolog.Logger
}

// Day is the queue to be asked on one date, in ask order.
type Day struct {
	Date  models.TimePoint
	Queue []calendar.Occurrence
}

// Stats summarises a session.
type Stats struct {
	Day        models.TimePoint
	Started    bool
	Introduced int
	Remaining  int // Curriculum items not yet introduced
	Inserted   int
	Abandoned  int
	Upcoming   int // Occurrences on the current day or later
}

type pendingItem struct {
	label  string
	lesson int
}

// Session is safe for concurrent use; the bot and the scheduler share one.
type Session struct {
	mu sync.Mutex

	cal        *calendar.Calendar
	policy     spaced_repetition.Policy
	lessonSize int
	ids        *models.IDCounter
	logger     zerolog.Logger

	curriculum []pendingItem
	next       int
	day        models.TimePoint
	started    bool
}

// New creates a session over the given lessons. Items are introduced in
// lesson order, LessonSize per day.
func New(cfg Config, lessons []models.Lesson) (*Session, error) {
	if cfg.Policy == nil {
		return nil, fmt.Errorf("%w: policy is required", calendar.ErrInvalidArgument)
	}
	if cfg.LessonSize < 1 {
		return nil, fmt.Errorf("%w: lesson size %d must be at least 1", calendar.ErrInvalidArgument, cfg.LessonSize)
	}
	cal, err := calendar.New(cfg.Capacity, models.TimePoint(cfg.Horizon), cfg.Resolver, calendar.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	s := &Session{
		cal:        cal,
		policy:     cfg.Policy,
		lessonSize: cfg.LessonSize,
		ids:        models.NewIDCounter(0),
		logger:     cfg.Logger,
	}
	for _, lesson := range lessons {
		for _, label := range lesson.Labels {
			s.curriculum = append(s.curriculum, pendingItem{label: label, lesson: lesson.ID})
		}
	}
	return s, nil
}

// Advance moves to the next day (day 0 on the first call), introduces the
// next items of the curriculum and returns the day's queue. No item is
// introduced on or after the horizon, where it could not be scheduled. The
// queue is still returned together with ErrCurriculumExhausted or
// ErrHorizonReached.
func (s *Session) Advance() (Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.day = s.day.Next()
	}
	s.started = true

	introduced := 0
	for introduced < s.lessonSize && s.next < len(s.curriculum) && s.day.Before(s.cal.Horizon()) {
		p := s.curriculum[s.next]
		s.next++
		s.cal.InsertSequence(s.ids.NewItem(p.label, p.lesson), s.day, s.policy)
		introduced++
	}

	day := s.today()
	s.logger.Info().
		Int("day", s.day.Offset()).
		Int("introduced", introduced).
		Int("due", len(day.Queue)).
		Msg("advanced session")

	if s.upcoming() == 0 {
		if s.next >= len(s.curriculum) {
			return day, ErrCurriculumExhausted
		}
		if !s.day.Before(s.cal.Horizon()) {
			return day, ErrHorizonReached
		}
	}
	return day, nil
}

// Today returns the current day's queue.
func (s *Session) Today() Day {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today()
}

// Skip keeps the first keep questions of today and moves the rest to
// tomorrow.
func (s *Session) Skip(keep int) (Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return Day{}, fmt.Errorf("%w: session has not started", calendar.ErrNotFound)
	}
	if err := s.cal.Skip(s.day, keep); err != nil {
		return Day{}, err
	}
	return s.today(), nil
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Day:        s.day,
		Started:    s.started,
		Introduced: s.next,
		Remaining:  len(s.curriculum) - s.next,
		Inserted:   s.cal.TotalInserted(),
		Abandoned:  s.cal.TotalAbandoned(),
		Upcoming:   s.upcoming(),
	}
}

func (s *Session) today() Day {
	if !s.started {
		return Day{Date: s.day}
	}
	return Day{Date: s.day, Queue: s.cal.OccurrencesOn(s.day)}
}

func (s *Session) upcoming() int {
	total := 0
	for _, d := range s.cal.Dates() {
		if !d.Before(s.day) {
			total += s.cal.CountOn(d)
		}
	}
	return total
}
