package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/example/reviewcal/internal/session"
)

// Advancer moves a study session to its next day
type Advancer interface {
	Advance() (session.Day, error)
}

// Notifier interface for sending the daily queue
type Notifier interface {
	SendDailyQueue(day session.Day) error
}

// Scheduler advances a session one day per interval
type Scheduler struct {
	scheduler *gocron.Scheduler
	session   Advancer
	notifier  Notifier
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a new scheduler instance
func New(sess Advancer, notifier Notifier, interval time.Duration, logger zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		session:   sess,
		notifier:  notifier,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the day ticker and runs it in the background. The first
// day starts immediately.
func (s *Scheduler) Start() error {
	// A slow notifier must not let two days overlap.
	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.tick); err != nil {
		return fmt.Errorf("failed to schedule day ticker: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) tick() {
	if err := s.RunOnce(); err != nil {
		s.logger.Error().Err(err).Msg("day tick failed")
	}
}

// RunOnce advances the session and sends the new day's queue. An exhausted
// curriculum or a passed horizon is logged, not reported as a failure.
func (s *Scheduler) RunOnce() error {
	day, err := s.session.Advance()
	if errors.Is(err, session.ErrCurriculumExhausted) {
		s.logger.Info().Int("day", day.Date.Offset()).Msg("curriculum finished, nothing left to review")
		return nil
	}
	if errors.Is(err, session.ErrHorizonReached) {
		s.logger.Warn().Int("day", day.Date.Offset()).Msg("horizon reached, remaining items were not introduced")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to advance session: %w", err)
	}
	if err := s.notifier.SendDailyQueue(day); err != nil {
		return fmt.Errorf("failed to send daily queue: %w", err)
	}
	return nil
}

// LogNotifier writes the daily queue to the log. It is used when no bot
// token is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

// SendDailyQueue logs every question due on day.
func (n LogNotifier) SendDailyQueue(day session.Day) error {
	n.Logger.Info().Int("day", day.Date.Offset()).Int("due", len(day.Queue)).Msg("daily queue")
	for i, occ := range day.Queue {
		n.Logger.Info().
			Int("position", i+1).
			Str("item", occ.Item.String()).
			Int("repetition", occ.Repetition).
			Msg("due")
	}
	return nil
}
