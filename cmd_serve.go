package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reviewcal/internal/bot"
	"github.com/example/reviewcal/internal/calendar"
	"github.com/example/reviewcal/internal/database"
	"github.com/example/reviewcal/internal/scheduler"
	"github.com/example/reviewcal/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a live study session",
	Long: `Run a live study session over the imported curriculum. The session moves
one day forward every REVIEWCAL_DAY_INTERVAL and sends the day's queue to
Telegram when TELEGRAM_BOT_TOKEN is set, or to the log otherwise.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	lessons, err := database.NewItemRepository(db).Lessons(ctx)
	db.Close()
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		return fmt.Errorf("no curriculum imported, run \"reviewcal import\" first")
	}

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	var resolver calendar.OverflowResolver
	if cfg.MaxLateness > 0 {
		resolver = calendar.MaxLateness(cfg.MaxLateness)
	}
	sess, err := session.New(session.Config{
		Capacity:   cfg.Capacity,
		Horizon:    cfg.Horizon,
		LessonSize: cfg.LessonSize,
		Policy:     policy,
		Resolver:   resolver,
		Logger:     logger,
	}, lessons)
	if err != nil {
		return err
	}

	var (
		notifier scheduler.Notifier = scheduler.LogNotifier{Logger: logger}
		b        *bot.Bot
	)
	if cfg.TelegramToken != "" {
		b, err = bot.NewBot(bot.DefaultConfig(cfg.TelegramToken, cfg.ChatIDs), sess, logger)
		if err != nil {
			return err
		}
		notifier = b
	} else {
		logger.Warn().Msg("TELEGRAM_BOT_TOKEN is not set, daily queues go to the log")
	}

	sched := scheduler.New(sess, notifier, cfg.DayInterval, logger)
	if err := sched.Start(); err != nil {
		return err
	}

	if b != nil {
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("bot error")
			}
		}()
	}

	logger.Info().Int("lessons", len(lessons)).Msg("session started, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully...")
	case <-ctx.Done():
	}
	cancel()

	sched.Stop()
	if b != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := b.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error during shutdown")
		}
	}

	stats := sess.Stats()
	logger.Info().
		Int("day", stats.Day.Offset()).
		Int("introduced", stats.Introduced).
		Int("abandoned", stats.Abandoned).
		Msg("session stopped")
	return nil
}
