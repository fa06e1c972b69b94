package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/example/reviewcal/internal/session"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Session is the part of a study session the bot drives
type Session interface {
	Advance() (session.Day, error)
	Today() session.Day
	Skip(keep int) (session.Day, error)
	Stats() session.Stats
}

// sender is satisfied by *tgbotapi.BotAPI
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram front-end of a study session
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	config  *BotConfig
	session Session
	logger  zerolog.Logger

	mu    sync.Mutex
	chats map[int64]bool
}

// NewBot authorizes against the Telegram API
func NewBot(config *BotConfig, sess Session, logger zerolog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	logger.Info().Str("account", botAPI.Self.UserName).Msg("authorized on telegram")

	b := newBot(botAPI, config, sess, logger)
	b.api = botAPI
	return b, nil
}

func newBot(out sender, config *BotConfig, sess Session, logger zerolog.Logger) *Bot {
	b := &Bot{
		out:     out,
		config:  config,
		session: sess,
		logger:  logger,
		chats:   make(map[int64]bool),
	}
	for _, id := range config.ChatIDs {
		b.chats[id] = true
	}
	return b
}

// Start handles incoming updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(update)
		}
	}
}

// Stop stops long polling
func (b *Bot) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.api.StopReceivingUpdates()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info().Msg("bot stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to handle update")
	}
}

// SendDailyQueue sends the queue of a new day to every subscribed chat
func (b *Bot) SendDailyQueue(day session.Day) error {
	text := formatQueue(day)
	var firstErr error
	for _, chatID := range b.subscribers() {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = createKeyboard(queueButtons(day))
		if err := b.sendMessage(msg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("chat %d: %w", chatID, err)
		}
	}
	return firstErr
}

func (b *Bot) subscribe(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = true
}

func (b *Bot) subscribers() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		ids = append(ids, id)
	}
	return ids
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.out.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
