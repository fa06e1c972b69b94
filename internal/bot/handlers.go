package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/reviewcal/internal/calendar"
	"github.com/example/reviewcal/internal/session"
)

// Constants for callback data
const (
	callbackToday   = "today"
	callbackStats   = "stats"
	callbackAdvance = "advance"
	callbackSkip    = "skip_"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(message *tgbotapi.Message) error {
	if message == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		return b.handleStart(chatID)
	case "help":
		return b.reply(chatID, helpText)
	case "today":
		return b.handleToday(chatID)
	case "skip":
		keep, err := parseSkipArg(message.CommandArguments())
		if err != nil {
			return b.reply(chatID, err.Error())
		}
		return b.handleSkip(chatID, keep)
	case "stats":
		return b.reply(chatID, formatStats(b.session.Stats()))
	case "advance":
		return b.handleAdvance(chatID)
	default:
		return b.reply(chatID, "Unknown command. Use /help to see the available commands.")
	}
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(callback *tgbotapi.CallbackQuery) error {
	// Answer the callback so the client stops showing a spinner.
	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Error().Err(err).Str("callback", callback.Data).Msg("failed to answer callback")
	}

	if callback.Message == nil || callback.Message.Chat == nil {
		return fmt.Errorf("invalid callback: message is missing")
	}
	chatID := callback.Message.Chat.ID

	switch {
	case callback.Data == callbackToday:
		return b.handleToday(chatID)
	case callback.Data == callbackStats:
		return b.reply(chatID, formatStats(b.session.Stats()))
	case callback.Data == callbackAdvance:
		return b.handleAdvance(chatID)
	case strings.HasPrefix(callback.Data, callbackSkip):
		keep, err := strconv.Atoi(strings.TrimPrefix(callback.Data, callbackSkip))
		if err != nil {
			return fmt.Errorf("invalid skip callback %q: %w", callback.Data, err)
		}
		return b.handleSkip(chatID, keep)
	}
	return nil
}

const helpText = "Review calendar\n\n" +
	"/today - questions due today, in the order to ask them\n" +
	"/skip N - keep the first N questions, move the rest to tomorrow\n" +
	"/stats - session progress\n" +
	"/advance - move to the next day now\n" +
	"/help - show this message"

func (b *Bot) handleStart(chatID int64) error {
	b.subscribe(chatID)
	msg := tgbotapi.NewMessage(chatID, "Subscribed to the daily review queue.\n\n"+helpText)
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleToday(chatID int64) error {
	day := b.session.Today()
	msg := tgbotapi.NewMessage(chatID, formatQueue(day))
	msg.ReplyMarkup = createKeyboard(queueButtons(day))
	return b.sendMessage(msg)
}

func (b *Bot) handleSkip(chatID int64, keep int) error {
	day, err := b.session.Skip(keep)
	switch {
	case errors.Is(err, calendar.ErrNotFound):
		return b.reply(chatID, "Nothing is due today.")
	case errors.Is(err, calendar.ErrInvalidArgument):
		return b.reply(chatID, fmt.Sprintf("Can't keep %d: %v", keep, err))
	case err != nil:
		return err
	}
	return b.reply(chatID, formatQueue(day))
}

func (b *Bot) handleAdvance(chatID int64) error {
	day, err := b.session.Advance()
	if errors.Is(err, session.ErrCurriculumExhausted) {
		return b.reply(chatID, "All items introduced and every review done.")
	}
	if errors.Is(err, session.ErrHorizonReached) {
		return b.reply(chatID, "The session horizon is reached; no new items can be scheduled.")
	}
	if err != nil {
		return err
	}
	return b.SendDailyQueue(day)
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "Today", CallbackData: callbackToday},
			{Text: "Statistics", CallbackData: callbackStats},
		},
		{
			{Text: "Next day", CallbackData: callbackAdvance},
		},
	}
}

// queueButtons offers "keep N" shortcuts for every possible skip of day.
func queueButtons(day session.Day) [][]MenuButton {
	if len(day.Queue) < 2 {
		return mainMenuButtons()
	}
	var row []MenuButton
	for keep := 1; keep < len(day.Queue); keep++ {
		row = append(row, MenuButton{
			Text:         fmt.Sprintf("Keep %d", keep),
			CallbackData: callbackSkip + strconv.Itoa(keep),
		})
	}
	return append([][]MenuButton{row}, mainMenuButtons()...)
}

func parseSkipArg(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, fmt.Errorf("Usage: /skip N, where N is how many questions to keep today")
	}
	keep, err := strconv.Atoi(arg)
	if err != nil || keep < 0 {
		return 0, fmt.Errorf("%q is not a valid number of questions", arg)
	}
	return keep, nil
}

func formatQueue(day session.Day) string {
	if len(day.Queue) == 0 {
		return fmt.Sprintf("Day %d: nothing to review.", day.Date.Offset())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Day %d: %d to review\n", day.Date.Offset(), len(day.Queue))
	for i, occ := range day.Queue {
		fmt.Fprintf(&sb, "%d. %s (repetition %d)\n", i+1, occ.Item.Label, occ.Repetition+1)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatStats(stats session.Stats) string {
	if !stats.Started {
		return "The session has not started yet."
	}
	share := 0.0
	if stats.Inserted > 0 {
		share = float64(stats.Abandoned) / float64(stats.Inserted) * 100
	}
	return fmt.Sprintf("Day %d\n"+
		"Introduced: %d (%d left)\n"+
		"Upcoming reviews: %d\n"+
		"Scheduled: %d, abandoned: %d (%.0f%%)",
		stats.Day.Offset(),
		stats.Introduced, stats.Remaining,
		stats.Upcoming,
		stats.Inserted, stats.Abandoned, share)
}
