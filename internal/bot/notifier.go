package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the notifier uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers due-review reminders to one Telegram chat
type TelegramNotifier struct {
	api    sender
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier authorizes the bot token and returns a notifier for chatID
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is not set")
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("authorized on telegram account", "username", botAPI.Self.UserName)

	return newTelegramNotifier(botAPI, chatID, logger), nil
}

func newTelegramNotifier(api sender, chatID int64, logger *slog.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}
}

// SendReminders implements the scheduler.Notifier interface
func (n *TelegramNotifier) SendReminders(ctx context.Context, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, ReminderText(count))
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("error sending reminder", "chat_id", n.chatID, "error", err)
		return err
	}

	n.logger.Info("sent reminder", "chat_id", n.chatID, "count", count)
	return nil
}

// LogNotifier writes reminders to the log. It is used when no bot is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// SendReminders implements the scheduler.Notifier interface
func (n LogNotifier) SendReminders(_ context.Context, count int) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(ReminderText(count), "count", count)
	return nil
}

// ReminderText formats the reminder message for count due words
func ReminderText(count int) string {
	// Формируем сообщение с учетом количества слов
	wordForm := "words"
	if count == 1 {
		wordForm = "word"
	}
	return fmt.Sprintf("You have %d %s to review! Run `vocabdrill due` to see them.", count, wordForm)
}
