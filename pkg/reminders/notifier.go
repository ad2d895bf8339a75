package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/smith3v/mood-tracker/pkg/logger"
)

var ErrNotificationAuthorizationFailed = errors.New("notification authorization failed")

type Notification struct {
	Title string
	Body  string
}

var reminderTexts = map[string]Notification{
	"de": {Title: "Wie fühlst du dich heute?", Body: "Nimm dir einen Moment Zeit und protokolliere deinen Tag."},
	"en": {Title: "How are you feeling today?", Body: "Take a moment to log your day."},
}

// DailyReminder returns the reminder text for a language code, German by default.
func DailyReminder(lang string) Notification {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) > 2 {
		lang = lang[:2]
	}
	if n, ok := reminderTexts[lang]; ok {
		return n
	}
	return reminderTexts["de"]
}

// Notifier delivers a notification to the user.
type Notifier interface {
	Authorize(ctx context.Context) error
	Notify(ctx context.Context, n Notification) error
}

// TelegramNotifier sends notifications as chat messages.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64, opts ...bot.Option) (*TelegramNotifier, error) {
	if strings.TrimSpace(token) == "" || chatID == 0 {
		return nil, fmt.Errorf("%w: telegram token and chat id are required", ErrNotificationAuthorizationFailed)
	}
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotificationAuthorizationFailed, err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID}, nil
}

// Authorize checks the bot token against the Telegram API.
func (n *TelegramNotifier) Authorize(ctx context.Context) error {
	if _, err := n.bot.GetMe(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationAuthorizationFailed, err)
	}
	return nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	text := note.Title
	if note.Body != "" {
		text += "\n\n" + note.Body
	}
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	return err
}

// LogNotifier writes notifications to the log.
type LogNotifier struct{}

func (LogNotifier) Authorize(ctx context.Context) error {
	return nil
}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger.Info("reminder", "title", n.Title, "body", n.Body)
	return nil
}
