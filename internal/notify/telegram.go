package notify

import (
	"context"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/observability"
)

// Telegram forwards notifications to one chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zap.Logger
}

func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, nil, log)
}

// NewTelegramWithEndpoint points the bot at another API host (tests, proxies).
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, hc *http.Client, log *zap.Logger) (*Telegram, error) {
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, hc)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

func (t *Telegram) Notify(_ context.Context, title, body string) error {
	text := body
	if title != "" {
		text = title + "\n" + body
	}
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
	if err != nil {
		if isSystemErr(err) {
			observability.CaptureErr(err)
			t.log.Error("telegram send failed", zap.Error(err))
		} else {
			t.log.Warn("telegram rejected message", zap.Error(err))
		}
	}
	return err
}

// 5xx, 429 and transport failures are ours; 400s (chat not found,
// can't parse entities) are configuration problems and stay out of Sentry.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	var tgErr tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == http.StatusTooManyRequests || tgErr.Code >= 500
	}
	var ptgErr *tgbotapi.Error
	if errors.As(err, &ptgErr) {
		return ptgErr.Code == http.StatusTooManyRequests || ptgErr.Code >= 500
	}
	return true
}
