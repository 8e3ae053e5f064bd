package telegram

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
)

const (
	maxRetries  = 3
	retryBaseMs = 2000
)

// NewBot creates a Telegram bot, retrying the first contact with
// api.telegram.org which occasionally fails with TCP resets.
func NewBot(token string, chatID int64, manager *crafter.Manager, logger *slog.Logger) (*Bot, error) {
	var api *tgbotapi.BotAPI

	err := retry.Do(
		func() error {
			var err error
			api, err = tgbotapi.NewBotAPI(token)
			return err
		},
		retry.Attempts(maxRetries),
		retry.Delay(retryBaseMs*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Telegram API connection failed, retrying",
				slog.Int("attempt", int(n)+1),
				slog.Int("maxRetries", maxRetries),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", maxRetries, err)
	}
	return &Bot{bot: api, chatID: chatID, manager: manager, logger: logger}, nil
}
