package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
	"github.com/vietdungdev/mapcrafter/internal/event"
)

type Bot struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	manager  *crafter.Manager
	logger   *slog.Logger
	stopOnce sync.Once
}

func (b *Bot) Start(ctx context.Context) error {
	offset, err := b.getLatestOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.Close()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			if err := b.send(b.handleCommand(update.Message.Text)); err != nil {
				b.logger.Error("Error answering Telegram command", slog.Any("error", err))
			}
		}
	}
}

func (b *Bot) getLatestOffset() (int, error) {
	upds, err := b.bot.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}

func (b *Bot) send(message string) error {
	if message == "" {
		return nil
	}
	_, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, message))
	return err
}

// handleCommand answers "craft <profile>", "stop <profile>" and "status".
// Anything else is ignored.
func (b *Bot) handleCommand(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	switch strings.ToLower(words[0]) {
	case "craft", "/craft":
		if len(words) < 2 {
			return "Usage: craft <profile>"
		}
		if !slices.Contains(b.manager.AvailableProfiles(), words[1]) {
			return fmt.Sprintf("Profile %s not found", words[1])
		}
		if err := b.manager.Start(words[1]); err != nil {
			return fmt.Sprintf("Could not start %s: %s", words[1], err)
		}
		return fmt.Sprintf("Crafting %s", words[1])
	case "stop", "/stop":
		if len(words) < 2 {
			return "Usage: stop <profile>"
		}
		if !b.manager.Stop(words[1]) {
			return fmt.Sprintf("%s is not crafting", words[1])
		}
		return fmt.Sprintf("Stopped %s", words[1])
	case "status", "/status":
		lines := make([]string, 0)
		for _, profile := range b.manager.AvailableProfiles() {
			status := b.manager.Status(profile)
			lines = append(lines, fmt.Sprintf("%s: %s", profile, status.Status))
		}
		if len(lines) == 0 {
			return "No profiles available"
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func (b *Bot) Handle(_ context.Context, e event.Event) error {
	message := formatEvent(e)
	if message == "" {
		return nil
	}
	return b.send(message)
}

func formatEvent(e event.Event) string {
	switch evt := e.(type) {
	case event.CraftStartedEvent:
		return fmt.Sprintf("[%s] started crafting (%s, %s)", evt.Profile(), evt.Strategy, evt.Mode)
	case event.CraftFinishedEvent:
		return fmt.Sprintf("[%s] %s, %d processed", evt.Profile(), evt.Message(), evt.Processed)
	case event.TunnelOpenedEvent:
		return evt.Message()
	default:
		return ""
	}
}
