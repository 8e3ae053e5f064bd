package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/vietdungdev/mapcrafter/internal/config"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
)

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	manager        *crafter.Manager
	useWebhook     bool
	webhookClient  *webhookClient
}

func NewBot(token, channelID string, manager *crafter.Manager, useWebhook bool, webhookURL string) (*Bot, error) {
	botInstance := &Bot{
		channelID:  channelID,
		manager:    manager,
		useWebhook: useWebhook,
	}

	if useWebhook {
		if webhookURL == "" {
			return nil, fmt.Errorf("webhook URL is required when using webhook mode")
		}
		botInstance.webhookClient = newWebhookClient(webhookURL)
		return botInstance, nil
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	botInstance.discordSession = dg

	return botInstance, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if b.useWebhook {
		<-ctx.Done()
		return nil
	}

	b.discordSession.AddHandler(b.onMessageCreated)
	// MESSAGE_CONTENT is required to read the commands
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	err := b.discordSession.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	if !slices.Contains(config.Crafter.Discord.BotAdmins, m.Author.ID) {
		return
	}

	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	s.ChannelMessageSendComplex(m.ChannelID, b.handleCommand(m.Content))
}

func (b *Bot) handleCommand(content string) *discordgo.MessageSend {
	words := strings.Fields(content)
	if len(words) == 0 {
		return b.handleHelpRequest()
	}

	switch words[0] {
	case "!craft":
		return b.handleCraftRequest(words[1:])
	case "!stop":
		return b.handleStopRequest(words[1:])
	case "!status":
		return b.handleStatusRequest(words[1:])
	case "!list":
		return b.handleListRequest()
	case "!help":
		return b.handleHelpRequest()
	default:
		return text(fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", words[0]))
	}
}
