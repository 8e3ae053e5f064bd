package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vietdungdev/mapcrafter/internal/event"
)

func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.CraftStartedEvent:
		message := fmt.Sprintf("**[%s]** started a craft session: **%s** / **%s**", evt.Profile(), evt.Strategy, evt.Mode)
		return b.sendEventMessage(ctx, message)
	case event.CraftFinishedEvent:
		return b.sendEventEmbed(ctx, buildCraftFinishedEmbed(evt))
	case event.TunnelOpenedEvent:
		return b.sendEventMessage(ctx, fmt.Sprintf("Remote control: <%s>", evt.URL))
	default:
		return nil
	}
}

func buildCraftFinishedEmbed(evt event.CraftFinishedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("[%s] craft %s", evt.Profile(), evt.Reason),
		Description: evt.Message(),
		Color:       getReasonColor(evt.Reason),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Processed", Value: fmt.Sprintf("%d", evt.Processed), Inline: true},
			{Name: "Session", Value: evt.SessionID, Inline: true},
		},
		Timestamp: evt.OccurredAt().Format(time.RFC3339),
	}
}

func getReasonColor(reason event.FinishReason) int {
	switch reason {
	case event.FinishedSuccess:
		return 0x00ff00
	case event.FinishedCancelled:
		return 0xffff77
	case event.FinishedFailed, event.FinishedError:
		return 0xff0000
	default:
		return 0x999999
	}
}

func (b *Bot) sendEventMessage(ctx context.Context, message string) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message)
	}

	_, err := b.discordSession.ChannelMessageSend(b.channelID, message)
	return err
}

func (b *Bot) sendEventEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	if b.useWebhook {
		return b.webhookClient.SendEmbed(ctx, embed)
	}

	_, err := b.discordSession.ChannelMessageSendEmbed(b.channelID, embed)
	return err
}
