package discord

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/vietdungdev/mapcrafter/internal/crafter"
)

func text(content string) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: content}
}

func (b *Bot) profileExists(profile string) bool {
	return slices.Contains(b.manager.AvailableProfiles(), profile)
}

func (b *Bot) handleCraftRequest(profiles []string) *discordgo.MessageSend {
	if len(profiles) == 0 {
		return text("Usage: !craft <profile1> [profile2] ...")
	}

	lines := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		if !b.profileExists(profile) {
			lines = append(lines, fmt.Sprintf("Profile '%s' not found.", profile))
			continue
		}

		if err := b.manager.Start(profile); err != nil {
			lines = append(lines, fmt.Sprintf("Profile '%s' could not be started: %s", profile, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("Craft session for '%s' has been started.", profile))
	}

	return text(strings.Join(lines, "\n"))
}

func (b *Bot) handleStopRequest(profiles []string) *discordgo.MessageSend {
	if len(profiles) == 0 {
		return text("Usage: !stop <profile1> [profile2] ...")
	}

	lines := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		if !b.profileExists(profile) {
			lines = append(lines, fmt.Sprintf("Profile '%s' not found.", profile))
			continue
		}

		if !b.manager.Stop(profile) {
			lines = append(lines, fmt.Sprintf("Profile '%s' is not crafting.", profile))
			continue
		}
		lines = append(lines, fmt.Sprintf("Craft session for '%s' has been stopped.", profile))
	}

	return text(strings.Join(lines, "\n"))
}

func (b *Bot) handleStatusRequest(profiles []string) *discordgo.MessageSend {
	if len(profiles) == 0 {
		profiles = b.manager.AvailableProfiles()
	}

	lines := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		if !b.profileExists(profile) {
			lines = append(lines, fmt.Sprintf("Profile '%s' not found.", profile))
			continue
		}

		status := b.manager.Status(profile)
		line := fmt.Sprintf("Profile '%s' is %s", profile, status.Status)
		if status.Status != crafter.NotStarted && status.Status != crafter.Crafting {
			line += fmt.Sprintf(" (%d processed)", status.Processed)
		}
		if status.Error != "" {
			line += ": " + status.Error
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return text("No profiles available.")
	}
	return text(strings.Join(lines, "\n"))
}

func (b *Bot) handleListRequest() *discordgo.MessageSend {
	profiles := b.manager.AvailableProfiles()

	if len(profiles) == 0 {
		return text("No profiles available.")
	}

	var fields []*discordgo.MessageEmbedField

	for _, profile := range profiles {
		status := b.manager.Status(profile)
		var statusText, uptimeText string

		if status.Status == crafter.Crafting {
			statusText = "✅ crafting"
			uptimeText = formatUptime(time.Since(status.StartedAt))
		} else {
			statusText = fmt.Sprintf("❌ %s", status.Status)
			uptimeText = "-"
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   profile,
			Value:  fmt.Sprintf("Status: %s\nUptime: %s", statusText, uptimeText),
			Inline: true,
		})
	}

	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{{
		Title:  "📋 Craft Profiles",
		Fields: fields,
		Color:  0x5865F2, // Discord blurple
	}}}
}

func formatUptime(uptime time.Duration) string {
	switch {
	case uptime < time.Minute:
		return fmt.Sprintf("%ds", int(uptime.Seconds()))
	case uptime < time.Hour:
		return fmt.Sprintf("%dm", int(uptime.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm", int(uptime.Hours()), int(uptime.Minutes())%60)
	}
}

func (b *Bot) handleHelpRequest() *discordgo.MessageSend {
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{{
		Title:       "🤖 Map Crafter Discord Bot Commands",
		Description: "Control and monitor your map craft sessions",
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "!list",
				Value: "Show all craft profiles with their status and uptime",
			},
			{
				Name:  "!craft <profile1> [profile2] ...",
				Value: "Start a craft session for one or more profiles\nExample: `!craft strand`",
			},
			{
				Name:  "!stop <profile1> [profile2] ...",
				Value: "Stop the running craft session of profiles\nExample: `!stop strand`",
			},
			{
				Name:  "!status [profile1] [profile2] ...",
				Value: "Show the last session result of profiles, every profile when none is given",
			},
			{
				Name:  "!help",
				Value: "Show this help message",
			},
		},
	}}}
}
