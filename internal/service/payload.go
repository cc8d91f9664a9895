package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hugsndnugs/Sentinel-Shop/internal/model"
)

const (
	embedColor      = 0x5865F2 // Discord blurple
	previewLen      = 20
	redactedValue   = "[redacted]"
	payloadUsername = "Sentinel Shop Orders"
	payloadFooter   = "Sentinel Shop"
)

// discordEmbed is a Discord webhook embed.
type discordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
	Footer      *discordFooter `json:"footer,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

// botConfig renders the hosted bot's .env in its canonical key order. The
// struct field order is the wire order for the JSON bulk section.
type botConfig struct {
	DiscordToken        string `json:"DISCORD_TOKEN"`
	DiscordClientID     string `json:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `json:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `json:"DISCORD_REDIRECT_URI"`
	LogLevel            string `json:"LOG_LEVEL"`
	BotStatus           string `json:"BOT_STATUS"`
}

func newBotConfig(sub *model.OrderSubmission, redact bool) botConfig {
	token := sub.DiscordToken
	secret := sub.DiscordClientSecret
	if redact {
		token = redactedValue
		secret = redactedValue
	}
	return botConfig{
		DiscordToken:        token,
		DiscordClientID:     sub.DiscordClientID,
		DiscordClientSecret: secret,
		DiscordRedirectURI:  sub.DiscordRedirectURI,
		LogLevel:            sub.LogLevel,
		BotStatus:           sub.BotStatus,
	}
}

// preview shortens a secret to its first characters for display. The full
// value still travels in the bulk config sections unless redaction is on.
func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}

func (c botConfig) envLines() string {
	var b strings.Builder
	b.WriteString("DISCORD_TOKEN=" + c.DiscordToken + "\n")
	b.WriteString("DISCORD_CLIENT_ID=" + c.DiscordClientID + "\n")
	b.WriteString("DISCORD_CLIENT_SECRET=" + c.DiscordClientSecret + "\n")
	b.WriteString("DISCORD_REDIRECT_URI=" + c.DiscordRedirectURI + "\n")
	b.WriteString("LOG_LEVEL=" + c.LogLevel + "\n")
	b.WriteString("BOT_STATUS=" + c.BotStatus)
	return b.String()
}

// buildPayload shapes one order into the webhook notification: preview fields
// for the operator to eyeball, then the full bot config as .env lines and as
// formatted JSON for copy-paste provisioning. tokenCheck, when non-empty, is
// the outcome of the optional live token probe.
func buildPayload(sub *model.OrderSubmission, redactBulk bool, tokenCheck string) discordWebhookPayload {
	fields := []discordField{
		{Name: "Customer", Value: sub.CustomerName, Inline: true},
		{Name: "Email", Value: sub.CustomerEmail, Inline: true},
		{Name: "Bot Token", Value: preview(sub.DiscordToken)},
		{Name: "Client ID", Value: sub.DiscordClientID, Inline: true},
		{Name: "Client Secret", Value: preview(sub.DiscordClientSecret), Inline: true},
		{Name: "Redirect URI", Value: sub.DiscordRedirectURI},
		{Name: "Log Level", Value: sub.LogLevel, Inline: true},
		{Name: "Bot Status", Value: sub.BotStatus, Inline: true},
	}
	if sub.OrderNotes != "" {
		fields = append(fields, discordField{Name: "Order Notes", Value: sub.OrderNotes})
	}
	if tokenCheck != "" {
		fields = append(fields, discordField{Name: "Token Check", Value: tokenCheck})
	}

	cfg := newBotConfig(sub, redactBulk)
	fields = append(fields, discordField{
		Name:  "Bot Config (.env)",
		Value: "```\n" + cfg.envLines() + "\n```",
	})
	cfgJSON, _ := json.MarshalIndent(cfg, "", "  ")
	fields = append(fields, discordField{
		Name:  "Bot Config (JSON)",
		Value: "```json\n" + string(cfgJSON) + "\n```",
	})

	return discordWebhookPayload{
		Username: payloadUsername,
		Embeds: []discordEmbed{{
			Title:     "🛒 New Bot Hosting Order",
			Color:     embedColor,
			Fields:    fields,
			Timestamp: sub.Timestamp.Format(time.RFC3339),
			Footer:    &discordFooter{Text: fmt.Sprintf("%s • Order %s", payloadFooter, sub.Reference)},
		}},
	}
}
