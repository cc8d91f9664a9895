// Package discord talks to the Discord API on the shop's behalf. The only
// call made here is a read-only identity check on a submitted bot token;
// running the customer's bot is not this service's job.
package discord

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// TokenProbe verifies submitted bot tokens live against the Discord API.
// A nil probe is valid and means the check is disabled.
type TokenProbe struct {
	timeout time.Duration
}

// NewTokenProbe returns a probe, or nil when disabled so callers can wire it
// unconditionally.
func NewTokenProbe(enabled bool) *TokenProbe {
	if !enabled {
		return nil
	}
	log.Println("[discord-probe] live token verification enabled")
	return &TokenProbe{timeout: 5 * time.Second}
}

// Check asks Discord who the token belongs to. It returns the bot's tag on
// success. Failures are advisory: the caller reports them alongside the
// order instead of rejecting it.
func (p *TokenProbe) Check(token string) (string, error) {
	if p == nil {
		return "", nil
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	s.Client.Timeout = p.timeout

	u, err := s.User("@me")
	if err != nil {
		log.Printf("[discord-probe] token rejected by Discord: %v", err)
		return "", fmt.Errorf("token rejected by Discord: %w", err)
	}

	tag := u.Username
	if u.Discriminator != "" && u.Discriminator != "0" {
		tag += "#" + u.Discriminator
	}
	return tag, nil
}
