// Package music holds the music slash commands.
package music

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
	"github.com/keshon/guildtunes/internal/music/track"
)

const (
	group    = "music"
	category = "🎵 Music"

	// commandTimeout bounds one command run, including node searches.
	commandTimeout = 30 * time.Second
)

// Commands returns every music command bound to sessions.
func Commands(sessions *player.Registry, voice core.BotVoice) []core.Command {
	return []core.Command{
		&JoinCommand{Sessions: sessions, Bot: voice},
		&LeaveCommand{Sessions: sessions},
		&PlayCommand{Sessions: sessions, Bot: voice},
		&StopCommand{Sessions: sessions},
		&PauseCommand{Sessions: sessions},
		&ResumeCommand{Sessions: sessions},
		&NowCommand{Sessions: sessions},
		&HistoryCommand{},
	}
}

// runDeferred acknowledges the interaction, runs exec and sends its embed
// as the follow-up.
func runDeferred(ctx interface{}, exec func(context.Context, *core.SlashInteractionContext) *discordgo.MessageEmbed) error {
	sc, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}

	if err := core.DeferResponse(sc.Session, sc.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	embed := exec(c, sc)
	if err := core.FollowupEmbed(sc.Session, sc.Event, embed); err != nil {
		log.Printf("[WARN] Failed to send follow-up | id=%s: %v", sc.InvocationID, err)
	}
	return nil
}

func textEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: text, Color: core.EmbedColor}
}

// errorEmbed turns an operation error into the message users see.
func errorEmbed(err error) *discordgo.MessageEmbed {
	switch {
	case errors.Is(err, player.ErrUserNotInVoice):
		return textEmbed("You are not in a voice channel")
	case errors.Is(err, player.ErrNoActiveSession):
		return textEmbed("Not in a voice channel")
	case errors.Is(err, track.ErrNothingFound):
		return textEmbed("Found nothing")
	case errors.Is(err, context.DeadlineExceeded):
		return textEmbed("🎵 Error: the audio node took too long to answer")
	default:
		return textEmbed(fmt.Sprintf("🎵 Error: %s", err.Error()))
	}
}

// joinUser connects the guild session to the invoking user's channel.
func joinUser(ctx context.Context, sessions *player.Registry, voice core.BotVoice, guildID, userID string) (*player.Player, error) {
	vs, err := voice.FindUserVoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return nil, player.ErrUserNotInVoice
	}
	return sessions.Join(ctx, guildID, vs.ChannelID)
}

func formatLength(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func trackLink(t track.Track) string {
	if t.URI == "" {
		return t.DisplayName()
	}
	return fmt.Sprintf("[%s](%s)", t.DisplayName(), t.URI)
}
