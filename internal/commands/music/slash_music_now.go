package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
)

const queuePreview = 10

type NowCommand struct {
	Sessions *player.Registry
}

func (c *NowCommand) Name() string        { return "music-now" }
func (c *NowCommand) Description() string { return "Show what is playing and what is queued" }
func (c *NowCommand) Group() string       { return group }
func (c *NowCommand) Category() string    { return category }

func (c *NowCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *NowCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(_ context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return c.now(sc.Event.GuildID)
	})
}

func (c *NowCommand) now(guildID string) *discordgo.MessageEmbed {
	p := c.Sessions.Get(guildID)
	if p == nil {
		return errorEmbed(player.ErrNoActiveSession)
	}
	snap := p.Snapshot()

	var sb strings.Builder
	if snap.Current != nil {
		fmt.Fprintf(&sb, "🎶 %s\n", trackLink(*snap.Current))
	} else {
		sb.WriteString("Nothing is playing\n")
	}

	if snap.QueueSize > 0 {
		sb.WriteString("\n**Up next**\n")
		for i, t := range snap.Queue {
			if i == queuePreview {
				fmt.Fprintf(&sb, "…and %d more\n", snap.QueueSize-queuePreview)
				break
			}
			fmt.Fprintf(&sb, "%d. %s\n", i+1, trackLink(t))
		}
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", snap.Status.StringEmoji(), snap.Status),
		Description: sb.String(),
		Color:       core.EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d items in queue", snap.QueueSize)},
	}
}
