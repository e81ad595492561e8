package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
)

type LeaveCommand struct {
	Sessions *player.Registry
}

func (c *LeaveCommand) Name() string        { return "music-leave" }
func (c *LeaveCommand) Description() string { return "Stop playback and leave the voice channel" }
func (c *LeaveCommand) Group() string       { return group }
func (c *LeaveCommand) Category() string    { return category }

func (c *LeaveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *LeaveCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(ctx context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return c.leave(ctx, sc.Event.GuildID)
	})
}

func (c *LeaveCommand) leave(ctx context.Context, guildID string) *discordgo.MessageEmbed {
	if err := c.Sessions.Leave(ctx, guildID); err != nil {
		return errorEmbed(err)
	}
	return textEmbed("Left")
}
