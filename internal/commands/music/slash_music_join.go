package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
)

type JoinCommand struct {
	Sessions *player.Registry
	Bot      core.BotVoice
}

func (c *JoinCommand) Name() string        { return "music-join" }
func (c *JoinCommand) Description() string { return "Join your voice channel" }
func (c *JoinCommand) Group() string       { return group }
func (c *JoinCommand) Category() string    { return category }

func (c *JoinCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *JoinCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(ctx context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return c.join(ctx, sc.Event.GuildID, sc.UserID())
	})
}

func (c *JoinCommand) join(ctx context.Context, guildID, userID string) *discordgo.MessageEmbed {
	p, err := joinUser(ctx, c.Sessions, c.Bot, guildID, userID)
	if err != nil {
		return errorEmbed(err)
	}
	return textEmbed(fmt.Sprintf("Joined <#%s>", p.ChannelID()))
}
