package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
)

type StopCommand struct {
	Sessions *player.Registry
}

func (c *StopCommand) Name() string        { return "music-stop" }
func (c *StopCommand) Description() string { return "Stop the current track" }
func (c *StopCommand) Group() string       { return group }
func (c *StopCommand) Category() string    { return category }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StopCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(ctx context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return control(ctx, sc.Event.GuildID, c.Sessions.Stop, "Stopped")
	})
}

type PauseCommand struct {
	Sessions *player.Registry
}

func (c *PauseCommand) Name() string        { return "music-pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Group() string       { return group }
func (c *PauseCommand) Category() string    { return category }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PauseCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(ctx context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return control(ctx, sc.Event.GuildID, c.Sessions.Pause, "Paused")
	})
}

type ResumeCommand struct {
	Sessions *player.Registry
}

func (c *ResumeCommand) Name() string        { return "music-resume" }
func (c *ResumeCommand) Description() string { return "Resume paused playback" }
func (c *ResumeCommand) Group() string       { return group }
func (c *ResumeCommand) Category() string    { return category }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ResumeCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(ctx context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return control(ctx, sc.Event.GuildID, c.Sessions.Resume, "Resumed")
	})
}

func control(ctx context.Context, guildID string, op func(context.Context, string) error, done string) *discordgo.MessageEmbed {
	if err := op(ctx, guildID); err != nil {
		return errorEmbed(err)
	}
	return textEmbed(done)
}
