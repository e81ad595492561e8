package info

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/lavalink"
)

type NodeStatus interface {
	State() lavalink.State
}

type SessionCounter interface {
	Len() int
}

type PingCommand struct {
	Node     NodeStatus
	Sessions SessionCounter
}

func (c *PingCommand) Name() string        { return "ping" }
func (c *PingCommand) Description() string { return "Check bot latency and audio node status" }
func (c *PingCommand) Group() string       { return group }
func (c *PingCommand) Category() string    { return category }

func (c *PingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *PingCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}
	return core.RespondEmbedEphemeral(sc.Session, sc.Event, c.pong(sc.Session.HeartbeatLatency()))
}

func (c *PingCommand) pong(latency time.Duration) *discordgo.MessageEmbed {
	state := c.Node.State()
	icon := "🟢"
	if state != lavalink.StateReady {
		icon = "🔴"
	}
	return &discordgo.MessageEmbed{
		Title: "Pong!",
		Description: fmt.Sprintf("Latency: %dms\nAudio node: %s %s\nActive sessions: %d",
			latency.Milliseconds(), icon, state, c.Sessions.Len()),
		Color: core.EmbedColor,
	}
}
