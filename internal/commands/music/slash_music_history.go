package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/storage"
)

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "music-history" }
func (c *HistoryCommand) Description() string { return "Show recently played tracks" }
func (c *HistoryCommand) Group() string       { return group }
func (c *HistoryCommand) Category() string    { return category }

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HistoryCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(_ context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		return c.history(sc.Storage, sc.Event.GuildID)
	})
}

func (c *HistoryCommand) history(store *storage.Storage, guildID string) *discordgo.MessageEmbed {
	if store == nil {
		return textEmbed("🎵 Error: history is not available")
	}
	records, err := store.FetchTrackHistory(guildID)
	if err != nil {
		return errorEmbed(err)
	}
	if len(records) == 0 {
		return textEmbed("Nothing has been played yet")
	}

	var sb strings.Builder
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		title := r.Title
		if r.URI != "" {
			title = fmt.Sprintf("[%s](%s)", r.Title, r.URI)
		}
		fmt.Fprintf(&sb, "<t:%d:R> %s\n", r.PlayedAt.Unix(), title)
	}
	return &discordgo.MessageEmbed{
		Title:       "🕘 Recently played",
		Description: sb.String(),
		Color:       core.EmbedColor,
	}
}
