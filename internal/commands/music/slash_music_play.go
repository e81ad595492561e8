package music

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
)

type PlayCommand struct {
	Sessions *player.Registry
	Bot      core.BotVoice
}

func (c *PlayCommand) Name() string        { return "music-play" }
func (c *PlayCommand) Description() string { return "Play a track or playlist by link or search" }
func (c *PlayCommand) Group() string       { return group }
func (c *PlayCommand) Category() string    { return category }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Link or song name",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx interface{}) error {
	return runDeferred(ctx, func(ctx context.Context, sc *core.SlashInteractionContext) *discordgo.MessageEmbed {
		var query string
		for _, opt := range sc.Event.ApplicationCommandData().Options {
			if opt.Name == "query" {
				query = opt.StringValue()
			}
		}
		var user *discordgo.User
		if sc.Event.Member != nil {
			user = sc.Event.Member.User
		}
		return c.play(ctx, sc.Event.GuildID, user, query)
	})
}

// play joins the user's channel when there is no session yet, then
// searches and enqueues.
func (c *PlayCommand) play(ctx context.Context, guildID string, user *discordgo.User, query string) *discordgo.MessageEmbed {
	query = strings.TrimSpace(query)
	if query == "" {
		return textEmbed("🎵 Error: query is required")
	}

	p := c.Sessions.Get(guildID)
	if p == nil {
		if user == nil {
			return errorEmbed(player.ErrUserNotInVoice)
		}
		var err error
		if p, err = joinUser(ctx, c.Sessions, c.Bot, guildID, user.ID); err != nil {
			return errorEmbed(err)
		}
	}

	res, err := p.Play(ctx, query)
	if err != nil {
		return errorEmbed(err)
	}

	if res.IsPlaylist() {
		return textEmbed(fmt.Sprintf("Added the playlist **`%s`** (%d songs) to the queue.", res.Playlist.Name, len(res.Playlist.Tracks)))
	}

	t := res.Tracks()[0]
	embed := &discordgo.MessageEmbed{
		Title:       t.DisplayName(),
		URL:         t.URI,
		Description: fmt.Sprintf("Playing %s in <#%s> (%d items in queue)", t.DisplayName(), p.ChannelID(), p.QueueSize()),
		Color:       core.EmbedColor,
	}
	if t.ArtworkURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: t.ArtworkURL}
	}
	if user != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: user.Username, IconURL: user.AvatarURL("")}
	}
	if t.Length > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: formatLength(t.Length)}
	}
	return embed
}
