package core

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/keshon/guildtunes/internal/storage"

	"github.com/bwmarrin/discordgo"
)

const EmbedColor = 0xb01e66

func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// DeferResponse acknowledges the interaction so the reply may take longer
// than Discord's three second window.
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func FollowupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// CommandParam renders the options of a slash command as name=value pairs.
func CommandParam(i *discordgo.InteractionCreate) string {
	if i.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	opts := i.ApplicationCommandData().Options
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, fmt.Sprintf("%s=%v", o.Name, o.Value))
	}
	return strings.Join(parts, " ")
}

func LogCommand(s *discordgo.Session, store *storage.Storage, guildID, channelID, userID, username, commandName, param, invocationID string) error {
	channelName := ""
	if s != nil && s.State != nil {
		channel, err := s.State.Channel(channelID)
		if err != nil {
			channel, err = s.Channel(channelID)
			if err != nil {
				log.Println("Failed to fetch channel:", err)
			}
		}
		if channel != nil {
			channelName = channel.Name
		}
	}

	guildName := ""
	if s != nil && s.State != nil {
		guild, err := s.State.Guild(guildID)
		if err != nil {
			guild, err = s.Guild(guildID)
			if err != nil {
				log.Println("Failed to fetch guild:", err)
			}
		}
		if guild != nil {
			guildName = guild.Name
		}
	}

	return store.AppendCommandToHistory(guildID, storage.CommandHistoryRecord{
		InvocationID: invocationID,
		ChannelID:    channelID,
		ChannelName:  channelName,
		GuildName:    guildName,
		UserID:       userID,
		Username:     username,
		Command:      commandName,
		Param:        param,
		Datetime:     time.Now().UTC(),
	})
}
