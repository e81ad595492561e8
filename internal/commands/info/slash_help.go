// Package info holds the informational slash commands.
package info

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/core"
)

const (
	group    = "core"
	category = "🕯️ Information"
)

// Commands returns the informational commands.
func Commands(node NodeStatus, sessions SessionCounter) []core.Command {
	return []core.Command{
		&HelpCommand{},
		&PingCommand{Node: node, Sessions: sessions},
	}
}

type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Group() string       { return group }
func (c *HelpCommand) Category() string    { return category }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *HelpCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return nil
	}
	return core.RespondEmbedEphemeral(sc.Session, sc.Event, helpEmbed(core.AllCommands()))
}

// helpEmbed lists commands by category. Categories and the commands inside
// them are sorted by name.
func helpEmbed(cmds []core.Command) *discordgo.MessageEmbed {
	byCategory := make(map[string][]core.Command)
	for _, cmd := range cmds {
		byCategory[cmd.Category()] = append(byCategory[cmd.Category()], cmd)
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var sb strings.Builder
	for _, cat := range cats {
		sb.WriteString(fmt.Sprintf("**%s**\n", cat))
		list := byCategory[cat]
		sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
		for _, cmd := range list {
			sb.WriteString(fmt.Sprintf("`/%s` - %s\n", cmd.Name(), cmd.Description()))
		}
		sb.WriteString("\n")
	}

	return &discordgo.MessageEmbed{
		Title:       "Help",
		Description: strings.TrimSpace(sb.String()),
		Color:       core.EmbedColor,
	}
}
