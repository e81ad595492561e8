package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/commands/info"
	"github.com/keshon/guildtunes/internal/commands/music"
	"github.com/keshon/guildtunes/internal/config"
	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
	"github.com/keshon/guildtunes/internal/storage"
)

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	sessions *player.Registry
	voice    *VoiceBridge

	mu         sync.Mutex
	userID     string
	ready      chan struct{}
	readyOnce  sync.Once
	registered map[string]bool
}

// NewBot creates the bot and registers its commands.
func NewBot(cfg *config.Config, store *storage.Storage, sessions *player.Registry, voice *VoiceBridge, node info.NodeStatus) *Bot {
	b := &Bot{
		cfg:        cfg,
		storage:    store,
		sessions:   sessions,
		voice:      voice,
		ready:      make(chan struct{}),
		registered: make(map[string]bool),
	}
	b.registerAppCommands(node)
	return b
}

// registerAppCommands registers the music and info commands
func (b *Bot) registerAppCommands(node info.NodeStatus) {
	cmds := append(music.Commands(b.sessions, b), info.Commands(node, b.sessions)...)
	for _, cmd := range cmds {
		core.RegisterCommand(cmd,
			core.WithGuildOnly(),
			core.WithCommandLogger(),
		)
	}
}

// Run connects to Discord and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.voice.OnVoiceStateUpdate)
	dg.AddHandler(b.voice.OnVoiceServerUpdate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

// UserID blocks until the bot is logged in and returns its user ID.
func (b *Bot) UserID(ctx context.Context) (string, error) {
	select {
	case <-b.ready:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.userID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// onReady is called when the bot is ready
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.voice.attach(s, r.User.ID)
	b.mu.Lock()
	b.userID = r.User.ID
	b.mu.Unlock()
	b.readyOnce.Do(func() { close(b.ready) })

	for _, g := range r.Guilds {
		b.setupGuild(s, g.ID, g.Name)
	}
	log.Printf("[INFO] ✅ Discord bot %v is running.", r.User.Username)
}

// onGuildCreate is called when the bot joins or reconnects to a guild
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.setupGuild(s, g.ID, g.Name)
}

func (b *Bot) setupGuild(s *discordgo.Session, guildID, name string) {
	if b.cfg.IsGuildBlacklisted(guildID) {
		log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", guildID, name)
		if err := s.GuildLeave(guildID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", guildID, err)
		}
		return
	}
	if !b.cfg.InitSlashCommands {
		return
	}

	b.mu.Lock()
	done := b.registered[guildID]
	b.registered[guildID] = true
	b.mu.Unlock()
	if done {
		return
	}

	if err := b.registerCommands(s, guildID); err != nil {
		log.Printf("[ERR] Error registering slash commands for guild %s: %v", guildID, err)
		b.mu.Lock()
		delete(b.registered, guildID)
		b.mu.Unlock()
	}
}

// onInteractionCreate is called when an interaction is created
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if b.cfg.IsGuildBlacklisted(i.GuildID) {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	cmd, ok := core.GetCommand(cmdName)
	if !ok {
		log.Printf("[WARN] Unknown command: %s\n", cmdName)
		return
	}

	ctx := &core.SlashInteractionContext{
		Session: s,
		Event:   i,
		Storage: b.storage,
	}
	if err := cmd.Run(ctx); err != nil {
		embed := &discordgo.MessageEmbed{Description: fmt.Sprintf("Error running slash command: %v", err)}
		if rerr := core.RespondEmbedEphemeral(s, i, embed); rerr != nil {
			_ = core.FollowupEmbed(s, i, embed)
		}
	}
}

// registerCommands makes the guild's slash commands match the registry.
// Nothing is sent when they already match.
func (b *Bot) registerCommands(s *discordgo.Session, guildID string) error {
	appID := s.State.User.ID

	var wanted []*discordgo.ApplicationCommand
	for _, cmd := range core.AllCommands() {
		if def := normalizeDefinition(cmd); def != nil {
			wanted = append(wanted, def)
		}
	}

	existing, err := s.ApplicationCommands(appID, guildID)
	if err == nil && sameCommands(existing, wanted) {
		log.Printf("[INFO] [%s] Slash commands up to date", guildID)
		return nil
	}

	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, wanted); err != nil {
		return err
	}
	log.Printf("[DONE] [%s] Registered %d slash commands", guildID, len(wanted))
	return nil
}

// normalizeDefinition normalizes a command definition
func normalizeDefinition(cmd core.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.(core.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// FindUserVoiceState finds the voice state of a user
func (b *Bot) FindUserVoiceState(guildID, userID string) (*core.VoiceState, error) {
	if b.dg == nil {
		return nil, errors.New("discord session is not running")
	}
	vs, err := b.dg.State.VoiceState(guildID, userID)
	if err != nil || vs.ChannelID == "" {
		return nil, player.ErrUserNotInVoice
	}
	return &core.VoiceState{ChannelID: vs.ChannelID, UserID: vs.UserID}, nil
}
