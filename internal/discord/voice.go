package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guildtunes/internal/lavalink"
	"github.com/keshon/guildtunes/internal/music/player"
)

const defaultVoiceTimeout = 10 * time.Second

// ErrVoiceTimeout is returned when Discord does not hand out a voice
// session in time.
var ErrVoiceTimeout = errors.New("timed out waiting for voice session")

// voiceGateway is the signalling half of the Discord gateway.
// *discordgo.Session satisfies it.
type voiceGateway interface {
	ChannelVoiceJoinManual(gID, cID string, mute, deaf bool) error
}

// VoiceUpdater receives the voice session of a guild.
type VoiceUpdater interface {
	UpdateVoice(ctx context.Context, guildID string, vs lavalink.VoiceState) error
}

// VoiceBridge joins voice channels on behalf of the audio node. Discord
// answers a join with a voice state update (session ID) and a voice server
// update (token and endpoint); both are collected and forwarded to the
// node, which then holds the actual audio connection.
type VoiceBridge struct {
	node    VoiceUpdater
	Timeout time.Duration

	mu      sync.Mutex
	gw      voiceGateway
	userID  string
	pending map[string]*handshake
}

type handshake struct {
	channelID string
	sessionID string
	token     string
	endpoint  string
	done      chan struct{}
	finished  bool
}

func (h *handshake) complete() bool {
	return h.sessionID != "" && h.token != "" && h.endpoint != ""
}

// NewVoiceBridge creates a bridge forwarding voice sessions to node.
func NewVoiceBridge(node VoiceUpdater) *VoiceBridge {
	return &VoiceBridge{
		node:    node,
		Timeout: defaultVoiceTimeout,
		pending: make(map[string]*handshake),
	}
}

// attach binds the bridge to a gateway connection and the bot user.
func (v *VoiceBridge) attach(gw voiceGateway, userID string) {
	v.mu.Lock()
	v.gw = gw
	v.userID = userID
	v.mu.Unlock()
}

// Connect implements player.Voice.
func (v *VoiceBridge) Connect(ctx context.Context, guildID, channelID string) (player.VoiceConn, error) {
	v.mu.Lock()
	gw := v.gw
	if gw == nil {
		v.mu.Unlock()
		return nil, errors.New("discord gateway is not connected")
	}
	h := &handshake{channelID: channelID, done: make(chan struct{})}
	v.pending[guildID] = h
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		if v.pending[guildID] == h {
			delete(v.pending, guildID)
		}
		v.mu.Unlock()
	}()

	if err := gw.ChannelVoiceJoinManual(guildID, channelID, false, true); err != nil {
		return nil, fmt.Errorf("failed to send voice join: %w", err)
	}

	timeout := time.NewTimer(v.Timeout)
	defer timeout.Stop()

	select {
	case <-h.done:
	case <-timeout.C:
		v.leave(gw, guildID)
		return nil, ErrVoiceTimeout
	case <-ctx.Done():
		v.leave(gw, guildID)
		return nil, ctx.Err()
	}

	v.mu.Lock()
	vs := lavalink.VoiceState{Token: h.token, Endpoint: h.endpoint, SessionID: h.sessionID}
	v.mu.Unlock()

	if err := v.node.UpdateVoice(ctx, guildID, vs); err != nil {
		v.leave(gw, guildID)
		return nil, fmt.Errorf("failed to hand voice session to node: %w", err)
	}
	return &voiceConn{bridge: v, guildID: guildID, channelID: channelID}, nil
}

func (v *VoiceBridge) leave(gw voiceGateway, guildID string) {
	if err := gw.ChannelVoiceJoinManual(guildID, "", false, false); err != nil {
		log.Printf("[WARN] Failed to leave voice | guild=%s: %v", guildID, err)
	}
}

// OnVoiceStateUpdate collects the bot's voice session ID.
func (v *VoiceBridge) OnVoiceStateUpdate(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.VoiceState == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if e.UserID != v.userID {
		return
	}
	h, ok := v.pending[e.GuildID]
	if !ok || e.ChannelID != h.channelID {
		return
	}
	h.sessionID = e.SessionID
	v.finishLocked(h)
}

// OnVoiceServerUpdate collects the voice token and endpoint.
func (v *VoiceBridge) OnVoiceServerUpdate(_ *discordgo.Session, e *discordgo.VoiceServerUpdate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	h, ok := v.pending[e.GuildID]
	if !ok {
		return
	}
	h.token = e.Token
	h.endpoint = e.Endpoint
	v.finishLocked(h)
}

func (v *VoiceBridge) finishLocked(h *handshake) {
	if !h.finished && h.complete() {
		h.finished = true
		close(h.done)
	}
}

type voiceConn struct {
	bridge    *VoiceBridge
	guildID   string
	channelID string
}

func (c *voiceConn) ChannelID() string { return c.channelID }

// Disconnect leaves the voice channel.
func (c *voiceConn) Disconnect(_ context.Context) error {
	c.bridge.mu.Lock()
	gw := c.bridge.gw
	c.bridge.mu.Unlock()
	if gw == nil {
		return nil
	}
	if err := gw.ChannelVoiceJoinManual(c.guildID, "", false, false); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}
