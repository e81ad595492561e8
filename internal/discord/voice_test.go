package discord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/guildtunes/internal/lavalink"
)

const botUserID = "bot"

type joinCall struct {
	guildID, channelID string
}

// fakeGateway answers joins the way Discord does: a voice state update for
// the bot followed by a voice server update.
type fakeGateway struct {
	bridge *VoiceBridge
	silent bool

	mu    sync.Mutex
	calls []joinCall
}

func (g *fakeGateway) ChannelVoiceJoinManual(gID, cID string, _, _ bool) error {
	g.mu.Lock()
	g.calls = append(g.calls, joinCall{gID, cID})
	g.mu.Unlock()
	if g.silent || cID == "" {
		return nil
	}
	go func() {
		g.bridge.OnVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{
			GuildID: gID, ChannelID: cID, UserID: botUserID, SessionID: "sess-" + gID,
		}})
		g.bridge.OnVoiceServerUpdate(nil, &discordgo.VoiceServerUpdate{GuildID: gID, Token: "tok", Endpoint: "voice.example"})
	}()
	return nil
}

func (g *fakeGateway) Calls() []joinCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]joinCall(nil), g.calls...)
}

type fakeUpdater struct {
	mu     sync.Mutex
	states map[string]lavalink.VoiceState
	err    error
}

func (f *fakeUpdater) UpdateVoice(_ context.Context, guildID string, vs lavalink.VoiceState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.states[guildID] = vs
	return nil
}

func newBridge(t *testing.T, silent bool) (*VoiceBridge, *fakeGateway, *fakeUpdater) {
	t.Helper()
	up := &fakeUpdater{states: map[string]lavalink.VoiceState{}}
	b := NewVoiceBridge(up)
	b.Timeout = 100 * time.Millisecond
	gw := &fakeGateway{bridge: b, silent: silent}
	b.attach(gw, botUserID)
	return b, gw, up
}

func TestVoiceBridge_ConnectForwardsSession(t *testing.T) {
	b, gw, up := newBridge(t, false)

	conn, err := b.Connect(context.Background(), "g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conn.ChannelID())
	assert.Equal(t, lavalink.VoiceState{Token: "tok", Endpoint: "voice.example", SessionID: "sess-g1"}, up.states["g1"])

	require.NoError(t, conn.Disconnect(context.Background()))
	assert.Equal(t, []joinCall{{"g1", "c1"}, {"g1", ""}}, gw.Calls())
}

func TestVoiceBridge_TimeoutLeaves(t *testing.T) {
	b, gw, _ := newBridge(t, true)

	_, err := b.Connect(context.Background(), "g1", "c1")
	assert.ErrorIs(t, err, ErrVoiceTimeout)
	assert.Equal(t, []joinCall{{"g1", "c1"}, {"g1", ""}}, gw.Calls())
}

func TestVoiceBridge_NodeRejectsSession(t *testing.T) {
	b, gw, up := newBridge(t, false)
	up.err = errors.New("node down")

	_, err := b.Connect(context.Background(), "g1", "c1")
	assert.ErrorIs(t, err, up.err)
	assert.Len(t, gw.Calls(), 2)
}

func TestVoiceBridge_IgnoresOtherUsersAndChannels(t *testing.T) {
	b, _, _ := newBridge(t, true)

	done := make(chan error, 1)
	go func() {
		_, err := b.Connect(context.Background(), "g1", "c1")
		done <- err
	}()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.pending["g1"] != nil
	}, time.Second, time.Millisecond)

	b.OnVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{
		GuildID: "g1", ChannelID: "c1", UserID: "someone", SessionID: "x",
	}})
	b.OnVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{
		GuildID: "g1", ChannelID: "", UserID: botUserID, SessionID: "y",
	}})
	b.OnVoiceServerUpdate(nil, &discordgo.VoiceServerUpdate{GuildID: "g1", Token: "tok", Endpoint: "e"})

	assert.ErrorIs(t, <-done, ErrVoiceTimeout)
}

func TestVoiceBridge_NotAttached(t *testing.T) {
	b := NewVoiceBridge(&fakeUpdater{states: map[string]lavalink.VoiceState{}})
	_, err := b.Connect(context.Background(), "g1", "c1")
	assert.Error(t, err)
}
