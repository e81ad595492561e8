package music

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/music/player"
	"github.com/keshon/guildtunes/internal/music/track"
	"github.com/keshon/guildtunes/internal/storage"
)

type stubNode struct {
	mu      sync.Mutex
	results map[string]track.Result
	played  []string
}

func (n *stubNode) LoadTracks(_ context.Context, query string) (track.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	res, ok := n.results[query]
	if !ok {
		return track.Result{}, track.ErrNothingFound
	}
	return res, nil
}

func (n *stubNode) Play(_ context.Context, _ string, t track.Track) error {
	n.mu.Lock()
	n.played = append(n.played, t.Title)
	n.mu.Unlock()
	return nil
}

func (n *stubNode) Pause(context.Context, string, bool) error { return nil }
func (n *stubNode) Stop(context.Context, string) error        { return nil }
func (n *stubNode) Destroy(context.Context, string) error     { return nil }

type stubConn struct{ channelID string }

func (c stubConn) ChannelID() string { return c.channelID }
func (c stubConn) Disconnect(context.Context) error { return nil }

type stubVoice struct{}

func (stubVoice) Connect(_ context.Context, _, channelID string) (player.VoiceConn, error) {
	return stubConn{channelID}, nil
}

// users maps user IDs to the voice channel they sit in.
type users map[string]string

func (u users) FindUserVoiceState(_, userID string) (*core.VoiceState, error) {
	ch, ok := u[userID]
	if !ok {
		return nil, errors.New("user not in any voice channel")
	}
	return &core.VoiceState{ChannelID: ch, UserID: userID}, nil
}

func setup() (*player.Registry, *stubNode, users) {
	node := &stubNode{results: map[string]track.Result{
		"song A": track.Single(track.Track{Title: "song A", URI: "https://example.com/a", ArtworkURL: "https://img/a.png", Length: 3*time.Minute + 5*time.Second}),
		"mix": track.FromPlaylist("Mix", []track.Track{
			{Title: "m1"}, {Title: "m2"}, {Title: "m3"},
		}),
	}}
	return player.NewRegistry(node, stubVoice{}), node, users{"alice": "vc-1"}
}

func TestJoin(t *testing.T) {
	sessions, _, u := setup()
	cmd := &JoinCommand{Sessions: sessions, Bot: u}
	ctx := context.Background()

	assert.Equal(t, "You are not in a voice channel", cmd.join(ctx, "g1", "bob").Description)
	assert.Nil(t, sessions.Get("g1"))

	assert.Equal(t, "Joined <#vc-1>", cmd.join(ctx, "g1", "alice").Description)
	require.NotNil(t, sessions.Get("g1"))
	assert.Equal(t, player.StatusConnected, sessions.Get("g1").Status())
}

func TestPlay_AutoJoinsAndReplies(t *testing.T) {
	sessions, node, u := setup()
	cmd := &PlayCommand{Sessions: sessions, Bot: u}
	alice := &discordgo.User{ID: "alice", Username: "alice"}

	embed := cmd.play(context.Background(), "g1", alice, "song A")
	assert.Equal(t, "song A", embed.Title)
	assert.Equal(t, "https://example.com/a", embed.URL)
	assert.Equal(t, "Playing song A in <#vc-1> (0 items in queue)", embed.Description)
	require.NotNil(t, embed.Image)
	assert.Equal(t, "https://img/a.png", embed.Image.URL)
	require.NotNil(t, embed.Author)
	assert.Equal(t, "alice", embed.Author.Name)
	assert.Equal(t, "3:05", embed.Footer.Text)

	assert.Equal(t, []string{"song A"}, node.played)
	assert.Equal(t, player.StatusPlaying, sessions.Get("g1").Status())
}

func TestPlay_Playlist(t *testing.T) {
	sessions, _, u := setup()
	cmd := &PlayCommand{Sessions: sessions, Bot: u}
	alice := &discordgo.User{ID: "alice", Username: "alice"}

	embed := cmd.play(context.Background(), "g1", alice, "mix")
	assert.Equal(t, "Added the playlist **`Mix`** (3 songs) to the queue.", embed.Description)
	assert.Equal(t, 2, sessions.Get("g1").QueueSize())
}

func TestPlay_Errors(t *testing.T) {
	sessions, _, u := setup()
	cmd := &PlayCommand{Sessions: sessions, Bot: u}
	ctx := context.Background()

	assert.Equal(t, "You are not in a voice channel", cmd.play(ctx, "g1", &discordgo.User{ID: "bob"}, "song A").Description)
	assert.Equal(t, "Found nothing", cmd.play(ctx, "g1", &discordgo.User{ID: "alice"}, "nope").Description)
	assert.Equal(t, "🎵 Error: query is required", cmd.play(ctx, "g1", &discordgo.User{ID: "alice"}, "  ").Description)
}

func TestControls(t *testing.T) {
	sessions, _, u := setup()
	ctx := context.Background()

	stop := &StopCommand{Sessions: sessions}
	assert.Equal(t, "Not in a voice channel", control(ctx, "g1", stop.Sessions.Stop, "Stopped").Description)

	(&PlayCommand{Sessions: sessions, Bot: u}).play(ctx, "g1", &discordgo.User{ID: "alice"}, "song A")

	assert.Equal(t, "Paused", control(ctx, "g1", sessions.Pause, "Paused").Description)
	assert.Equal(t, player.StatusPaused, sessions.Get("g1").Status())
	assert.Equal(t, "Resumed", control(ctx, "g1", sessions.Resume, "Resumed").Description)
	assert.Equal(t, "Stopped", control(ctx, "g1", sessions.Stop, "Stopped").Description)
	assert.Equal(t, player.StatusConnected, sessions.Get("g1").Status())

	leave := &LeaveCommand{Sessions: sessions}
	assert.Equal(t, "Left", leave.leave(ctx, "g1").Description)
	assert.Equal(t, "Not in a voice channel", leave.leave(ctx, "g1").Description)
}

func TestNow(t *testing.T) {
	sessions, _, u := setup()
	now := &NowCommand{Sessions: sessions}
	assert.Equal(t, "Not in a voice channel", now.now("g1").Description)

	(&PlayCommand{Sessions: sessions, Bot: u}).play(context.Background(), "g1", &discordgo.User{ID: "alice"}, "mix")

	embed := now.now("g1")
	assert.Contains(t, embed.Title, string(player.StatusPlaying))
	assert.Contains(t, embed.Description, "🎶 m1")
	assert.Contains(t, embed.Description, "1. m2")
	assert.Contains(t, embed.Description, "2. m3")
	assert.Equal(t, "2 items in queue", embed.Footer.Text)
}

func TestHistory(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "ds.json"))
	require.NoError(t, err)
	defer store.Close()

	cmd := &HistoryCommand{}
	assert.Equal(t, "Nothing has been played yet", cmd.history(store, "g1").Description)

	require.NoError(t, store.AppendTrackToHistory("g1", track.Track{Title: "old"}))
	require.NoError(t, store.AppendTrackToHistory("g1", track.Track{Title: "new", URI: "https://x"}))

	desc := cmd.history(store, "g1").Description
	assert.Contains(t, desc, "[new](https://x)")
	assert.Less(t, strings.Index(desc, "new"), strings.Index(desc, "old"))
}

func TestCommandsDefinitions(t *testing.T) {
	sessions, _, u := setup()
	names := map[string]bool{}
	for _, c := range Commands(sessions, u) {
		sp, ok := c.(core.SlashProvider)
		require.True(t, ok, c.Name())
		assert.Equal(t, c.Name(), sp.SlashDefinition().Name)
		names[c.Name()] = true
	}
	for _, n := range []string{"music-join", "music-leave", "music-play", "music-stop", "music-pause", "music-resume", "music-now", "music-history"} {
		assert.True(t, names[n], n)
	}
}
