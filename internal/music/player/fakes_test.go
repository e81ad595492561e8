package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/keshon/guildtunes/internal/music/track"
)

type nodeCall struct {
	Op      string
	GuildID string
	Track   string
	Paused  bool
}

type fakeNode struct {
	mu      sync.Mutex
	results map[string]track.Result
	playErr map[string]error
	calls   []nodeCall

	// block, when set, makes LoadTracks wait for it to close or ctx to end.
	block   chan struct{}
	entered chan struct{}
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		results: make(map[string]track.Result),
		playErr: make(map[string]error),
	}
}

func (n *fakeNode) record(c nodeCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *fakeNode) Calls() []nodeCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]nodeCall, len(n.calls))
	copy(out, n.calls)
	return out
}

func (n *fakeNode) Played() []string {
	var out []string
	for _, c := range n.Calls() {
		if c.Op == "play" {
			out = append(out, c.Track)
		}
	}
	return out
}

func (n *fakeNode) LoadTracks(ctx context.Context, query string) (track.Result, error) {
	n.record(nodeCall{Op: "load", Track: query})
	if n.entered != nil {
		n.entered <- struct{}{}
	}
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return track.Result{}, ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	res, ok := n.results[query]
	if !ok {
		return track.Result{}, track.ErrNothingFound
	}
	return res, nil
}

func (n *fakeNode) Play(_ context.Context, guildID string, t track.Track) error {
	n.record(nodeCall{Op: "play", GuildID: guildID, Track: t.Title})
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playErr[t.Title]
}

func (n *fakeNode) Pause(_ context.Context, guildID string, paused bool) error {
	n.record(nodeCall{Op: "pause", GuildID: guildID, Paused: paused})
	return nil
}

func (n *fakeNode) Stop(_ context.Context, guildID string) error {
	n.record(nodeCall{Op: "stop", GuildID: guildID})
	return nil
}

func (n *fakeNode) Destroy(_ context.Context, guildID string) error {
	n.record(nodeCall{Op: "destroy", GuildID: guildID})
	return nil
}

type fakeConn struct {
	channelID string
	voice     *fakeVoice
}

func (c *fakeConn) ChannelID() string { return c.channelID }

func (c *fakeConn) Disconnect(context.Context) error {
	c.voice.mu.Lock()
	defer c.voice.mu.Unlock()
	c.voice.disconnects = append(c.voice.disconnects, c.channelID)
	return nil
}

type fakeVoice struct {
	mu          sync.Mutex
	connects    []string
	disconnects []string
	fail        map[string]error
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{fail: make(map[string]error)}
}

func (v *fakeVoice) Connect(_ context.Context, guildID, channelID string) (VoiceConn, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.fail[channelID]; err != nil {
		return nil, err
	}
	v.connects = append(v.connects, guildID+"/"+channelID)
	return &fakeConn{channelID: channelID, voice: v}, nil
}

func (v *fakeVoice) Disconnects() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.disconnects...)
}

func (v *fakeVoice) Connects() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.connects...)
}

var errConnect = errors.New("gateway refused")

func mkTrack(title string) track.Track {
	return track.Track{
		Encoded:    "enc:" + title,
		Title:      title,
		URI:        "https://example.com/" + title,
		ArtworkURL: "https://img.example.com/" + title + ".jpg",
	}
}

func mkPlaylist(name string, n int) track.Result {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = mkTrack(fmt.Sprintf("%s #%d", name, i+1))
	}
	return track.FromPlaylist(name, tracks)
}
