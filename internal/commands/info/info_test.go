package info

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/guildtunes/internal/core"
	"github.com/keshon/guildtunes/internal/lavalink"
)

type fakeCmd struct{ name, cat string }

func (c fakeCmd) Name() string          { return c.name }
func (c fakeCmd) Description() string   { return "does " + c.name }
func (c fakeCmd) Group() string         { return "g" }
func (c fakeCmd) Category() string      { return c.cat }
func (c fakeCmd) Run(interface{}) error { return nil }

type nodeState lavalink.State

func (n nodeState) State() lavalink.State { return lavalink.State(n) }

type count int

func (c count) Len() int { return int(c) }

func TestHelpEmbed_GroupsAndSorts(t *testing.T) {
	embed := helpEmbed([]core.Command{
		fakeCmd{"music-play", "🎵 Music"},
		fakeCmd{"help", "🕯️ Information"},
		fakeCmd{"music-join", "🎵 Music"},
	})

	desc := embed.Description
	assert.Contains(t, desc, "`/help` - does help")
	assert.Less(t, strings.Index(desc, "music-join"), strings.Index(desc, "music-play"))
	assert.Equal(t, 1, strings.Count(desc, "**🎵 Music**"))
}

func TestPing_ReportsNodeAndSessions(t *testing.T) {
	c := &PingCommand{Node: nodeState(lavalink.StateReady), Sessions: count(2)}
	desc := c.pong(42 * time.Millisecond).Description
	assert.Contains(t, desc, "Latency: 42ms")
	assert.Contains(t, desc, "🟢 ready")
	assert.Contains(t, desc, "Active sessions: 2")

	c.Node = nodeState(lavalink.StateBootstrapping)
	assert.Contains(t, c.pong(0).Description, "🔴")
}
