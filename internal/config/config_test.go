package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.True(t, cfg.InitSlashCommands)
	assert.Equal(t, "http://localhost:2333", cfg.NodeURI)
	assert.Equal(t, "youshallnotpass", cfg.NodePassword)
	assert.Equal(t, 100, cfg.NodeCacheCapacity)
	assert.True(t, cfg.NodeSpawn)
	assert.Equal(t, []string{"java", "-jar", "Lavalink.jar"}, cfg.NodeSpawnCommand)
	assert.Equal(t, time.Second, cfg.NodeProbeInterval)
	assert.Equal(t, "ytmsearch", cfg.NodeSearchPrefix)
	assert.Empty(t, cfg.StatusAddr)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "1,2")
	t.Setenv("NODE_CACHE_CAPACITY", "0")
	t.Setenv("NODE_PROBE_INTERVAL", "250ms")
	t.Setenv("NODE_PROXY", "socks5://127.0.0.1:1080")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.NodeCacheCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.NodeProbeInterval)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.NodeProxy)
	assert.True(t, cfg.IsGuildBlacklisted("2"))
	assert.False(t, cfg.IsGuildBlacklisted("3"))
}

func TestNew_SpawnDisabled(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("NODE_SPAWN", "false")
	t.Setenv("NODE_SPAWN_COMMAND", "")

	cfg, err := New()
	require.NoError(t, err)
	assert.False(t, cfg.NodeSpawn)
	assert.Empty(t, cfg.NodeSpawnCommand)
}

func TestNew_CustomSpawnCommand(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("NODE_SPAWN_COMMAND", "java -Xmx512m -jar /opt/node.jar")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, []string{"java", "-Xmx512m", "-jar", "/opt/node.jar"}, cfg.NodeSpawnCommand)
}

func TestNew_RequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	_, err := New()
	assert.Error(t, err)
}

func TestNew_RejectsBadInterval(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("NODE_PROBE_INTERVAL", "0s")
	_, err := New()
	assert.Error(t, err)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NODE_SEARCH_PREFIX=scsearch\n"), 0o644))
	t.Setenv("NODE_SEARCH_PREFIX", "")
	os.Unsetenv("NODE_SEARCH_PREFIX")

	Load(path)
	t.Setenv("DISCORD_TOKEN", "token")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "scsearch", cfg.NodeSearchPrefix)
}
