package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything read from the environment (and .env when present).
type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required,notEmpty"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	StoragePath           string   `env:"STORAGE_PATH" envDefault:"datastore.json"`

	NodeURI           string        `env:"NODE_URI" envDefault:"http://localhost:2333"`
	NodePassword      string        `env:"NODE_PASSWORD" envDefault:"youshallnotpass"`
	NodeCacheCapacity int           `env:"NODE_CACHE_CAPACITY" envDefault:"100"`
	NodeSpawn         bool          `env:"NODE_SPAWN" envDefault:"true"`
	NodeSpawnCommand  []string      `env:"NODE_SPAWN_COMMAND" envSeparator:" " envDefault:"java -jar Lavalink.jar"`
	NodeProbeInterval time.Duration `env:"NODE_PROBE_INTERVAL" envDefault:"1s"`
	NodeSearchPrefix  string        `env:"NODE_SEARCH_PREFIX" envDefault:"ytmsearch"`
	NodeProxy         string        `env:"NODE_PROXY"`

	StatusAddr string `env:"STATUS_ADDR"`
	LogFile    string `env:"LOG_FILE"`
}

// Load reads .env into the process environment. A missing file is fine.
func Load(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// New parses the environment into a Config.
func New() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.NodeProbeInterval <= 0 {
		return nil, fmt.Errorf("invalid configuration: NODE_PROBE_INTERVAL must be positive, got %v", cfg.NodeProbeInterval)
	}
	// An empty NODE_SPAWN_COMMAND falls back to its default, so turning
	// spawning off needs its own switch.
	if !cfg.NodeSpawn {
		cfg.NodeSpawnCommand = nil
	}
	return &cfg, nil
}

// IsGuildBlacklisted reports whether the bot must ignore guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	for _, id := range c.DiscordGuildBlacklist {
		if id == guildID {
			return true
		}
	}
	return false
}
