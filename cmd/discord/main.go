// cmd/discord/main.go
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/keshon/guildtunes/internal/config"
	"github.com/keshon/guildtunes/internal/discord"
	"github.com/keshon/guildtunes/internal/lavalink"
	"github.com/keshon/guildtunes/internal/music/dispatch"
	"github.com/keshon/guildtunes/internal/music/player"
	"github.com/keshon/guildtunes/internal/music/track"
	"github.com/keshon/guildtunes/internal/statusapi"
	"github.com/keshon/guildtunes/internal/storage"
	"github.com/keshon/guildtunes/pkg/jobmgr"
)

const appName = "guildtunes"

func main() {
	config.Load()
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		defer lj.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, lj))
	}

	log.Printf("[INFO] Starting %v bot...", appName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	node, err := lavalink.New(lavalink.Config{
		URI:           cfg.NodeURI,
		Password:      cfg.NodePassword,
		ClientName:    appName,
		SearchPrefix:  cfg.NodeSearchPrefix,
		CacheCapacity: cfg.NodeCacheCapacity,
		ProbeInterval: cfg.NodeProbeInterval,
		SpawnCommand:  cfg.NodeSpawnCommand,
		Proxy:         cfg.NodeProxy,
	})
	if err != nil {
		log.Fatal(err)
	}

	voice := discord.NewVoiceBridge(node)
	sessions := player.NewRegistry(node, voice, player.WithTrackStartHook(func(guildID string, t track.Track) {
		if err := store.AppendTrackToHistory(guildID, t); err != nil {
			log.Printf("[WARN] Failed to record track history for guild %s: %v", guildID, err)
		}
	}))
	disp := dispatch.New(sessions)
	node.SetHandler(disp)

	bot := discord.NewBot(cfg, store, sessions, voice, node)

	if err := node.Spawn(ctx); err != nil {
		log.Fatalf("[ERR] Failed to start audio node: %v", err)
	}

	jobs := jobmgr.NewManager(ctx, func(msg string) { log.Println("[Jobs]", msg) })

	if err := jobs.StartAsync("node-bootstrap", func(ctx context.Context) error {
		if err := node.WaitReady(ctx); err != nil {
			return err
		}
		userID, err := bot.UserID(ctx)
		if err != nil {
			return err
		}
		return node.Connect(ctx, userID)
	}); err != nil {
		log.Fatal(err)
	}

	if cfg.StatusAddr != "" {
		router := statusapi.NewRouter(statusapi.Deps{
			Sessions: sessions,
			Node:     node,
			History:  store,
			Jobs:     jobs,
		})
		if err := jobs.StartAsync("status-api", func(ctx context.Context) error {
			return statusapi.Run(ctx, cfg.StatusAddr, router)
		}); err != nil {
			log.Fatal(err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := sessions.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] Player shutdown: %v", err)
	}
	disp.Close()
	cancel()
	node.Close()
	jobs.StopAll()

	log.Println("[INFO] Discord bot exited cleanly")
}
