// Package statusapi serves a read-only HTTP view of the bot: node health,
// live guild sessions and play history.
package statusapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keshon/guildtunes/internal/lavalink"
	"github.com/keshon/guildtunes/internal/music/player"
	"github.com/keshon/guildtunes/internal/storage"
)

type Sessions interface {
	Get(guildID string) *player.Player
	Snapshots() []player.Snapshot
}

type Node interface {
	State() lavalink.State
	SessionID() string
}

type History interface {
	FetchTrackHistory(guildID string) ([]storage.TrackHistoryRecord, error)
}

type Jobs interface {
	List() []string
}

// Deps are the components the API reads from. History and Jobs may be nil.
type Deps struct {
	Sessions Sessions
	Node     Node
	History  History
	Jobs     Jobs
}

// NewRouter builds the gin engine serving the API.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		state := d.Node.State()
		code := http.StatusOK
		if state != lavalink.StateReady {
			code = http.StatusServiceUnavailable
		}
		jobs := []string{}
		if d.Jobs != nil {
			jobs = d.Jobs.List()
		}
		c.JSON(code, gin.H{
			"node":         state.String(),
			"node_session": d.Node.SessionID(),
			"sessions":     len(d.Sessions.Snapshots()),
			"jobs":         jobs,
		})
	})

	r.GET("/guilds", func(c *gin.Context) {
		c.JSON(http.StatusOK, d.Sessions.Snapshots())
	})

	r.GET("/guilds/:id", func(c *gin.Context) {
		p := d.Sessions.Get(c.Param("id"))
		if p == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": player.ErrNoActiveSession.Error()})
			return
		}
		c.JSON(http.StatusOK, p.Snapshot())
	})

	r.GET("/guilds/:id/history", func(c *gin.Context) {
		if d.History == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "history is not available"})
			return
		}
		records, err := d.History.FetchTrackHistory(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, records)
	})

	return r
}

// Run serves handler on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down status server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	log.Printf("[INFO] Status server listening on %s\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
