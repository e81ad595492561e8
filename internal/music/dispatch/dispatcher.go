// Package dispatch routes node events to guild sessions.
package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/keshon/guildtunes/internal/lavalink"
	"github.com/keshon/guildtunes/internal/music/player"
)

// Sessions is the part of the session registry the dispatcher drives.
type Sessions interface {
	OnTrackEnd(ctx context.Context, guildID, encoded string) error
}

const handleTimeout = 30 * time.Second

// Dispatcher delivers track-end events to the owning session. Events of one
// guild are handled in arrival order by a single worker; different guilds
// are handled concurrently. HandleEvent never blocks the node read loop.
type Dispatcher struct {
	sessions Sessions

	mu      sync.Mutex
	pending map[string][]lavalink.TrackEnded
	closed  bool
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Dispatcher feeding sessions.
func New(sessions Sessions) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sessions: sessions,
		pending:  make(map[string][]lavalink.TrackEnded),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// HandleEvent implements lavalink.EventHandler.
func (d *Dispatcher) HandleEvent(e lavalink.Event) {
	switch ev := e.(type) {
	case lavalink.NodeReady:
		log.Printf("[INFO] Connected to node! ID: %s", ev.SessionID)
	case lavalink.NodeDisconnected:
		log.Printf("[ERR] Node connection lost: %v", ev.Err)
	case lavalink.TrackEnded:
		if !ev.Reason.MayStartNext() {
			log.Printf("[Dispatch] Ignoring track end | guild=%s reason=%s", ev.GuildID, ev.Reason)
			return
		}
		d.enqueue(ev)
	}
}

func (d *Dispatcher) enqueue(ev lavalink.TrackEnded) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	q, running := d.pending[ev.GuildID]
	d.pending[ev.GuildID] = append(q, ev)
	if running {
		return
	}
	d.wg.Add(1)
	go d.drain(ev.GuildID)
}

// drain handles a guild's events until its backlog is empty. The map entry
// exists for exactly as long as a worker runs.
func (d *Dispatcher) drain(guildID string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.pending[guildID]
		if len(q) == 0 || d.closed {
			delete(d.pending, guildID)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.pending[guildID] = q[1:]
		d.mu.Unlock()

		d.handle(ev)
	}
}

func (d *Dispatcher) handle(ev lavalink.TrackEnded) {
	ctx, cancel := context.WithTimeout(d.ctx, handleTimeout)
	defer cancel()

	err := d.sessions.OnTrackEnd(ctx, ev.GuildID, ev.Track.Encoded)
	switch {
	case err == nil:
	case errors.Is(err, player.ErrNoActiveSession):
		log.Printf("[Dispatch] No session for track end | guild=%s", ev.GuildID)
	default:
		log.Printf("[ERR] Failed to advance queue | guild=%s: %v", ev.GuildID, err)
	}
}

// Close stops accepting events, abandons backlogs and waits for running
// handlers to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}
