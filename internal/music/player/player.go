package player

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/keshon/guildtunes/internal/music/queue"
	"github.com/keshon/guildtunes/internal/music/track"
)

type Status string

const (
	StatusIdle      Status = "Idle"
	StatusConnected Status = "Connected"
	StatusPlaying   Status = "Playing"
	StatusPaused    Status = "Paused"
)

func (status Status) StringEmoji() string {
	m := map[Status]string{
		StatusIdle:      "⏏️",
		StatusConnected: "⏹",
		StatusPlaying:   "▶️",
		StatusPaused:    "⏸",
	}
	return m[status]
}

// Node is the part of the audio node a player drives.
type Node interface {
	LoadTracks(ctx context.Context, query string) (track.Result, error)
	Play(ctx context.Context, guildID string, t track.Track) error
	Pause(ctx context.Context, guildID string, paused bool) error
	Stop(ctx context.Context, guildID string) error
	Destroy(ctx context.Context, guildID string) error
}

// VoiceConn is a live voice connection held exclusively by one player.
type VoiceConn interface {
	ChannelID() string
	Disconnect(ctx context.Context) error
}

// Voice opens voice connections.
type Voice interface {
	Connect(ctx context.Context, guildID, channelID string) (VoiceConn, error)
}

// TrackStartFunc is called after the node accepted a track for playback.
type TrackStartFunc func(guildID string, t track.Track)

// Player is the playback session of one guild: the voice connection, the
// queue and what is playing right now.
//
// Operations are serialized through opMu, which may be held across node and
// voice I/O. State reads only take mu so status queries never wait on I/O.
type Player struct {
	guildID string
	node    Node
	voice   Voice
	queue   *queue.Queue
	onStart TrackStartFunc

	opMu sync.Mutex

	mu      sync.RWMutex
	conn    VoiceConn
	status  Status
	current *track.Track
	closed  bool

	// ctx is cancelled when the session is torn down, abandoning any
	// operation still waiting on the node or the voice layer.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Player instance
func New(guildID string, node Node, voice Voice, onStart TrackStartFunc) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		guildID: guildID,
		node:    node,
		voice:   voice,
		queue:   queue.New(),
		onStart: onStart,
		status:  StatusIdle,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// bind derives a context that is also cancelled when the session closes.
func (p *Player) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// lock takes the operation lock and fails when the session is gone.
func (p *Player) lock() error {
	p.opMu.Lock()
	if p.isClosed() {
		p.opMu.Unlock()
		return ErrNoActiveSession
	}
	return nil
}

// Join connects the player to a voice channel. An existing connection is
// dropped first and playback state is reset.
func (p *Player) Join(ctx context.Context, channelID string) error {
	if channelID == "" {
		return ErrUserNotInVoice
	}

	ctx, done := p.bind(ctx)
	defer done()

	if err := p.lock(); err != nil {
		return err
	}
	defer p.opMu.Unlock()

	p.mu.RLock()
	conn, current := p.conn, p.current
	p.mu.RUnlock()

	if conn != nil {
		log.Printf("[Player] Re-join requested | guild=%s from=%s to=%s", p.guildID, conn.ChannelID(), channelID)
		if current != nil {
			if err := p.node.Stop(ctx, p.guildID); err != nil {
				log.Printf("[Player] Failed to stop playback before re-join: %v", err)
			}
		}
		if err := conn.Disconnect(ctx); err != nil {
			log.Printf("[Player] Failed to disconnect before re-join: %v", err)
		}
		p.queue.Clear()
		p.mu.Lock()
		p.conn = nil
		p.current = nil
		p.status = StatusIdle
		p.mu.Unlock()
	}

	newConn, err := p.voice.Connect(ctx, p.guildID, channelID)
	if err != nil {
		if p.ctx.Err() != nil {
			return ErrNoActiveSession
		}
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	p.mu.Lock()
	p.conn = newConn
	p.status = StatusConnected
	p.mu.Unlock()

	log.Printf("[Player] Joined voice channel %s on guild %s", channelID, p.guildID)
	return nil
}

// Play resolves query through the node and enqueues the result.
func (p *Player) Play(ctx context.Context, query string) (track.Result, error) {
	ctx, done := p.bind(ctx)
	defer done()

	if err := p.lock(); err != nil {
		return track.Result{}, err
	}
	defer p.opMu.Unlock()

	log.Printf("[Player] Play called | guild=%s query=%q", p.guildID, query)
	res, err := p.node.LoadTracks(ctx, query)
	if p.ctx.Err() != nil {
		return track.Result{}, ErrNoActiveSession
	}
	if err != nil {
		return track.Result{}, err
	}
	if res.Empty() {
		return track.Result{}, track.ErrNothingFound
	}

	return res, p.enqueueLocked(ctx, res.Tracks())
}

// Enqueue appends an already resolved result and starts playback when the
// player is connected and idle.
func (p *Player) Enqueue(ctx context.Context, res track.Result) error {
	tracks := res.Tracks()
	if len(tracks) == 0 {
		return track.ErrNothingFound
	}

	ctx, done := p.bind(ctx)
	defer done()

	if err := p.lock(); err != nil {
		return err
	}
	defer p.opMu.Unlock()

	return p.enqueueLocked(ctx, tracks)
}

func (p *Player) enqueueLocked(ctx context.Context, tracks []track.Track) error {
	p.queue.AppendAll(tracks)
	log.Printf("[Player] Added %d track(s) to queue | guild=%s QueueLen=%d", len(tracks), p.guildID, p.queue.Size())

	p.mu.RLock()
	idle := p.status == StatusConnected && p.current == nil
	p.mu.RUnlock()

	if idle {
		return p.playNextLocked(ctx)
	}
	return nil
}

// playNextLocked pops tracks until the node accepts one. Tracks the node
// rejects are skipped.
func (p *Player) playNextLocked(ctx context.Context) error {
	var lastErr error
	for {
		next, ok := p.queue.PopFront()
		if !ok {
			p.mu.Lock()
			p.current = nil
			if p.conn != nil {
				p.status = StatusConnected
			} else {
				p.status = StatusIdle
			}
			p.mu.Unlock()
			if lastErr == nil {
				log.Printf("[Player] Queue is empty, nothing to play | guild=%s", p.guildID)
			}
			return lastErr
		}

		if err := p.node.Play(ctx, p.guildID, next); err != nil {
			if ctx.Err() != nil {
				log.Printf("[Player] Dropped track %q: %v", next.Title, err)
				p.mu.Lock()
				p.current = nil
				p.status = StatusConnected
				p.mu.Unlock()
				return err
			}
			log.Printf("[Player] Skipping track %q due to error: %v", next.Title, err)
			lastErr = fmt.Errorf("failed to start %q: %w", next.Title, err)
			continue
		}

		p.mu.Lock()
		p.current = &next
		p.status = StatusPlaying
		p.mu.Unlock()

		log.Printf("[Player] Now playing track %q | guild=%s QueueLen=%d", next.Title, p.guildID, p.queue.Size())
		if p.onStart != nil {
			p.onStart(p.guildID, next)
		}
		return nil
	}
}

// OnTrackEnd advances to the next queued track, or goes idle when the queue
// is drained. It is ignored when nothing is current or when encoded names a
// track other than the current one. An empty encoded matches any track.
func (p *Player) OnTrackEnd(ctx context.Context, encoded string) error {
	ctx, done := p.bind(ctx)
	defer done()

	if err := p.lock(); err != nil {
		return err
	}
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil
	}
	if encoded != "" && encoded != p.current.Encoded {
		log.Printf("[Player] Ignoring end of a track that is no longer current | guild=%s", p.guildID)
		p.mu.Unlock()
		return nil
	}
	log.Printf("[Player] Track ended %q | guild=%s", p.current.Title, p.guildID)
	p.current = nil
	p.mu.Unlock()

	return p.playNextLocked(ctx)
}

// Pause pauses playback. Ignored unless playing.
func (p *Player) Pause(ctx context.Context) error {
	return p.setPaused(ctx, true)
}

// Resume resumes paused playback. Ignored unless paused.
func (p *Player) Resume(ctx context.Context) error {
	return p.setPaused(ctx, false)
}

func (p *Player) setPaused(ctx context.Context, paused bool) error {
	ctx, done := p.bind(ctx)
	defer done()

	if err := p.lock(); err != nil {
		return err
	}
	defer p.opMu.Unlock()

	from, to := StatusPlaying, StatusPaused
	if !paused {
		from, to = StatusPaused, StatusPlaying
	}
	if p.Status() != from {
		return nil
	}

	if err := p.node.Pause(ctx, p.guildID, paused); err != nil {
		return fmt.Errorf("failed to set pause=%v: %w", paused, err)
	}

	p.mu.Lock()
	p.status = to
	p.mu.Unlock()
	return nil
}

// Stop ends the current track. The queue is left untouched.
func (p *Player) Stop(ctx context.Context) error {
	ctx, done := p.bind(ctx)
	defer done()

	if err := p.lock(); err != nil {
		return err
	}
	defer p.opMu.Unlock()

	if p.Current() == nil {
		return nil
	}

	if err := p.node.Stop(ctx, p.guildID); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	p.mu.Lock()
	p.current = nil
	p.status = StatusConnected
	p.mu.Unlock()

	log.Printf("[Player] Stopped | guild=%s QueueLen=%d", p.guildID, p.queue.Size())
	return nil
}

// close tears the session down. In-flight operations are cancelled before
// the operation lock is taken, so close never waits on a stale search.
func (p *Player) close(ctx context.Context) error {
	p.cancel()

	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conn := p.conn
	p.conn = nil
	p.current = nil
	p.status = StatusIdle
	p.mu.Unlock()

	p.queue.Clear()

	if err := p.node.Destroy(ctx, p.guildID); err != nil {
		log.Printf("[Player] Failed to destroy node player | guild=%s: %v", p.guildID, err)
	}

	if conn != nil {
		if err := conn.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect: %w", err)
		}
	}
	log.Printf("[Player] Session closed | guild=%s", p.guildID)
	return nil
}

func (p *Player) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// GuildID returns the guild the player belongs to.
func (p *Player) GuildID() string {
	return p.guildID
}

// Status returns the current playback status.
func (p *Player) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Current returns a copy of the track being played, or nil.
func (p *Player) Current() *track.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	t := *p.current
	return &t
}

// ChannelID returns the connected voice channel, or "" when disconnected.
func (p *Player) ChannelID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil {
		return ""
	}
	return p.conn.ChannelID()
}

// QueueSize returns the number of tracks waiting after the current one.
func (p *Player) QueueSize() int {
	return p.queue.Size()
}

// Queue returns a copy of the queued tracks.
func (p *Player) Queue() []track.Track {
	return p.queue.List()
}

// Snapshot is a point-in-time view of a player for UI feedback.
type Snapshot struct {
	GuildID   string        `json:"guild_id"`
	ChannelID string        `json:"channel_id"`
	Status    Status        `json:"status"`
	Current   *track.Track  `json:"current,omitempty"`
	QueueSize int           `json:"queue_size"`
	Queue     []track.Track `json:"queue,omitempty"`
}

// Snapshot captures the player state.
func (p *Player) Snapshot() Snapshot {
	q := p.queue.List()
	return Snapshot{
		GuildID:   p.guildID,
		ChannelID: p.ChannelID(),
		Status:    p.Status(),
		Current:   p.Current(),
		QueueSize: len(q),
		Queue:     q,
	}
}
