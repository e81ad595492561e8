package player

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/keshon/guildtunes/internal/music/track"
	"github.com/keshon/guildtunes/pkg/util"
)

const shutdownWorkers = 4

// Registry maps guild IDs to their players. A player is inserted on the
// first join and removed on leave; there is never more than one per guild.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player

	node    Node
	voice   Voice
	onStart TrackStartFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithTrackStartHook registers fn to be called whenever a track starts.
func WithTrackStartHook(fn TrackStartFunc) Option {
	return func(r *Registry) { r.onStart = fn }
}

// NewRegistry creates an empty registry whose players use node and voice.
func NewRegistry(node Node, voice Voice, opts ...Option) *Registry {
	r := &Registry{
		players: make(map[string]*Player),
		node:    node,
		voice:   voice,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the player of a guild, or nil when there is no session.
func (r *Registry) Get(guildID string) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[guildID]
}

// Join connects the guild's player to channelID, creating the player when
// needed. Concurrent joins for one guild share the same player; the later
// one re-joins.
func (r *Registry) Join(ctx context.Context, guildID, channelID string) (*Player, error) {
	if channelID == "" {
		return nil, ErrUserNotInVoice
	}

	r.mu.Lock()
	p, ok := r.players[guildID]
	if !ok {
		p = New(guildID, r.node, r.voice, r.onStart)
		r.players[guildID] = p
	}
	r.mu.Unlock()

	if err := p.Join(ctx, channelID); err != nil {
		r.discard(ctx, guildID, p)
		return nil, err
	}
	return p, nil
}

// discard removes p if it is still the registered player and closes it.
func (r *Registry) discard(ctx context.Context, guildID string, p *Player) {
	r.mu.Lock()
	if r.players[guildID] == p {
		delete(r.players, guildID)
	}
	r.mu.Unlock()

	if err := p.close(ctx); err != nil {
		log.Printf("[WARN] Failed to close player after failed join | guild=%s: %v", guildID, err)
	}
}

// Leave removes the guild's session and tears down its voice connection.
// The session is gone from the registry before Leave returns, even when the
// disconnect itself reports an error.
func (r *Registry) Leave(ctx context.Context, guildID string) error {
	r.mu.Lock()
	p, ok := r.players[guildID]
	delete(r.players, guildID)
	r.mu.Unlock()

	if !ok {
		return ErrNoActiveSession
	}
	return p.close(ctx)
}

func (r *Registry) lookup(guildID string) (*Player, error) {
	if p := r.Get(guildID); p != nil {
		return p, nil
	}
	return nil, ErrNoActiveSession
}

// Play searches query and enqueues the result in the guild's session.
func (r *Registry) Play(ctx context.Context, guildID, query string) (track.Result, error) {
	p, err := r.lookup(guildID)
	if err != nil {
		return track.Result{}, err
	}
	return p.Play(ctx, query)
}

// Enqueue adds a resolved result to the guild's session.
func (r *Registry) Enqueue(ctx context.Context, guildID string, res track.Result) error {
	p, err := r.lookup(guildID)
	if err != nil {
		return err
	}
	return p.Enqueue(ctx, res)
}

// Pause pauses the guild's session.
func (r *Registry) Pause(ctx context.Context, guildID string) error {
	p, err := r.lookup(guildID)
	if err != nil {
		return err
	}
	return p.Pause(ctx)
}

// Resume resumes the guild's session.
func (r *Registry) Resume(ctx context.Context, guildID string) error {
	p, err := r.lookup(guildID)
	if err != nil {
		return err
	}
	return p.Resume(ctx)
}

// Stop stops the current track of the guild's session.
func (r *Registry) Stop(ctx context.Context, guildID string) error {
	p, err := r.lookup(guildID)
	if err != nil {
		return err
	}
	return p.Stop(ctx)
}

// OnTrackEnd advances the guild's session when encoded is still current.
func (r *Registry) OnTrackEnd(ctx context.Context, guildID, encoded string) error {
	p, err := r.lookup(guildID)
	if err != nil {
		return err
	}
	return p.OnTrackEnd(ctx, encoded)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Snapshots returns the state of every session ordered by guild ID.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	list := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		list = append(list, p)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(list))
	for _, p := range list {
		out = append(out, p.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out
}

// Shutdown leaves every guild. Failures are logged and do not stop the
// remaining guilds from being torn down.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	log.Printf("[INFO] Leaving %d guild session(s)...", len(ids))
	return util.Parallel(ctx, ids, shutdownWorkers, func(ctx context.Context, guildID string) error {
		if err := r.Leave(ctx, guildID); err != nil && !errors.Is(err, ErrNoActiveSession) {
			log.Printf("[ERR] Failed to leave guild %s: %v", guildID, err)
		}
		return nil
	})
}
