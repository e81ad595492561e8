// Package queue implements the per-guild FIFO of tracks waiting to be played.
package queue

import (
	"sync"

	"github.com/keshon/guildtunes/internal/music/track"
)

// Queue is a FIFO of tracks. It is safe for concurrent use; a bulk append is
// applied under a single lock so a concurrent PopFront never splits it.
type Queue struct {
	mu    sync.RWMutex
	items []track.Track
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{items: make([]track.Track, 0)}
}

// Append adds a single track to the back of the queue.
func (q *Queue) Append(t track.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, t)
}

// AppendAll adds tracks to the back of the queue keeping their order.
func (q *Queue) AppendAll(tracks []track.Track) {
	if len(tracks) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, tracks...)
}

// PopFront removes and returns the first track. The boolean is false when
// the queue is empty.
func (q *Queue) PopFront() (track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return track.Track{}, false
	}
	t := q.items[0]
	q.items[0] = track.Track{}
	q.items = q.items[1:]
	return t, true
}

// IsEmpty reports whether nothing is queued.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

// Size returns the number of queued tracks.
func (q *Queue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Clear drops every queued track.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make([]track.Track, 0)
}

// List returns a copy of the queued tracks in order.
func (q *Queue) List() []track.Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]track.Track, len(q.items))
	copy(out, q.items)
	return out
}
