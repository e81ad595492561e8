package lavalink

import "github.com/keshon/guildtunes/internal/music/track"

// EndReason tells why the node ended a track.
type EndReason string

const (
	EndFinished   EndReason = "finished"
	EndLoadFailed EndReason = "loadFailed"
	EndStopped    EndReason = "stopped"
	EndReplaced   EndReason = "replaced"
	EndCleanup    EndReason = "cleanup"
)

// MayStartNext reports whether the queue should advance after this reason.
// Stopped, replaced and cleaned-up tracks were ended on our request.
func (r EndReason) MayStartNext() bool {
	return r == EndFinished || r == EndLoadFailed
}

// Event is a notification coming from the node.
type Event interface {
	nodeEvent()
}

// NodeReady is emitted once the websocket handshake completed.
type NodeReady struct {
	SessionID string
	Resumed   bool
}

// TrackEnded is emitted when a guild's track finished or was ended.
type TrackEnded struct {
	GuildID string
	Track   track.Track
	Reason  EndReason
}

// NodeDisconnected is emitted when the websocket closes after readiness.
// No reconnect is attempted.
type NodeDisconnected struct {
	Err error
}

func (NodeReady) nodeEvent()        {}
func (TrackEnded) nodeEvent()       {}
func (NodeDisconnected) nodeEvent() {}

// EventHandler receives node events. Implementations must not block for
// long: events are delivered from the websocket read loop.
type EventHandler interface {
	HandleEvent(Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(Event)

func (f EventHandlerFunc) HandleEvent(e Event) { f(e) }
