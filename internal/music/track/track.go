// Package track holds the playable item types shared by the player, the
// node connector and the command layer.
package track

import (
	"errors"
	"time"
)

// ErrNothingFound is returned when a search yields no playable results.
var ErrNothingFound = errors.New("nothing found")

// Track is a single playable item as resolved by the audio node.
type Track struct {
	Encoded    string        `json:"encoded"`
	Identifier string        `json:"identifier"`
	Title      string        `json:"title"`
	Author     string        `json:"author"`
	URI        string        `json:"uri"`
	ArtworkURL string        `json:"artwork_url,omitempty"`
	Length     time.Duration `json:"length"`
}

// DisplayName returns the best human label for the track.
func (t Track) DisplayName() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.URI != "":
		return t.URI
	default:
		return "Unknown track"
	}
}

// Playlist is an ordered, named set of tracks resolved together.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Result is the outcome of a search. Exactly one of Track or Playlist is set.
type Result struct {
	Track    *Track
	Playlist *Playlist
}

// Single wraps one track into a Result.
func Single(t Track) Result {
	return Result{Track: &t}
}

// FromPlaylist wraps a playlist into a Result.
func FromPlaylist(name string, tracks []Track) Result {
	return Result{Playlist: &Playlist{Name: name, Tracks: tracks}}
}

// IsPlaylist reports whether the result is a playlist.
func (r Result) IsPlaylist() bool {
	return r.Playlist != nil
}

// Tracks flattens the result in playback order.
func (r Result) Tracks() []Track {
	switch {
	case r.Playlist != nil:
		out := make([]Track, len(r.Playlist.Tracks))
		copy(out, r.Playlist.Tracks)
		return out
	case r.Track != nil:
		return []Track{*r.Track}
	default:
		return nil
	}
}

// Empty reports whether the result carries no tracks.
func (r Result) Empty() bool {
	return len(r.Tracks()) == 0
}
