package lavalink

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/keshon/guildtunes/internal/music/track"
)

// Wire types of the Lavalink v4 protocol. Only the fields we use are mapped.

type wireTrackInfo struct {
	Identifier string  `json:"identifier"`
	IsSeekable bool    `json:"isSeekable"`
	Author     string  `json:"author"`
	Length     int64   `json:"length"`
	IsStream   bool    `json:"isStream"`
	Position   int64   `json:"position"`
	Title      string  `json:"title"`
	URI        *string `json:"uri"`
	ArtworkURL *string `json:"artworkUrl"`
	SourceName string  `json:"sourceName"`
}

type wireTrack struct {
	Encoded string        `json:"encoded"`
	Info    wireTrackInfo `json:"info"`
}

func (w wireTrack) toTrack() track.Track {
	return track.Track{
		Encoded:    w.Encoded,
		Identifier: w.Info.Identifier,
		Title:      w.Info.Title,
		Author:     w.Info.Author,
		URI:        lo.FromPtr(w.Info.URI),
		ArtworkURL: lo.FromPtr(w.Info.ArtworkURL),
		Length:     time.Duration(w.Info.Length) * time.Millisecond,
	}
}

func toTracks(ws []wireTrack) []track.Track {
	return lo.Map(ws, func(w wireTrack, _ int) track.Track { return w.toTrack() })
}

const (
	loadTrack    = "track"
	loadPlaylist = "playlist"
	loadSearch   = "search"
	loadEmpty    = "empty"
	loadError    = "error"
)

type loadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

type playlistData struct {
	Info struct {
		Name          string `json:"name"`
		SelectedTrack int    `json:"selectedTrack"`
	} `json:"info"`
	Tracks []wireTrack `json:"tracks"`
}

type exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// inbound websocket message; fields depend on Op and Type.
type message struct {
	Op        string     `json:"op"`
	SessionID string     `json:"sessionId"`
	Resumed   bool       `json:"resumed"`
	Type      string     `json:"type"`
	GuildID   string     `json:"guildId"`
	Track     *wireTrack `json:"track"`
	Reason    string     `json:"reason"`
	Code      int        `json:"code"`
	Exception *exception `json:"exception"`
}

type trackUpdate struct {
	// Encoded is sent as null to stop the current track.
	Encoded *string `json:"encoded"`
}

// VoiceState is the voice session the node needs to join a channel.
type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

type playerUpdate struct {
	Track  *trackUpdate `json:"track,omitempty"`
	Paused *bool        `json:"paused,omitempty"`
	Voice  *VoiceState  `json:"voice,omitempty"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}
