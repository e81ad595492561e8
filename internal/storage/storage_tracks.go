package storage

import (
	"time"

	"github.com/keshon/guildtunes/internal/music/track"
)

type TrackHistoryRecord struct {
	Title    string        `json:"title"`
	Author   string        `json:"author"`
	URI      string        `json:"uri"`
	Length   time.Duration `json:"length"`
	PlayedAt time.Time     `json:"played_at"`
}

// AppendTrackToHistory records that t started playing in a guild. Only the
// most recent tracks are kept.
func (s *Storage) AppendTrackToHistory(guildID string, t track.Track) error {
	rec := TrackHistoryRecord{
		Title:    t.DisplayName(),
		Author:   t.Author,
		URI:      t.URI,
		Length:   t.Length,
		PlayedAt: time.Now().UTC(),
	}
	return s.update(guildID, func(r *Record) {
		r.TracksHistory = keepLast(append(r.TracksHistory, rec), tracksHistoryLimit)
	})
}

// FetchTrackHistory returns recently played tracks, oldest first.
func (s *Storage) FetchTrackHistory(guildID string) ([]TrackHistoryRecord, error) {
	record, err := s.read(guildID)
	if err != nil {
		return nil, err
	}
	return record.TracksHistory, nil
}
