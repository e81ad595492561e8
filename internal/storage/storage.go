// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"

	"github.com/keshon/guildtunes/datastore"
)

const (
	commandHistoryLimit int = 20
	tracksHistoryLimit  int = 12
)

// Storage keeps per-guild records in the datastore.
type Storage struct {
	ds *datastore.DataStore
	// mu makes read-modify-write of a guild record atomic.
	mu sync.Mutex
}

type Record struct {
	CommandsHistory []CommandHistoryRecord `json:"cmd_history"`
	TracksHistory   []TrackHistoryRecord   `json:"tracks_history"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithDataStore wraps an already opened datastore.
func NewWithDataStore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Guilds returns the IDs of all guilds with a stored record.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}

func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, fmt.Errorf("error reading record of guild %s: %w", guildID, err)
	}
	if record.CommandsHistory == nil {
		record.CommandsHistory = []CommandHistoryRecord{}
	}
	if record.TracksHistory == nil {
		record.TracksHistory = []TrackHistoryRecord{}
	}
	return &record, nil
}

// update applies fn to the guild record and stores the result.
func (s *Storage) update(guildID string, fn func(r *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	fn(record)
	return s.ds.Put(guildID, record)
}

func (s *Storage) read(guildID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateGuildRecord(guildID)
}

func keepLast[T any](list []T, limit int) []T {
	if len(list) > limit {
		return list[len(list)-limit:]
	}
	return list
}
