package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/guildtunes/internal/music/track"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	s, err := New(path)
	require.NoError(t, err)
	return s, path
}

func TestTrackHistory_KeepsMostRecent(t *testing.T) {
	s, _ := newTestStorage(t)
	defer s.Close()

	for i := 0; i < tracksHistoryLimit+3; i++ {
		require.NoError(t, s.AppendTrackToHistory("g1", track.Track{Title: fmt.Sprintf("t%d", i)}))
	}

	hist, err := s.FetchTrackHistory("g1")
	require.NoError(t, err)
	require.Len(t, hist, tracksHistoryLimit)
	assert.Equal(t, "t3", hist[0].Title)
	assert.Equal(t, fmt.Sprintf("t%d", tracksHistoryLimit+2), hist[len(hist)-1].Title)
	assert.False(t, hist[0].PlayedAt.IsZero())
}

func TestCommandHistory_PerGuild(t *testing.T) {
	s, _ := newTestStorage(t)
	defer s.Close()

	require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{Command: "music-play", Param: "song"}))
	require.NoError(t, s.AppendCommandToHistory("g2", CommandHistoryRecord{Command: "music-stop"}))

	h1, err := s.FetchCommandHistory("g1")
	require.NoError(t, err)
	require.Len(t, h1, 1)
	assert.Equal(t, "song", h1[0].Param)

	empty, err := s.FetchCommandHistory("unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, []string{"g1", "g2"}, s.Guilds())
}

func TestHistory_SurvivesReopen(t *testing.T) {
	s, path := newTestStorage(t)
	require.NoError(t, s.AppendTrackToHistory("g1", track.Track{Title: "a"}))
	require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{Command: "music-join"}))
	require.NoError(t, s.Close())

	s2, err := New(path)
	require.NoError(t, err)
	defer s2.Close()

	tracks, err := s2.FetchTrackHistory("g1")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
	cmds, err := s2.FetchCommandHistory("g1")
	require.NoError(t, err)
	assert.Len(t, cmds, 1)
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	s, _ := newTestStorage(t)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AppendTrackToHistory("g1", track.Track{Title: fmt.Sprint(i)}))
		}(i)
	}
	wg.Wait()

	hist, err := s.FetchTrackHistory("g1")
	require.NoError(t, err)
	assert.Len(t, hist, 10)
}
