package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "nested", "store.json"))
	cfg.AutoSaveInterval = 0
	return cfg
}

func TestNew_CreatesEmptyFile(t *testing.T) {
	cfg := testConfig(t)
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer ds.Close()

	raw, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
	assert.Empty(t, ds.Keys())
}

func TestPutGetDelete(t *testing.T) {
	ds, err := NewWithConfig(testConfig(t))
	require.NoError(t, err)
	defer ds.Close()

	require.NoError(t, ds.Put("a", entry{Name: "x", Count: 2}))

	var got entry
	ok, err := ds.Get("a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entry{Name: "x", Count: 2}, got)

	ds.Delete("a")
	ok, err = ds.Get("a", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClose_PersistsAndReloads(t *testing.T) {
	cfg := testConfig(t)
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	require.NoError(t, ds.Put("b", entry{Name: "y"}))
	require.NoError(t, ds.Put("a", entry{Name: "z"}))
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Put("c", entry{}), ErrClosed)

	reopened, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []string{"a", "b"}, reopened.Keys())

	var got entry
	ok, err := reopened.Get("b", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "y", got.Name)
}

func TestFlush_KeepsBoundedBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackupCount = 2
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer ds.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, ds.Put("k", entry{Count: i}))
		require.NoError(t, ds.Flush())
	}

	backups, err := filepath.Glob(cfg.FilePath + ".backup.*")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), 2)
}

func TestNew_RejectsCorruptFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755))
	require.NoError(t, os.WriteFile(cfg.FilePath, []byte("{not json"), 0o644))

	_, err := NewWithConfig(cfg)
	assert.Error(t, err)
}
