// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/storage"
	"github.com/crossingguard/autopilot/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend_Memory(t *testing.T) {
	b, err := storage.NewBackend(storage.Options{
		Recorder: config.RecorderConfig{Type: "memory", Memory: config.MemoryConfig{OutputDir: t.TempDir()}},
	})
	require.NoError(t, err)
	_, ok := b.(*memory.Backend)
	assert.True(t, ok)
	_, ok = b.(storage.Exportable)
	assert.True(t, ok)
}

func TestNewBackend_None(t *testing.T) {
	b, err := storage.NewBackend(storage.Options{Recorder: config.RecorderConfig{Type: "none"}})
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(storage.Options{Recorder: config.RecorderConfig{Type: "tape"}})
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestNewBackend_SQLite(t *testing.T) {
	b, err := storage.NewBackend(storage.Options{
		Recorder: config.RecorderConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: t.TempDir() + "/run.db"}},
	})
	require.NoError(t, err)
	require.NotNil(t, b)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}
