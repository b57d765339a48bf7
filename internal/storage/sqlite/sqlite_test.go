package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/database"
	"github.com/crossingguard/autopilot/internal/model"
	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWithDump(t *testing.T) {
	dir := t.TempDir()
	cfg := config.SQLiteConfig{
		Path:     filepath.Join(dir, "live.db"),
		DumpPath: filepath.Join(dir, "dump.db"),
	}
	b := New(cfg, nil, zerolog.Nop())
	require.NoError(t, b.Init())
	defer b.Close()

	s := &core.Session{ID: "s1", Scenario: "crossing", StartTime: time.Now()}
	require.NoError(t, b.StartSession(s))
	require.NoError(t, b.RecordTick(&core.TickRecord{SessionID: "s1", Tick: 1, Mode: core.ModeSlowingDown}))
	require.NoError(t, b.EndSession())

	assert.Equal(t, cfg.DumpPath, b.ExportedFilePath())
	_, err := os.Stat(cfg.DumpPath)
	require.NoError(t, err)

	dump, err := database.GetSqliteDB(cfg.DumpPath)
	require.NoError(t, err)
	var count int64
	require.NoError(t, dump.Model(&model.TickRecord{}).Where("session_id = ?", "s1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestExportedFilePath_NoDump(t *testing.T) {
	b := New(config.SQLiteConfig{Path: "/data/run.db"}, nil, zerolog.Nop())
	assert.Equal(t, "/data/run.db", b.ExportedFilePath())
	assert.NoError(t, b.Close())
}
