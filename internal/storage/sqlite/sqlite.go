// Package sqlitestorage implements the storage.Backend interface on SQLite by
// wrapping the GORM backend. The only SQLite-specific concerns are opening the
// database file (or memory) and the optional copy to disk when a session ends.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/database"
	gormstorage "github.com/crossingguard/autopilot/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     config.SQLiteConfig
	log     *slog.Logger
}

// New creates a new SQLite storage backend. The database is opened on Init.
func New(cfg config.SQLiteConfig, logger *slog.Logger, dbLog zerolog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		manager: database.NewManager(dbLog),
		cfg:     cfg,
		log:     logger,
	}
}

// Init opens the database and initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if err := b.manager.ConnectSQLite(b.cfg.Path); err != nil {
		return fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:     b.manager.DB,
		Logger: b.log,
	})
	return b.Backend.Init()
}

// EndSession closes the session and dumps the database when a dump path is configured.
func (b *Backend) EndSession() error {
	if err := b.Backend.EndSession(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	if err := b.manager.DumpMemoryToDisk(b.cfg.DumpPath); err != nil {
		return fmt.Errorf("failed to dump SQLite DB: %w", err)
	}
	b.log.Info("SQLite DB dumped", "path", b.cfg.DumpPath)
	return nil
}

// ExportedFilePath returns the dump path, or the database file when no dump is configured.
func (b *Backend) ExportedFilePath() string {
	if b.cfg.DumpPath != "" {
		return b.cfg.DumpPath
	}
	return b.cfg.Path
}

// Close stops the writer and releases the connection.
func (b *Backend) Close() error {
	if b.Backend != nil {
		if err := b.Backend.Close(); err != nil {
			return err
		}
	}
	return b.manager.Close()
}
