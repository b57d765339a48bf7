// Package postgres implements the storage.Backend interface on PostgreSQL by
// wrapping the GORM backend. When Postgres cannot be reached the session is
// recorded to SQLite instead.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/database"
	gormstorage "github.com/crossingguard/autopilot/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	manager      *database.Manager
	cfg          config.DBConfig
	fallbackPath string
	log          *slog.Logger
}

// New creates a Postgres backend. fallbackPath is the SQLite file used when
// Postgres is unreachable; empty keeps the fallback in memory.
func New(cfg config.DBConfig, fallbackPath string, logger *slog.Logger, dbLog zerolog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		manager:      database.NewManager(dbLog),
		cfg:          cfg,
		fallbackPath: fallbackPath,
		log:          logger,
	}
}

// Init connects and initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if err := b.manager.Connect(b.cfg, b.fallbackPath); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if b.manager.IsLocal {
		b.log.Warn("postgres unreachable, recording to SQLite", "path", b.fallbackPath)
	}
	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:     b.manager.DB,
		Logger: b.log,
	})
	return b.Backend.Init()
}

// IsLocal reports whether Init fell back to SQLite.
func (b *Backend) IsLocal() bool {
	return b.manager.IsLocal
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
