package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/geo"
	influxstorage "github.com/crossingguard/autopilot/internal/storage/influx"
	"github.com/crossingguard/autopilot/internal/storage/memory"
	"github.com/crossingguard/autopilot/internal/storage/postgres"
	sqlitestorage "github.com/crossingguard/autopilot/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// ErrUnknownBackend is returned for an unrecognised recorder type.
var ErrUnknownBackend = errors.New("unknown storage type")

// Options carries everything NewBackend may need.
type Options struct {
	Recorder config.RecorderConfig
	DB       config.DBConfig
	Influx   config.InfluxConfig
	Geo      config.GeoConfig
	Logger   *slog.Logger
	DBLogger *zerolog.Logger
}

// NewBackend creates a storage backend based on configuration. Type "none"
// returns a nil backend.
func NewBackend(opts Options) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbLog := zerolog.Nop()
	if opts.DBLogger != nil {
		dbLog = *opts.DBLogger
	}

	switch opts.Recorder.Type {
	case "memory":
		var georef *geo.Georeference
		if opts.Geo.Enabled {
			georef = geo.NewGeoreference(opts.Geo.Longitude, opts.Geo.Latitude)
		}
		return memory.New(opts.Recorder.Memory, georef), nil
	case "sqlite":
		return sqlitestorage.New(opts.Recorder.SQLite, logger, dbLog), nil
	case "postgres":
		return postgres.New(opts.DB, opts.Recorder.SQLite.Path, logger, dbLog), nil
	case "influx":
		return influxstorage.New(opts.Influx, dbLog), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Recorder.Type)
	}
}
