package main

import (
	"fmt"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/database"
	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/internal/model/convert"
	gormstorage "github.com/crossingguard/autopilot/internal/storage/gorm"
	"github.com/crossingguard/autopilot/internal/storage/memory"
	v1 "github.com/crossingguard/autopilot/internal/storage/memory/export/v1"

	"gorm.io/gorm"
)

// exportSessions reads recorded sessions back from a database recorder and
// writes them in the same JSON format the memory recorder produces.
func exportSessions(source string, sessionIDs []string) error {
	var (
		db  *gorm.DB
		err error
	)
	switch source {
	case "sqlite":
		path := config.GetRecorderConfig().SQLite.Path
		if path == "" {
			return fmt.Errorf("recorder.sqlite.path is not set")
		}
		db, err = database.GetSqliteDB(path)
	case "postgres":
		db, err = database.GetPostgresDB(config.GetDBConfig())
	default:
		return fmt.Errorf("unknown export source %q", source)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", source, err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var georef *geo.Georeference
	if g := config.GetGeoConfig(); g.Enabled {
		georef = geo.NewGeoreference(g.Longitude, g.Latitude)
	}

	reader := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: Logger})
	out := config.GetRecorderConfig().Memory

	for _, id := range sessionIDs {
		start := time.Now()
		data, err := loadSession(reader, id)
		if err != nil {
			return err
		}
		data.Geo = georef

		path, err := memory.WriteExport(out, data)
		if err != nil {
			return fmt.Errorf("failed to export session %s: %w", id, err)
		}
		Logger.Info("Exported session", "session", id, "path", path, "duration", time.Since(start))
		fmt.Println(path)
	}
	return nil
}

func loadSession(reader *gormstorage.Backend, id string) (*v1.SessionData, error) {
	row, err := reader.Session(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	session := convert.SessionToCore(row)
	data := &v1.SessionData{Session: &session}
	if row.EndTime != nil {
		data.EndTime = *row.EndTime
	}

	if data.Ticks, err = reader.Ticks(id); err != nil {
		return nil, fmt.Errorf("failed to load ticks of %s: %w", id, err)
	}
	if data.Transitions, err = reader.Transitions(id); err != nil {
		return nil, fmt.Errorf("failed to load transitions of %s: %w", id, err)
	}
	if data.Maneuvers, err = reader.Maneuvers(id); err != nil {
		return nil, fmt.Errorf("failed to load maneuvers of %s: %w", id, err)
	}
	return data, nil
}
