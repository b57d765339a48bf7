// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	v1 "github.com/crossingguard/autopilot/internal/storage/memory/export/v1"
	"github.com/crossingguard/autopilot/pkg/core"
)

// exportJSON writes the session data to a JSON file, gzipped when configured.
// Callers hold b.mu.
func (b *Backend) exportJSON() error {
	path, err := WriteExport(b.cfg, &v1.SessionData{
		Session:     b.session,
		EndTime:     b.endTime,
		Ticks:       b.ticks,
		Transitions: b.transitions,
		Maneuvers:   b.maneuvers,
		Geo:         b.geo,
	})
	if err != nil {
		return err
	}
	b.lastExportPath = path
	return nil
}

// WriteExport builds the v1 export of data and writes it under cfg.OutputDir.
// It returns the path written.
func WriteExport(cfg config.MemoryConfig, data *v1.SessionData) (string, error) {
	export := v1.Build(data)
	outputPath := filepath.Join(cfg.OutputDir, exportFileName(data.Session, cfg.CompressOutput))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return "", err
	}
	return outputPath, nil
}

func exportFileName(s *core.Session, compress bool) string {
	name := "session"
	var start time.Time
	if s != nil {
		if s.Scenario != "" {
			name = s.Scenario
		}
		start = s.StartTime
	}
	name = strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(name)
	timestamp := start.UTC().Format("20060102_150405")

	if compress {
		return fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	}
	return fmt.Sprintf("%s_%s.json", name, timestamp)
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
