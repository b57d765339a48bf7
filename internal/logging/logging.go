package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds the per-session log file path, e.g.
// logs/autopilot.crossing.20260212_213836.log.
func LogFilePath(logsDir, appName, scenario string, sessionStart time.Time) string {
	name := appName
	if scenario != "" {
		name += "." + scenario
	}
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.UTC().Format("20060102_150405")),
	)
}
