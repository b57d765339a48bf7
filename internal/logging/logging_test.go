package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name     string
		logsDir  string
		scenario string
		want     string
	}{
		{
			name:     "with scenario",
			logsDir:  "autopilotlogs",
			scenario: "crossing",
			want:     filepath.Join("autopilotlogs", "autopilot.crossing.20260212_213836.log"),
		},
		{
			name:    "without scenario",
			logsDir: "./autopilotlogs",
			want:    filepath.Join(".", "autopilotlogs", "autopilot.20260212_213836.log"),
		},
		{
			name:     "absolute path",
			logsDir:  filepath.Join("/var", "log", "autopilot"),
			scenario: "blocked",
			want:     filepath.Join("/var", "log", "autopilot", "autopilot.blocked.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "autopilot", tt.scenario, sessionStart))
		})
	}
}

func TestLogFilePath_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	start := time.Date(2026, 2, 12, 22, 38, 36, 0, loc)
	assert.Equal(t, filepath.Join("logs", "autopilot.20260212_213836.log"), LogFilePath("logs", "autopilot", "", start))
}
