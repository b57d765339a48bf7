// internal/storage/storage.go
package storage

import "github.com/crossingguard/autopilot/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordTick(r *core.TickRecord) error
	RecordTransition(t *core.ModeTransition) error
	RecordManeuver(m *core.Maneuver) error
}

// Exportable is an optional interface for backends that write the session
// to a file when it ends.
type Exportable interface {
	ExportedFilePath() string
}
