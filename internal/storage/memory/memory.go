// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
)

// ErrNoSession is returned when recording before StartSession.
var ErrNoSession = errors.New("no active session")

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig
	geo *geo.Georeference

	session     *core.Session
	endTime     time.Time
	ticks       []core.TickRecord
	transitions []core.ModeTransition
	maneuvers   []core.Maneuver

	lastExportPath string
	now            func() time.Time
	mu             sync.RWMutex
}

// New creates a new memory backend. A non-nil georeference adds WGS84
// coordinates to the export.
func New(cfg config.MemoryConfig, georef *geo.Georeference) *Backend {
	return &Backend{
		cfg: cfg,
		geo: georef,
		now: time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session and drops anything recorded before.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.endTime = time.Time{}
	b.ticks = nil
	b.transitions = nil
	b.maneuvers = nil
	b.lastExportPath = ""

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.endTime = b.now()
	return b.exportJSON()
}

// RecordTick appends a tick record
func (b *Backend) RecordTick(r *core.TickRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.ticks = append(b.ticks, *r)
	return nil
}

// RecordTransition appends a mode transition
func (b *Backend) RecordTransition(t *core.ModeTransition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	b.transitions = append(b.transitions, *t)
	return nil
}

// RecordManeuver appends a maneuver
func (b *Backend) RecordManeuver(m *core.Maneuver) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return ErrNoSession
	}
	mv := *m
	mv.Waypoints = append([]core.Point3(nil), m.Waypoints...)
	b.maneuvers = append(b.maneuvers, mv)
	return nil
}

// Ticks returns a copy of the recorded tick records
func (b *Backend) Ticks() []core.TickRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.TickRecord(nil), b.ticks...)
}

// Transitions returns a copy of the recorded transitions
func (b *Backend) Transitions() []core.ModeTransition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.ModeTransition(nil), b.transitions...)
}

// Maneuvers returns a copy of the recorded maneuvers
func (b *Backend) Maneuvers() []core.Maneuver {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Maneuver(nil), b.maneuvers...)
}

// ExportedFilePath returns the path of the last export, empty before EndSession.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
