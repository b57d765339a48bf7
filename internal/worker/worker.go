// Package worker bridges dispatcher events to a storage backend.
package worker

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/crossingguard/autopilot/internal/storage"
)

// ErrUnexpectedPayload is returned when an event carries the wrong payload type.
var ErrUnexpectedPayload = errors.New("unexpected event payload")

// Manager records agent events through a storage backend.
type Manager struct {
	backend storage.Backend
	logger  *slog.Logger

	recorded atomic.Uint64
	failed   atomic.Uint64
}

// NewManager creates a new worker manager
func NewManager(backend storage.Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend: backend,
		logger:  logger,
	}
}

// WriteDurationProvider is an optional interface that backends can implement
// to expose their last write cycle duration for monitoring.
type WriteDurationProvider interface {
	LastWriteDuration() time.Duration
}

// LastWriteDuration returns the duration of the last backend write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) LastWriteDuration() time.Duration {
	if p, ok := m.backend.(WriteDurationProvider); ok {
		return p.LastWriteDuration()
	}
	return 0
}

// Recorded returns how many events reached the backend.
func (m *Manager) Recorded() uint64 { return m.recorded.Load() }

// Failed returns how many events the backend rejected.
func (m *Manager) Failed() uint64 { return m.failed.Load() }
