// Package monitor periodically writes the live agent status to a file.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
)

// DefaultInterval is used when Dependencies.Interval is zero.
const DefaultInterval = time.Second

// Status is one snapshot of the running agent and its recorder.
type Status struct {
	Time                time.Time `json:"time"`
	SessionID           string    `json:"sessionId"`
	Scenario            string    `json:"scenario"`
	Tick                uint64    `json:"tick"`
	Mode                core.Mode `json:"mode"`
	SpeedTarget         float64   `json:"speedTarget"`
	Tracked             int       `json:"tracked"`
	Arrived             bool      `json:"arrived"`
	Recorded            uint64    `json:"recorded"`
	RecordFailures      uint64    `json:"recordFailures"`
	LastWriteDurationMs float64   `json:"lastWriteDurationMs"`
	DroppedEvents       uint64    `json:"droppedEvents"`
}

// RecorderStats reports recorder counters. worker.Manager satisfies it.
type RecorderStats interface {
	Recorded() uint64
	Failed() uint64
	LastWriteDuration() time.Duration
}

// DropCounter reports events lost before they reached the recorder.
// dispatcher.Dispatcher satisfies it.
type DropCounter interface {
	Dropped() uint64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger     *slog.Logger
	Recorder   RecorderStats // optional
	Drops      DropCounter   // optional
	StatusPath string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	status    Status
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Update replaces the agent part of the status. It is called from the tick
// loop; recorder counters are filled in by Snapshot.
func (s *Service) Update(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// Snapshot returns the latest status with recorder counters filled in.
func (s *Service) Snapshot() Status {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	st.Time = time.Now()
	if r := s.deps.Recorder; r != nil {
		st.Recorded = r.Recorded()
		st.RecordFailures = r.Failed()
		st.LastWriteDurationMs = float64(r.LastWriteDuration().Microseconds()) / 1000
	}
	if d := s.deps.Drops; d != nil {
		st.DroppedEvents = d.Dropped()
	}
	return st
}

// WriteStatus overwrites the status file with the current snapshot.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding status: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.deps.StatusPath), 0755); err != nil {
		return fmt.Errorf("error creating status directory: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.StatusPath == "" {
		return fmt.Errorf("status path not configured")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "path", s.deps.StatusPath, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and writes a final status.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	if err := s.WriteStatus(); err != nil {
		s.deps.Logger.Error("Error writing final status", "error", err)
	}
}
