// Package influxstorage implements the storage.Backend interface as
// InfluxDB time series: one point per tick, transition and maneuver.
package influxstorage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/influx"
	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/rs/zerolog"
)

const connectTimeout = 10 * time.Second

// ErrNoSession is returned when recording before StartSession.
var ErrNoSession = errors.New("no active session")

// Backend writes points through an influx.Manager.
type Backend struct {
	manager *influx.Manager
	log     zerolog.Logger

	mu      sync.Mutex
	session *core.Session
}

// New creates an InfluxDB backend. The connection is made on Init.
func New(cfg config.InfluxConfig, log zerolog.Logger) *Backend {
	cfg.Enabled = true
	return &Backend{
		manager: influx.NewManager(log, cfg),
		log:     log,
	}
}

// Init connects to InfluxDB or opens the backup file.
func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := b.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	return nil
}

// Close flushes pending points and closes the client.
func (b *Backend) Close() error {
	return b.manager.Close()
}

// StartSession remembers the session used to tag points without a session id.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = s
	b.log.Info().Str("session", s.ID).Str("scenario", s.Scenario).Msg("Recording session to InfluxDB")
	return nil
}

// EndSession flushes pending points.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return ErrNoSession
	}
	b.session = nil
	b.manager.Flush()
	return nil
}

func (b *Backend) sessionID() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return "", ErrNoSession
	}
	return b.session.ID, nil
}

// RecordTick writes an agent_tick point.
func (b *Backend) RecordTick(r *core.TickRecord) error {
	id, err := b.sessionID()
	if err != nil {
		return err
	}
	rec := *r
	if rec.SessionID == "" {
		rec.SessionID = id
	}
	return b.manager.WritePoint(influx.TickPoint(&rec))
}

// RecordTransition writes an agent_transition point.
func (b *Backend) RecordTransition(t *core.ModeTransition) error {
	id, err := b.sessionID()
	if err != nil {
		return err
	}
	tr := *t
	if tr.SessionID == "" {
		tr.SessionID = id
	}
	return b.manager.WritePoint(influx.TransitionPoint(&tr))
}

// RecordManeuver writes an agent_maneuver point.
func (b *Backend) RecordManeuver(m *core.Maneuver) error {
	id, err := b.sessionID()
	if err != nil {
		return err
	}
	mv := *m
	if mv.SessionID == "" {
		mv.SessionID = id
	}
	return b.manager.WritePoint(influx.ManeuverPoint(&mv))
}
