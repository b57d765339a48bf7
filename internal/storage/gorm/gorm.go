// Package gormstorage implements the storage.Backend interface on GORM with
// internal queues drained by a background writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crossingguard/autopilot/internal/database"
	"github.com/crossingguard/autopilot/internal/model"
	"github.com/crossingguard/autopilot/internal/model/convert"
	"github.com/crossingguard/autopilot/internal/queue"
	"github.com/crossingguard/autopilot/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued rows are written when none is configured.
const DefaultFlushInterval = 500 * time.Millisecond

// ErrNoSession is returned when recording before StartSession.
var ErrNoSession = errors.New("no active session")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Ticks       *queue.Queue[model.TickRecord]
	Transitions *queue.Queue[model.ModeTransition]
	Maneuvers   *queue.Queue[model.Maneuver]
}

func newQueues() *queues {
	return &queues{
		Ticks:       queue.New[model.TickRecord](),
		Transitions: queue.New[model.ModeTransition](),
		Maneuvers:   queue.New[model.Maneuver](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu        sync.Mutex
	sessionID string
	lastTick  uint64
	arrived   bool

	writeMu     sync.Mutex
	lastWriteNs atomic.Int64
	stopChan    chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()

	b.deps.Logger.Debug("database setup complete", "dialect", b.deps.DB.Dialector.Name())
	return nil
}

// Close stops the writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
			<-b.done
		}
	})
	return nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// StartSession inserts the session row synchronously so queued rows can reference it.
func (b *Backend) StartSession(s *core.Session) error {
	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	b.mu.Lock()
	b.sessionID = s.ID
	b.lastTick = 0
	b.arrived = false
	b.mu.Unlock()
	return nil
}

// EndSession flushes the queues and stamps the session row with its outcome.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	id, ticks, arrived := b.sessionID, b.lastTick, b.arrived
	b.sessionID = ""
	b.mu.Unlock()

	if id == "" {
		return ErrNoSession
	}

	if err := b.flush(id); err != nil {
		return err
	}

	err := b.deps.DB.Model(&model.Session{}).Where("id = ?", id).Updates(map[string]any{
		"end_time": time.Now(),
		"ticks":    ticks,
		"arrived":  arrived,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

func (b *Backend) activeSession() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessionID == "" {
		return "", ErrNoSession
	}
	return b.sessionID, nil
}

// RecordTick converts and queues a tick record.
func (b *Backend) RecordTick(r *core.TickRecord) error {
	if _, err := b.activeSession(); err != nil {
		return err
	}
	b.queues.Ticks.Push(convert.CoreToTickRecord(*r))

	b.mu.Lock()
	if r.Tick > b.lastTick {
		b.lastTick = r.Tick
	}
	b.arrived = b.arrived || r.Arrived
	b.mu.Unlock()
	return nil
}

// RecordTransition converts and queues a mode transition.
func (b *Backend) RecordTransition(t *core.ModeTransition) error {
	if _, err := b.activeSession(); err != nil {
		return err
	}
	b.queues.Transitions.Push(convert.CoreToModeTransition(*t))
	return nil
}

// RecordManeuver converts and queues a maneuver.
func (b *Backend) RecordManeuver(m *core.Maneuver) error {
	if _, err := b.activeSession(); err != nil {
		return err
	}
	b.queues.Maneuvers.Push(convert.CoreToManeuver(*m))
	return nil
}

// LastWriteDuration returns how long the last write cycle took.
func (b *Backend) LastWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNs.Load())
}

// Ticks loads the tick records of a session ordered by tick.
func (b *Backend) Ticks(sessionID string) ([]core.TickRecord, error) {
	var rows []model.TickRecord
	if err := b.deps.DB.Where("session_id = ?", sessionID).Order("tick").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.TickRecord, len(rows))
	for i, r := range rows {
		out[i] = convert.TickRecordToCore(r)
	}
	return out, nil
}

// Transitions loads the mode transitions of a session ordered by tick.
func (b *Backend) Transitions(sessionID string) ([]core.ModeTransition, error) {
	var rows []model.ModeTransition
	if err := b.deps.DB.Where("session_id = ?", sessionID).Order("tick").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.ModeTransition, len(rows))
	for i, r := range rows {
		out[i] = convert.ModeTransitionToCore(r)
	}
	return out, nil
}

// Maneuvers loads the maneuvers of a session ordered by tick.
func (b *Backend) Maneuvers(sessionID string) ([]core.Maneuver, error) {
	var rows []model.Maneuver
	if err := b.deps.DB.Where("session_id = ?", sessionID).Order("tick").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.Maneuver, len(rows))
	for i, r := range rows {
		out[i] = convert.ManeuverToCore(r)
	}
	return out, nil
}

// Session loads a session row.
func (b *Backend) Session(id string) (model.Session, error) {
	var row model.Session
	err := b.deps.DB.First(&row, "id = ?", id).Error
	return row, err
}

// writeQueue writes all items from a queue to the database in a transaction.
// A failed batch goes back to the front of the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) error {
	if q.Empty() {
		return nil
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log.Error("failed to write batch", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return tx.Commit().Error
}

// flush drains every queue, stamping rows that lack a session id.
func (b *Backend) flush(sessionID string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	start := time.Now()
	defer func() { b.lastWriteNs.Store(int64(time.Since(start))) }()

	db, log := b.deps.DB, b.deps.Logger

	stampTicks := func(items []model.TickRecord) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = sessionID
			}
		}
	}
	stampTransitions := func(items []model.ModeTransition) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = sessionID
			}
		}
	}
	stampManeuvers := func(items []model.Maneuver) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = sessionID
			}
		}
	}

	return errors.Join(
		writeQueue(db, b.queues.Ticks, "tick records", log, stampTicks),
		writeQueue(db, b.queues.Transitions, "mode transitions", log, stampTransitions),
		writeQueue(db, b.queues.Maneuvers, "maneuvers", log, stampManeuvers),
	)
}

// writeLoop periodically drains the queues into the DB until Close.
func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			b.mu.Lock()
			id := b.sessionID
			b.mu.Unlock()
			if err := b.flush(id); err != nil {
				b.deps.Logger.Error("final flush failed", "error", err)
			}
			return
		case <-ticker.C:
			b.mu.Lock()
			id := b.sessionID
			b.mu.Unlock()
			_ = b.flush(id)
		}
	}
}
