package worker

import (
	"fmt"

	"github.com/crossingguard/autopilot/internal/dispatcher"
	"github.com/crossingguard/autopilot/pkg/core"
)

// RegisterHandlers registers the recorder handlers with the dispatcher.
// Nothing is registered without a backend, so the agent's events resolve to
// dispatcher.ErrUnknownCommand and are skipped.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher, bufferSize int) {
	if m.backend == nil {
		return
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}

	// One tick record per tick - buffered, dropped when the recorder falls behind
	d.Register(core.CommandTick, m.handleTick, dispatcher.Buffered(bufferSize), dispatcher.Logged())

	// Transitions and maneuvers - buffered, separate from the tick queue
	d.Register(core.CommandTransition, m.handleTransition, dispatcher.Buffered(bufferSize), dispatcher.Logged())
	d.Register(core.CommandManeuver, m.handleManeuver, dispatcher.Buffered(bufferSize), dispatcher.Logged())
}

func (m *Manager) handleTick(e core.Event) (any, error) {
	rec, ok := e.Payload.(*core.TickRecord)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedPayload, e.Payload, e.Command)
	}
	return nil, m.record(e.Command, m.backend.RecordTick(rec))
}

func (m *Manager) handleTransition(e core.Event) (any, error) {
	tr, ok := e.Payload.(*core.ModeTransition)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedPayload, e.Payload, e.Command)
	}
	return nil, m.record(e.Command, m.backend.RecordTransition(tr))
}

func (m *Manager) handleManeuver(e core.Event) (any, error) {
	mv, ok := e.Payload.(*core.Maneuver)
	if !ok {
		return nil, fmt.Errorf("%w: %T for %s", ErrUnexpectedPayload, e.Payload, e.Command)
	}
	return nil, m.record(e.Command, m.backend.RecordManeuver(mv))
}

func (m *Manager) record(command string, err error) error {
	if err != nil {
		m.failed.Add(1)
		m.logger.Warn("failed to record event", "command", command, "error", err)
		return fmt.Errorf("failed to record %s: %w", command, err)
	}
	m.recorded.Add(1)
	return nil
}
