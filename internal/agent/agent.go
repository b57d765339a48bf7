// Package agent runs the per-frame decision pipeline: perception, decision
// and steering, in that order, once per Tick.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crossingguard/autopilot/internal/avoidance"
	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/controller"
	"github.com/crossingguard/autopilot/internal/dispatcher"
	"github.com/crossingguard/autopilot/internal/perception"
	"github.com/crossingguard/autopilot/internal/prediction"
	"github.com/crossingguard/autopilot/pkg/core"
)

// Publisher receives the events produced by a tick. Dispatch must not block.
type Publisher interface {
	Dispatch(e core.Event) (any, error)
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger used by the agent and its components.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithPublisher forwards tick, transition and maneuver events to p.
func WithPublisher(p Publisher) Option {
	return func(a *Agent) {
		a.publisher = p
	}
}

// WithSession stamps published records with sessionID.
func WithSession(sessionID string) Option {
	return func(a *Agent) {
		a.sessionID = sessionID
	}
}

// WithClock overrides the wall clock used to timestamp records.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// Agent owns every piece of mutable decision state. It is not safe for
// concurrent use; the host calls Tick from a single loop.
type Agent struct {
	cfg      config.AgentConfig
	nav      controller.Navigator
	scanner  *perception.Scanner
	ctrl     *controller.Controller
	steerCfg controller.SteeringConfig

	tick      uint64
	mode      core.Mode
	steerYaw  float64
	sessionID string

	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
	metrics   *instruments
}

// New wires a scanner, predictor, planner and controller around the given collaborators.
func New(cfg config.AgentConfig, nav controller.Navigator, query perception.SpatialQuery, surface avoidance.SurfaceSampler, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:      cfg,
		nav:      nav,
		steerCfg: controller.SteeringConfigFrom(cfg),
		mode:     core.ModeCruising,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	in, err := newInstruments()
	if err != nil {
		return nil, err
	}
	a.metrics = in

	a.scanner = perception.NewScanner(query, cfg.PedestrianLayer, cfg.MaxHistory, a.logger)
	planner := avoidance.NewPlanner(surface, cfg.SnapMaxDistance, a.logger)
	a.ctrl = controller.New(cfg, nav, a.scanner, prediction.FromConfig(cfg), planner, a.logger)

	return a, nil
}

// SetTarget sets the final destination.
func (a *Agent) SetTarget(p core.Point3) {
	a.ctrl.SetTarget(p)
}

// Target returns the final destination.
func (a *Agent) Target() core.Point3 { return a.ctrl.Target() }

// Mode returns the driving mode after the last tick.
func (a *Agent) Mode() core.Mode { return a.ctrl.Mode() }

// Ticks returns the number of ticks executed.
func (a *Agent) Ticks() uint64 { return a.tick }

// Tracked returns the number of obstacles currently tracked.
func (a *Agent) Tracked() int { return a.scanner.Len() }

// Scanner exposes the tracking records for inspection.
func (a *Agent) Scanner() *perception.Scanner { return a.scanner }

// LogAttrs describes the agent for log records; it satisfies logging.ContextProvider.
func (a *Agent) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Uint64("tick", a.tick),
		slog.String("mode", a.mode.String()),
	}
}

// Tick runs one decision frame. dt is the time elapsed since the previous
// tick and should equal the configured check interval.
func (a *Agent) Tick(dt time.Duration) core.TickResult {
	a.tick++
	now := a.now()

	state := a.nav.State()
	visible := a.scanner.Scan(state.Pose, a.cfg.DetectionRadius, a.cfg.HalfAngle(), dt)
	step := a.ctrl.Step(state, visible)

	steer := controller.Steer(state.Velocity, state.Pose, dt, a.steerCfg)
	if steer.Applied {
		a.steerYaw = steer.SteerYaw
	} else {
		steer.SteerYaw = a.steerYaw
	}
	a.mode = step.Mode

	res := core.TickResult{
		Tick:        a.tick,
		Mode:        step.Mode,
		SpeedTarget: step.SpeedTarget,
		Visible:     make([]core.ObstacleID, len(visible)),
		Arrived:     step.Arrived,
		Steering:    steer,
		Transition:  step.Transition,
		Maneuver:    step.Maneuver,
	}
	for i, o := range visible {
		res.Visible[i] = o.ID
	}

	confidences := make([]float64, len(step.Evaluations))
	for i, ev := range step.Evaluations {
		confidences[i] = ev.Confidence
	}
	a.metrics.record(context.Background(), a.scanner.Len(), confidences, step.Transition, step.Maneuver)

	if res.Transition != nil {
		res.Transition.SessionID = a.sessionID
		res.Transition.Tick = a.tick
		res.Transition.Time = now
	}
	if res.Maneuver != nil {
		res.Maneuver.SessionID = a.sessionID
		res.Maneuver.Tick = a.tick
		res.Maneuver.Time = now
	}

	a.publish(now, &core.TickRecord{
		SessionID:       a.sessionID,
		Tick:            a.tick,
		Time:            now,
		Position:        state.Pose.Position,
		Velocity:        state.Velocity,
		Mode:            step.Mode,
		SpeedTarget:     step.SpeedTarget,
		Tracked:         a.scanner.Len(),
		Visible:         len(visible),
		NearestDistance: step.NearestDistance,
		Arrived:         step.Arrived,
		Steering:        steer,
	}, res.Transition, res.Maneuver)

	return res
}

func (a *Agent) publish(now time.Time, rec *core.TickRecord, tr *core.ModeTransition, mv *core.Maneuver) {
	if a.publisher == nil {
		return
	}
	a.send(core.Event{Command: core.CommandTick, Payload: rec, Timestamp: now})
	if tr != nil {
		a.send(core.Event{Command: core.CommandTransition, Payload: tr, Timestamp: now})
	}
	if mv != nil {
		a.send(core.Event{Command: core.CommandManeuver, Payload: mv, Timestamp: now})
	}
}

func (a *Agent) send(e core.Event) {
	_, err := a.publisher.Dispatch(e)
	switch {
	case err == nil, errors.Is(err, dispatcher.ErrUnknownCommand):
	default:
		a.logger.Debug("event not published", "command", e.Command, "error", err)
	}
}
