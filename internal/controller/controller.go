// Package controller implements the per-tick driving decision: cruise, slow
// down for a nearby pedestrian, or bypass a pedestrian standing in the lane.
package controller

import (
	"log/slog"

	"github.com/crossingguard/autopilot/internal/avoidance"
	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/internal/perception"
	"github.com/crossingguard/autopilot/internal/prediction"
	"github.com/crossingguard/autopilot/internal/queue"
	"github.com/crossingguard/autopilot/pkg/core"
)

// Navigator follows a route to a destination at a requested speed.
type Navigator interface {
	SetDestination(p core.Point3)
	SetSpeed(v float64)
	State() core.NavState
}

// Tracker exposes the tracking records of visible obstacles.
type Tracker interface {
	Record(id core.ObstacleID) (*perception.Record, bool)
}

// AvoidanceState is the driving mode plus the remaining bypass waypoints.
// Waypoints is empty whenever Mode is not ModeAvoiding.
type AvoidanceState struct {
	Mode      core.Mode
	Waypoints *queue.Queue[core.Point3]
}

// Evaluation is the per-obstacle outcome of one step.
type Evaluation struct {
	ID         core.ObstacleID
	Confidence float64
	Predicted  core.Point3
	Distance   float64
}

// StepResult summarises one decision step.
type StepResult struct {
	Mode            core.Mode
	SpeedTarget     float64
	Arrived         bool
	NearestDistance float64 // -1 when nothing is visible
	Evaluations     []Evaluation
	Transition      *core.ModeTransition
	Maneuver        *core.Maneuver
}

// Controller owns the avoidance state machine.
type Controller struct {
	cfg       config.AgentConfig
	nav       Navigator
	tracker   Tracker
	predictor prediction.Predictor
	planner   *avoidance.Planner
	logger    *slog.Logger

	state       AvoidanceState
	target      core.Point3
	speedTarget float64
}

// New creates a controller in ModeCruising.
func New(cfg config.AgentConfig, nav Navigator, tracker Tracker, predictor prediction.Predictor, planner *avoidance.Planner, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:         cfg,
		nav:         nav,
		tracker:     tracker,
		predictor:   predictor,
		planner:     planner,
		logger:      logger.With("component", "controller"),
		state:       AvoidanceState{Mode: core.ModeCruising, Waypoints: queue.New[core.Point3]()},
		speedTarget: cfg.NormalSpeed,
	}
}

// SetTarget sets the final destination. During a bypass the new target is
// picked up once the bypass completes.
func (c *Controller) SetTarget(p core.Point3) {
	c.target = p
	if c.state.Mode != core.ModeAvoiding {
		c.nav.SetDestination(p)
	}
}

// Target returns the final destination.
func (c *Controller) Target() core.Point3 { return c.target }

// Mode returns the current driving mode.
func (c *Controller) Mode() core.Mode { return c.state.Mode }

// SpeedTarget returns the speed written on the last step.
func (c *Controller) SpeedTarget() float64 { return c.speedTarget }

// Waypoints returns a copy of the remaining bypass waypoints.
func (c *Controller) Waypoints() []core.Point3 { return c.state.Waypoints.Items() }

// Step runs one decision tick against the navigator state read at the start
// of the tick and the obstacles visible this tick, in scan order.
func (c *Controller) Step(nav core.NavState, visible []core.Obstacle) StepResult {
	res := StepResult{NearestDistance: -1}
	pos := nav.Pose.Position

	shouldSlowDown := false
	entered := false
	destinationChanged := false

	for _, o := range visible {
		rec, ok := c.tracker.Record(o.ID)
		if !ok {
			continue
		}

		conf := c.predictor.Confidence(rec.History(), rec.Age)
		predicted := c.predictor.PredictPosition(o.Position, o.Forward, conf)
		dist := geo.Distance(pos, predicted)

		res.Evaluations = append(res.Evaluations, Evaluation{ID: o.ID, Confidence: conf, Predicted: predicted, Distance: dist})
		if res.NearestDistance < 0 || dist < res.NearestDistance {
			res.NearestDistance = dist
		}
		c.logger.Debug("evaluated obstacle",
			"id", o.ID, "confidence", conf, "distance", dist,
			"observed", rec.TimeObserved, "movement", rec.TotalMovement)

		if dist >= c.cfg.SlowDownDistance {
			continue
		}
		shouldSlowDown = true

		if c.state.Mode != core.ModeAvoiding && rec.IsStill(c.cfg.StillTimeThreshold, c.cfg.PedestrianStillThreshold) {
			res.Maneuver = c.beginAvoidance(nav.Pose, o.ID, &res)
			entered = !res.Maneuver.Aborted
			destinationChanged = entered
			break
		}
	}

	speed := c.cfg.NormalSpeed

	switch {
	case entered:
		speed = c.cfg.SlowSpeed
	case c.state.Mode == core.ModeAvoiding:
		speed = c.cfg.SlowSpeed
		if nav.Arrived(c.cfg.ArrivalDistance) {
			destinationChanged = true
			if wp, ok := c.state.Waypoints.Pop(); ok {
				c.nav.SetDestination(wp)
				c.logger.Debug("next bypass waypoint", "waypoint", wp, "remaining", c.state.Waypoints.Len())
			} else {
				c.nav.SetDestination(c.target)
				speed = c.cfg.NormalSpeed
				c.transition(core.ModeCruising, "bypass complete", &res)
			}
		}
	default:
		next := core.ModeCruising
		if shouldSlowDown {
			next = core.ModeSlowingDown
			speed = c.cfg.SlowSpeed
		}
		c.transition(next, "obstacle proximity", &res)
	}

	if c.state.Mode != core.ModeAvoiding && !destinationChanged && nav.Arrived(c.cfg.ArrivalDistance) {
		speed = 0
		res.Arrived = true
	}

	c.speedTarget = speed
	c.nav.SetSpeed(speed)

	res.Mode = c.state.Mode
	res.SpeedTarget = speed
	return res
}

// beginAvoidance plans a bypass around id. A path with no waypoints leaves
// the mode untouched and is reported as an aborted maneuver.
func (c *Controller) beginAvoidance(pose core.Pose, id core.ObstacleID, res *StepResult) *core.Maneuver {
	cp := avoidance.ControlPoints(pose, c.cfg.AvoidOffset, c.cfg.AvoidCurveForwardOffset)
	path := c.planner.Snap(cp)

	m := &core.Maneuver{
		ObstacleID:    id,
		Origin:        pose.Position,
		ControlPoints: cp,
		Waypoints:     path,
		Aborted:       len(path) == 0,
	}

	if m.Aborted {
		c.logger.Warn("bypass has no drivable waypoints, staying on route", "obstacle", id, "origin", pose.Position)
		return m
	}

	c.logger.Info("planned bypass", "obstacle", id, "waypoints", len(path))

	c.state.Waypoints.Replace(path...)
	first, _ := c.state.Waypoints.Pop()
	c.nav.SetDestination(first)
	c.transition(core.ModeAvoiding, "stationary pedestrian "+string(id), res)
	return m
}

func (c *Controller) transition(to core.Mode, reason string, res *StepResult) {
	from := c.state.Mode
	if from == to {
		return
	}
	c.state.Mode = to
	if to != core.ModeAvoiding {
		c.state.Waypoints.Clear()
	}
	res.Transition = &core.ModeTransition{From: from, To: to, Reason: reason}
	c.logger.Info("mode transition", "from", from, "to", to, "reason", reason)
}
