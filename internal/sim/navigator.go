// Package sim provides reference collaborators for the decision core: a
// kinematic vehicle, scripted pedestrians and a flat drivable surface.
package sim

import (
	"math"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// routeDelay is how many Advance calls a new route takes to compute.
const routeDelay = 2

// Navigator is a point-mass vehicle driving straight at its destination.
type Navigator struct {
	pose     core.Pose
	speed    float64
	target   float64
	maxAccel float64 // units/s²; 0 means instantaneous speed changes

	dest     core.Point3
	hasDest  bool
	planning int
}

// NewNavigator places a vehicle at start.
func NewNavigator(start core.Pose, maxAccel float64) *Navigator {
	if r3.Norm(start.Forward) == 0 {
		start.Forward = core.Point3{Z: 1}
	}
	start.Forward = r3.Unit(start.Forward)
	return &Navigator{pose: start, maxAccel: maxAccel}
}

// SetDestination starts computing a route to p. The route is pending for
// the next State read.
func (n *Navigator) SetDestination(p core.Point3) {
	n.dest = p
	n.hasDest = true
	n.planning = routeDelay
}

// SetSpeed sets the speed the vehicle accelerates towards.
func (n *Navigator) SetSpeed(v float64) {
	n.target = math.Max(0, v)
}

// State reports the current telemetry.
func (n *Navigator) State() core.NavState {
	return core.NavState{
		Pose:              n.pose,
		Velocity:          r3.Scale(n.speed, n.pose.Forward),
		PathPending:       n.planning > 0,
		RemainingDistance: n.remaining(),
	}
}

// Destination returns the active destination.
func (n *Navigator) Destination() (core.Point3, bool) {
	return n.dest, n.hasDest
}

// Speed returns the current scalar speed.
func (n *Navigator) Speed() float64 { return n.speed }

func (n *Navigator) remaining() float64 {
	if !n.hasDest {
		return 0
	}
	return r3.Norm(r3.Sub(n.dest, n.pose.Position))
}

// Advance integrates the vehicle over dt.
func (n *Navigator) Advance(dt time.Duration) {
	if n.planning > 0 {
		n.planning--
	}

	secs := dt.Seconds()
	n.speed = approach(n.speed, n.target, n.maxAccel*secs)

	remaining := n.remaining()
	if !n.hasDest || remaining == 0 {
		n.speed = 0
		return
	}

	dir := r3.Unit(r3.Sub(n.dest, n.pose.Position))
	n.pose.Forward = dir

	step := n.speed * secs
	if step >= remaining {
		n.pose.Position = n.dest
		n.speed = 0
		return
	}
	n.pose.Position = r3.Add(n.pose.Position, r3.Scale(step, dir))
}

// approach moves v towards target by at most maxDelta. A non-positive
// maxDelta jumps straight to target.
func approach(v, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return target
	}
	switch {
	case v < target:
		return math.Min(v+maxDelta, target)
	case v > target:
		return math.Max(v-maxDelta, target)
	default:
		return v
	}
}
