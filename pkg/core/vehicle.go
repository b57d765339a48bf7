package core

import "gonum.org/v1/gonum/spatial/r3"

// NavState is the telemetry the navigation engine exposes each tick.
type NavState struct {
	Pose              Pose
	Velocity          Point3
	PathPending       bool    // route not computed yet; RemainingDistance is meaningless
	RemainingDistance float64 // along the route to the active destination
}

// Speed returns the magnitude of the velocity.
func (s NavState) Speed() float64 {
	return r3.Norm(s.Velocity)
}

// Arrived reports whether the active destination is reached within tolerance.
// Always false while a path is pending.
func (s NavState) Arrived(tolerance float64) bool {
	return !s.PathPending && s.RemainingDistance < tolerance
}

// Steering is the visual wheel output derived from the current velocity.
type Steering struct {
	WheelSpinDelta float64 // degrees, identical for all four wheels
	SteerYaw       float64 // degrees for the steerable wheels
	Applied        bool    // false when the vehicle is too slow to update SteerYaw
}
