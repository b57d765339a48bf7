package core

import "time"

// Session represents one run of the agent from start to shutdown.
type Session struct {
	ID        string
	Scenario  string
	StartTime time.Time
	Target    Point3
	Version   string
}

// TickRecord summarises one decision tick.
type TickRecord struct {
	SessionID       string
	Tick            uint64
	Time            time.Time
	Position        Point3
	Velocity        Point3
	Mode            Mode
	SpeedTarget     float64
	Tracked         int
	Visible         int
	NearestDistance float64 // distance to the nearest predicted obstacle position; -1 when none
	Arrived         bool
	Steering        Steering
}

// ModeTransition records a change of driving mode.
type ModeTransition struct {
	SessionID string
	Tick      uint64
	Time      time.Time
	From      Mode
	To        Mode
	Reason    string
}

// Maneuver records a planned avoidance path.
type Maneuver struct {
	SessionID     string
	Tick          uint64
	Time          time.Time
	ObstacleID    ObstacleID
	Origin        Point3
	ControlPoints [4]Point3
	Waypoints     []Point3
	Aborted       bool // no waypoint could be snapped onto the surface
}
