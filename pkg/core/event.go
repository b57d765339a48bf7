package core

import "time"

// Event commands published by the agent.
const (
	CommandTick       = "tick"
	CommandTransition = "transition"
	CommandManeuver   = "maneuver"
)

// Event carries one published record. Payload is *TickRecord,
// *ModeTransition or *Maneuver depending on Command.
type Event struct {
	Command   string
	Payload   any
	Timestamp time.Time
}

// TickResult is what Agent.Tick hands back to the host loop.
type TickResult struct {
	Tick        uint64
	Mode        Mode
	SpeedTarget float64
	Visible     []ObstacleID
	Arrived     bool
	Steering    Steering
	Transition  *ModeTransition
	Maneuver    *Maneuver
}
