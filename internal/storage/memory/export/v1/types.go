// Package v1 contains the v1 export format for recorded agent sessions.
package v1

// FormatVersion is written into every v1 export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int        `json:"formatVersion"`
	SessionID     string     `json:"sessionId"`
	Scenario      string     `json:"scenario"`
	AgentVersion  string     `json:"agentVersion"`
	StartTime     string     `json:"startTime"`
	EndTime       string     `json:"endTime"`
	Target        [3]float64 `json:"target"`
	Ticks         int        `json:"ticks"`
	Arrived       bool       `json:"arrived"`
	Georeferenced bool       `json:"georeferenced"`

	// Frames holds one row per tick:
	// [tick, [x,y,z], mode, speedTarget, tracked, visible, nearestDistance, steerYaw]
	Frames      [][]any      `json:"frames"`
	Transitions []Transition `json:"transitions"`
	Maneuvers   []Maneuver   `json:"maneuvers"`

	// Track is the vehicle path as [lon, lat, elevation], only when georeferenced.
	Track [][3]float64 `json:"track,omitempty"`
}

// Transition is a mode change.
type Transition struct {
	Tick   uint64 `json:"tick"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Maneuver is a planned bypass. Aborted maneuvers have no waypoints.
type Maneuver struct {
	Tick          uint64       `json:"tick"`
	ObstacleID    string       `json:"obstacleId"`
	Origin        [3]float64   `json:"origin"`
	ControlPoints [][3]float64 `json:"controlPoints"`
	Waypoints     [][3]float64 `json:"waypoints"`
	PathLength    float64      `json:"pathLength"`
	Aborted       bool         `json:"aborted"`
	LonLat        [][3]float64 `json:"lonLat,omitempty"`
}
