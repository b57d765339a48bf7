package influx

import (
	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementTick       = "agent_tick"
	MeasurementTransition = "agent_transition"
	MeasurementManeuver   = "agent_maneuver"
)

// TickPoint converts a tick record to a point tagged by session and mode.
func TickPoint(r *core.TickRecord) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(MeasurementTick,
		map[string]string{
			"session": r.SessionID,
			"mode":    r.Mode.String(),
		},
		map[string]any{
			"tick":             int64(r.Tick),
			"x":                r.Position.X,
			"y":                r.Position.Y,
			"z":                r.Position.Z,
			"speed":            geo.Distance(core.Point3{}, r.Velocity),
			"speed_target":     r.SpeedTarget,
			"tracked":          r.Tracked,
			"visible":          r.Visible,
			"nearest_distance": r.NearestDistance,
			"steer_yaw":        r.Steering.SteerYaw,
			"arrived":          r.Arrived,
		},
		r.Time,
	)
}

// TransitionPoint converts a mode transition to a point.
func TransitionPoint(t *core.ModeTransition) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(MeasurementTransition,
		map[string]string{
			"session": t.SessionID,
			"from":    t.From.String(),
			"to":      t.To.String(),
		},
		map[string]any{
			"tick":   int64(t.Tick),
			"reason": t.Reason,
		},
		t.Time,
	)
}

// ManeuverPoint converts a maneuver to a point tagged by obstacle.
func ManeuverPoint(m *core.Maneuver) *influxdb2_write.Point {
	length := 0.0
	if len(m.Waypoints) > 0 {
		length = geo.PathLength(append([]core.Point3{m.Origin}, m.Waypoints...))
	}
	return influxdb2_write.NewPoint(MeasurementManeuver,
		map[string]string{
			"session":  m.SessionID,
			"obstacle": string(m.ObstacleID),
		},
		map[string]any{
			"tick":        int64(m.Tick),
			"waypoints":   len(m.Waypoints),
			"path_length": length,
			"aborted":     m.Aborted,
		},
		m.Time,
	)
}
