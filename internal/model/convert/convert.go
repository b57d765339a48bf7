// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/crossingguard/autopilot/internal/model"
	"github.com/crossingguard/autopilot/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// pointToScene converts an (easting, northing, elevation) geom.Point back to a scene point.
func pointToScene(p geom.Point) core.Point3 {
	coord, ok := p.Coordinates()
	if !ok {
		return core.Point3{}
	}
	return core.Point3{X: coord.XY.X, Y: coord.Z, Z: coord.XY.Y}
}

func jsonToPoints(data datatypes.JSON) []core.Point3 {
	var flat [][3]float64
	if len(data) == 0 || json.Unmarshal(data, &flat) != nil || len(flat) == 0 {
		return nil
	}
	out := make([]core.Point3, len(flat))
	for i, p := range flat {
		out[i] = core.Point3{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	return core.Session{
		ID:        s.ID,
		Scenario:  s.Scenario,
		StartTime: s.StartTime,
		Target:    pointToScene(s.Target),
		Version:   s.Version,
	}
}

// TickRecordToCore converts a GORM TickRecord to a core.TickRecord.
// Velocity is not stored; only its magnitude survives as Speed.
func TickRecordToCore(r model.TickRecord) core.TickRecord {
	mode, _ := core.ParseMode(r.Mode)
	return core.TickRecord{
		SessionID:       r.SessionID,
		Tick:            r.Tick,
		Time:            r.Time,
		Position:        pointToScene(r.Position),
		Mode:            mode,
		SpeedTarget:     r.SpeedTarget,
		Tracked:         r.Tracked,
		Visible:         r.Visible,
		NearestDistance: r.NearestDistance,
		Arrived:         r.Arrived,
		Steering: core.Steering{
			SteerYaw:       r.SteerYaw,
			WheelSpinDelta: r.WheelSpinDelta,
		},
	}
}

// ModeTransitionToCore converts a GORM ModeTransition to a core.ModeTransition.
func ModeTransitionToCore(t model.ModeTransition) core.ModeTransition {
	from, _ := core.ParseMode(t.FromMode)
	to, _ := core.ParseMode(t.ToMode)
	return core.ModeTransition{
		SessionID: t.SessionID,
		Tick:      t.Tick,
		Time:      t.Time,
		From:      from,
		To:        to,
		Reason:    t.Reason,
	}
}

// ManeuverToCore converts a GORM Maneuver to a core.Maneuver.
func ManeuverToCore(m model.Maneuver) core.Maneuver {
	out := core.Maneuver{
		SessionID:  m.SessionID,
		Tick:       m.Tick,
		Time:       m.Time,
		ObstacleID: core.ObstacleID(m.ObstacleID),
		Origin:     pointToScene(m.Origin),
		Waypoints:  jsonToPoints(m.Waypoints),
		Aborted:    m.Aborted,
	}
	copy(out.ControlPoints[:], jsonToPoints(m.ControlPoints))
	return out
}
