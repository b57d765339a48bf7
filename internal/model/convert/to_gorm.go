package convert

import (
	"encoding/json"

	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/internal/model"
	"github.com/crossingguard/autopilot/pkg/core"
	"gorm.io/datatypes"
)

// pointsToJSON encodes scene points as [[x,y,z], ...] for DB storage.
func pointsToJSON(points []core.Point3) datatypes.JSON {
	if len(points) == 0 {
		return datatypes.JSON("[]")
	}
	flat := make([][3]float64, len(points))
	for i, p := range points {
		flat[i] = [3]float64{p.X, p.Y, p.Z}
	}
	data, _ := json.Marshal(flat)
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		ID:        s.ID,
		Scenario:  s.Scenario,
		StartTime: s.StartTime,
		Target:    geo.PointGeom(s.Target),
		Version:   s.Version,
	}
}

// CoreToTickRecord converts a core.TickRecord to a GORM model.TickRecord.
func CoreToTickRecord(r core.TickRecord) model.TickRecord {
	return model.TickRecord{
		SessionID:       r.SessionID,
		Tick:            r.Tick,
		Time:            r.Time,
		Position:        geo.PointGeom(r.Position),
		Speed:           geo.Distance(core.Point3{}, r.Velocity),
		Mode:            r.Mode.String(),
		SpeedTarget:     r.SpeedTarget,
		Tracked:         r.Tracked,
		Visible:         r.Visible,
		NearestDistance: r.NearestDistance,
		Arrived:         r.Arrived,
		SteerYaw:        r.Steering.SteerYaw,
		WheelSpinDelta:  r.Steering.WheelSpinDelta,
	}
}

// CoreToModeTransition converts a core.ModeTransition to a GORM model.ModeTransition.
func CoreToModeTransition(t core.ModeTransition) model.ModeTransition {
	return model.ModeTransition{
		SessionID: t.SessionID,
		Tick:      t.Tick,
		Time:      t.Time,
		FromMode:  t.From.String(),
		ToMode:    t.To.String(),
		Reason:    t.Reason,
	}
}

// CoreToManeuver converts a core.Maneuver to a GORM model.Maneuver.
// Aborted maneuvers carry an empty path.
func CoreToManeuver(m core.Maneuver) model.Maneuver {
	out := model.Maneuver{
		SessionID:     m.SessionID,
		Tick:          m.Tick,
		Time:          m.Time,
		ObstacleID:    string(m.ObstacleID),
		Origin:        geo.PointGeom(m.Origin),
		ControlPoints: pointsToJSON(m.ControlPoints[:]),
		Waypoints:     pointsToJSON(m.Waypoints),
		Aborted:       m.Aborted,
	}
	if len(m.Waypoints) > 0 {
		path := append([]core.Point3{m.Origin}, m.Waypoints...)
		if ls, err := geo.PathLineString(path); err == nil {
			out.Path = ls
		}
		out.PathLength = geo.PathLength(path)
	}
	return out
}
