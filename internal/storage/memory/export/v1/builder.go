package v1

import (
	"time"

	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
)

// SessionData contains all the data needed to build an export
type SessionData struct {
	Session     *core.Session
	EndTime     time.Time
	Ticks       []core.TickRecord
	Transitions []core.ModeTransition
	Maneuvers   []core.Maneuver
	Geo         *geo.Georeference // nil disables lon/lat output
}

func vec(p core.Point3) [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}

func vecs(points []core.Point3) [][3]float64 {
	out := make([][3]float64, len(points))
	for i, p := range points {
		out[i] = vec(p)
	}
	return out
}

// Build converts session data to the v1 export format
func Build(data *SessionData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		Frames:        make([][]any, 0, len(data.Ticks)),
		Transitions:   make([]Transition, 0, len(data.Transitions)),
		Maneuvers:     make([]Maneuver, 0, len(data.Maneuvers)),
		Ticks:         len(data.Ticks),
		Georeferenced: data.Geo != nil,
	}

	if s := data.Session; s != nil {
		export.SessionID = s.ID
		export.Scenario = s.Scenario
		export.AgentVersion = s.Version
		export.StartTime = s.StartTime.UTC().Format(time.RFC3339)
		export.Target = vec(s.Target)
	}
	if !data.EndTime.IsZero() {
		export.EndTime = data.EndTime.UTC().Format(time.RFC3339)
	}

	path := make([]core.Point3, 0, len(data.Ticks))
	for _, r := range data.Ticks {
		export.Frames = append(export.Frames, []any{
			r.Tick,
			vec(r.Position),
			r.Mode.String(),
			r.SpeedTarget,
			r.Tracked,
			r.Visible,
			r.NearestDistance,
			r.Steering.SteerYaw,
		})
		path = append(path, r.Position)
		if r.Arrived {
			export.Arrived = true
		}
	}

	for _, t := range data.Transitions {
		export.Transitions = append(export.Transitions, Transition{
			Tick:   t.Tick,
			From:   t.From.String(),
			To:     t.To.String(),
			Reason: t.Reason,
		})
	}

	for _, m := range data.Maneuvers {
		out := Maneuver{
			Tick:          m.Tick,
			ObstacleID:    string(m.ObstacleID),
			Origin:        vec(m.Origin),
			ControlPoints: vecs(m.ControlPoints[:]),
			Waypoints:     vecs(m.Waypoints),
			Aborted:       m.Aborted,
		}
		if len(m.Waypoints) > 0 {
			out.PathLength = geo.PathLength(append([]core.Point3{m.Origin}, m.Waypoints...))
			if data.Geo != nil {
				out.LonLat = data.Geo.PathLonLat(m.Waypoints)
			}
		}
		export.Maneuvers = append(export.Maneuvers, out)
	}

	if data.Geo != nil {
		export.Track = data.Geo.PathLonLat(path)
	}

	return export
}
