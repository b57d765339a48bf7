// Package avoidance synthesises the bypass path driven around a stationary
// pedestrian.
package avoidance

import (
	"log/slog"

	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// SampleCount is the number of curve parameters sampled, t = 0, 1/3, 2/3, 1.
const SampleCount = 4

// DefaultSnapDistance is the maximum distance a sample may move when snapped.
const DefaultSnapDistance = 1.0

// SurfaceSampler projects an arbitrary point onto a drivable surface.
type SurfaceSampler interface {
	Snap(p core.Point3, maxDistance float64) (core.Point3, bool)
}

// Planner builds bypass paths.
type Planner struct {
	surface      SurfaceSampler
	snapDistance float64
	logger       *slog.Logger
}

// NewPlanner creates a planner snapping through surface. A non-positive
// snapDistance selects DefaultSnapDistance.
func NewPlanner(surface SurfaceSampler, snapDistance float64, logger *slog.Logger) *Planner {
	if snapDistance <= 0 {
		snapDistance = DefaultSnapDistance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		surface:      surface,
		snapDistance: snapDistance,
		logger:       logger.With("component", "planner"),
	}
}

// ControlPoints returns the cubic Bézier control polygon for a bypass to the
// left of the heading.
func ControlPoints(pose core.Pose, lateralOffset, curveForwardOffset float64) [4]core.Point3 {
	fwd := pose.Forward
	left := r3.Scale(-1, pose.Right())

	p0 := pose.Position
	p1 := r3.Add(p0, fwd)
	p2 := r3.Add(p1, r3.Add(r3.Scale(lateralOffset, left), r3.Scale(curveForwardOffset/2, fwd)))
	p3 := r3.Add(p2, r3.Scale(curveForwardOffset, fwd))
	return [4]core.Point3{p0, p1, p2, p3}
}

// BuildPath samples the bypass curve and snaps every sample onto the
// surface. Samples that cannot be snapped are dropped, so the result holds
// between 0 and SampleCount waypoints in curve order.
func (p *Planner) BuildPath(pose core.Pose, lateralOffset, curveForwardOffset float64) []core.Point3 {
	return p.Snap(ControlPoints(pose, lateralOffset, curveForwardOffset))
}

// Snap samples the curve defined by cp and projects the samples.
func (p *Planner) Snap(cp [4]core.Point3) []core.Point3 {
	waypoints := make([]core.Point3, 0, SampleCount)
	for i := 0; i < SampleCount; i++ {
		t := float64(i) / float64(SampleCount-1)
		sample := geo.CubicBezier(cp[0], cp[1], cp[2], cp[3], t)

		snapped, ok := p.surface.Snap(sample, p.snapDistance)
		if !ok {
			p.logger.Debug("dropping unsnappable waypoint", "t", t, "sample", sample)
			continue
		}
		waypoints = append(waypoints, snapped)
	}
	return waypoints
}

// LineString exports a waypoint path for storage. Paths with fewer than two
// points are prefixed with origin so a single waypoint still forms a segment.
func LineString(origin core.Point3, waypoints []core.Point3) (geom.LineString, error) {
	pts := waypoints
	if len(pts) < 2 {
		pts = append([]core.Point3{origin}, waypoints...)
	}
	return geo.PathLineString(pts)
}
