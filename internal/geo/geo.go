// Package geo holds the scene-space geometry used by perception and
// maneuver planning, plus export helpers that turn scene paths into
// simplefeatures geometries and geographic coordinates.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/crossingguard/autopilot/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromString parses "x,y,z" (or "x,z" on the ground plane) into a scene point.
func PointFromString(coords string) (core.Point3, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Point3{}, ErrInvalidCoordinates
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Point3{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	if len(vals) == 2 {
		return core.Point3{X: vals[0], Z: vals[1]}, nil
	}
	return core.Point3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b core.Point3) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// AngleDeg returns the opening angle between a and b in degrees, in [0, 180].
// A zero-length vector yields 0.
func AngleDeg(a, b core.Point3) float64 {
	if r3.Norm(a) == 0 || r3.Norm(b) == 0 {
		return 0
	}
	cos := Clamp(r3.Cos(a, b), -1, 1)
	return math.Acos(cos) * 180 / math.Pi
}

// InViewCone reports whether target lies within radius of origin and within
// halfAngleDeg of forward. A target at the origin is always inside.
func InViewCone(origin, forward, target core.Point3, radius, halfAngleDeg float64) bool {
	dir := r3.Sub(target, origin)
	if r3.Norm(dir) > radius {
		return false
	}
	return AngleDeg(forward, dir) <= halfAngleDeg
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CubicBezier evaluates B(t) = (1-t)^3 p0 + 3(1-t)^2 t p1 + 3(1-t) t^2 p2 + t^3 p3.
func CubicBezier(p0, p1, p2, p3 core.Point3, t float64) core.Point3 {
	u := 1 - t
	b := r3.Scale(u*u*u, p0)
	b = r3.Add(b, r3.Scale(3*u*u*t, p1))
	b = r3.Add(b, r3.Scale(3*u*t*t, p2))
	return r3.Add(b, r3.Scale(t*t*t, p3))
}

// PathLength sums the segment lengths of an ordered point sequence.
func PathLength(points []core.Point3) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
