package sim

import (
	"math"

	"github.com/crossingguard/autopilot/pkg/core"
)

// Rect is an axis-aligned rectangle on the XZ plane.
type Rect struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

// Contains reports whether p lies inside r, bounds included.
func (r Rect) Contains(p core.Point3) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Z >= r.MinZ && p.Z <= r.MaxZ
}

// Ground is a flat drivable surface with optional holes.
type Ground struct {
	Height float64
	Bounds Rect
	Holes  []Rect
}

// Snap drops p vertically onto the surface. It fails outside the bounds,
// inside a hole, or when the surface is further than maxDistance away.
func (g *Ground) Snap(p core.Point3, maxDistance float64) (core.Point3, bool) {
	if !g.Bounds.Contains(p) {
		return core.Point3{}, false
	}
	for _, h := range g.Holes {
		if h.Contains(p) {
			return core.Point3{}, false
		}
	}
	if math.Abs(p.Y-g.Height) > maxDistance {
		return core.Point3{}, false
	}
	return core.Point3{X: p.X, Y: g.Height, Z: p.Z}, true
}
