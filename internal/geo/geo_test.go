package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointFromString_ThreeComponents(t *testing.T) {
	p, err := PointFromString("1.5, 0.25,-3")
	require.NoError(t, err)
	assert.Equal(t, core.Point3{X: 1.5, Y: 0.25, Z: -3}, p)
}

func TestPointFromString_GroundPlane(t *testing.T) {
	p, err := PointFromString("4,20")
	require.NoError(t, err)
	assert.Equal(t, core.Point3{X: 4, Z: 20}, p)
}

func TestPointFromString_Invalid(t *testing.T) {
	for _, in := range []string{"", "1", "a,b", "1,2,3,4", "1,,2"} {
		_, err := PointFromString(in)
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("PointFromString(%q): expected ErrInvalidCoordinates, got %v", in, err)
		}
	}
}

func TestAngleDeg(t *testing.T) {
	fwd := core.Point3{Z: 1}
	assert.InDelta(t, 0, AngleDeg(fwd, core.Point3{Z: 5}), 1e-9)
	assert.InDelta(t, 90, AngleDeg(fwd, core.Point3{X: 1}), 1e-9)
	assert.InDelta(t, 180, AngleDeg(fwd, core.Point3{Z: -2}), 1e-9)
	assert.InDelta(t, 45, AngleDeg(fwd, core.Point3{X: 1, Z: 1}), 1e-9)
	assert.Equal(t, 0.0, AngleDeg(fwd, core.Point3{}))
}

func TestInViewCone(t *testing.T) {
	origin := core.Point3{}
	fwd := core.Point3{Z: 1}

	tests := []struct {
		name   string
		target core.Point3
		want   bool
	}{
		{"straight ahead", core.Point3{Z: 5}, true},
		{"at origin", core.Point3{}, true},
		{"on radius", core.Point3{Z: 10}, true},
		{"beyond radius", core.Point3{Z: 10.01}, false},
		{"inside half angle", core.Point3{X: 1, Z: 3}, true},
		{"outside half angle", core.Point3{X: 3, Z: 3}, false},
		{"behind", core.Point3{Z: -2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InViewCone(origin, fwd, tt.target, 10, 30))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, -1, 1))
}

func TestCubicBezier_Endpoints(t *testing.T) {
	p0 := core.Point3{X: 0}
	p1 := core.Point3{X: 1, Z: 1}
	p2 := core.Point3{X: 2, Z: -1}
	p3 := core.Point3{X: 3}

	assert.Equal(t, p0, CubicBezier(p0, p1, p2, p3, 0))
	assert.Equal(t, p3, CubicBezier(p0, p1, p2, p3, 1))
}

func TestCubicBezier_Collinear(t *testing.T) {
	// Evenly spaced collinear control points give a linear parametrisation.
	p0 := core.Point3{Z: 0}
	p1 := core.Point3{Z: 1}
	p2 := core.Point3{Z: 2}
	p3 := core.Point3{Z: 3}

	mid := CubicBezier(p0, p1, p2, p3, 0.5)
	assert.InDelta(t, 1.5, mid.Z, 1e-12)
}

func TestPathLength(t *testing.T) {
	assert.Equal(t, 0.0, PathLength(nil))
	assert.Equal(t, 0.0, PathLength([]core.Point3{{X: 1}}))
	got := PathLength([]core.Point3{{}, {X: 3}, {X: 3, Z: 4}})
	assert.InDelta(t, 7, got, 1e-12)
	assert.InDelta(t, 5, Distance(core.Point3{}, core.Point3{X: 3, Z: 4}), 1e-12)
	assert.False(t, math.IsNaN(PathLength([]core.Point3{{}, {}})))
}
