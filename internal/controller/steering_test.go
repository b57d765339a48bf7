package controller

import (
	"testing"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestSteer(t *testing.T) {
	cfg := SteeringConfigFrom(config.DefaultAgentConfig())
	pose := core.Pose{Forward: core.Point3{Z: 1}}
	dt := 200 * time.Millisecond

	tests := []struct {
		name     string
		velocity core.Point3
		yaw      float64
		applied  bool
	}{
		{"straight", core.Point3{Z: 5}, 0, true},
		{"drifting right", core.Point3{X: 0.5, Z: 2}, 15, true},
		{"hard left clamps", core.Point3{X: -3, Z: 1}, -30, true},
		{"too slow", core.Point3{X: 0.05, Z: 0.05}, 0, false},
		{"stopped", core.Point3{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Steer(tt.velocity, pose, dt, cfg)

			assert.InDelta(t, 360*0.2*normOf(tt.velocity), got.WheelSpinDelta, 1e-9)
			assert.InDelta(t, tt.yaw, got.SteerYaw, 1e-9)
			assert.Equal(t, tt.applied, got.Applied)
		})
	}
}

func TestSteer_SpinScalesWithDistanceTravelled(t *testing.T) {
	cfg := SteeringConfigFrom(config.DefaultAgentConfig())
	got := Steer(core.Point3{Z: 5}, core.Pose{Forward: core.Point3{Z: 1}}, 200*time.Millisecond, cfg)
	assert.InDelta(t, 360, got.WheelSpinDelta, 1e-9)
}

func TestSteer_UsesHeading(t *testing.T) {
	cfg := SteeringConfigFrom(config.DefaultAgentConfig())
	// heading +X, right is -Z; moving towards -Z is a right turn
	pose := core.Pose{Forward: core.Point3{X: 1}}

	got := Steer(core.Point3{X: 2, Z: -0.5}, pose, time.Second, cfg)

	assert.InDelta(t, 15, got.SteerYaw, 1e-9)
}

func normOf(v core.Point3) float64 {
	return core.NavState{Velocity: v}.Speed()
}
