package controller

import (
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

// SteeringConfig holds the wheel visual tunables.
type SteeringConfig struct {
	WheelSpinRate float64 // degrees per unit travelled
	MaxSteerAngle float64 // degrees
	MinSpeed      float64 // below this the steer yaw is not updated
}

// SteeringConfigFrom extracts the steering tunables from an agent config.
func SteeringConfigFrom(cfg config.AgentConfig) SteeringConfig {
	return SteeringConfig{
		WheelSpinRate: cfg.WheelSpinRate,
		MaxSteerAngle: cfg.MaxSteerAngle,
		MinSpeed:      cfg.SteerMinSpeed,
	}
}

// Steer derives wheel spin and steer yaw from the current velocity.
func Steer(velocity core.Point3, pose core.Pose, dt time.Duration, cfg SteeringConfig) core.Steering {
	speed := r3.Norm(velocity)
	out := core.Steering{WheelSpinDelta: speed * cfg.WheelSpinRate * dt.Seconds()}
	if speed > cfg.MinSpeed {
		lateral := r3.Dot(velocity, pose.Right())
		out.SteerYaw = geo.Clamp(lateral, -1, 1) * cfg.MaxSteerAngle
		out.Applied = true
	}
	return out
}
