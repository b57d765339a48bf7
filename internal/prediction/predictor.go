// Package prediction estimates how predictable a pedestrian's motion is and
// where it will be shortly.
package prediction

import (
	"math"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// AgePenalty derates confidence for children and elderly pedestrians.
	AgePenalty = 0.7
	// ChildMaxAge and ElderMinAge bound the penalised age ranges (inclusive).
	ChildMaxAge = 12
	ElderMinAge = 65

	expectedEpsilon = 1e-9
)

// Predictor is stateless; it only holds the tunables it needs.
type Predictor struct {
	WalkingSpeed        float64       // nominal pedestrian speed, units/s
	SampleInterval      time.Duration // time between history samples
	Horizon             time.Duration // how far ahead PredictPosition extrapolates
	LowConfidenceCutoff float64       // at or below this no extrapolation happens
}

// New returns a predictor with the given walking speed, sampling interval and horizon.
func New(walkingSpeed float64, sampleInterval, horizon time.Duration) Predictor {
	return Predictor{
		WalkingSpeed:        walkingSpeed,
		SampleInterval:      sampleInterval,
		Horizon:             horizon,
		LowConfidenceCutoff: 0.05,
	}
}

// Confidence scores a position history in [0, 1]. Movement close to the
// nominal walking speed scores 1; standing still and moving erratically fast
// score lower. Fewer than two samples score 1.
func (p Predictor) Confidence(history []core.Point3, age int) float64 {
	if len(history) < 2 {
		return 1
	}

	total := geo.PathLength(history)
	expected := p.WalkingSpeed * p.SampleInterval.Seconds() * float64(len(history)-1)

	var stability float64
	switch {
	case expected <= expectedEpsilon:
		if total == 0 {
			stability = 1
		}
	default:
		ratio := total / expected
		stability = geo.Clamp(1-math.Abs(1-ratio), 0, 1)
	}

	return stability * AgeFactor(age)
}

// AgeFactor returns AgePenalty for ages at or below ChildMaxAge or at or
// above ElderMinAge, and 1 otherwise.
func AgeFactor(age int) float64 {
	if age <= ChildMaxAge || age >= ElderMinAge {
		return AgePenalty
	}
	return 1
}

// PredictPosition extrapolates position along forward, scaled by confidence.
func (p Predictor) PredictPosition(position, forward core.Point3, confidence float64) core.Point3 {
	if confidence <= p.LowConfidenceCutoff {
		return position
	}
	step := p.WalkingSpeed * confidence * p.Horizon.Seconds()
	return r3.Add(position, r3.Scale(step, forward))
}

// FromConfig builds a predictor from the agent tunables.
func FromConfig(cfg config.AgentConfig) Predictor {
	p := New(cfg.PedestrianSpeed, cfg.CheckInterval, cfg.PredictionTime)
	p.LowConfidenceCutoff = cfg.LowConfidenceCutoff
	return p
}
