package sim

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
)

// ErrUnknownScenario is returned by Lookup for unregistered names.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is a scripted starting situation.
type Scenario struct {
	Name        string
	Description string
	Start       core.Pose
	Target      core.Point3
	MaxAccel    float64
	Ground      Ground
	Pedestrians []Pedestrian
}

var scenarios = map[string]Scenario{
	"standing": {
		Name:        "standing",
		Description: "a pedestrian stands still in the lane ahead",
		Start:       core.Pose{Forward: core.Point3{Z: 1}},
		Target:      core.Point3{Z: 40},
		MaxAccel:    6,
		Ground:      Ground{Bounds: Rect{MinX: -6, MinZ: -5, MaxX: 6, MaxZ: 60}},
		Pedestrians: []Pedestrian{
			{ID: "standing-1", Position: core.Point3{Z: 12}, Facing: core.Point3{Z: -1}, Age: 34, Radius: 0.3},
		},
	},
	"crossing": {
		Name:        "crossing",
		Description: "a pedestrian crosses the lane ahead at walking speed",
		Start:       core.Pose{Forward: core.Point3{Z: 1}},
		Target:      core.Point3{Z: 40},
		MaxAccel:    6,
		Ground:      Ground{Bounds: Rect{MinX: -6, MinZ: -5, MaxX: 6, MaxZ: 60}},
		Pedestrians: []Pedestrian{
			{ID: "crossing-1", Position: core.Point3{X: -4, Z: 12}, Velocity: core.Point3{X: 1.5}, Age: 27, Radius: 0.3},
		},
	},
	"walkaway": {
		Name:        "walkaway",
		Description: "a pedestrian near the lane walks away from it",
		Start:       core.Pose{Forward: core.Point3{Z: 1}},
		Target:      core.Point3{Z: 30},
		MaxAccel:    6,
		Ground:      Ground{Bounds: Rect{MinX: -6, MinZ: -5, MaxX: 6, MaxZ: 60}},
		Pedestrians: []Pedestrian{
			{ID: "walkaway-1", Position: core.Point3{X: 1, Z: 6}, Velocity: core.Point3{X: 1.5}, Age: 41, Radius: 0.3},
		},
	},
	"blocked": {
		Name:        "blocked",
		Description: "a pedestrian stands in a work zone where no bypass can be snapped",
		Start:       core.Pose{Forward: core.Point3{Z: 1}},
		Target:      core.Point3{Z: 40},
		MaxAccel:    6,
		Ground: Ground{
			Bounds: Rect{MinX: -6, MinZ: -5, MaxX: 6, MaxZ: 60},
			Holes:  []Rect{{MinX: -6, MinZ: 6, MaxX: 6, MaxZ: 20}},
		},
		Pedestrians: []Pedestrian{
			{ID: "blocked-1", Position: core.Point3{Z: 14}, Facing: core.Point3{Z: -1}, Age: 70, Radius: 0.3},
		},
	},
}

// Names lists the registered scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns a copy of the named scenario.
func Lookup(name string) (Scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownScenario, name, Names())
	}
	s.Pedestrians = slices.Clone(s.Pedestrians)
	s.Ground.Holes = slices.Clone(s.Ground.Holes)
	return s, nil
}

// World is a running instance of a scenario.
type World struct {
	Scenario Scenario
	Nav      *Navigator
	Crowd    *Crowd
	Ground   *Ground
}

// NewWorld instantiates the scenario with pedestrians on layer.
func (s Scenario) NewWorld(layer core.LayerMask) *World {
	crowd := NewCrowd(4, layer)
	for _, p := range s.Pedestrians {
		crowd.Add(p)
	}
	ground := s.Ground
	return &World{
		Scenario: s,
		Nav:      NewNavigator(s.Start, s.MaxAccel),
		Crowd:    crowd,
		Ground:   &ground,
	}
}

// Advance moves pedestrians and the vehicle forward by dt.
func (w *World) Advance(dt time.Duration) {
	w.Crowd.Advance(dt)
	w.Nav.Advance(dt)
}
