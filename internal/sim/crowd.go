package sim

import (
	"math"
	"slices"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pedestrian is a scripted obstacle moving at constant velocity.
type Pedestrian struct {
	ID       core.ObstacleID
	Position core.Point3
	Velocity core.Point3
	Facing   core.Point3 // used while standing; walking pedestrians face their velocity
	Age      int
	Radius   float64
}

func (p *Pedestrian) forward() core.Point3 {
	if r3.Norm(p.Velocity) > 0 {
		return r3.Unit(p.Velocity)
	}
	return p.Facing
}

type cell struct{ x, z int }

// Crowd holds pedestrians and answers radius queries through a uniform grid.
type Crowd struct {
	cellSize float64
	layer    core.LayerMask
	peds     []*Pedestrian
	grid     map[cell][]int
}

// NewCrowd creates an empty crowd on layer. cellSize is the grid pitch.
func NewCrowd(cellSize float64, layer core.LayerMask) *Crowd {
	if cellSize <= 0 {
		cellSize = 4
	}
	return &Crowd{cellSize: cellSize, layer: layer, grid: make(map[cell][]int)}
}

// Add inserts p and returns its id, generating one when p.ID is empty.
func (c *Crowd) Add(p Pedestrian) core.ObstacleID {
	if p.ID == "" {
		p.ID = core.ObstacleID(uuid.NewString())
	}
	c.peds = append(c.peds, &p)
	c.rebuild()
	return p.ID
}

// Remove deletes the pedestrian with id, reporting whether it existed.
func (c *Crowd) Remove(id core.ObstacleID) bool {
	i := slices.IndexFunc(c.peds, func(p *Pedestrian) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	c.peds = slices.Delete(c.peds, i, i+1)
	c.rebuild()
	return true
}

// Get returns a copy of the pedestrian with id.
func (c *Crowd) Get(id core.ObstacleID) (Pedestrian, bool) {
	for _, p := range c.peds {
		if p.ID == id {
			return *p, true
		}
	}
	return Pedestrian{}, false
}

// Len returns the number of pedestrians.
func (c *Crowd) Len() int { return len(c.peds) }

// Advance moves every pedestrian along its velocity.
func (c *Crowd) Advance(dt time.Duration) {
	secs := dt.Seconds()
	for _, p := range c.peds {
		p.Position = r3.Add(p.Position, r3.Scale(secs, p.Velocity))
	}
	c.rebuild()
}

func (c *Crowd) cellOf(x, z float64) cell {
	return cell{int(math.Floor(x / c.cellSize)), int(math.Floor(z / c.cellSize))}
}

func (c *Crowd) rebuild() {
	clear(c.grid)
	for i, p := range c.peds {
		k := c.cellOf(p.Position.X, p.Position.Z)
		c.grid[k] = append(c.grid[k], i)
	}
}

// QueryNearby returns the pedestrians within radius of center, in insertion
// order. Nothing is returned when layers excludes the crowd layer.
func (c *Crowd) QueryNearby(center core.Point3, radius float64, layers core.LayerMask) []core.Obstacle {
	if layers&c.layer == 0 {
		return nil
	}

	lo := c.cellOf(center.X-radius, center.Z-radius)
	hi := c.cellOf(center.X+radius, center.Z+radius)
	r2 := radius * radius

	var hits []int
	for gz := lo.z; gz <= hi.z; gz++ {
		for gx := lo.x; gx <= hi.x; gx++ {
			for _, idx := range c.grid[cell{gx, gz}] {
				d := r3.Sub(c.peds[idx].Position, center)
				if r3.Dot(d, d) <= r2 {
					hits = append(hits, idx)
				}
			}
		}
	}
	slices.Sort(hits)

	out := make([]core.Obstacle, len(hits))
	for i, idx := range hits {
		p := c.peds[idx]
		out[i] = core.Obstacle{
			ID:       p.ID,
			Position: p.Position,
			Forward:  p.forward(),
			Radius:   p.Radius,
			Age:      p.Age,
			Layer:    c.layer,
		}
	}
	return out
}
