package sim

import (
	"math/rand"
	"testing"

	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func ids(obs []core.Obstacle) []core.ObstacleID {
	out := make([]core.ObstacleID, len(obs))
	for i, o := range obs {
		out[i] = o.ID
	}
	return out
}

func TestCrowd_AddGeneratesIDs(t *testing.T) {
	c := NewCrowd(4, core.LayerPedestrian)

	id := c.Add(Pedestrian{Position: core.Point3{Z: 3}})
	_, err := uuid.Parse(string(id))
	assert.NoError(t, err)

	named := c.Add(Pedestrian{ID: "bob"})
	assert.Equal(t, core.ObstacleID("bob"), named)
	assert.Equal(t, 2, c.Len())
}

func TestCrowd_QueryNearby(t *testing.T) {
	c := NewCrowd(4, core.LayerPedestrian)
	c.Add(Pedestrian{ID: "near", Position: core.Point3{Z: 3}, Age: 20})
	c.Add(Pedestrian{ID: "far", Position: core.Point3{Z: 30}})
	c.Add(Pedestrian{ID: "edge", Position: core.Point3{X: -10}})
	c.Add(Pedestrian{ID: "behind", Position: core.Point3{Z: -9}, Velocity: core.Point3{X: 2}})

	got := c.QueryNearby(core.Point3{}, 10, core.LayerPedestrian)

	assert.Equal(t, []core.ObstacleID{"near", "edge", "behind"}, ids(got))
	assert.Equal(t, 20, got[0].Age)
	assert.Equal(t, core.LayerPedestrian, got[0].Layer)
	assert.Equal(t, core.Point3{X: 1}, got[2].Forward, "walking pedestrians face their velocity")
}

func TestCrowd_QueryRespectsLayers(t *testing.T) {
	c := NewCrowd(4, core.LayerPedestrian)
	c.Add(Pedestrian{ID: "p", Position: core.Point3{Z: 1}})

	assert.Empty(t, c.QueryNearby(core.Point3{}, 10, 1<<2))
	assert.Len(t, c.QueryNearby(core.Point3{}, 10, core.LayerPedestrian|1<<2), 1)
}

func TestCrowd_GridMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := NewCrowd(3, core.LayerPedestrian)
	var all []core.Point3
	for i := 0; i < 200; i++ {
		p := core.Point3{X: rng.Float64()*80 - 40, Z: rng.Float64()*80 - 40}
		all = append(all, p)
		c.Add(Pedestrian{Position: p})
	}

	for q := 0; q < 20; q++ {
		center := core.Point3{X: rng.Float64()*60 - 30, Z: rng.Float64()*60 - 30}
		radius := 2 + rng.Float64()*12

		want := 0
		for _, p := range all {
			if r3.Norm(r3.Sub(p, center)) <= radius {
				want++
			}
		}
		assert.Len(t, c.QueryNearby(center, radius, core.LayerPedestrian), want)
	}
}

func TestCrowd_AdvanceAndRemove(t *testing.T) {
	c := NewCrowd(4, core.LayerPedestrian)
	c.Add(Pedestrian{ID: "w", Position: core.Point3{Z: 2}, Velocity: core.Point3{Z: 1.5}})
	c.Add(Pedestrian{ID: "s", Position: core.Point3{Z: 5}})

	for i := 0; i < 10; i++ {
		c.Advance(dt)
	}
	w, ok := c.Get("w")
	require.True(t, ok)
	assert.InDelta(t, 5, w.Position.Z, 1e-9)

	assert.Len(t, c.QueryNearby(core.Point3{Z: 20}, 3, core.LayerPedestrian), 0)
	assert.True(t, c.Remove("s"))
	assert.False(t, c.Remove("s"))
	assert.Equal(t, []core.ObstacleID{"w"}, ids(c.QueryNearby(core.Point3{Z: 5}, 1, core.LayerPedestrian)))
}
