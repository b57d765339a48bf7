package sim

import (
	"testing"

	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"blocked", "crossing", "standing", "walkaway"}, Names())
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("stampede")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	s, err := Lookup("standing")
	require.NoError(t, err)
	s.Pedestrians[0].Position = core.Point3{X: 99}

	again, err := Lookup("standing")
	require.NoError(t, err)
	assert.Equal(t, core.Point3{Z: 12}, again.Pedestrians[0].Position)
}

func TestNewWorld(t *testing.T) {
	s, err := Lookup("crossing")
	require.NoError(t, err)

	w := s.NewWorld(core.LayerPedestrian)
	assert.Equal(t, 1, w.Crowd.Len())
	assert.Equal(t, s.Start.Position, w.Nav.State().Pose.Position)

	w.Nav.SetDestination(s.Target)
	w.Nav.SetSpeed(5)
	w.Advance(dt)

	p, ok := w.Crowd.Get("crossing-1")
	require.True(t, ok)
	assert.InDelta(t, -3.7, p.Position.X, 1e-9)
	assert.Greater(t, w.Nav.State().Pose.Position.Z, 0.0)
}
