package sim

import (
	"testing"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 200 * time.Millisecond

func TestNavigator_PathPendingAfterSetDestination(t *testing.T) {
	n := NewNavigator(core.Pose{Forward: core.Point3{Z: 1}}, 0)
	n.Advance(dt)

	n.SetDestination(core.Point3{Z: 10})
	assert.True(t, n.State().PathPending)

	n.Advance(dt)
	assert.True(t, n.State().PathPending, "pending for the read after the setting tick")

	n.Advance(dt)
	assert.False(t, n.State().PathPending)
}

func TestNavigator_DrivesToDestination(t *testing.T) {
	n := NewNavigator(core.Pose{Forward: core.Point3{Z: 1}}, 0)
	n.SetDestination(core.Point3{X: 3, Z: 4})
	n.SetSpeed(5)

	n.Advance(dt)
	st := n.State()
	assert.InDelta(t, 4, st.RemainingDistance, 1e-9)
	assert.InDelta(t, 0.6, st.Pose.Position.X, 1e-9)
	assert.InDelta(t, 0.8, st.Pose.Position.Z, 1e-9)
	assert.InDelta(t, 5, st.Speed(), 1e-9)

	for i := 0; i < 10; i++ {
		n.Advance(dt)
	}
	st = n.State()
	assert.Equal(t, core.Point3{X: 3, Z: 4}, st.Pose.Position, "never overshoots")
	assert.Zero(t, st.RemainingDistance)
	assert.Zero(t, st.Speed())
	assert.True(t, st.Arrived(0.5))
}

func TestNavigator_Acceleration(t *testing.T) {
	n := NewNavigator(core.Pose{Forward: core.Point3{Z: 1}}, 5)
	n.SetDestination(core.Point3{Z: 100})
	n.SetSpeed(5)

	n.Advance(dt)
	assert.InDelta(t, 1, n.Speed(), 1e-9)
	for i := 0; i < 10; i++ {
		n.Advance(dt)
	}
	assert.InDelta(t, 5, n.Speed(), 1e-9)

	n.SetSpeed(1.5)
	n.Advance(dt)
	assert.InDelta(t, 4, n.Speed(), 1e-9)

	n.SetSpeed(-3)
	for i := 0; i < 10; i++ {
		n.Advance(dt)
	}
	assert.Zero(t, n.Speed())
}

func TestNavigator_NoDestinationStaysPut(t *testing.T) {
	n := NewNavigator(core.Pose{Position: core.Point3{X: 1}}, 0)
	n.SetSpeed(5)
	n.Advance(dt)

	st := n.State()
	assert.Equal(t, core.Point3{X: 1}, st.Pose.Position)
	assert.Equal(t, core.Point3{Z: 1}, st.Pose.Forward, "degenerate heading defaults to +Z")
	_, ok := n.Destination()
	require.False(t, ok)
}
