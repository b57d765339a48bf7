package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() *SessionData {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &SessionData{
		Session: &core.Session{ID: "s1", Scenario: "standing", StartTime: start, Target: core.Point3{Z: 40}, Version: "1.2.0"},
		EndTime: start.Add(12 * time.Second),
		Ticks: []core.TickRecord{
			{Tick: 1, Position: core.Point3{}, Mode: core.ModeCruising, SpeedTarget: 5, NearestDistance: -1},
			{Tick: 2, Position: core.Point3{Z: 1}, Mode: core.ModeAvoiding, SpeedTarget: 1.5, Tracked: 1, Visible: 1, NearestDistance: 2.5},
			{Tick: 3, Position: core.Point3{Z: 2}, Mode: core.ModeCruising, Arrived: true},
		},
		Transitions: []core.ModeTransition{
			{Tick: 2, From: core.ModeCruising, To: core.ModeAvoiding, Reason: "stationary pedestrian p1"},
		},
		Maneuvers: []core.Maneuver{
			{Tick: 2, ObstacleID: "p1", Origin: core.Point3{Z: 1}, Waypoints: []core.Point3{{Z: 1}, {X: -2, Z: 1}}},
			{Tick: 3, ObstacleID: "p2", Origin: core.Point3{Z: 2}, Aborted: true},
		},
	}
}

func TestBuild(t *testing.T) {
	export := Build(sampleData())

	assert.Equal(t, FormatVersion, export.FormatVersion)
	assert.Equal(t, "s1", export.SessionID)
	assert.Equal(t, "standing", export.Scenario)
	assert.Equal(t, "2026-03-01T12:00:00Z", export.StartTime)
	assert.Equal(t, "2026-03-01T12:00:12Z", export.EndTime)
	assert.Equal(t, [3]float64{0, 0, 40}, export.Target)
	assert.Equal(t, 3, export.Ticks)
	assert.True(t, export.Arrived)
	assert.False(t, export.Georeferenced)
	assert.Nil(t, export.Track)

	require.Len(t, export.Frames, 3)
	assert.Equal(t, "AVOIDING", export.Frames[1][2])
	assert.Equal(t, -1.0, export.Frames[0][6])

	require.Len(t, export.Transitions, 1)
	assert.Equal(t, "CRUISING", export.Transitions[0].From)
	assert.Equal(t, "AVOIDING", export.Transitions[0].To)

	require.Len(t, export.Maneuvers, 2)
	assert.InDelta(t, 2.0, export.Maneuvers[0].PathLength, 1e-9)
	assert.Len(t, export.Maneuvers[0].ControlPoints, 4)
	assert.True(t, export.Maneuvers[1].Aborted)
	assert.Empty(t, export.Maneuvers[1].Waypoints)
	assert.Zero(t, export.Maneuvers[1].PathLength)
}

func TestBuild_Georeferenced(t *testing.T) {
	data := sampleData()
	data.Geo = geo.NewGeoreference(13.4, 52.5)

	export := Build(data)
	assert.True(t, export.Georeferenced)
	require.Len(t, export.Track, 3)
	assert.InDelta(t, 13.4, export.Track[0][0], 1e-6)
	assert.InDelta(t, 52.5, export.Track[0][1], 1e-6)
	assert.Greater(t, export.Track[2][1], export.Track[0][1], "scene +Z is north")
	assert.Len(t, export.Maneuvers[0].LonLat, 2)
	assert.Nil(t, export.Maneuvers[1].LonLat)
}

func TestBuild_EmptySessionMarshals(t *testing.T) {
	export := Build(&SessionData{})

	b, err := json.Marshal(export)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"frames":[]`)
	assert.Contains(t, string(b), `"maneuvers":[]`)
	assert.NotContains(t, string(b), `"track"`)
}
