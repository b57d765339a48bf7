package agent

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/dispatcher"
	"github.com/crossingguard/autopilot/internal/sim"
	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []core.Event
}

func (p *capturePublisher) Dispatch(e core.Event) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil, nil
}

func (p *capturePublisher) byCommand(cmd string) []core.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []core.Event
	for _, e := range p.events {
		if e.Command == cmd {
			out = append(out, e)
		}
	}
	return out
}

type run struct {
	results []core.TickResult
	pub     *capturePublisher
	agent   *Agent
	world   *sim.World
}

func runScenario(t *testing.T, name string, maxTicks int) run {
	t.Helper()

	cfg := config.DefaultAgentConfig()
	sc, err := sim.Lookup(name)
	require.NoError(t, err)
	world := sc.NewWorld(cfg.PedestrianLayer)

	pub := &capturePublisher{}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := New(cfg, world.Nav, world.Crowd, world.Ground,
		WithPublisher(pub),
		WithSession("session-1"),
		WithClock(func() time.Time { return clock }),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	require.NoError(t, err)
	a.SetTarget(sc.Target)

	var results []core.TickResult
	for i := 0; i < maxTicks; i++ {
		res := a.Tick(cfg.CheckInterval)
		results = append(results, res)
		if res.Arrived {
			break
		}
		world.Advance(cfg.CheckInterval)
		clock = clock.Add(cfg.CheckInterval)
	}
	return run{results: results, pub: pub, agent: a, world: world}
}

func (r run) modes() map[core.Mode]int {
	out := map[core.Mode]int{}
	for _, res := range r.results {
		out[res.Mode]++
	}
	return out
}

func (r run) maneuvers() []*core.Maneuver {
	var out []*core.Maneuver
	for _, res := range r.results {
		if res.Maneuver != nil {
			out = append(out, res.Maneuver)
		}
	}
	return out
}

func TestAgent_StandingPedestrianIsBypassed(t *testing.T) {
	r := runScenario(t, "standing", 300)

	last := r.results[len(r.results)-1]
	require.True(t, last.Arrived, "vehicle should reach the destination")
	assert.Equal(t, core.ModeCruising, last.Mode)
	assert.Zero(t, last.SpeedTarget)

	mv := r.maneuvers()
	require.Len(t, mv, 1)
	assert.False(t, mv[0].Aborted)
	assert.Equal(t, core.ObstacleID("standing-1"), mv[0].ObstacleID)
	assert.Len(t, mv[0].Waypoints, 4)
	assert.Equal(t, "session-1", mv[0].SessionID)

	entered := false
	for _, res := range r.results {
		if res.Mode == core.ModeAvoiding {
			entered = true
			assert.Equal(t, 1.5, res.SpeedTarget, "tick %d", res.Tick)
		}
		if res.Maneuver != nil {
			assert.Equal(t, core.ModeAvoiding, res.Mode, "bypass starts on the tick it is planned")
			require.NotNil(t, res.Transition)
			assert.Equal(t, core.ModeAvoiding, res.Transition.To)
		}
	}
	assert.True(t, entered)

	// the bypass swerves left of the lane and rejoins it
	minX := 0.0
	for _, e := range r.pub.byCommand(core.CommandTick) {
		rec := e.Payload.(*core.TickRecord)
		minX = min(minX, rec.Position.X)
	}
	assert.Less(t, minX, -1.0)
	assert.InDelta(t, 0, r.world.Nav.State().Pose.Position.X, 0.5)
}

func TestAgent_CrossingPedestrianSlowsDown(t *testing.T) {
	r := runScenario(t, "crossing", 300)

	require.True(t, r.results[len(r.results)-1].Arrived)
	modes := r.modes()
	assert.Positive(t, modes[core.ModeSlowingDown])
	assert.Zero(t, modes[core.ModeAvoiding])
	assert.Empty(t, r.maneuvers())

	for _, res := range r.results {
		if res.Mode == core.ModeSlowingDown {
			assert.Equal(t, 1.5, res.SpeedTarget)
		}
	}
}

func TestAgent_WalkawayKeepsCruising(t *testing.T) {
	r := runScenario(t, "walkaway", 300)

	require.True(t, r.results[len(r.results)-1].Arrived)
	seen := false
	for _, res := range r.results[:len(r.results)-1] {
		assert.Equal(t, core.ModeCruising, res.Mode)
		assert.Equal(t, 5.0, res.SpeedTarget)
		if len(res.Visible) > 0 {
			seen = true
		}
	}
	assert.True(t, seen, "the pedestrian should have been in view")
}

func TestAgent_BlockedBypassIsAbandoned(t *testing.T) {
	r := runScenario(t, "blocked", 300)

	require.True(t, r.results[len(r.results)-1].Arrived)
	mv := r.maneuvers()
	require.NotEmpty(t, mv)
	for _, m := range mv {
		assert.True(t, m.Aborted)
		assert.Empty(t, m.Waypoints)
	}
	assert.Zero(t, r.modes()[core.ModeAvoiding])
	assert.Len(t, r.pub.byCommand(core.CommandManeuver), len(mv))
}

func TestAgent_PublishesEveryTick(t *testing.T) {
	r := runScenario(t, "crossing", 300)

	ticks := r.pub.byCommand(core.CommandTick)
	require.Len(t, ticks, len(r.results))
	for i, e := range ticks {
		rec := e.Payload.(*core.TickRecord)
		assert.Equal(t, uint64(i+1), rec.Tick)
		assert.Equal(t, "session-1", rec.SessionID)
		assert.Equal(t, r.results[i].Mode, rec.Mode)
		assert.Equal(t, r.results[i].SpeedTarget, rec.SpeedTarget)
		assert.Equal(t, len(r.results[i].Visible), rec.Visible)
		if rec.Visible == 0 {
			assert.Equal(t, -1.0, rec.NearestDistance)
		}
	}

	transitions := r.pub.byCommand(core.CommandTransition)
	require.Len(t, transitions, 2)
	first := transitions[0].Payload.(*core.ModeTransition)
	assert.Equal(t, core.ModeCruising, first.From)
	assert.Equal(t, core.ModeSlowingDown, first.To)
	assert.NotZero(t, first.Tick)
	assert.Equal(t, uint64(len(r.results)), r.agent.Ticks())
}

type stillNav struct {
	state core.NavState
}

func (n *stillNav) SetDestination(core.Point3) {}
func (n *stillNav) SetSpeed(float64)           {}
func (n *stillNav) State() core.NavState       { return n.state }

type emptyQuery struct{}

func (emptyQuery) QueryNearby(core.Point3, float64, core.LayerMask) []core.Obstacle { return nil }

type noSurface struct{}

func (noSurface) Snap(core.Point3, float64) (core.Point3, bool) { return core.Point3{}, false }

func TestAgent_SteeringHeldWhenSlow(t *testing.T) {
	nav := &stillNav{state: core.NavState{
		Pose:              core.Pose{Forward: core.Point3{Z: 1}},
		Velocity:          core.Point3{X: 0.5, Z: 2},
		RemainingDistance: 20,
	}}
	a, err := New(config.DefaultAgentConfig(), nav, emptyQuery{}, noSurface{})
	require.NoError(t, err)

	res := a.Tick(200 * time.Millisecond)
	require.True(t, res.Steering.Applied)
	assert.InDelta(t, 15, res.Steering.SteerYaw, 1e-9)

	nav.state.Velocity = core.Point3{Z: 0.01}
	res = a.Tick(200 * time.Millisecond)
	assert.False(t, res.Steering.Applied)
	assert.InDelta(t, 15, res.Steering.SteerYaw, 1e-9, "yaw is held below the minimum speed")
	assert.InDelta(t, 0.01*360*0.2, res.Steering.WheelSpinDelta, 1e-9)
}

func TestAgent_InvalidConfig(t *testing.T) {
	cfg := config.DefaultAgentConfig()
	cfg.MaxHistory = 0

	_, err := New(cfg, &stillNav{}, emptyQuery{}, noSurface{})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestAgent_LogAttrs(t *testing.T) {
	a, err := New(config.DefaultAgentConfig(), &stillNav{state: core.NavState{RemainingDistance: 5}}, emptyQuery{}, noSurface{})
	require.NoError(t, err)
	a.Tick(200 * time.Millisecond)

	attrs := a.LogAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, uint64(1), attrs[0].Value.Uint64())
	assert.Equal(t, "CRUISING", attrs[1].Value.String())
}

func TestAgent_WithDispatcher(t *testing.T) {
	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)

	var mu sync.Mutex
	var got []*core.TickRecord
	d.Register(core.CommandTick, func(e core.Event) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Payload.(*core.TickRecord))
		return nil, nil
	}, dispatcher.Buffered(16))

	a, err := New(config.DefaultAgentConfig(), &stillNav{state: core.NavState{RemainingDistance: 5}}, emptyQuery{}, noSurface{}, WithPublisher(d))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		a.Tick(200 * time.Millisecond)
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 5)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
