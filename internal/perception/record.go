package perception

import (
	"time"

	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/internal/queue"
	"github.com/crossingguard/autopilot/pkg/core"
)

// Record is the tracking state of one obstacle.
type Record struct {
	ID            core.ObstacleID
	LastPosition  core.Point3
	TimeObserved  time.Duration // accumulated while continuously tracked
	TotalMovement float64
	Age           int

	history *queue.Ring[core.Point3]
}

func newRecord(o core.Obstacle, maxHistory int) *Record {
	r := &Record{
		ID:           o.ID,
		LastPosition: o.Position,
		Age:          o.EffectiveAge(),
		history:      queue.NewRing[core.Point3](maxHistory),
	}
	r.history.Push(o.Position)
	return r
}

func (r *Record) observe(o core.Obstacle, dt time.Duration) {
	r.TotalMovement += geo.Distance(o.Position, r.LastPosition)
	r.LastPosition = o.Position
	r.TimeObserved += dt
	r.Age = o.EffectiveAge()
	r.history.Push(o.Position)
}

// History returns the recorded positions, oldest first.
func (r *Record) History() []core.Point3 {
	return r.history.Slice()
}

// HistoryLen returns the number of stored samples.
func (r *Record) HistoryLen() int {
	return r.history.Len()
}

// IsStill reports whether the obstacle has been watched for at least minTime
// while moving less than maxMovement in total.
func (r *Record) IsStill(minTime time.Duration, maxMovement float64) bool {
	return r.TimeObserved >= minTime && r.TotalMovement < maxMovement
}
