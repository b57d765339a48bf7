package perception

import (
	"log/slog"
	"time"

	"github.com/crossingguard/autopilot/internal/geo"
	"github.com/crossingguard/autopilot/pkg/core"
)

// SpatialQuery returns dynamic obstacles near a point.
type SpatialQuery interface {
	QueryNearby(center core.Point3, radius float64, layers core.LayerMask) []core.Obstacle
}

// Scanner detects obstacles in the forward view cone and owns their tracking records.
type Scanner struct {
	query      SpatialQuery
	layers     core.LayerMask
	maxHistory int
	records    map[core.ObstacleID]*Record
	logger     *slog.Logger
}

// NewScanner creates a scanner. maxHistory below 1 is raised to 1.
func NewScanner(query SpatialQuery, layers core.LayerMask, maxHistory int, logger *slog.Logger) *Scanner {
	if maxHistory < 1 {
		maxHistory = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		query:      query,
		layers:     layers,
		maxHistory: maxHistory,
		records:    make(map[core.ObstacleID]*Record),
		logger:     logger.With("component", "scanner"),
	}
}

// Scan queries the surroundings, updates the record of every obstacle inside
// the view cone and evicts every record not seen this scan. The visible
// obstacles are returned in query order.
func (s *Scanner) Scan(pose core.Pose, radius, halfAngle float64, dt time.Duration) []core.Obstacle {
	hits := s.query.QueryNearby(pose.Position, radius, s.layers)

	visible := make([]core.Obstacle, 0, len(hits))
	seen := make(map[core.ObstacleID]struct{}, len(hits))
	for _, o := range hits {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		if !geo.InViewCone(pose.Position, pose.Forward, o.Position, radius, halfAngle) {
			continue
		}
		seen[o.ID] = struct{}{}
		visible = append(visible, o)

		if rec, ok := s.records[o.ID]; ok {
			rec.observe(o, dt)
			continue
		}
		s.records[o.ID] = newRecord(o, s.maxHistory)
		s.logger.Debug("tracking obstacle", "id", o.ID, "position", o.Position)
	}

	for id := range s.records {
		if _, ok := seen[id]; !ok {
			delete(s.records, id)
			s.logger.Debug("lost obstacle", "id", id)
		}
	}

	return visible
}

// Record returns the tracking record for id.
func (s *Scanner) Record(id core.ObstacleID) (*Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Len returns the number of tracked obstacles.
func (s *Scanner) Len() int {
	return len(s.records)
}

// Reset drops every record.
func (s *Scanner) Reset() {
	clear(s.records)
}
