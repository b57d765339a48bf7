package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&TickRecord{},
	&ModeTransition{},
	&Maneuver{},
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Session is one run of the agent.
type Session struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Scenario  string     `json:"scenario" gorm:"size:64;index:idx_session_scenario"`
	StartTime time.Time  `json:"startTime" gorm:"index:idx_session_start"`
	EndTime   *time.Time `json:"endTime"`
	Target    geom.Point `json:"target"`
	Version   string     `json:"version" gorm:"size:64"`
	Ticks     uint64     `json:"ticks"`
	Arrived   bool       `json:"arrived" gorm:"default:false"`
}

func (*Session) TableName() string {
	return "sessions"
}

// TickRecord is the vehicle state and decision output of one tick.
// Position is stored as (easting, northing, elevation). NearestDistance is -1
// when nothing was visible.
type TickRecord struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string    `json:"sessionId" gorm:"size:36;index:idx_tickrecord_session_id"`
	Session   Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick      uint64    `json:"tick" gorm:"index:idx_tickrecord_tick"`
	Time      time.Time `json:"time"`

	Position        geom.Point `json:"position"`
	Speed           float64    `json:"speed"`
	Mode            string     `json:"mode" gorm:"size:16"`
	SpeedTarget     float64    `json:"speedTarget"`
	Tracked         int        `json:"tracked"`
	Visible         int        `json:"visible"`
	NearestDistance float64    `json:"nearestDistance"`
	Arrived         bool       `json:"arrived" gorm:"default:false"`
	SteerYaw        float64    `json:"steerYaw"`
	WheelSpinDelta  float64    `json:"wheelSpinDelta"`
}

func (*TickRecord) TableName() string {
	return "tick_records"
}

// ModeTransition is a change of driving mode.
type ModeTransition struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string    `json:"sessionId" gorm:"size:36;index:idx_modetransition_session_id"`
	Session   Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick      uint64    `json:"tick"`
	Time      time.Time `json:"time"`
	FromMode  string    `json:"from" gorm:"size:16"`
	ToMode    string    `json:"to" gorm:"size:16"`
	Reason    string    `json:"reason" gorm:"size:127"`
}

func (*ModeTransition) TableName() string {
	return "mode_transitions"
}

// Maneuver is a planned bypass around a stationary pedestrian. Path holds
// the origin followed by the waypoints.
type Maneuver struct {
	ID            uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID     string          `json:"sessionId" gorm:"size:36;index:idx_maneuver_session_id"`
	Session       Session         `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Tick          uint64          `json:"tick"`
	Time          time.Time       `json:"time"`
	ObstacleID    string          `json:"obstacleId" gorm:"size:64;index:idx_maneuver_obstacle_id"`
	Origin        geom.Point      `json:"origin"`
	ControlPoints datatypes.JSON  `json:"controlPoints" gorm:"default:'[]'"`
	Waypoints     datatypes.JSON  `json:"waypoints" gorm:"default:'[]'"`
	Path          geom.LineString `json:"path"`
	PathLength    float64         `json:"pathLength"`
	Aborted       bool            `json:"aborted" gorm:"default:false"`
}

func (*Maneuver) TableName() string {
	return "maneuvers"
}
