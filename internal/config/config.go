package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/crossingguard/autopilot/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "autopilot.cfg.json"

// ErrInvalid is returned by Validate for out-of-range tunables.
var ErrInvalid = errors.New("invalid configuration")

// AgentConfig holds the decision-core tunables.
type AgentConfig struct {
	DetectionRadius          float64       `json:"detectionRadius" mapstructure:"detectionRadius"`
	ViewAngle                float64       `json:"viewAngle" mapstructure:"viewAngle"` // full cone aperture, degrees
	SlowDownDistance         float64       `json:"slowDownDistance" mapstructure:"slowDownDistance"`
	NormalSpeed              float64       `json:"normalSpeed" mapstructure:"normalSpeed"`
	SlowSpeed                float64       `json:"slowSpeed" mapstructure:"slowSpeed"`
	AvoidOffset              float64       `json:"avoidOffset" mapstructure:"avoidOffset"`
	AvoidCurveForwardOffset  float64       `json:"avoidCurveForwardOffset" mapstructure:"avoidCurveForwardOffset"`
	PedestrianStillThreshold float64       `json:"pedestrianStillThreshold" mapstructure:"pedestrianStillThreshold"`
	StillTimeThreshold       time.Duration `json:"stillTimeThreshold" mapstructure:"stillTimeThreshold"`
	PedestrianSpeed          float64       `json:"pedestrianSpeed" mapstructure:"pedestrianSpeed"`
	PredictionTime           time.Duration `json:"predictionTime" mapstructure:"predictionTime"`
	CheckInterval            time.Duration `json:"checkInterval" mapstructure:"checkInterval"`
	MaxHistory               int           `json:"maxHistory" mapstructure:"maxHistory"`

	ArrivalDistance     float64        `json:"arrivalDistance" mapstructure:"arrivalDistance"`
	SnapMaxDistance     float64        `json:"snapMaxDistance" mapstructure:"snapMaxDistance"`
	LowConfidenceCutoff float64        `json:"lowConfidenceCutoff" mapstructure:"lowConfidenceCutoff"`
	WheelSpinRate       float64        `json:"wheelSpinRate" mapstructure:"wheelSpinRate"` // degrees per unit travelled
	MaxSteerAngle       float64        `json:"maxSteerAngle" mapstructure:"maxSteerAngle"` // degrees
	SteerMinSpeed       float64        `json:"steerMinSpeed" mapstructure:"steerMinSpeed"`
	PedestrianLayer     core.LayerMask `json:"pedestrianLayer" mapstructure:"pedestrianLayer"`
}

// DefaultAgentConfig returns the stock tunables without touching viper.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		DetectionRadius:          10,
		ViewAngle:                60,
		SlowDownDistance:         3,
		NormalSpeed:              5,
		SlowSpeed:                1.5,
		AvoidOffset:              2,
		AvoidCurveForwardOffset:  3,
		PedestrianStillThreshold: 0.1,
		StillTimeThreshold:       time.Second,
		PedestrianSpeed:          1.5,
		PredictionTime:           time.Second,
		CheckInterval:            200 * time.Millisecond,
		MaxHistory:               5,
		ArrivalDistance:          0.5,
		SnapMaxDistance:          1.0,
		LowConfidenceCutoff:      0.05,
		WheelSpinRate:            360,
		MaxSteerAngle:            30,
		SteerMinSpeed:            0.1,
		PedestrianLayer:          core.LayerPedestrian,
	}
}

// HalfAngle returns half the view cone aperture in degrees.
func (c AgentConfig) HalfAngle() float64 {
	return c.ViewAngle / 2
}

// Validate checks that the tunables are usable.
func (c AgentConfig) Validate() error {
	switch {
	case c.DetectionRadius <= 0:
		return fmt.Errorf("%w: detectionRadius must be positive, got %f", ErrInvalid, c.DetectionRadius)
	case c.ViewAngle <= 0 || c.ViewAngle > 360:
		return fmt.Errorf("%w: viewAngle must be in (0, 360], got %f", ErrInvalid, c.ViewAngle)
	case c.SlowDownDistance < 0:
		return fmt.Errorf("%w: slowDownDistance must be non-negative, got %f", ErrInvalid, c.SlowDownDistance)
	case c.SlowSpeed < 0 || c.NormalSpeed < 0:
		return fmt.Errorf("%w: speeds must be non-negative", ErrInvalid)
	case c.SlowSpeed > c.NormalSpeed:
		return fmt.Errorf("%w: slowSpeed %f exceeds normalSpeed %f", ErrInvalid, c.SlowSpeed, c.NormalSpeed)
	case c.MaxHistory < 1:
		return fmt.Errorf("%w: maxHistory must be at least 1, got %d", ErrInvalid, c.MaxHistory)
	case c.CheckInterval <= 0:
		return fmt.Errorf("%w: checkInterval must be positive, got %s", ErrInvalid, c.CheckInterval)
	case c.PedestrianSpeed < 0:
		return fmt.Errorf("%w: pedestrianSpeed must be non-negative, got %f", ErrInvalid, c.PedestrianSpeed)
	case c.ArrivalDistance <= 0:
		return fmt.Errorf("%w: arrivalDistance must be positive, got %f", ErrInvalid, c.ArrivalDistance)
	}
	return nil
}

// RecorderConfig selects and configures the recording backend.
type RecorderConfig struct {
	Type   string       `json:"type" mapstructure:"type"` // memory, sqlite, postgres, influx, none
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Buffer int          `json:"buffer" mapstructure:"buffer"`
}

// MemoryConfig holds in-memory/JSON recorder settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the sqlite recorder settings. An empty Path keeps the DB
// in memory; DumpPath, when set, receives a copy at the end of the session.
type SQLiteConfig struct {
	Path     string `json:"path" mapstructure:"path"`
	DumpPath string `json:"dumpPath" mapstructure:"dumpPath"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// InfluxConfig holds InfluxDB settings.
type InfluxConfig struct {
	Enabled    bool
	Host       string
	Port       string
	Protocol   string
	Token      string
	Org        string
	Bucket     string
	BackupPath string // gzipped line protocol written while the server is unreachable
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled     bool
	ServiceName string
}

// GraylogConfig holds GELF shipping settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// GeoConfig anchors the scene origin for geographic exports.
type GeoConfig struct {
	Enabled   bool
	Longitude float64
	Latitude  float64
}

// APIConfig holds the recording upload settings.
type APIConfig struct {
	Upload    bool
	ServerURL string
	APIKey    string
}

// SetDefaults registers every default with viper.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./autopilotlogs")

	d := DefaultAgentConfig()
	viper.SetDefault("agent.detectionRadius", d.DetectionRadius)
	viper.SetDefault("agent.viewAngle", d.ViewAngle)
	viper.SetDefault("agent.slowDownDistance", d.SlowDownDistance)
	viper.SetDefault("agent.normalSpeed", d.NormalSpeed)
	viper.SetDefault("agent.slowSpeed", d.SlowSpeed)
	viper.SetDefault("agent.avoidOffset", d.AvoidOffset)
	viper.SetDefault("agent.avoidCurveForwardOffset", d.AvoidCurveForwardOffset)
	viper.SetDefault("agent.pedestrianStillThreshold", d.PedestrianStillThreshold)
	viper.SetDefault("agent.stillTimeThreshold", "1s")
	viper.SetDefault("agent.pedestrianSpeed", d.PedestrianSpeed)
	viper.SetDefault("agent.predictionTime", "1s")
	viper.SetDefault("agent.checkInterval", "200ms")
	viper.SetDefault("agent.maxHistory", d.MaxHistory)
	viper.SetDefault("agent.arrivalDistance", d.ArrivalDistance)
	viper.SetDefault("agent.snapMaxDistance", d.SnapMaxDistance)
	viper.SetDefault("agent.lowConfidenceCutoff", d.LowConfidenceCutoff)
	viper.SetDefault("agent.wheelSpinRate", d.WheelSpinRate)
	viper.SetDefault("agent.maxSteerAngle", d.MaxSteerAngle)
	viper.SetDefault("agent.steerMinSpeed", d.SteerMinSpeed)
	viper.SetDefault("agent.pedestrianLayer", uint32(d.PedestrianLayer))

	viper.SetDefault("recorder.type", "memory")
	viper.SetDefault("recorder.buffer", 1024)
	viper.SetDefault("recorder.memory.outputDir", "./recordings")
	viper.SetDefault("recorder.memory.compressOutput", true)
	viper.SetDefault("recorder.sqlite.path", "")
	viper.SetDefault("recorder.sqlite.dumpPath", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "autopilot")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "autopilot")
	viper.SetDefault("influx.bucket", "agent_telemetry")
	viper.SetDefault("influx.backupPath", "./autopilotlogs/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "autopilot")

	viper.SetDefault("geo.enabled", false)
	viper.SetDefault("geo.longitude", 0.0)
	viper.SetDefault("geo.latitude", 0.0)

	viper.SetDefault("api.upload", false)
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetAgentConfig returns the validated decision-core tunables.
func GetAgentConfig() (AgentConfig, error) {
	cfg := AgentConfig{
		DetectionRadius:          viper.GetFloat64("agent.detectionRadius"),
		ViewAngle:                viper.GetFloat64("agent.viewAngle"),
		SlowDownDistance:         viper.GetFloat64("agent.slowDownDistance"),
		NormalSpeed:              viper.GetFloat64("agent.normalSpeed"),
		SlowSpeed:                viper.GetFloat64("agent.slowSpeed"),
		AvoidOffset:              viper.GetFloat64("agent.avoidOffset"),
		AvoidCurveForwardOffset:  viper.GetFloat64("agent.avoidCurveForwardOffset"),
		PedestrianStillThreshold: viper.GetFloat64("agent.pedestrianStillThreshold"),
		StillTimeThreshold:       viper.GetDuration("agent.stillTimeThreshold"),
		PedestrianSpeed:          viper.GetFloat64("agent.pedestrianSpeed"),
		PredictionTime:           viper.GetDuration("agent.predictionTime"),
		CheckInterval:            viper.GetDuration("agent.checkInterval"),
		MaxHistory:               viper.GetInt("agent.maxHistory"),
		ArrivalDistance:          viper.GetFloat64("agent.arrivalDistance"),
		SnapMaxDistance:          viper.GetFloat64("agent.snapMaxDistance"),
		LowConfidenceCutoff:      viper.GetFloat64("agent.lowConfidenceCutoff"),
		WheelSpinRate:            viper.GetFloat64("agent.wheelSpinRate"),
		MaxSteerAngle:            viper.GetFloat64("agent.maxSteerAngle"),
		SteerMinSpeed:            viper.GetFloat64("agent.steerMinSpeed"),
		PedestrianLayer:          core.LayerMask(viper.GetUint32("agent.pedestrianLayer")),
	}
	if err := cfg.Validate(); err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

// GetRecorderConfig returns the recorder section.
func GetRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Type:   viper.GetString("recorder.type"),
		Buffer: viper.GetInt("recorder.buffer"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("recorder.memory.outputDir"),
			CompressOutput: viper.GetBool("recorder.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:     viper.GetString("recorder.sqlite.path"),
			DumpPath: viper.GetString("recorder.sqlite.dumpPath"),
		},
	}
}

// GetDBConfig returns the postgres section.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the influx section.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:     viper.GetBool("otel.enabled"),
		ServiceName: viper.GetString("otel.serviceName"),
	}
}

// GetGraylogConfig returns the graylog section.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetGeoConfig returns the geo section.
func GetGeoConfig() GeoConfig {
	return GeoConfig{
		Enabled:   viper.GetBool("geo.enabled"),
		Longitude: viper.GetFloat64("geo.longitude"),
		Latitude:  viper.GetFloat64("geo.latitude"),
	}
}

// GetAPIConfig returns the api section.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Upload:    viper.GetBool("api.upload"),
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
	}
}
