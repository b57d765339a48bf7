package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crossingguard/autopilot/internal/agent"
	"github.com/crossingguard/autopilot/internal/api"
	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/dispatcher"
	"github.com/crossingguard/autopilot/internal/logging"
	"github.com/crossingguard/autopilot/internal/monitor"
	intOtel "github.com/crossingguard/autopilot/internal/otel"
	"github.com/crossingguard/autopilot/internal/sim"
	"github.com/crossingguard/autopilot/internal/storage"
	"github.com/crossingguard/autopilot/internal/worker"
	"github.com/crossingguard/autopilot/pkg/core"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const AppName = "autopilot"

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	SessionStartTime = time.Now()
)

type runOptions struct {
	configDir string
	scenario  string
	maxTicks  int
	dt        time.Duration
}

func main() {
	opts := runOptions{}
	flag.StringVar(&opts.configDir, "config", ".", "directory containing "+config.FileName)
	flag.StringVar(&opts.scenario, "scenario", "standing", "scenario to drive ("+strings.Join(sim.Names(), ", ")+")")
	flag.IntVar(&opts.maxTicks, "ticks", 600, "maximum number of ticks before giving up")
	flag.DurationVar(&opts.dt, "dt", 0, "tick length; defaults to agent.checkInterval")
	flag.Parse()

	args := flag.Args()
	cmd := "run"
	if len(args) > 0 {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = run(opts)
	case "scenarios":
		for _, name := range sim.Names() {
			s, _ := sim.Lookup(name)
			fmt.Printf("%-10s %s\n", name, s.Description)
		}
	case "export":
		if len(args) < 2 {
			err = errors.New("usage: autopilot [-config dir] export <sqlite|postgres> <session id>...")
			break
		}
		setupLogging(opts.configDir, "export")
		err = exportSessions(args[0], args[1:])
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if SlogManager != nil {
		_ = SlogManager.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setupLogging loads the config and routes the process logger to the
// per-session log file and, when enabled, to Graylog.
func setupLogging(configDir, scenario string) {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info")
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
		return
	}

	logFilePath := logging.LogFilePath(logsDir, AppName, scenario, SessionStartTime)
	if _, err := os.Stat(logFilePath); err == nil {
		_ = os.Rename(logFilePath, logFilePath+".old")
	}
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logFilePath)
		return
	}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, err := SlogManager.AddGraylog(gl.Address, viper.GetString("logLevel"))
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			extra = append(extra, h)
		}
	}

	SlogManager.Setup(logFile, viper.GetString("logLevel"), extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logFilePath)
}

func run(opts runOptions) error {
	setupLogging(opts.configDir, opts.scenario)

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{Enabled: otelCfg.Enabled, ServiceName: otelCfg.ServiceName}, nil)
	if err != nil {
		Logger.Error("Failed to initialize OTel provider, metrics disabled", "error", err)
		provider, _ = intOtel.New(intOtel.Config{}, nil)
	}
	provider.Install()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	agentCfg, err := config.GetAgentConfig()
	if err != nil {
		return err
	}
	dt := opts.dt
	if dt <= 0 {
		dt = agentCfg.CheckInterval
	}

	scenario, err := sim.Lookup(opts.scenario)
	if err != nil {
		return err
	}
	world := scenario.NewWorld(agentCfg.PedestrianLayer)

	backend, err := createStorageBackend()
	if err != nil {
		return err
	}
	if backend != nil {
		defer func() {
			if err := backend.Close(); err != nil {
				Logger.Error("Failed to close storage backend", "error", err)
			}
		}()
	}

	session := &core.Session{
		ID:        uuid.NewString(),
		Scenario:  scenario.Name,
		StartTime: SessionStartTime,
		Target:    scenario.Target,
		Version:   Version,
	}
	if backend != nil {
		if err := backend.StartSession(session); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	dispatchLog := logging.NewZerolog(os.Stderr, viper.GetString("logLevel"))
	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(dispatchLog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	workerManager := worker.NewManager(backend, Logger)
	workerManager.RegisterHandlers(eventDispatcher, config.GetRecorderConfig().Buffer)

	a, err := agent.New(agentCfg, world.Nav, world.Crowd, world.Ground,
		agent.WithLogger(Logger),
		agent.WithPublisher(eventDispatcher),
		agent.WithSession(session.ID),
	)
	if err != nil {
		return err
	}
	SlogManager.SetContextProvider(a.LogAttrs)
	Logger = SlogManager.Logger()
	a.SetTarget(scenario.Target)

	monitorService := monitor.NewService(monitor.Dependencies{
		Logger:     Logger,
		Recorder:   workerManager,
		Drops:      eventDispatcher,
		StatusPath: filepath.Join(viper.GetString("logsDir"), "status.json"),
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}

	Logger.Info("Starting scenario",
		"scenario", scenario.Name,
		"session", session.ID,
		"dt", dt,
		"target", scenario.Target,
	)

	var (
		last        core.TickResult
		transitions int
		maneuvers   int
	)
	for i := 0; i < opts.maxTicks; i++ {
		last = a.Tick(dt)
		if last.Transition != nil {
			transitions++
		}
		if last.Maneuver != nil {
			maneuvers++
		}
		monitorService.Update(monitor.Status{
			SessionID:   session.ID,
			Scenario:    scenario.Name,
			Tick:        last.Tick,
			Mode:        last.Mode,
			SpeedTarget: last.SpeedTarget,
			Tracked:     a.Tracked(),
			Arrived:     last.Arrived,
		})
		if last.Arrived {
			break
		}
		world.Advance(dt)
	}

	eventDispatcher.Close()
	monitorService.Stop()
	if backend != nil {
		if err := backend.EndSession(); err != nil {
			Logger.Error("Failed to end session", "error", err)
		}
	}

	state := world.Nav.State()
	Logger.Info("Scenario finished",
		"ticks", last.Tick,
		"arrived", last.Arrived,
		"mode", last.Mode,
		"transitions", transitions,
		"maneuvers", maneuvers,
		"recorded", workerManager.Recorded(),
		"recordFailures", workerManager.Failed(),
	)

	fmt.Printf("scenario:    %s\n", scenario.Name)
	fmt.Printf("session:     %s\n", session.ID)
	fmt.Printf("ticks:       %d (%s simulated)\n", last.Tick, time.Duration(last.Tick)*dt)
	fmt.Printf("arrived:     %t\n", last.Arrived)
	fmt.Printf("final pos:   (%.2f, %.2f, %.2f)\n", state.Pose.Position.X, state.Pose.Position.Y, state.Pose.Position.Z)
	fmt.Printf("transitions: %d\n", transitions)
	fmt.Printf("maneuvers:   %d\n", maneuvers)
	if dropped := eventDispatcher.Dropped(); dropped > 0 {
		fmt.Printf("dropped:     %d events\n", dropped)
	}
	if exp, ok := backend.(storage.Exportable); ok && exp.ExportedFilePath() != "" {
		path, _ := filepath.Abs(exp.ExportedFilePath())
		fmt.Printf("recording:   %s\n", path)
		uploadRecording(path, api.UploadMetadata{
			SessionID: session.ID,
			Scenario:  scenario.Name,
			Duration:  time.Duration(last.Tick) * dt,
			Ticks:     last.Tick,
			Arrived:   last.Arrived,
		})
	}

	if !last.Arrived {
		return fmt.Errorf("did not arrive within %d ticks", opts.maxTicks)
	}
	return nil
}

// uploadRecording sends the exported recording to the archive server when
// api.upload is set. Failures are logged; the local file is kept either way.
func uploadRecording(path string, meta api.UploadMetadata) {
	apiCfg := config.GetAPIConfig()
	if !apiCfg.Upload {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
	if err := client.Healthcheck(ctx); err != nil {
		Logger.Warn("Archive server unreachable, recording not uploaded", "error", err, "path", path)
		return
	}
	if err := client.Upload(ctx, path, meta); err != nil {
		Logger.Error("Failed to upload recording", "error", err, "path", path)
		return
	}
	Logger.Info("Uploaded recording", "path", path, "server", apiCfg.ServerURL)
	fmt.Printf("uploaded:    %s\n", apiCfg.ServerURL)
}
