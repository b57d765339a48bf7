package main

import (
	"fmt"
	"os"

	"github.com/crossingguard/autopilot/internal/config"
	"github.com/crossingguard/autopilot/internal/logging"
	"github.com/crossingguard/autopilot/internal/storage"

	"github.com/spf13/viper"
)

// createStorageBackend builds and initializes the recorder configured under
// "recorder". A nil backend means recording is off.
func createStorageBackend() (storage.Backend, error) {
	recorderCfg := config.GetRecorderConfig()
	dbLog := logging.NewZerolog(os.Stderr, viper.GetString("logLevel"))

	backend, err := storage.NewBackend(storage.Options{
		Recorder: recorderCfg,
		DB:       config.GetDBConfig(),
		Influx:   config.GetInfluxConfig(),
		Geo:      config.GetGeoConfig(),
		Logger:   Logger,
		DBLogger: &dbLog,
	})
	if err != nil {
		return nil, err
	}
	if backend == nil {
		Logger.Info("Recording disabled")
		return nil, nil
	}

	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s recorder: %w", recorderCfg.Type, err)
	}
	Logger.Info("Recorder initialized", "type", recorderCfg.Type)
	return backend, nil
}
