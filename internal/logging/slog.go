package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// SlogManager owns the process logger and any network sinks it writes to.
type SlogManager struct {
	mu       sync.Mutex
	base     slog.Handler
	logger   *slog.Logger
	provider ContextProvider
	closers  []io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}
}

// Setup builds the logger. Output goes to file when one is given, otherwise
// to stdout. Extra handlers (e.g. from NewGELFHandler) receive every record too.
func (m *SlogManager) Setup(file io.Writer, level string, extra ...slog.Handler) {
	opts := handlerOptions(level)

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(stdout, opts))
	}
	handlers = append(handlers, extra...)

	m.mu.Lock()
	m.base = NewMultiHandler(handlers...)
	m.rebuild()
	logger := m.logger
	m.mu.Unlock()

	logger.Info("Logging initialized", "level", level)
}

// SetContextProvider attaches dynamic attributes (tick, mode, ...) to every record.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
	m.rebuild()
}

func (m *SlogManager) rebuild() {
	if m.base == nil {
		return
	}
	m.logger = slog.New(NewContextHandler(m.base, m.provider))
}

// AddGraylog opens a GELF writer to address and returns a JSON handler on it.
// The writer is closed by Close.
func (m *SlogManager) AddGraylog(address, level string) (slog.Handler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("graylog writer %s: %w", address, err)
	}
	m.mu.Lock()
	m.closers = append(m.closers, w)
	m.mu.Unlock()
	return slog.NewJSONHandler(w, handlerOptions(level)), nil
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases network sinks.
func (m *SlogManager) Close() error {
	m.mu.Lock()
	closers := m.closers
	m.closers = nil
	m.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteLog writes msg at the named level, tagged with the emitting component.
func (m *SlogManager) WriteLog(component, msg, level string) {
	m.mu.Lock()
	logger := m.logger
	m.mu.Unlock()
	if logger == nil {
		return
	}

	switch parseLevel(level) {
	case slog.LevelDebug:
		logger.Debug(msg, "component", component)
	case slog.LevelWarn:
		logger.Warn(msg, "component", component)
	case slog.LevelError:
		logger.Error(msg, "component", component)
	default:
		logger.Info(msg, "component", component)
	}
}
