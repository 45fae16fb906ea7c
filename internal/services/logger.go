package services

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger defines common logging interface for all services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// LogConfig controls the process-wide zerolog setup.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output for development
	Output io.Writer
}

// InitGlobalLogger configures the global zerolog logger. Repositories log
// through it directly; services get a component-scoped ZeroLogger.
func InitGlobalLogger(cfg LogConfig) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Str("app", "soliloquy").Logger()
}

// ParseLevel maps LOG_LEVEL values onto zerolog levels, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ZeroLogger adapts a zerolog.Logger to the key/value Logger interface.
type ZeroLogger struct {
	zlog zerolog.Logger
}

// NewLogger returns a logger tagged with the given component name.
// GO_ENV=test silences it.
func NewLogger(component string) Logger {
	if os.Getenv("GO_ENV") == "test" {
		return &NoOpLogger{}
	}
	return &ZeroLogger{zlog: log.Logger.With().Str("component", component).Logger()}
}

// NewZeroLogger wraps an explicit zerolog logger, mostly for tests that capture output.
func NewZeroLogger(zlog zerolog.Logger, component string) *ZeroLogger {
	return &ZeroLogger{zlog: zlog.With().Str("component", component).Logger()}
}

func (l *ZeroLogger) Info(msg string, keysAndValues ...interface{}) {
	l.write(l.zlog.Info(), msg, keysAndValues)
}

func (l *ZeroLogger) Error(msg string, keysAndValues ...interface{}) {
	l.write(l.zlog.Error(), msg, keysAndValues)
}

func (l *ZeroLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.write(l.zlog.Debug(), msg, keysAndValues)
}

func (l *ZeroLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.write(l.zlog.Warn(), msg, keysAndValues)
}

func (l *ZeroLogger) write(event *zerolog.Event, msg string, keysAndValues []interface{}) {
	if event == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	event.Msg(msg)
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}
