package live

import "time"

// Logger defines the logging interface used by the live query layer
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Observer receives query lifecycle events, typically backed by Prometheus collectors.
type Observer interface {
	QueryRecomputed(query string, duration time.Duration, err error)
	ResultSuperseded(query string)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

type noopObserver struct{}

func (noopObserver) QueryRecomputed(string, time.Duration, error) {}
func (noopObserver) ResultSuperseded(string)                      {}

type options struct {
	name     string
	logger   Logger
	observer Observer
}

// Option configures a query or binding.
type Option func(*options)

func WithName(name string) Option { return func(o *options) { o.name = name } }

func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{name: "query", logger: noopLogger{}, observer: noopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
