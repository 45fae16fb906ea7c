package directory

// Logger defines the logging interface used by the chat directory
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Observer receives import/export outcomes, typically backed by Prometheus collectors.
type Observer interface {
	ImportCompleted(format string, err error)
	ExportCompleted(format string, err error)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

type noopObserver struct{}

func (noopObserver) ImportCompleted(string, error) {}
func (noopObserver) ExportCompleted(string, error) {}
