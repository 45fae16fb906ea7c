package store

import "time"

// Logger defines the logging interface used by the store
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Observer receives transaction outcomes, typically backed by Prometheus collectors.
type Observer interface {
	TransactionCompleted(operation string, duration time.Duration, err error)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}

type noopObserver struct{}

func (noopObserver) TransactionCompleted(string, time.Duration, error) {}
