package statecore

import (
	"io"
	"log/slog"
)

// Logger is an interface for logging operations.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// ErrorHandler is called when an observer returns an error or panics
type ErrorHandler func(err *ObserverError)

// Option configures a Statecore
type Option func(*config)

type config struct {
	id            string
	logger        Logger
	observability Observability
	errorHandler  ErrorHandler
}

// defaultConfig returns the default configuration
func defaultConfig() *config {
	return &config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithID sets the instance ID instead of a generated UUID
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithLogger sets the logger used for observer failures and lifecycle messages
func WithLogger(logger Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObservability installs tracing/metrics hooks around every dispatch
func WithObservability(obs Observability) Option {
	return func(c *config) {
		c.observability = obs
	}
}

// WithErrorHandler sets a function to be called when an observer fails.
// It runs before the EventObserverError dispatch. A panic in handler is
// recovered and logged.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}
